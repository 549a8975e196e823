package models

// Report is the document uploaded to a collection server: the custody record
// of a run followed by its ordered entries.
type Report struct {
	Custody *CustodyRecord `json:"custody"`
	Entries []Entry        `json:"entries"`
}

// NewReport pairs a custody record with the entries of rs.
func NewReport(custody *CustodyRecord, rs *ResultSet) Report {
	return Report{Custody: custody, Entries: rs.Entries()}
}
