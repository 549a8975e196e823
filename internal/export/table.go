package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ilexum-group/amcache/pkg/models"
)

// FormatSize renders a byte count with a binary unit, rounding down.
func FormatSize(size uint64) string {
	switch {
	case size < 1<<10:
		return fmt.Sprintf("%d B", size)
	case size < 1<<20:
		return fmt.Sprintf("%d KB", size>>10)
	case size < 1<<30:
		return fmt.Sprintf("%d MB", size>>20)
	default:
		return fmt.Sprintf("%d GB", size>>30)
	}
}

// WriteTable writes an aligned, human-readable listing.
func WriteTable(w io.Writer, entries []models.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SHA1\tPATH\tSIZE\tCOMPANY\tPRODUCT\tFIRST RUN\tNOTES")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.SHA1, e.Path, FormatSize(e.Size), e.Company, e.Product,
			e.FirstSeen, strings.Join(e.Notes, NoteSeparator))
	}
	if err := tw.Flush(); err != nil {
		return sinkError(err)
	}
	return nil
}
