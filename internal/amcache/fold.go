package amcache

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// fold prepares a string for case-insensitive substring matching.
// A Caser is stateful, so one is created per call.
func fold(s string) string {
	if s == "" {
		return s
	}
	return cases.Lower(language.Und).String(norm.NFC.String(s))
}
