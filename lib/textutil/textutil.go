package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var folder = cases.Fold()

// Fold returns the caseless form of s, this is stricter than
// strings.ToLower for scripts like German or Greek.
func Fold(s string) string {
	return folder.String(s)
}

// EqualFold reports whether a and b are the same after trimming and
// unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(strings.TrimSpace(a)) == Fold(strings.TrimSpace(b))
}

// Clean trims the string and collapses every whitespace run into a
// single space.
func Clean(s string) string {
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// StripNonPrintable drops control and formatting characters (ex. the
// left-to-right marks the archive puts in tag counts).
func StripNonPrintable(s string) string {
	var out strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}
