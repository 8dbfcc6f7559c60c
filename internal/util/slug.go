package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugTitleLength bounds the title part of a slug.
const MaxSlugTitleLength = 40

var (
	slugUnsafe     = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// FoldAccents removes diacritics: "Pâques à l'école" becomes "Paques a l'ecole".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Slugify builds the record slug from its date and title:
// "2024-12-16" + "Les saisons de Noël" gives "20241216-les-saisons-de-noel".
func Slugify(title, date string) string {
	prefix := strings.ReplaceAll(date, "-", "")

	s := strings.ToLower(FoldAccents(title))
	s = slugUnsafe.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > MaxSlugTitleLength {
		s = s[:MaxSlugTitleLength]
	}
	s = strings.Trim(s, "-")

	switch {
	case prefix == "":
		return s
	case s == "":
		return prefix
	}
	return prefix + "-" + s
}
