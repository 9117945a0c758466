// Package slug turns product and collection names into URL path segments.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Letters that do not decompose into base + mark under NFD.
	special = strings.NewReplacer(
		"&", " and ",
		"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o",
		"ł", "l", "đ", "d", "ı", "i", "þ", "th",
	)
)

// Generate creates a URL-friendly slug from name. Diacritics are folded to
// their ASCII base letters.
//
//	"Eau de Parfum Intense" -> "eau-de-parfum-intense"
//	"Rosé Élixir N°5"      -> "rose-elixir-n-5"
//	"Oud & Amber"          -> "oud-and-amber"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = special.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var valid = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return valid.MatchString(s)
}
