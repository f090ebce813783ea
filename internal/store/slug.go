package store

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s, strips accents and joins the remaining words with hyphens.
//
//	Slugify("My Feed!")      => "my-feed"
//	Slugify("  Café  News ") => "cafe-news"
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}
