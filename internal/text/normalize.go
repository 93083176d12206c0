// Package text turns raw post text into the token stream the feature
// aggregator consumes. It canonicalises text, splits it into tweet-style
// tokens and classifies each token as a word, punctuation or noise.
package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern = regexp.MustCompile(`\[(.+?)\]`)
	yoReplacer = strings.NewReplacer("ё", "е")
)

// Normalize trims s, folds "ё" into "е", strips every combining mark after
// canonical decomposition and removes bracketed annotation tags such as
// "[id123|Name]". Whitespace uncovered by tag removal is trimmed as well, so
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = yoReplacer.Replace(s)
	s = stripMarks(s)
	s = tagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// stripMarks returns s in NFD form with all nonspacing marks removed. A
// fresh transformer per call keeps Normalize safe for concurrent use.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
