package text

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// tokenPattern lists the token shapes in priority order. Earlier
// alternatives win when several could start at the same position.
var tokenPattern = regexp.MustCompile(strings.Join([]string{
	// URLs
	`https?://[^\s<>"]+|www\.[^\s<>"]+`,
	// emoticons, both orientations, and hearts
	`[<>]?[:;=8][\-o\*']?[\)\]\(\[dDpP/:\}\{@\|\\]`,
	`[\)\]\(\[dDpP/:\}\{@\|\\][\-o\*']?[:;=8][<>]?`,
	`</?3`,
	// HTML-like tags
	`<[^>\s]+>`,
	// ASCII arrows
	`-+>|<-+`,
	// mentions and hashtags
	`@[\p{L}\p{N}_]+`,
	`#+[\p{L}\p{N}_]+[\p{L}\p{N}'_\-]*[\p{L}\p{N}_]+`,
	// email addresses
	`[\p{L}\p{N}.+\-]+@[\p{L}\p{N}\-]+(?:\.[\p{L}\p{N}\-]+)+`,
	// words with inner apostrophes, hyphens or underscores
	`\p{L}(?:\p{L}|['\-_])+\p{L}`,
	// numbers and fractions
	`[+\-]?\d+[,/.:\-]\d+[+\-]?`,
	// remaining word characters
	`[\p{L}\p{N}_]+`,
	// ellipses, possibly spaced
	`\.(?:\s*\.)+`,
	// anything else, one rune at a time
	`\S`,
}, "|"))

// Tokenize splits s into tweet-style tokens. Case is preserved, HTML
// entities are decoded and runs of three or more identical runes are
// shortened to two ("soooo" becomes "soo").
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	s = html.UnescapeString(s)
	s = collapseRuns(s)
	return tokenPattern.FindAllString(s, -1)
}

// collapseRuns keeps at most two consecutive copies of any rune.
func collapseRuns(s string) string {
	var (
		b     strings.Builder
		prev  rune = utf8.RuneError
		run   int
		dirty bool
	)
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run > 2 {
			if !dirty {
				b.Grow(len(s))
				b.WriteString(s[:i])
				dirty = true
			}
			continue
		}
		if dirty {
			b.WriteRune(r)
		}
	}
	if !dirty {
		return s
	}
	return b.String()
}
