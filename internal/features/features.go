// Package features aggregates the stylometric counters of one post into a
// fixed-width vector. Every vector exposes its values in the same key order,
// which the sparse feature lines rely on.
package features

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/text"
)

// Key indexes a value inside a Vector.
type Key int

const (
	TotChar Key = iota
	TotPunct
	RatioLC
	RatioUC
	RatioComma
	RatioColon
	RatioSemicolon
	RatioQuestion
	RatioExclam
	RatioPeriod
	RatioLeftBrace
	RatioRightBrace
	TotWords
	AvgCharPerWord

	numKeys
)

// AuthorKey names the author field carried next to the numeric values.
const AuthorKey = "author"

var keyNames = [numKeys]string{
	TotChar:         "tot_char",
	TotPunct:        "tot_punct",
	RatioLC:         "ratio_lc",
	RatioUC:         "ratio_uc",
	RatioComma:      "ratio_comma",
	RatioColon:      "ratio_colon",
	RatioSemicolon:  "ratio_semicolon",
	RatioQuestion:   "ratio_question",
	RatioExclam:     "ratio_exclam",
	RatioPeriod:     "ratio_period",
	RatioLeftBrace:  "ratio_left_brace",
	RatioRightBrace: "ratio_right_brace",
	TotWords:        "tot_words",
	AvgCharPerWord:  "avg_char_per_word",
}

// Keys lists every numeric key in output order.
var Keys = func() []Key {
	keys := make([]Key, numKeys)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}()

// Names returns the numeric key names in output order.
func Names() []string {
	names := make([]string, numKeys)
	copy(names, keyNames[:])
	return names
}

func (k Key) String() string {
	if k < 0 || k >= numKeys {
		return "key(" + strconv.Itoa(int(k)) + ")"
	}
	return keyNames[k]
}

// IsCount reports whether the value under k is an integer counter rather
// than a derived ratio.
func (k Key) IsCount() bool {
	return k == TotChar || k == TotPunct || k == TotWords
}

// Vector is the feature vector of a single post.
type Vector struct {
	Author int64
	values [numKeys]float64
}

// Get returns the value stored under k.
func (v *Vector) Get(k Key) float64 {
	return v.values[k]
}

// Each calls fn for every numeric key in output order.
func (v *Vector) Each(fn func(k Key, val float64)) {
	for _, k := range Keys {
		fn(k, v.values[k])
	}
}

// FormatValue renders the value under k the way it appears in a feature
// line: counters as integers, ratios as the shortest exact decimal.
func (v *Vector) FormatValue(k Key) string {
	val := v.values[k]
	if k.IsCount() {
		return strconv.FormatInt(int64(val), 10)
	}
	return strconv.FormatFloat(val, 'f', -1, 64)
}

// Extract aggregates the filtered tokens of one post. Tokens must already
// be limited to words and punctuation; anything that is not a word is
// scanned rune by rune for punctuation marks.
func Extract(author int64, tokens []string) Vector {
	v := Vector{Author: author}
	c := &v.values
	for _, tok := range tokens {
		n := float64(utf8.RuneCountInString(tok))
		c[TotChar] += n
		if text.IsWord(tok) {
			for _, r := range tok {
				if !unicode.IsLetter(r) {
					continue
				}
				if unicode.IsLower(r) {
					c[RatioLC]++
				} else {
					c[RatioUC]++
				}
			}
			c[TotWords]++
			c[AvgCharPerWord] += n
			continue
		}
		for _, r := range tok {
			if text.IsPunct(r) {
				c[TotPunct]++
			}
			if k, ok := markKey(r); ok {
				c[k]++
			}
		}
	}

	balanceBraces(c)

	normalize(c, TotChar, RatioLC, RatioUC)
	normalize(c, TotPunct,
		RatioComma, RatioColon, RatioSemicolon, RatioQuestion,
		RatioExclam, RatioPeriod, RatioLeftBrace, RatioRightBrace)
	normalize(c, TotWords, AvgCharPerWord)
	return v
}

// markKey maps a punctuation rune to the counter it feeds.
func markKey(r rune) (Key, bool) {
	switch r {
	case '(':
		return RatioLeftBrace, true
	case ')':
		return RatioRightBrace, true
	case ',':
		return RatioComma, true
	case ':':
		return RatioColon, true
	case ';':
		return RatioSemicolon, true
	case '.':
		return RatioPeriod, true
	case '?':
		return RatioQuestion, true
	case '!':
		return RatioExclam, true
	default:
		return 0, false
	}
}

// balanceBraces cancels matched parenthesis pairs so only the unmatched
// excess on either side remains: m "(" and n ")" leave max(0, m-n) and
// max(0, n-m).
func balanceBraces(c *[numKeys]float64) {
	left, right := c[RatioLeftBrace], c[RatioRightBrace]
	c[RatioRightBrace] = max(0, right-left)
	c[RatioLeftBrace] = max(0, left-right)
}

// normalize divides each key by the denominator key; a zero denominator
// yields zero.
func normalize(c *[numKeys]float64, denom Key, keys ...Key) {
	d := c[denom]
	for _, k := range keys {
		if d == 0 {
			c[k] = 0
			continue
		}
		c[k] /= d
	}
}
