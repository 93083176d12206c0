package text

import (
	"fmt"
	"unicode/utf8"
)

// Class is the feature-level category of a token.
type Class int

const (
	Discard     Class = iota // neither a word nor pure punctuation
	Word                     // Latin or Cyrillic letters, inner hyphens allowed
	Punctuation              // ASCII punctuation only
)

func (c Class) String() string {
	switch c {
	case Discard:
		return "Discard"
	case Word:
		return "Word"
	case Punctuation:
		return "Punctuation"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// asciiPunct is the ASCII punctuation set: !"#$%&'()*+,-./:;<=>?@[\]^_`{|}~
const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctSet = func() [128]bool {
	var set [128]bool
	for i := 0; i < len(asciiPunct); i++ {
		set[asciiPunct[i]] = true
	}
	return set
}()

// IsPunct reports whether r is in the ASCII punctuation set.
func IsPunct(r rune) bool {
	return r >= 0 && r < 128 && punctSet[r]
}

// IsLetter reports whether r belongs to the union of the basic Latin and
// the basic Russian Cyrillic alphabets, in either case. The two ranges are
// checked separately; nothing between them counts as a letter.
func IsLetter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я':
		return true
	default:
		return false
	}
}

// IsWord reports whether tok has at least two runes, starts and ends with a
// letter and contains only letters and hyphens in between.
func IsWord(tok string) bool {
	n := utf8.RuneCountInString(tok)
	if n < 2 {
		return false
	}
	i := 0
	for _, r := range tok {
		edge := i == 0 || i == n-1
		switch {
		case IsLetter(r):
		case r == '-' && !edge:
		default:
			return false
		}
		i++
	}
	return true
}

// IsPunctuation reports whether tok is non-empty and made of ASCII
// punctuation only.
func IsPunctuation(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !IsPunct(r) {
			return false
		}
	}
	return true
}

// Classify returns the class of tok. Word takes precedence over
// Punctuation; the two cannot overlap since words start with a letter.
func Classify(tok string) Class {
	switch {
	case IsWord(tok):
		return Word
	case IsPunctuation(tok):
		return Punctuation
	default:
		return Discard
	}
}

// Filter returns the tokens classified Word or Punctuation, in input order.
func Filter(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if Classify(tok) != Discard {
			kept = append(kept, tok)
		}
	}
	return kept
}

// Prepare runs the full text stage: normalize, tokenize, filter.
func Prepare(raw string) []string {
	return Filter(Tokenize(Normalize(raw)))
}
