// Package labels builds and caches the two author populations the dataset
// builder routes by: authors with a known gender (train) and authors that
// need a prediction (test). Both maps are built once from compressed
// JSON-lines sources and then served from a Store on later runs.
package labels

import (
	"fmt"
	"strings"
)

// Gender is an author's label in the training population.
type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// ParseGender accepts the two labels used by the source files.
func ParseGender(s string) (Gender, error) {
	switch g := Gender(strings.TrimSpace(s)); g {
	case Male, Female:
		return g, nil
	default:
		return "", fmt.Errorf("unknown gender %q", s)
	}
}

// Target returns the sign the linear trainer uses for the label.
func (g Gender) Target() int {
	if g == Male {
		return 1
	}
	return -1
}

// Genders maps author ids to their gender.
type Genders map[int64]Gender

// Lookup returns the author's gender and whether the author is labelled.
func (g Genders) Lookup(author int64) (Gender, bool) {
	gender, ok := g[author]
	return gender, ok
}

// AuthorSet is a set of author ids.
type AuthorSet map[int64]struct{}

// Contains reports whether author is in the set.
func (s AuthorSet) Contains(author int64) bool {
	_, ok := s[author]
	return ok
}

// Add inserts author into the set.
func (s AuthorSet) Add(author int64) {
	s[author] = struct{}{}
}

type genderRecord struct {
	Author int64  `json:"author"`
	Gender string `json:"gender"`
}

type authorRecord struct {
	Author int64 `json:"author"`
}
