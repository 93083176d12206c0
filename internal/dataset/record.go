// Package dataset turns the post stream into the train and test feature
// files. Each routed post becomes one sparse line:
//
//	<target> |num tot_char:12 tot_punct:2 ... |add author=42
package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/features"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
)

// Split names the file a record is routed to.
type Split string

const (
	SplitTrain Split = "train"
	SplitTest  Split = "test"
)

const (
	numNamespace = "num"
	addNamespace = "add"
)

// Record is one routed post.
type Record struct {
	Split  Split
	Target int
	Vector features.Vector
}

// Author returns the author the record belongs to.
func (r Record) Author() int64 {
	return r.Vector.Author
}

// Line renders the record as a newline-terminated sparse feature line.
func (r Record) Line() string {
	var b strings.Builder
	b.Grow(256)
	b.WriteString(strconv.Itoa(r.Target))
	b.WriteString(" |")
	b.WriteString(numNamespace)
	for _, k := range features.Keys {
		b.WriteByte(' ')
		b.WriteString(k.String())
		b.WriteByte(':')
		b.WriteString(r.Vector.FormatValue(k))
	}
	b.WriteString(" |")
	b.WriteString(addNamespace)
	b.WriteByte(' ')
	b.WriteString(features.AuthorKey)
	b.WriteByte('=')
	b.WriteString(strconv.FormatInt(r.Vector.Author, 10))
	b.WriteByte('\n')
	return b.String()
}

// event is the JSON shape published by the Kafka mirror.
type event struct {
	Target   int                `json:"target"`
	Author   int64              `json:"author"`
	Features map[string]float64 `json:"features"`
}

func (r Record) event() event {
	fs := make(map[string]float64, len(features.Keys))
	r.Vector.Each(func(k features.Key, val float64) {
		fs[k.String()] = val
	})
	return event{Target: r.Target, Author: r.Vector.Author, Features: fs}
}

// ParseAuthor extracts the author id from the add namespace of a feature
// line.
func ParseAuthor(line string) (int64, error) {
	parts := strings.Split(strings.TrimRight(line, "\r\n"), "|")
	if len(parts) < 3 {
		return 0, fmt.Errorf("%w: feature line has %d namespaces, want 2", apperrors.ErrMalformedRecord, len(parts)-1)
	}
	fields := strings.Fields(parts[2])
	if len(fields) == 0 || fields[0] != addNamespace {
		return 0, fmt.Errorf("%w: missing %q namespace", apperrors.ErrMalformedRecord, addNamespace)
	}
	prefix := features.AuthorKey + "="
	for _, f := range fields[1:] {
		v, ok := strings.CutPrefix(f, prefix)
		if !ok {
			continue
		}
		author, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: author %q: %v", apperrors.ErrMalformedRecord, v, err)
		}
		return author, nil
	}
	return 0, fmt.Errorf("%w: no %s field", apperrors.ErrMalformedRecord, features.AuthorKey)
}
