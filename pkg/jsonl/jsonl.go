// Package jsonl streams gzip-compressed newline-delimited JSON files. The
// reader decodes one record per line and reports the line number of any
// record it cannot parse; the writer encodes one record per line.
package jsonl

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
)

// Reader decodes records from a gzip JSON-lines stream.
type Reader struct {
	path string
	file *os.File
	gz   *gzip.Reader
	buf  *bufio.Reader
	line int
}

// Open opens a compressed JSON-lines file for reading. A path that does not
// exist is reported as ErrMissingInput.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitBadInput, "path '%s' does not exist", path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
	}
	return &Reader{
		path: path,
		file: f,
		gz:   gz,
		buf:  bufio.NewReaderSize(gz, 64*1024),
	}, nil
}

// Next decodes the next non-blank line into v. It returns io.EOF once the
// stream is exhausted.
func (r *Reader) Next(v any) error {
	for {
		data, err := r.buf.ReadBytes('\n')
		if len(data) > 0 {
			r.line++
			data = bytes.TrimSpace(data)
			if len(data) > 0 {
				if jsonErr := json.Unmarshal(data, v); jsonErr != nil {
					return fmt.Errorf("%s line %d: %w: %v", r.path, r.line, apperrors.ErrMalformedRecord, jsonErr)
				}
				return nil
			}
		}
		if err == io.EOF {
			return io.EOF
		}
		if err != nil {
			return fmt.Errorf("reading %s line %d: %w", r.path, r.line+1, err)
		}
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int {
	return r.line
}

// Close closes the gzip stream and the underlying file.
func (r *Reader) Close() error {
	gzErr := r.gz.Close()
	if err := r.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// Each reads path to the end and calls fn with every decoded record.
func Each[T any](path string, fn func(T) error) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	for {
		var rec T
		if err := r.Next(&rec); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
}

// Writer encodes records into a gzip JSON-lines file.
type Writer struct {
	file *os.File
	gz   *gzip.Writer
	buf  *bufio.Writer
	enc  *json.Encoder
	n    int
}

// Create truncates or creates path and returns a Writer for it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	gz := gzip.NewWriter(f)
	buf := bufio.NewWriterSize(gz, 64*1024)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{file: f, gz: gz, buf: buf, enc: enc}, nil
}

// Write appends one record followed by a newline.
func (w *Writer) Write(v any) error {
	if err := w.enc.Encode(v); err != nil {
		return fmt.Errorf("encoding record %d: %w", w.n+1, err)
	}
	w.n++
	return nil
}

// Count returns the number of records written so far.
func (w *Writer) Count() int {
	return w.n
}

// Close flushes buffered data, finishes the gzip stream and syncs the file.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flushing records: %w", err)
	}
	if err := w.gz.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("closing gzip stream: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("syncing file: %w", err)
	}
	return w.file.Close()
}
