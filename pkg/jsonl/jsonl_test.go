package jsonl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
)

type post struct {
	Author int64  `json:"author"`
	Text   string `json:"text"`
}

func writeGzip(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(body)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriterReaderStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.jsonlines.gz")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	in := []post{{1, "привет <b>"}, {2, "hello"}, {3, ""}}
	for _, p := range in {
		if err := w.Write(p); err != nil {
			t.Fatal(err)
		}
	}
	if w.Count() != len(in) {
		t.Errorf("Count() = %d, want %d", w.Count(), len(in))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var got []post
	err = Each(path, func(p post) error {
		got = append(got, p)
		return nil
	})
	if err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("read %d records, want %d", len(got), len(in))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], in[i])
		}
	}
}

func TestReaderSkipsBlankLinesAndHandlesMissingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.gz")
	writeGzip(t, path, "{\"author\":1,\"text\":\"a\"}\n\n{\"author\":2,\"text\":\"b\"}")

	n := 0
	if err := Each(path, func(post) error { n++; return nil }); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("read %d records, want 2", n)
	}
}

func TestReaderMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.gz")
	writeGzip(t, path, "{\"author\":1,\"text\":\"a\"}\n{\"author\":\n")

	err := Each(path, func(post) error { return nil })
	if !errors.Is(err, apperrors.ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.gz"))
	if !errors.Is(err, apperrors.ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	if apperrors.ExitCode(err) == apperrors.ExitOK {
		t.Error("missing input must map to a non-zero exit code")
	}
}
