// Package submission turns the trainer's predictions for the test feature
// file into the gzip JSON-lines answer file.
package submission

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/labels"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/jsonl"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/metrics"
)

// BackupSuffix is appended to an existing answer file before it is
// replaced.
const BackupSuffix = ".bak"

// Answer is one line of the output file.
type Answer struct {
	Author int64         `json:"author"`
	Gender labels.Gender `json:"gender"`
}

// Reformatter pairs predictions with test records.
type Reformatter struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(m *metrics.Metrics) *Reformatter {
	return &Reformatter{
		metrics: m,
		logger:  slog.Default().With("component", "submission"),
	}
}

// Reformat uses a Reformatter without metrics.
func Reformat(predsPath, testPath, outPath string) (int, error) {
	return New(nil).Reformat(predsPath, testPath, outPath)
}

// Reformat reads predsPath and testPath in lockstep and writes one answer
// per pair to outPath. An existing outPath is first renamed to
// outPath+BackupSuffix. It returns the number of answers written.
func (r *Reformatter) Reformat(predsPath, testPath, outPath string) (int, error) {
	preds, err := openLines(predsPath)
	if err != nil {
		return 0, err
	}
	defer preds.close()
	tests, err := openLines(testPath)
	if err != nil {
		return 0, err
	}
	defer tests.close()

	if err := backup(outPath); err != nil {
		return 0, err
	}
	w, err := jsonl.Create(outPath)
	if err != nil {
		return 0, err
	}

	n, err := r.pair(preds, tests, w)
	if err != nil {
		w.Close()
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("closing %s: %w", outPath, err)
	}
	r.logger.Info("submission written", "path", outPath, "answers", n)
	return n, nil
}

func (r *Reformatter) pair(preds, tests *lineReader, w *jsonl.Writer) (int, error) {
	n := 0
	for {
		pred, predOK := preds.next()
		line, testOK := tests.next()
		if !predOK || !testOK {
			if err := preds.err(); err != nil {
				return n, err
			}
			if err := tests.err(); err != nil {
				return n, err
			}
			if predOK != testOK {
				return n, apperrors.Newf(apperrors.ErrMismatch, apperrors.ExitBadInput,
					"%s and %s differ in length: only %d lines pair up", preds.path, tests.path, n)
			}
			return n, nil
		}

		gender, err := ParsePrediction(pred)
		if err != nil {
			return n, fmt.Errorf("%s line %d: %w", preds.path, preds.line, err)
		}
		author, err := dataset.ParseAuthor(line)
		if err != nil {
			return n, fmt.Errorf("%s line %d: %w", tests.path, tests.line, err)
		}
		if err := w.Write(Answer{Author: author, Gender: gender}); err != nil {
			return n, err
		}
		r.metrics.ObserveSubmission(string(gender))
		n++
	}
}

// ParsePrediction maps a trainer output line to a gender: exactly 1 is
// male, any other number is female. The first field is used so lines
// carrying a tag after the value are accepted.
func ParsePrediction(s string) (labels.Gender, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty prediction", apperrors.ErrMalformedRecord)
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "", fmt.Errorf("%w: prediction %q: %v", apperrors.ErrMalformedRecord, fields[0], err)
	}
	if v == 1 {
		return labels.Male, nil
	}
	return labels.Female, nil
}

func backup(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if err := os.Rename(path, path+BackupSuffix); err != nil {
		return fmt.Errorf("backing up %s: %w", path, err)
	}
	slog.Default().Info("existing submission backed up", "path", path+BackupSuffix)
	return nil
}

type lineReader struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
}

func openLines(path string) (*lineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitBadInput, "path '%s' does not exist", path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &lineReader{path: path, file: f, scanner: s}, nil
}

// next returns the next non-blank line.
func (l *lineReader) next() (string, bool) {
	for l.scanner.Scan() {
		l.line++
		if line := strings.TrimSpace(l.scanner.Text()); line != "" {
			return line, true
		}
	}
	return "", false
}

func (l *lineReader) err() error {
	if err := l.scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", l.path, err)
	}
	return nil
}

func (l *lineReader) close() {
	l.file.Close()
}
