package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/labels"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/jsonl"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/resilience"
)

type memSink struct {
	records []Record
	closed  bool
}

func (m *memSink) Write(_ context.Context, rec Record) error {
	m.records = append(m.records, rec)
	return nil
}

func (m *memSink) Close() error {
	m.closed = true
	return nil
}

type fakePublisher struct {
	batches [][]kafka.Event
	fails   int
	closed  bool
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	if f.fails > 0 {
		f.fails--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

func writePosts(t *testing.T, path string, posts ...Post) {
	t.Helper()
	w, err := jsonl.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range posts {
		if err := w.Write(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func newBuilder(train, test Sink) *Builder {
	return NewBuilder(BuilderConfig{
		Genders:     labels.Genders{1: labels.Male, 2: labels.Female, 4: labels.Female},
		TestAuthors: labels.AuthorSet{3: {}, 4: {}},
		MinTokens:   5,
		Train:       train,
		Test:        test,
	})
}

func TestRoute(t *testing.T) {
	b := newBuilder(&memSink{}, &memSink{})
	tests := []struct {
		name    string
		author  int64
		tokens  int
		split   Split
		target  int
		outcome Outcome
	}{
		{"male enough tokens", 1, 6, SplitTrain, 1, OutcomeTrain},
		{"female at threshold", 2, 5, SplitTrain, -1, OutcomeTrain},
		{"gendered too short", 1, 3, "", -1, OutcomeDroppedShort},
		{"test only", 3, 0, SplitTest, 1, OutcomeTest},
		{"both populations long", 4, 9, SplitTrain, -1, OutcomeTrain},
		{"both populations short", 4, 2, SplitTest, 1, OutcomeTest},
		{"unknown author", 99, 10, "", -1, OutcomeSkipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, target, outcome := b.Route(tt.author, tt.tokens)
			if split != tt.split || target != tt.target || outcome != tt.outcome {
				t.Errorf("Route(%d, %d) = (%q, %d, %q), want (%q, %d, %q)",
					tt.author, tt.tokens, split, target, outcome, tt.split, tt.target, tt.outcome)
			}
		})
	}
}

func TestBuildRoutesPosts(t *testing.T) {
	dir := t.TempDir()
	posts := filepath.Join(dir, "messages.jsonlines.gz")
	writePosts(t, posts,
		Post{Author: 1, Text: "we love cats and dogs ."},
		Post{Author: 2, Text: "hi there !"},
		Post{Author: 3, Text: "hey"},
		Post{Author: 4, Text: "both lists here and more words"},
		Post{Author: 99, Text: "nobody knows this author at all"},
	)

	train, test := &memSink{}, &memSink{}
	stats, err := newBuilder(train, test).Build(context.Background(), posts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if stats.PostsRead != 5 || stats.TrainWritten != 2 || stats.TestWritten != 1 ||
		stats.DroppedShort != 1 || stats.Skipped != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.FinishedAt.IsZero() {
		t.Error("FinishedAt not set")
	}

	if len(train.records) != 2 {
		t.Fatalf("train records = %d, want 2", len(train.records))
	}
	if got := train.records[0]; got.Author() != 1 || got.Target != 1 {
		t.Errorf("first train record = author %d target %d", got.Author(), got.Target)
	}
	if got := train.records[1]; got.Author() != 4 || got.Target != -1 {
		t.Errorf("dual-population author must go to train with its gender, got author %d target %d",
			got.Author(), got.Target)
	}
	if len(test.records) != 1 || test.records[0].Author() != 3 || test.records[0].Target != 1 {
		t.Errorf("test records = %+v", test.records)
	}
}

func TestBuildCancelled(t *testing.T) {
	dir := t.TempDir()
	posts := filepath.Join(dir, "messages.jsonlines.gz")
	writePosts(t, posts, Post{Author: 1, Text: "we love cats and dogs ."})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newBuilder(&memSink{}, &memSink{}).Build(ctx, posts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBuildMissingInput(t *testing.T) {
	_, err := newBuilder(&memSink{}, &memSink{}).Build(context.Background(), filepath.Join(t.TempDir(), "nope.gz"))
	if !errors.Is(err, apperrors.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestRecordLine(t *testing.T) {
	rec := Record{
		Split:  SplitTrain,
		Target: 1,
		Vector: features.Extract(7, []string{"we", "love", "cats", "and", "dogs", "."}),
	}
	line := rec.Line()
	if !strings.HasPrefix(line, "1 |num tot_char:18 tot_punct:1 ") {
		t.Errorf("unexpected prefix: %q", line)
	}
	if !strings.HasSuffix(line, " |add author=7\n") {
		t.Errorf("unexpected suffix: %q", line)
	}
	for _, want := range []string{" ratio_uc:0 ", " ratio_period:1 ", " tot_words:5 ", " avg_char_per_word:3.4 "} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}

	keys := strings.Fields(strings.Split(line, "|")[1])[1:]
	names := features.Names()
	if len(keys) != len(names) {
		t.Fatalf("got %d features, want %d", len(keys), len(names))
	}
	for i, kv := range keys {
		if !strings.HasPrefix(kv, names[i]+":") {
			t.Errorf("feature %d = %q, want key %q", i, kv, names[i])
		}
	}
}

func TestParseAuthor(t *testing.T) {
	rec := Record{Target: -1, Vector: features.Extract(123456789, nil)}
	got, err := ParseAuthor(rec.Line())
	if err != nil || got != 123456789 {
		t.Fatalf("ParseAuthor(Line) = %d, %v", got, err)
	}

	for _, bad := range []string{
		"1 |num tot_char:1",
		"1 |num a:1 |add",
		"1 |num a:1 |add author=x",
		"1 |num a:1 |other author=5",
	} {
		if _, err := ParseAuthor(bad); !errors.Is(err, apperrors.ErrMalformedRecord) {
			t.Errorf("ParseAuthor(%q) err = %v, want ErrMalformedRecord", bad, err)
		}
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.vw")
	sink, err := CreateFileSink(path, SplitTrain, nil)
	if err != nil {
		t.Fatal(err)
	}
	recs := []Record{
		{Target: 1, Vector: features.Extract(1, []string{"hello", "!"})},
		{Target: -1, Vector: features.Extract(2, []string{"bye"})},
	}
	for _, r := range recs {
		if err := sink.Write(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
	if sink.Count() != 2 {
		t.Errorf("Count = %d", sink.Count())
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := recs[0].Line() + recs[1].Line(); string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
}

func TestKafkaSinkBatches(t *testing.T) {
	pub := &fakePublisher{fails: 1}
	sink := NewKafkaSink(pub, SplitTest, 2, resilience.RetryConfig{MaxAttempts: 2, InitialDelay: 1}, nil)
	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := sink.Write(ctx, Record{Split: SplitTest, Target: 1, Vector: features.Extract(i, nil)}); err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("expected one full batch after retry, got %v", pub.batches)
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if len(pub.batches) != 2 || len(pub.batches[1]) != 1 || !pub.closed {
		t.Fatalf("Close must flush the remainder and close the publisher, got %d batches", len(pub.batches))
	}
	ev, ok := pub.batches[1][0].Value.(event)
	if pub.batches[1][0].Key != "3" || !ok || ev.Author != 3 || len(ev.Features) != len(features.Keys) {
		t.Errorf("unexpected event %+v", pub.batches[1][0])
	}
}

func TestTee(t *testing.T) {
	a, b := &memSink{}, &memSink{}
	tee := Tee(a, b)
	if err := tee.Write(context.Background(), Record{Target: 1}); err != nil {
		t.Fatal(err)
	}
	if err := tee.Close(); err != nil {
		t.Fatal(err)
	}
	if len(a.records) != 1 || len(b.records) != 1 || !a.closed || !b.closed {
		t.Error("tee must forward writes and closes to every sink")
	}
}
