package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/features"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/labels"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/text"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/jsonl"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/metrics"
)

// Post is one record of the message stream.
type Post struct {
	Author int64  `json:"author"`
	Text   string `json:"text"`
}

// Outcome describes what the builder did with a post.
type Outcome string

const (
	OutcomeTrain        Outcome = "train"
	OutcomeTest         Outcome = "test"
	OutcomeDroppedShort Outcome = "dropped_short"
	OutcomeSkipped      Outcome = "skipped"
)

// Builder routes posts to the train and test sinks.
type Builder struct {
	genders     labels.Genders
	testAuthors labels.AuthorSet
	minTokens   int
	train       Sink
	test        Sink
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// BuilderConfig wires a Builder.
type BuilderConfig struct {
	Genders     labels.Genders
	TestAuthors labels.AuthorSet
	MinTokens   int
	Train       Sink
	Test        Sink
	Metrics     *metrics.Metrics
}

func NewBuilder(cfg BuilderConfig) *Builder {
	genders := cfg.Genders
	if genders == nil {
		genders = labels.Genders{}
	}
	testAuthors := cfg.TestAuthors
	if testAuthors == nil {
		testAuthors = labels.AuthorSet{}
	}
	return &Builder{
		genders:     genders,
		testAuthors: testAuthors,
		minTokens:   cfg.MinTokens,
		train:       cfg.Train,
		test:        cfg.Test,
		metrics:     cfg.Metrics,
		logger:      logger.WithComponent("dataset-builder"),
	}
}

// Route decides the split and target of a post from its author and the
// number of kept tokens. A gendered author with enough tokens goes to train
// even when also listed as a test author.
func (b *Builder) Route(author int64, tokens int) (Split, int, Outcome) {
	gender, gendered := b.genders.Lookup(author)
	switch {
	case gendered && tokens >= b.minTokens:
		return SplitTrain, gender.Target(), OutcomeTrain
	case b.testAuthors.Contains(author):
		return SplitTest, 1, OutcomeTest
	case gendered:
		return "", -1, OutcomeDroppedShort
	default:
		return "", -1, OutcomeSkipped
	}
}

// Process featurizes one post and hands it to the matching sink.
func (b *Builder) Process(ctx context.Context, post Post) (Outcome, int, error) {
	if _, ok := b.genders.Lookup(post.Author); !ok && !b.testAuthors.Contains(post.Author) {
		b.metrics.ObservePost(string(OutcomeSkipped), 0)
		return OutcomeSkipped, 0, nil
	}

	tokens := text.Prepare(post.Text)
	split, target, outcome := b.Route(post.Author, len(tokens))
	b.metrics.ObservePost(string(outcome), len(tokens))
	if split == "" {
		return outcome, len(tokens), nil
	}

	rec := Record{
		Split:  split,
		Target: target,
		Vector: features.Extract(post.Author, tokens),
	}
	sink := b.train
	if split == SplitTest {
		sink = b.test
	}
	if err := sink.Write(ctx, rec); err != nil {
		return outcome, len(tokens), fmt.Errorf("writing %s record for author %d: %w", split, post.Author, err)
	}
	return outcome, len(tokens), nil
}

// Build streams the posts file through Process. It stops at the first
// malformed record, sink failure or context cancellation.
func (b *Builder) Build(ctx context.Context, postsPath string) (stats report.Stats, err error) {
	stats = report.Stats{
		RunID:     logger.RunID(ctx),
		StartedAt: time.Now(),
	}
	log := b.logger
	if stats.RunID != "" {
		log = log.With("run_id", stats.RunID)
	}
	defer func() {
		stats.FinishedAt = time.Now()
		b.metrics.ObserveRunDuration(stats.Duration().Seconds())
	}()

	r, err := jsonl.Open(postsPath)
	if err != nil {
		return stats, err
	}
	defer r.Close()

	log.Info("building dataset",
		"posts", postsPath,
		"gendered_authors", len(b.genders),
		"test_authors", len(b.testAuthors),
		"min_tokens", b.minTokens,
	)

	for {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("dataset build interrupted after %d posts: %w", stats.PostsRead, err)
		}
		var post Post
		if err := r.Next(&post); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return stats, err
		}
		stats.PostsRead++

		outcome, tokens, err := b.Process(ctx, post)
		if err != nil {
			return stats, err
		}
		switch outcome {
		case OutcomeTrain:
			stats.TrainWritten++
		case OutcomeTest:
			stats.TestWritten++
		case OutcomeDroppedShort:
			stats.DroppedShort++
		case OutcomeSkipped:
			stats.Skipped++
		}
		if outcome != OutcomeSkipped {
			stats.TokensKept += int64(tokens)
		}
		if stats.PostsRead%100000 == 0 {
			log.Debug("progress", "posts_read", stats.PostsRead, "train", stats.TrainWritten, "test", stats.TestWritten)
		}
	}

	return stats, nil
}
