// Package report summarises a dataset build: how many posts were read, how
// they were routed, and how long the run took.
package report

import (
	"log/slog"
	"time"
)

// Stats counts what happened to the posts of one run.
type Stats struct {
	RunID        string    `json:"run_id"`
	PostsRead    int64     `json:"posts_read"`
	Skipped      int64     `json:"skipped"`
	TrainWritten int64     `json:"train_written"`
	TestWritten  int64     `json:"test_written"`
	DroppedShort int64     `json:"dropped_short"`
	TokensKept   int64     `json:"tokens_kept"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Duration returns the wall time of the run.
func (s Stats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// AvgTokens returns the mean number of kept tokens per routed post.
func (s Stats) AvgTokens() float64 {
	routed := s.TrainWritten + s.TestWritten + s.DroppedShort
	if routed == 0 {
		return 0
	}
	return float64(s.TokensKept) / float64(routed)
}

// Log writes the summary through logger.
func (s Stats) Log(logger *slog.Logger) {
	logger.Info("dataset build finished",
		"run_id", s.RunID,
		"posts_read", s.PostsRead,
		"skipped", s.Skipped,
		"train_written", s.TrainWritten,
		"test_written", s.TestWritten,
		"dropped_short", s.DroppedShort,
		"avg_tokens", s.AvgTokens(),
		"duration", s.Duration(),
	)
}
