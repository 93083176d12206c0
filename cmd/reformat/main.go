// Command reformat pairs the trainer's predictions with the test feature
// file and writes the gzip JSON-lines answer file.
//
// Usage:
//
//	go run ./cmd/reformat [-config configs/featurize.yaml] [-preds pred.vw] [-test test.vw] [-out private-res.jsonlines.gz]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/submission"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	preds := flag.String("preds", "", "predictions file, one number per line (overrides outputs.predictions)")
	test := flag.String("test", "", "test feature file (overrides outputs.test)")
	out := flag.String("out", "", "answer file (overrides outputs.submission)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitFailure)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	paths := cfg.Outputs
	if *preds != "" {
		paths.Predictions = *preds
	}
	if *test != "" {
		paths.Test = *test
	}
	if *out != "" {
		paths.Submission = *out
	}

	n, err := submission.Reformat(paths.Predictions, paths.Test, paths.Submission)
	if err != nil {
		slog.Error("reformat failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
	slog.Info("reformat finished", "answers", n, "out", paths.Submission)
}
