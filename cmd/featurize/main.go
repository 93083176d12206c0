// Command featurize builds the train and test feature files from the post
// stream.
//
// It loads the author gender labels and the test author list (from the label
// cache when present), featurizes every post of a known author and writes
// one sparse line per post to the train or test file. Records can be
// mirrored to Kafka and the run summary saved to PostgreSQL.
//
// Usage:
//
//	go run ./cmd/featurize [-config configs/featurize.yaml] [-rebuild]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/labels"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults apply when empty)")
	rebuild := flag.Bool("rebuild", false, "drop the cached label maps and rebuild them from the sources")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitFailure)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logger.WithRunID(ctx, logger.NewRunID())

	err = run(ctx, cfg, *rebuild)
	stop()
	if err != nil {
		logger.FromContext(ctx).Error("featurize failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, rebuild bool) error {
	log := logger.FromContext(ctx)
	log.Info("starting featurize",
		"genders", cfg.Inputs.Genders,
		"test_authors", cfg.Inputs.TestAuthors,
		"posts", cfg.Inputs.Posts,
		"cache_backend", cfg.Cache.Backend,
	)

	if err := checkInputs(cfg.Inputs); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cache := labels.New(store, cfg.Cache, m)
	if rebuild {
		if err := cache.Invalidate(ctx); err != nil {
			return err
		}
	}
	genders, err := cache.LoadGenders(ctx, cfg.Inputs.Genders)
	if err != nil {
		return err
	}
	testAuthors, err := cache.LoadTestAuthors(ctx, cfg.Inputs.TestAuthors)
	if err != nil {
		return err
	}

	train, test, err := openSinks(cfg, m)
	if err != nil {
		return err
	}

	builder := dataset.NewBuilder(dataset.BuilderConfig{
		Genders:     genders,
		TestAuthors: testAuthors,
		MinTokens:   cfg.Features.MinTokens,
		Train:       train,
		Test:        test,
		Metrics:     m,
	})

	g, gctx := errgroup.WithContext(ctx)
	pipelineCtx, finish := context.WithCancel(gctx)
	defer finish()

	if cfg.Metrics.Enabled {
		g.Go(func() error {
			return metrics.Serve(pipelineCtx, cfg.Metrics.Port)
		})
	}

	var stats report.Stats
	g.Go(func() error {
		defer finish()
		var buildErr error
		stats, buildErr = builder.Build(pipelineCtx, cfg.Inputs.Posts)
		closeErr := errors.Join(train.Close(), test.Close())
		if closeErr != nil {
			closeErr = fmt.Errorf("closing feature outputs: %w", closeErr)
		}
		return errors.Join(buildErr, closeErr)
	})

	if err := g.Wait(); err != nil {
		return err
	}

	stats.Log(log)
	log.Info("feature files written", "train", cfg.Outputs.Train, "test", cfg.Outputs.Test)

	if cfg.Postgres.Enabled {
		if err := saveReport(ctx, cfg, stats); err != nil {
			return err
		}
	}
	return nil
}

// checkInputs fails fast when any source file is absent, before the cache
// or the output files are touched.
func checkInputs(in config.InputsConfig) error {
	for _, path := range []string{in.Genders, in.TestAuthors, in.Posts} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return apperrors.Newf(apperrors.ErrMissingInput, apperrors.ExitBadInput, "path '%s' does not exist", path)
			}
			return fmt.Errorf("checking input %s: %w", path, err)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (labels.Store, func(), error) {
	switch cfg.Cache.Backend {
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis, cfg.Retry)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting label cache: %w", err)
		}
		slog.Info("label cache on redis", "addr", cfg.Redis.Addr, "prefix", cfg.Cache.KeyPrefix)
		return labels.NewRedisStore(client, cfg.Cache.KeyPrefix), func() { client.Close() }, nil
	default:
		store, err := labels.OpenFileStore(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func openSinks(cfg *config.Config, m *metrics.Metrics) (dataset.Sink, dataset.Sink, error) {
	trainFile, err := dataset.CreateFileSink(cfg.Outputs.Train, dataset.SplitTrain, m)
	if err != nil {
		return nil, nil, err
	}
	testFile, err := dataset.CreateFileSink(cfg.Outputs.Test, dataset.SplitTest, m)
	if err != nil {
		trainFile.Close()
		return nil, nil, err
	}
	if !cfg.Kafka.Enabled {
		return trainFile, testFile, nil
	}

	retry := resilience.FromConfig(cfg.Retry)
	train := dataset.Tee(trainFile, dataset.NewKafkaSink(
		kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Train), dataset.SplitTrain, cfg.Kafka.BatchSize, retry, m))
	test := dataset.Tee(testFile, dataset.NewKafkaSink(
		kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Test), dataset.SplitTest, cfg.Kafka.BatchSize, retry, m))
	slog.Info("mirroring records to kafka",
		"brokers", cfg.Kafka.Brokers,
		"train_topic", cfg.Kafka.Topics.Train,
		"test_topic", cfg.Kafka.Topics.Test,
	)
	return train, test, nil
}

func saveReport(ctx context.Context, cfg *config.Config, stats report.Stats) error {
	db, err := postgres.New(ctx, cfg.Postgres, cfg.Retry)
	if err != nil {
		return fmt.Errorf("connecting report store: %w", err)
	}
	defer db.Close()

	store := report.NewStore(db)
	saveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return resilience.Retry(saveCtx, "save-run-report", resilience.FromConfig(cfg.Retry), func() error {
		return store.Save(saveCtx, stats)
	})
}
