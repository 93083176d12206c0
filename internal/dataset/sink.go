package dataset

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/resilience"
)

// Sink receives routed records.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

// FileSink writes one feature line per record to a plain text file.
type FileSink struct {
	path    string
	split   Split
	file    *os.File
	w       *bufio.Writer
	count   int
	metrics *metrics.Metrics
}

// CreateFileSink truncates or creates path.
func CreateFileSink(path string, split Split, m *metrics.Metrics) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s feature file %s: %w", split, path, err)
	}
	return &FileSink{
		path:    path,
		split:   split,
		file:    f,
		w:       bufio.NewWriterSize(f, 64*1024),
		metrics: m,
	}, nil
}

func (s *FileSink) Write(_ context.Context, rec Record) error {
	if _, err := s.w.WriteString(rec.Line()); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	s.count++
	s.metrics.ObserveRecord(string(s.split), "file")
	return nil
}

// Count returns the number of lines written.
func (s *FileSink) Count() int {
	return s.count
}

func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flushing %s: %w", s.path, err)
	}
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("syncing %s: %w", s.path, err)
	}
	return s.file.Close()
}

// KafkaSink mirrors records to a Kafka topic. Records are buffered and
// published synchronously once batchSize is reached, so a failed publish
// fails the run instead of dropping records.
type KafkaSink struct {
	publisher kafka.Publisher
	split     Split
	batchSize int
	retry     resilience.RetryConfig
	buffer    []kafka.Event
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewKafkaSink(publisher kafka.Publisher, split Split, batchSize int, retry resilience.RetryConfig, m *metrics.Metrics) *KafkaSink {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &KafkaSink{
		publisher: publisher,
		split:     split,
		batchSize: batchSize,
		retry:     retry,
		buffer:    make([]kafka.Event, 0, batchSize),
		metrics:   m,
		logger:    slog.Default().With("component", "kafka-sink", "split", split),
	}
}

func (s *KafkaSink) Write(ctx context.Context, rec Record) error {
	s.buffer = append(s.buffer, kafka.Event{
		Key:   strconv.FormatInt(rec.Author(), 10),
		Value: rec.event(),
	})
	if len(s.buffer) >= s.batchSize {
		return s.flush(ctx)
	}
	return nil
}

func (s *KafkaSink) flush(ctx context.Context) error {
	if len(s.buffer) == 0 {
		return nil
	}
	batch := s.buffer
	err := resilience.Retry(ctx, "kafka-publish-"+string(s.split), s.retry, func() error {
		return s.publisher.PublishBatch(ctx, batch)
	})
	if err != nil {
		return fmt.Errorf("mirroring %d %s records: %w", len(batch), s.split, err)
	}
	for range batch {
		s.metrics.ObserveRecord(string(s.split), "kafka")
	}
	s.logger.Debug("batch flushed", "events", len(batch))
	s.buffer = make([]kafka.Event, 0, s.batchSize)
	return nil
}

// Close publishes any buffered records and closes the publisher.
func (s *KafkaSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	flushErr := s.flush(ctx)
	return errors.Join(flushErr, s.publisher.Close())
}

// Tee fans every record out to all sinks in order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Write(ctx context.Context, rec Record) error {
	for _, s := range t {
		if err := s.Write(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (t teeSink) Close() error {
	var errs []error
	for _, s := range t {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
