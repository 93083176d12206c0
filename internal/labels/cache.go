package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/jsonl"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Author-Gender-Stylometry/pkg/metrics"
)

// Cache loads the label maps from its Store, building and persisting them
// from the compressed sources on a miss. There is no staleness check:
// Invalidate (or deleting the stored entry) forces a rebuild.
type Cache struct {
	store   Store
	cfg     config.CacheConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, cfg config.CacheConfig, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		cfg:     cfg,
		metrics: m,
		logger:  logger.WithComponent("label-cache"),
	}
}

// LoadGenders returns the author → gender map for the training population.
func (c *Cache) LoadGenders(ctx context.Context, sourcePath string) (Genders, error) {
	name := c.cfg.GendersName
	var genders Genders
	hit, err := c.fromStore(ctx, name, KindGenders, &genders)
	if err != nil {
		return nil, err
	}
	if hit {
		if genders == nil {
			genders = Genders{}
		}
		return genders, nil
	}

	genders, total, err := buildGenders(sourcePath)
	if err != nil {
		return nil, err
	}
	if err := c.toStore(ctx, name, KindGenders, len(genders), genders); err != nil {
		return nil, err
	}
	c.logger.Info("gender labels built",
		"source", sourcePath,
		"total_authors", total,
		"unique_authors", len(genders),
		"total_equals_unique", total == len(genders),
	)
	return genders, nil
}

// LoadTestAuthors returns the set of authors that need a prediction.
func (c *Cache) LoadTestAuthors(ctx context.Context, sourcePath string) (AuthorSet, error) {
	name := c.cfg.TestAuthorsName
	var ids []int64
	hit, err := c.fromStore(ctx, name, KindAuthorSet, &ids)
	if err != nil {
		return nil, err
	}
	if hit {
		set := make(AuthorSet, len(ids))
		for _, id := range ids {
			set.Add(id)
		}
		return set, nil
	}

	set, total, err := buildAuthorSet(sourcePath)
	if err != nil {
		return nil, err
	}
	// gob cannot encode empty structs, so the set is stored as a sorted list.
	ids = make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if err := c.toStore(ctx, name, KindAuthorSet, len(ids), ids); err != nil {
		return nil, err
	}
	c.logger.Info("test authors built",
		"source", sourcePath,
		"total_authors", total,
		"unique_authors", len(set),
		"total_equals_unique", total == len(set),
	)
	return set, nil
}

// Invalidate removes both cached maps.
func (c *Cache) Invalidate(ctx context.Context) error {
	for _, name := range []string{c.cfg.GendersName, c.cfg.TestAuthorsName} {
		if err := c.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("invalidating %s: %w", name, err)
		}
		c.logger.Info("cache entry invalidated", "location", c.store.Location(name))
	}
	return nil
}

func (c *Cache) fromStore(ctx context.Context, name string, kind Kind, into any) (bool, error) {
	data, err := c.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, apperrors.ErrCacheMiss) {
			c.metrics.ObserveCacheLookup(name, "miss")
			c.logger.Info("cache miss, building from source", "location", c.store.Location(name))
			return false, nil
		}
		return false, err
	}
	header, err := decodeDump(data, kind, into)
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", c.store.Location(name), err)
	}
	c.metrics.ObserveCacheLookup(name, "hit")
	c.logger.Info("loaded dump",
		"location", c.store.Location(name),
		"entries", header.Count,
		"created_at", header.CreatedAt,
	)
	return true, nil
}

func (c *Cache) toStore(ctx context.Context, name string, kind Kind, count int, value any) error {
	data, err := encodeDump(kind, count, value)
	if err != nil {
		return err
	}
	if err := c.store.Put(ctx, name, data); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	c.logger.Info("saved dump", "location", c.store.Location(name), "bytes", len(data))
	return nil
}

func buildGenders(path string) (Genders, int, error) {
	genders := make(Genders)
	total := 0
	err := jsonl.Each(path, func(rec genderRecord) error {
		g, err := ParseGender(rec.Gender)
		if err != nil {
			return fmt.Errorf("%s author %d: %w: %v", path, rec.Author, apperrors.ErrInvalidInput, err)
		}
		genders[rec.Author] = g
		total++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return genders, total, nil
}

func buildAuthorSet(path string) (AuthorSet, int, error) {
	set := make(AuthorSet)
	total := 0
	err := jsonl.Each(path, func(rec authorRecord) error {
		set.Add(rec.Author)
		total++
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return set, total, nil
}
