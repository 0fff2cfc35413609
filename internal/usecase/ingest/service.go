package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cinedex/cinedex/internal/domain/record"
	"github.com/cinedex/cinedex/internal/metrics"
)

// Policy controls what happens when one movie cannot be fetched or
// normalized.
type Policy int

const (
	// Abort stops the run at the first failure (default).
	Abort Policy = iota
	// Skip logs and counts the failure, then keeps going. This is the
	// lenient legacy behavior; it must be opted into explicitly.
	Skip
)

// PolicyFromString parses the fetch.on_error config value.
func PolicyFromString(s string) (Policy, error) {
	switch s {
	case "abort":
		return Abort, nil
	case "skip":
		return Skip, nil
	default:
		return Abort, fmt.Errorf("unknown ingest policy %q", s)
	}
}

// Summary reports what one ingest run did.
type Summary struct {
	Fetched int
	Skipped int
}

// Service drives the fetch pipeline: list popular movies, resolve details,
// normalize into records, persist the catalog file.
type Service struct {
	fetcher Fetcher
	writer  Writer
	policy  Policy
	logger  *zap.Logger
}

// New creates an ingest service with the Abort policy.
func New(fetcher Fetcher, writer Writer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{fetcher: fetcher, writer: writer, policy: Abort, logger: logger}
}

// WithPolicy sets the failure policy.
func (s *Service) WithPolicy(p Policy) *Service {
	s.policy = p
	return s
}

// Run fetches up to count movies and saves them to path. With the Skip
// policy, failed pages and movies are logged and counted; with Abort, the
// first failure ends the run and nothing is written.
func (s *Service) Run(ctx context.Context, count int, path string) (Summary, error) {
	var summary Summary
	var records []record.Record

	for page := 1; len(records) < count; page++ {
		ids, err := s.fetcher.Popular(ctx, page)
		if err != nil {
			if s.policy == Abort {
				return summary, fmt.Errorf("list page %d: %w", page, err)
			}
			s.logger.Warn("skipping page", zap.Int("page", page), zap.Error(err))
			summary.Skipped += count - len(records)
			break
		}
		if len(ids) == 0 {
			// Listing exhausted before count was reached.
			break
		}

		for _, id := range ids {
			if len(records) == count {
				break
			}
			rec, err := s.fetchOne(ctx, id)
			if err != nil {
				if s.policy == Abort {
					return summary, err
				}
				s.logger.Warn("skipping movie", zap.Int("tmdb_id", id), zap.Error(err))
				s.countMovie("skipped")
				summary.Skipped++
				continue
			}
			s.countMovie("ok")
			records = append(records, rec)
		}
	}

	summary.Fetched = len(records)
	s.logger.Info("ingest finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("skipped", summary.Skipped),
		zap.String("path", path),
	)

	if err := s.writer.Save(path, records); err != nil {
		return summary, fmt.Errorf("save catalog: %w", err)
	}
	return summary, nil
}

func (s *Service) fetchOne(ctx context.Context, id int) (record.Record, error) {
	raw, err := s.fetcher.Details(ctx, id)
	if err != nil {
		return record.Record{}, fmt.Errorf("details %d: %w", id, err)
	}
	rec, err := record.FromRaw(raw)
	if err != nil {
		return record.Record{}, fmt.Errorf("normalize %d: %w", id, err)
	}
	return rec, nil
}

func (s *Service) countMovie(outcome string) {
	if metrics.FetchMoviesTotal != nil {
		metrics.FetchMoviesTotal.WithLabelValues(outcome).Inc()
	}
}
