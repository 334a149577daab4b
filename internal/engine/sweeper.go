package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"reviewd/internal/logging"
	"reviewd/internal/queues"
	"reviewd/internal/review"
	"reviewd/internal/reviewable"
)

// SweepSummary reports one disqualification sweep over a queue.
type SweepSummary struct {
	RunID        string
	Queue        string
	Scanned      int
	Disqualified int
	Reclaimed    int
	Failed       int
	Duration     time.Duration
}

// Sweeper re-evaluates every open item in a queue against the current
// disqualification predicate. Concurrent triggers for the same queue are
// coalesced into the in-flight run instead of sweeping twice.
type Sweeper struct {
	store     *review.Store
	resolvers *reviewable.Registry
	logger    *slog.Logger
	group     singleflight.Group
}

// NewSweeper constructs a Sweeper.
func NewSweeper(store *review.Store, resolvers *reviewable.Registry, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sweeper{store: store, resolvers: resolvers, logger: logger}
}

// Trigger starts a sweep in the background and returns an acknowledgment id
// immediately. If a sweep of q is already running, the request joins it.
func (s *Sweeper) Trigger(ctx context.Context, q *queues.Queue) string {
	ackID := uuid.NewString()
	go func() {
		_, _, shared := s.group.Do(q.Name, func() (any, error) {
			return s.sweep(ctx, q, ackID)
		})
		if shared {
			s.logger.Debug("sweep request coalesced into running sweep",
				slog.String(logging.FieldQueue, q.Name),
				slog.String(logging.FieldRequestID, ackID))
		}
	}()
	return ackID
}

// Run sweeps q synchronously, coalescing with any in-flight sweep of the same
// queue.
func (s *Sweeper) Run(ctx context.Context, q *queues.Queue) (SweepSummary, error) {
	result, err, _ := s.group.Do(q.Name, func() (any, error) {
		return s.sweep(ctx, q, uuid.NewString())
	})
	if err != nil {
		return SweepSummary{}, err
	}
	return result.(SweepSummary), nil
}

func (s *Sweeper) sweep(ctx context.Context, q *queues.Queue, runID string) (SweepSummary, error) {
	started := time.Now()
	summary := SweepSummary{RunID: runID, Queue: q.Name}

	items, err := s.store.OpenItems(ctx, q.Name)
	if err != nil {
		return summary, fmt.Errorf("list open items: %w", err)
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		summary.Scanned++

		// Each item is its own unit of work: one failing subject must not
		// abort the rest of the sweep.
		subject, err := s.resolvers.Resolve(ctx, item.SubjectType, item.SubjectID)
		if err != nil {
			summary.Failed++
			s.logger.Warn("sweep could not resolve subject",
				slog.String(logging.FieldQueue, q.Name),
				slog.String(logging.FieldRunID, runID),
				slog.Int64(logging.FieldItemID, item.ID),
				slog.Any("error", err))
			continue
		}
		if subject == nil {
			if err := s.store.MarkCompleted(ctx, item.ID); err != nil {
				summary.Failed++
				s.logger.Warn("sweep could not reclaim item",
					slog.String(logging.FieldQueue, q.Name),
					slog.String(logging.FieldRunID, runID),
					slog.Int64(logging.FieldItemID, item.ID),
					slog.Any("error", err))
				continue
			}
			summary.Reclaimed++
			continue
		}

		tally, err := s.store.VerdictTally(ctx, item.ID)
		if err != nil {
			summary.Failed++
			s.logger.Warn("sweep could not tally verdicts",
				slog.String(logging.FieldQueue, q.Name),
				slog.String(logging.FieldRunID, runID),
				slog.Int64(logging.FieldItemID, item.ID),
				slog.Any("error", err))
			continue
		}

		retire, err := subject.ShouldDisqualify(ctx, q, tally)
		if err != nil {
			summary.Failed++
			s.logger.Warn("sweep disqualification check failed",
				slog.String(logging.FieldQueue, q.Name),
				slog.String(logging.FieldRunID, runID),
				slog.Int64(logging.FieldItemID, item.ID),
				slog.Any("error", err))
			continue
		}
		if !retire {
			continue
		}

		if err := s.store.MarkCompleted(ctx, item.ID); err != nil {
			summary.Failed++
			s.logger.Warn("sweep could not complete item",
				slog.String(logging.FieldQueue, q.Name),
				slog.String(logging.FieldRunID, runID),
				slog.Int64(logging.FieldItemID, item.ID),
				slog.Any("error", err))
			continue
		}
		summary.Disqualified++
	}

	summary.Duration = time.Since(started)
	s.logger.Info("sweep finished",
		slog.String(logging.FieldQueue, q.Name),
		slog.String(logging.FieldRunID, runID),
		slog.Int("scanned", summary.Scanned),
		slog.Int("disqualified", summary.Disqualified),
		slog.Int("reclaimed", summary.Reclaimed),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}
