package engine

import (
	"context"
	"fmt"
	"log/slog"

	"reviewd/internal/logging"
	"reviewd/internal/queues"
	"reviewd/internal/review"
	"reviewd/internal/reviewable"
)

// Selector finds the next review item for a reviewer, reclaiming items whose
// subject has vanished as it goes.
type Selector struct {
	store     *review.Store
	resolvers *reviewable.Registry
	logger    *slog.Logger
}

// NewSelector constructs a Selector.
func NewSelector(store *review.Store, resolvers *reviewable.Registry, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Selector{store: store, resolvers: resolvers, logger: logger}
}

// Next returns the earliest open item in q the reviewer has not judged, or
// (nil, nil) when the reviewer has exhausted the queue. Candidates whose
// subject no longer exists are completed and skipped; each such reclaim
// permanently shrinks the unreviewed set, so the loop terminates.
func (s *Selector) Next(ctx context.Context, q *queues.Queue, reviewer string) (*review.Item, error) {
	for {
		item, err := s.store.NextUnreviewed(ctx, q.Name, reviewer)
		if err != nil {
			return nil, fmt.Errorf("select next item: %w", err)
		}
		if item == nil {
			return nil, nil
		}

		subject, err := s.resolvers.Resolve(ctx, item.SubjectType, item.SubjectID)
		if err != nil {
			// Isolated failure: reclaim the candidate and keep going.
			s.logger.Warn("subject resolution failed, reclaiming item",
				slog.String(logging.FieldQueue, q.Name),
				slog.Int64(logging.FieldItemID, item.ID),
				slog.String(logging.FieldSubject, item.SubjectType+"/"+item.SubjectID),
				slog.Any("error", err))
			if err := s.store.MarkCompleted(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("reclaim item %d: %w", item.ID, err)
			}
			continue
		}

		exists := false
		if subject != nil {
			exists, err = subject.Exists(ctx)
			if err != nil {
				s.logger.Warn("subject existence check failed, reclaiming item",
					slog.String(logging.FieldQueue, q.Name),
					slog.Int64(logging.FieldItemID, item.ID),
					slog.Any("error", err))
				exists = false
			}
		}
		if !exists {
			if err := s.store.MarkCompleted(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("reclaim item %d: %w", item.ID, err)
			}
			s.logger.Info("reclaimed orphaned item",
				slog.String(logging.FieldQueue, q.Name),
				slog.Int64(logging.FieldItemID, item.ID))
			continue
		}

		return item, nil
	}
}
