package api

import (
	"context"

	"reviewd/internal/queues"
	"reviewd/internal/review"
)

// ItemReader is the store surface the queue service depends on.
type ItemReader interface {
	GetItem(ctx context.Context, id int64) (*review.Item, error)
	ListItems(ctx context.Context, queueName string, includeCompleted bool) ([]*review.Item, error)
	Stats(ctx context.Context) (map[string]review.QueueCounts, error)
	CheckHealth(ctx context.Context) (review.DatabaseHealth, error)
}

// QueueService exposes read-side queue data for the HTTP API and CLI.
type QueueService struct {
	store    ItemReader
	registry *queues.Registry
}

func NewQueueService(store ItemReader, registry *queues.Registry) *QueueService {
	return &QueueService{store: store, registry: registry}
}

// List returns every configured queue with its current counts. Queues with no
// items yet still appear, with zero counts.
func (s *QueueService) List(ctx context.Context) ([]QueueSummary, error) {
	counts, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	all := s.registry.All()
	summaries := make([]QueueSummary, 0, len(all))
	for _, q := range all {
		c := counts[q.Name]
		summaries = append(summaries, QueueSummary{
			Name:      q.Name,
			Responses: append([]string(nil), q.Responses...),
			Open:      c.Open,
			Completed: c.Completed,
		})
	}
	return summaries, nil
}

// Item fetches a single review item scoped to a queue. Returns
// review.ErrNotFound when the item is missing or belongs to another queue.
func (s *QueueService) Item(ctx context.Context, queue *queues.Queue, id int64) (ReviewItem, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return ReviewItem{}, err
	}
	if item == nil || item.Queue != queue.Name {
		return ReviewItem{}, review.ErrNotFound
	}
	return FromItem(item), nil
}

// Items lists a queue's items, open-only unless includeCompleted is set.
func (s *QueueService) Items(ctx context.Context, queue *queues.Queue, includeCompleted bool) ([]ReviewItem, error) {
	items, err := s.store.ListItems(ctx, queue.Name, includeCompleted)
	if err != nil {
		return nil, err
	}
	return FromItems(items), nil
}

// Health reports review database diagnostics.
func (s *QueueService) Health(ctx context.Context) (HealthResponse, error) {
	health, err := s.store.CheckHealth(ctx)
	if err != nil {
		return FromHealth(health), err
	}
	return FromHealth(health), nil
}
