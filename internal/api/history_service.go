package api

import (
	"context"

	"reviewd/internal/queues"
	"reviewd/internal/review"
)

// VerdictReader is the store surface the history service depends on.
type VerdictReader interface {
	History(ctx context.Context, filter review.HistoryFilter) ([]*review.HistoryEntry, int, error)
	GetVerdict(ctx context.Context, id int64) (*review.Verdict, error)
	DeleteVerdict(ctx context.Context, id int64) (bool, error)
}

// HistoryService answers paginated verdict history queries and handles
// verdict removal.
type HistoryService struct {
	store VerdictReader
}

func NewHistoryService(store VerdictReader) *HistoryService {
	return &HistoryService{store: store}
}

// HistoryQuery narrows a history page request.
type HistoryQuery struct {
	Reviewer string
	Response string
	Page     int
}

// Page returns one page of verdicts for a queue, newest first.
func (s *HistoryService) Page(ctx context.Context, queue *queues.Queue, query HistoryQuery) (HistoryResponse, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	entries, total, err := s.store.History(ctx, review.HistoryFilter{
		Queue:    queue.Name,
		Reviewer: query.Reviewer,
		Response: query.Response,
		Page:     page,
	})
	if err != nil {
		return HistoryResponse{}, err
	}
	verdicts := make([]VerdictEntry, 0, len(entries))
	for _, entry := range entries {
		verdicts = append(verdicts, FromHistoryEntry(entry))
	}
	return HistoryResponse{
		Verdicts: verdicts,
		Page:     page,
		PerPage:  review.HistoryPageSize,
		Total:    total,
	}, nil
}

// Delete removes a verdict by id. Returns review.ErrNotFound when no verdict
// has that id.
func (s *HistoryService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteVerdict(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return review.ErrNotFound
	}
	return nil
}
