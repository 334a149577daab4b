package api

import (
	"time"

	"reviewd/internal/review"
)

// FromItem converts a store item into its API representation.
func FromItem(item *review.Item) ReviewItem {
	if item == nil {
		return ReviewItem{}
	}
	return ReviewItem{
		ID:          item.ID,
		Queue:       item.Queue,
		SubjectType: item.SubjectType,
		SubjectID:   item.SubjectID,
		Completed:   item.Completed,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

// FromItems converts a slice of store items.
func FromItems(items []*review.Item) []ReviewItem {
	out := make([]ReviewItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromItem(item))
	}
	return out
}

// FromHistoryEntry converts a joined verdict row.
func FromHistoryEntry(entry *review.HistoryEntry) VerdictEntry {
	if entry == nil {
		return VerdictEntry{}
	}
	return VerdictEntry{
		ID:          entry.Verdict.ID,
		ItemID:      entry.Verdict.ItemID,
		Queue:       entry.Queue,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Reviewer:    entry.Reviewer,
		Response:    entry.Response,
		CreatedAt:   formatTime(entry.Verdict.CreatedAt),
	}
}

// FromHealth converts store diagnostics.
func FromHealth(health review.DatabaseHealth) HealthResponse {
	return HealthResponse{
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		IntegrityCheck:   health.IntegrityCheck,
		TotalItems:       health.TotalItems,
		TotalVerdicts:    health.TotalVerdicts,
		Error:            health.Error,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
