package testsupport

import (
	"context"
	"testing"

	"reviewd/internal/config"
	"reviewd/internal/review"
)

// MustOpenStore opens a review.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *review.Store {
	t.Helper()

	store, err := review.Open(cfg)
	if err != nil {
		t.Fatalf("review.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddItem creates a review item for tests using the provided store.
func AddItem(t testing.TB, store *review.Store, queueName, subjectType, subjectID string) *review.Item {
	t.Helper()

	item, err := store.AddItem(context.Background(), queueName, subjectType, subjectID)
	if err != nil {
		t.Fatalf("store.AddItem: %v", err)
	}
	return item
}

// MustSubmit records a verdict and fails the test on error or duplicate.
func MustSubmit(t testing.TB, store *review.Store, itemID int64, reviewer, response string) *review.Verdict {
	t.Helper()

	outcome, err := store.SubmitVerdict(context.Background(), itemID, reviewer, response, nil)
	if err != nil {
		t.Fatalf("store.SubmitVerdict: %v", err)
	}
	if outcome.Duplicate {
		t.Fatalf("unexpected duplicate for item %d reviewer %s", itemID, reviewer)
	}
	return outcome.Verdict
}
