package api_test

import (
	"context"
	"errors"
	"testing"

	"reviewd/internal/api"
	"reviewd/internal/review"
	"reviewd/internal/testsupport"
)

func TestQueueListIncludesEmptyQueues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.MustRegistry(t, cfg)
	service := api.NewQueueService(store, registry)

	testsupport.AddItem(t, store, "spam-flags", "Post", "1")

	summaries, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected both queues listed, got %#v", summaries)
	}
	byName := map[string]api.QueueSummary{}
	for _, s := range summaries {
		byName[s.Name] = s
	}
	if byName["spam-flags"].Open != 1 {
		t.Fatalf("expected one open spam-flags item, got %#v", byName["spam-flags"])
	}
	if byName["appeals"].Open != 0 || byName["appeals"].Completed != 0 {
		t.Fatalf("expected empty appeals queue, got %#v", byName["appeals"])
	}
}

func TestQueueItemScopedToQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.MustRegistry(t, cfg)
	service := api.NewQueueService(store, registry)

	item := testsupport.AddItem(t, store, "spam-flags", "Post", "1")
	spam, _ := registry.Find("spam-flags")
	appeals, _ := registry.Find("appeals")

	got, err := service.Item(context.Background(), spam, item.ID)
	if err != nil || got.ID != item.ID {
		t.Fatalf("expected item via owning queue, got %#v err=%v", got, err)
	}

	_, err = service.Item(context.Background(), appeals, item.ID)
	if !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound via wrong queue, got %v", err)
	}
}

func TestHistoryPageDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry := testsupport.MustRegistry(t, cfg)
	service := api.NewHistoryService(store)

	item := testsupport.AddItem(t, store, "spam-flags", "Post", "1")
	testsupport.MustSubmit(t, store, item.ID, "alice", "spam")
	spam, _ := registry.Find("spam-flags")

	page, err := service.Page(context.Background(), spam, api.HistoryQuery{Page: 0})
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if page.Page != 1 || page.Total != 1 || len(page.Verdicts) != 1 {
		t.Fatalf("unexpected page: %#v", page)
	}
	if page.Verdicts[0].Reviewer != "alice" || page.Verdicts[0].Response != "spam" {
		t.Fatalf("unexpected verdict entry: %#v", page.Verdicts[0])
	}
}

func TestHistoryDeleteMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	service := api.NewHistoryService(store)

	if err := service.Delete(context.Background(), 999); !errors.Is(err, review.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
