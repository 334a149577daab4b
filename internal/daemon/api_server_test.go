package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reviewd/internal/api"
	"reviewd/internal/logging"
	"reviewd/internal/review"
	"reviewd/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*Daemon, *review.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d, store
}

func doRequest(d *Daemon, method, path, token string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	d.apiServer.server.Handler.ServeHTTP(w, req)
	return w
}

func TestAuthFailuresAreUniform404(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	cases := []struct {
		name  string
		path  string
		token string
	}{
		{"missing token", "/api/queues", ""},
		{"unknown token", "/api/queues", "tok-nobody"},
		{"unknown queue", "/api/queues/ghosts/next", "tok-alice"},
		{"missing privilege", "/api/queues/appeals/next", "tok-alice"},
	}

	var bodies []string
	for _, tc := range cases {
		w := doRequest(d, http.MethodGet, tc.path, tc.token, "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", tc.name, w.Code)
		}
		bodies = append(bodies, w.Body.String())
	}
	for _, body := range bodies[1:] {
		if body != bodies[0] {
			t.Fatalf("404 bodies must be indistinguishable: %q vs %q", bodies[0], body)
		}
	}
}

func TestQueueListRequiresOnlyAuthentication(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	// bob has no senior-reviewer role but still sees the queue index.
	w := doRequest(d, http.MethodGet, "/api/queues", "tok-bob", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.QueueListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(resp.Queues) != 2 {
		t.Fatalf("expected both queues, got %#v", resp.Queues)
	}
}

func TestReviewFlowOverHTTP(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	// Producer enqueues a subject.
	w := doRequest(d, http.MethodPost, "/api/queues/spam-flags/items", "tok-alice",
		`{"subjectType":"Post","subjectId":"42"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("enqueue: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created api.ReviewItem
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created item: %v", err)
	}

	// Reviewer pulls it.
	w = doRequest(d, http.MethodGet, "/api/queues/spam-flags/next", "tok-alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("next: expected 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("next must disable caching, got %q", cc)
	}
	var next api.NextItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode next: %v", err)
	}
	if next.Item == nil || next.Item.ID != created.ID {
		t.Fatalf("expected enqueued item, got %#v", next)
	}

	// One spam vote disqualifies on this queue.
	w = doRequest(d, http.MethodPost, "/api/queues/spam-flags/submit", "tok-alice",
		fmt.Sprintf(`{"itemId":%d,"response":"spam"}`, created.ID))
	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var submitted api.SubmitResponse
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit: %v", err)
	}
	if !submitted.Disqualified {
		t.Fatalf("expected disqualification, got %#v", submitted)
	}

	// A second substantive verdict is a duplicate.
	w = doRequest(d, http.MethodPost, "/api/queues/spam-flags/submit", "tok-bob",
		fmt.Sprintf(`{"itemId":%d,"response":"not-spam"}`, created.ID))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: expected 409, got %d", w.Code)
	}

	// The verdict shows up in history.
	w = doRequest(d, http.MethodGet, "/api/queues/spam-flags/reviews?user=alice", "tok-alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reviews: expected 200, got %d", w.Code)
	}
	var history api.HistoryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if history.Total != 1 || len(history.Verdicts) != 1 || history.Verdicts[0].Response != "spam" {
		t.Fatalf("unexpected history: %#v", history)
	}

	// Only admins can delete verdicts.
	deletePath := fmt.Sprintf("/api/reviews/%d", history.Verdicts[0].ID)
	w = doRequest(d, http.MethodDelete, deletePath, "tok-alice", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-admin delete: expected 404, got %d", w.Code)
	}
	w = doRequest(d, http.MethodDelete, deletePath, "tok-root", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("admin delete: expected 204, got %d", w.Code)
	}
	w = doRequest(d, http.MethodDelete, deletePath, "tok-root", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: expected 404, got %d", w.Code)
	}
}

func TestSubmitRejectsForeignResponse(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	item := testsupport.AddItem(t, store, "spam-flags", "Post", "1")
	w := doRequest(d, http.MethodPost, "/api/queues/spam-flags/submit", "tok-alice",
		fmt.Sprintf(`{"itemId":%d,"response":"uphold"}`, item.ID))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestNextOnEmptyQueueReportsExhausted(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	w := doRequest(d, http.MethodGet, "/api/queues/spam-flags/next", "tok-alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var next api.NextItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &next); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if next.Status != "exhausted" || next.Item != nil {
		t.Fatalf("expected exhausted with no item, got %#v", next)
	}
}

func TestRecheckRequiresDeveloperRole(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	w := doRequest(d, http.MethodPost, "/api/queues/spam-flags/recheck", "tok-bob", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("non-developer recheck: expected 404, got %d", w.Code)
	}

	w = doRequest(d, http.MethodPost, "/api/queues/spam-flags/recheck", "tok-alice", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("developer recheck: expected 202, got %d", w.Code)
	}
	var ack api.RecheckResponse
	if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if ack.RequestID == "" {
		t.Fatal("expected a run id in the acknowledgment")
	}
}

func TestItemFetchScopedToQueue(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	item := testsupport.AddItem(t, store, "spam-flags", "Post", "1")
	w := doRequest(d, http.MethodGet, fmt.Sprintf("/api/queues/spam-flags/items/%d", item.ID), "tok-alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doRequest(d, http.MethodGet, fmt.Sprintf("/api/queues/appeals/items/%d", item.ID), "tok-root", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-queue fetch: expected 404, got %d", w.Code)
	}
}

func TestHealthEndpointIsUnauthenticated(t *testing.T) {
	d, store := newTestDaemon(t)
	defer store.Close()

	w := doRequest(d, http.MethodGet, "/api/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var health api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !health.DatabaseReadable {
		t.Fatalf("expected readable database, got %#v", health)
	}
}
