package engine_test

import (
	"context"
	"sync"
	"testing"

	"reviewd/internal/queues"
	"reviewd/internal/review"
	"reviewd/internal/reviewable"
	"reviewd/internal/testsupport"
)

// fakeSubject is a controllable Reviewable for engine tests.
type fakeSubject struct {
	mu        sync.Mutex
	exists    bool
	existsErr error
	dq        func(q *queues.Queue, tally review.Tally) bool
	dqErr     error
	hookErr   error
	hookCalls int
}

func (f *fakeSubject) Exists(context.Context) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeSubject) ShouldDisqualify(_ context.Context, q *queues.Queue, tally review.Tally) (bool, error) {
	if f.dqErr != nil {
		return false, f.dqErr
	}
	if f.dq == nil {
		return false, nil
	}
	return f.dq(q, tally), nil
}

func (f *fakeSubject) hookCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hookCalls
}

// hookedSubject adds the optional post-verdict capability.
type hookedSubject struct {
	*fakeSubject
}

func (h hookedSubject) OnVerdict(_ context.Context, _ *queues.Queue, _ *review.Item, _, _ string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hookCalls++
	return h.hookErr
}

// fakeResolver maps subject ids to subjects; missing ids resolve as gone.
type fakeResolver struct {
	mu       sync.Mutex
	subjects map[string]reviewable.Reviewable
	errs     map[string]error
}

func (r *fakeResolver) Resolve(_ context.Context, _, subjectID string) (reviewable.Reviewable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[subjectID]; ok {
		return nil, err
	}
	return r.subjects[subjectID], nil
}

func (r *fakeResolver) set(subjectID string, subject reviewable.Reviewable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects[subjectID] = subject
}

type engineFixture struct {
	store    *review.Store
	registry *queues.Registry
	resolver *fakeResolver
	spam     *queues.Queue
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry, err := queues.NewRegistry(cfg.Queues)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	spam, ok := registry.Find("spam-flags")
	if !ok {
		t.Fatal("spam-flags queue missing from test config")
	}
	return &engineFixture{
		store:    store,
		registry: registry,
		resolver: &fakeResolver{subjects: map[string]reviewable.Reviewable{}, errs: map[string]error{}},
		spam:     spam,
	}
}

func (f *engineFixture) resolvers() *reviewable.Registry {
	reg := reviewable.NewRegistry()
	reg.SetFallback(f.resolver)
	return reg
}
