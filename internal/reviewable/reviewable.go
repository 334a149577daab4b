package reviewable

import (
	"context"
	"strings"
	"sync"

	"reviewd/internal/queues"
	"reviewd/internal/review"
)

// Reviewable is the capability a reviewed subject must expose to the engine.
// The engine never owns the subject; it only observes it through this
// interface.
type Reviewable interface {
	// Exists reports whether the subject still needs review at all. A
	// subject that returns false has its item reclaimed without reviewer
	// involvement.
	Exists(ctx context.Context) (bool, error)

	// ShouldDisqualify decides whether the item can be retired. The tally
	// counts the item's non-skip verdicts, including one just recorded when
	// called from a submission. Implementations must not write to the
	// review store; they may be called from inside its transactions.
	ShouldDisqualify(ctx context.Context, q *queues.Queue, tally review.Tally) (bool, error)
}

// VerdictHook is the optional post-verdict capability. Presence is detected by
// type assertion on the resolved subject; failures never roll back the verdict.
type VerdictHook interface {
	OnVerdict(ctx context.Context, q *queues.Queue, item *review.Item, reviewer, response string) error
}

// Resolver materializes the Reviewable for one subject type. Returning
// (nil, nil) means the subject is gone and its item should be reclaimed.
type Resolver interface {
	Resolve(ctx context.Context, subjectType, subjectID string) (Reviewable, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, subjectType, subjectID string) (Reviewable, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, subjectType, subjectID string) (Reviewable, error) {
	return f(ctx, subjectType, subjectID)
}

// Registry maps subject types to resolvers. Registration happens during
// process bootstrap; lookups are concurrency-safe afterwards.
type Registry struct {
	mu       sync.RWMutex
	byType   map[string]Resolver
	fallback Resolver
}

// NewRegistry returns an empty resolver registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]Resolver)}
}

// Register installs a resolver for a subject type, replacing any previous one.
func (r *Registry) Register(subjectType string, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[normalizeType(subjectType)] = resolver
}

// SetFallback installs the resolver used for subject types with no explicit
// registration.
func (r *Registry) SetFallback(resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = resolver
}

// Fallback returns the currently installed fallback resolver, nil when unset.
func (r *Registry) Fallback() Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Resolve returns the Reviewable for a subject, or (nil, nil) when the
// subject is gone or no resolver knows its type.
func (r *Registry) Resolve(ctx context.Context, subjectType, subjectID string) (Reviewable, error) {
	r.mu.RLock()
	resolver, ok := r.byType[normalizeType(subjectType)]
	if !ok {
		resolver = r.fallback
	}
	r.mu.RUnlock()

	if resolver == nil {
		return nil, nil
	}
	return resolver.Resolve(ctx, subjectType, subjectID)
}

func normalizeType(subjectType string) string {
	return strings.ToLower(strings.TrimSpace(subjectType))
}
