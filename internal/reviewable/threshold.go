package reviewable

import (
	"context"

	"reviewd/internal/queues"
	"reviewd/internal/review"
)

// ExistenceProbe reports whether a subject still exists. A nil probe means
// subjects are assumed to exist.
type ExistenceProbe func(ctx context.Context, subjectType, subjectID string) (bool, error)

// ThresholdPolicy is the built-in Reviewable used when no subject-specific
// resolver is registered. It disqualifies an item once the queue's configured
// response has accumulated the configured number of votes.
type ThresholdPolicy struct {
	SubjectType string
	SubjectID   string
	Probe       ExistenceProbe
}

// Exists consults the probe when one is set; otherwise the subject is assumed
// to still exist.
func (p ThresholdPolicy) Exists(ctx context.Context) (bool, error) {
	if p.Probe == nil {
		return true, nil
	}
	return p.Probe(ctx, p.SubjectType, p.SubjectID)
}

// ShouldDisqualify applies the queue's vote threshold. Queues without a
// disqualify response never retire items automatically.
func (p ThresholdPolicy) ShouldDisqualify(_ context.Context, q *queues.Queue, tally review.Tally) (bool, error) {
	if q == nil || q.DisqualifyResponse == "" {
		return false, nil
	}
	votes := q.DisqualifyVotes
	if votes < 1 {
		votes = 1
	}
	return tally[q.DisqualifyResponse] >= votes, nil
}

// ThresholdResolver returns a resolver producing ThresholdPolicy subjects,
// suitable as a registry fallback.
func ThresholdResolver(probe ExistenceProbe) Resolver {
	return ResolverFunc(func(_ context.Context, subjectType, subjectID string) (Reviewable, error) {
		return ThresholdPolicy{SubjectType: subjectType, SubjectID: subjectID, Probe: probe}, nil
	})
}
