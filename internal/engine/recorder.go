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

// SubmitResult reports a successful verdict submission. HookWarning carries a
// post-verdict hook failure: the verdict stands, but the caller should know the
// side effect did not run.
type SubmitResult struct {
	Verdict      *review.Verdict
	Disqualified bool
	HookWarning  string
}

// Recorder validates and persists reviewer verdicts.
type Recorder struct {
	store     *review.Store
	resolvers *reviewable.Registry
	logger    *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(store *review.Store, resolvers *reviewable.Registry, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Recorder{store: store, resolvers: resolvers, logger: logger}
}

// Submit records reviewer's response to an item in q.
//
// Errors: ErrInvalidResponse when the queue does not permit the response,
// review.ErrNotFound for an unknown item, ErrDuplicate when a substantive
// verdict already blocks this one. The duplicate checks, the verdict insert,
// and any disqualification all commit in one store transaction; the optional
// post-verdict hook runs after the commit and its failure is reported through
// SubmitResult.HookWarning, never by undoing the verdict.
func (r *Recorder) Submit(ctx context.Context, q *queues.Queue, itemID int64, reviewer, response string) (*SubmitResult, error) {
	if !q.AllowsResponse(response) {
		return nil, fmt.Errorf("queue %s does not accept %q: %w", q.Name, response, ErrInvalidResponse)
	}

	item, err := r.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item %d: %w", itemID, review.ErrNotFound)
	}

	subject, err := r.resolvers.Resolve(ctx, item.SubjectType, item.SubjectID)
	if err != nil {
		// The verdict is still worth recording; without a subject there is
		// just no hook and no disqualification to run.
		r.logger.Warn("subject resolution failed during submit",
			slog.String(logging.FieldQueue, q.Name),
			slog.Int64(logging.FieldItemID, itemID),
			slog.Any("error", err))
		subject = nil
	}

	var (
		disqualify review.DisqualifyFunc
		dqErr      error
	)
	if response != queues.SkipResponse && subject != nil {
		disqualify = func(it *review.Item, tally review.Tally) bool {
			retire, err := subject.ShouldDisqualify(ctx, q, tally)
			if err != nil {
				dqErr = err
				return false
			}
			return retire
		}
	}

	outcome, err := r.store.SubmitVerdict(ctx, itemID, reviewer, response, disqualify)
	if err != nil {
		return nil, err
	}
	if outcome.Duplicate {
		return nil, fmt.Errorf("item %d already decided for %s: %w", itemID, reviewer, ErrDuplicate)
	}
	if dqErr != nil {
		r.logger.Warn("disqualification check failed, item left open",
			slog.String(logging.FieldQueue, q.Name),
			slog.Int64(logging.FieldItemID, itemID),
			slog.Any("error", dqErr))
	}

	result := &SubmitResult{Verdict: outcome.Verdict, Disqualified: outcome.Disqualified}

	if response != queues.SkipResponse && subject != nil {
		if hook, ok := subject.(reviewable.VerdictHook); ok {
			if err := hook.OnVerdict(ctx, q, outcome.Item, reviewer, response); err != nil {
				result.HookWarning = err.Error()
				r.logger.Warn("post-verdict hook failed",
					slog.String(logging.FieldQueue, q.Name),
					slog.Int64(logging.FieldItemID, itemID),
					slog.String(logging.FieldReviewer, reviewer),
					slog.Any("error", err))
			}
		}
	}

	r.logger.Info("verdict recorded",
		slog.String(logging.FieldQueue, q.Name),
		slog.Int64(logging.FieldItemID, itemID),
		slog.String(logging.FieldReviewer, reviewer),
		slog.String("response", response),
		slog.Bool("disqualified", result.Disqualified))
	return result, nil
}
