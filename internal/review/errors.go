package review

import "errors"

// ErrNotFound marks lookups for items or verdicts that do not exist. Callers
// surface it as a routing/input error, not a retryable failure.
var ErrNotFound = errors.New("not found")
