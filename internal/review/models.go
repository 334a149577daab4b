package review

import "time"

// Item is one pending review task. It references an external subject by
// (type, id) and tracks completion. Completed is one-way: every writer only
// ever moves it from false to true.
type Item struct {
	ID          int64
	Queue       string
	SubjectType string
	SubjectID   string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Verdict is one reviewer's recorded response to an item. Verdicts are never
// updated; administrative deletion is the only mutation after insert.
type Verdict struct {
	ID        int64
	ItemID    int64
	Reviewer  string
	Response  string
	CreatedAt time.Time
}

// Tally counts non-skip verdicts per response for a single item.
type Tally map[string]int

// SubmitOutcome reports what a verdict submission did.
type SubmitOutcome struct {
	Item         *Item
	Verdict      *Verdict
	Duplicate    bool
	Disqualified bool
}

// DisqualifyFunc is evaluated inside the submit transaction, after the new
// verdict is inserted, with a tally that includes it. Implementations must not
// write to the review store.
type DisqualifyFunc func(item *Item, tally Tally) bool

// HistoryEntry is a verdict joined with its item for history listings.
type HistoryEntry struct {
	Verdict
	Queue       string
	SubjectType string
	SubjectID   string
}

// HistoryFilter narrows a history query. Queue is required; the rest are
// optional. Page is 1-based.
type HistoryFilter struct {
	Queue    string
	Reviewer string
	Response string
	Page     int
}

// HistoryPageSize is the fixed number of verdicts per history page.
const HistoryPageSize = 100

// QueueCounts aggregates item counts for one queue.
type QueueCounts struct {
	Open      int
	Completed int
}

// DatabaseHealth captures diagnostic information about the review database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	IntegrityCheck   bool
	TotalItems       int
	TotalVerdicts    int
	Error            string
}
