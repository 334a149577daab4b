package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueSummary describes a configured queue and its current item counts.
type QueueSummary struct {
	Name      string   `json:"name"`
	Responses []string `json:"responses"`
	Open      int      `json:"open"`
	Completed int      `json:"completed"`
}

// ReviewItem describes a review item in a transport-friendly format.
type ReviewItem struct {
	ID          int64  `json:"id"`
	Queue       string `json:"queue"`
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// VerdictEntry describes one recorded verdict for history listings.
type VerdictEntry struct {
	ID          int64  `json:"id"`
	ItemID      int64  `json:"itemId"`
	Queue       string `json:"queue"`
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
	Reviewer    string `json:"reviewer"`
	Response    string `json:"response"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// QueueListResponse wraps the queue index payload.
type QueueListResponse struct {
	Queues []QueueSummary `json:"queues"`
}

// NextItemResponse wraps the selector result. Item is null when the caller
// has exhausted the queue.
type NextItemResponse struct {
	Status string      `json:"status"`
	Item   *ReviewItem `json:"item,omitempty"`
}

// SubmitRequest is the verdict submission payload.
type SubmitRequest struct {
	ItemID   int64  `json:"itemId"`
	Response string `json:"response"`
}

// SubmitResponse reports a verdict submission result. Warning carries a
// post-verdict hook failure on an otherwise successful submission.
type SubmitResponse struct {
	Status       string `json:"status"`
	Disqualified bool   `json:"disqualified,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

// EnqueueRequest is the producer payload creating a review item.
type EnqueueRequest struct {
	SubjectType string `json:"subjectType"`
	SubjectID   string `json:"subjectId"`
}

// RecheckResponse acknowledges a sweep trigger.
type RecheckResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"requestId"`
}

// HistoryResponse wraps a history page.
type HistoryResponse struct {
	Verdicts []VerdictEntry `json:"verdicts"`
	Page     int            `json:"page"`
	PerPage  int            `json:"perPage"`
	Total    int            `json:"total"`
}

// HealthResponse reports review database diagnostics.
type HealthResponse struct {
	DatabaseExists   bool   `json:"databaseExists"`
	DatabaseReadable bool   `json:"databaseReadable"`
	IntegrityCheck   bool   `json:"integrityCheck"`
	TotalItems       int    `json:"totalItems"`
	TotalVerdicts    int    `json:"totalVerdicts"`
	Error            string `json:"error,omitempty"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
