package logging

import "log/slog"

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldQueue is the standardized structured logging key for queue names.
	FieldQueue = "queue"
	// FieldItemID is the standardized structured logging key for review item identifiers.
	FieldItemID = "item_id"
	// FieldReviewer is the standardized structured logging key for reviewer names.
	FieldReviewer = "reviewer"
	// FieldSubject is the standardized structured logging key for subject references (type/id).
	FieldSubject = "subject"
	// FieldRunID is the standardized structured logging key for sweep run identifiers.
	FieldRunID = "run_id"
	// FieldRequestID is the standardized structured logging key for HTTP request correlation.
	FieldRequestID = "request_id"
)

// Error produces the standardized attribute for error values.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
