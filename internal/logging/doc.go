// Package logging builds the process-wide slog logger (console or JSON output,
// optional log file fan-out) and defines the standardized field keys used
// across reviewd components.
package logging
