// Package daemon runs the reviewd service: it wires the review store, queue
// registry, and engine together, serves the HTTP API, schedules periodic
// disqualification sweeps, and enforces single-instance execution.
package daemon
