// Package api defines the transport payloads shared by the HTTP server and
// the CLI, plus thin read-side services over the review store.
package api
