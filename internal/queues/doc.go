// Package queues exposes the static registry of configured review queues.
// Queues are loaded once from configuration at process start; there is no
// mutation API.
package queues
