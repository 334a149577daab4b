// Command reviewd runs the moderation review service and provides operator
// tooling for its queues, items, verdict history, and configuration.
package main
