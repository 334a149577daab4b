// Package review persists moderation review items and verdicts in SQLite.
//
// The store enforces the two hard invariants of the engine at the database
// level: item completion is a one-way idempotent write, and a partial unique
// index on (item_id, reviewer) for non-skip responses makes the
// duplicate-check-then-insert sequence in SubmitVerdict race-free.
package review
