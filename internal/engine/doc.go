// Package engine implements the review assignment and consensus core: the
// item selector, the verdict recorder, and the background disqualification
// sweeper. All three may run concurrently against the same queue; they only
// ever move items from open to completed, and the store's transactional
// verdict insert is the safety net for racing submissions.
package engine
