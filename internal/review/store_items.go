package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AddItem enqueues a new review item for a subject entering moderation.
func (s *Store) AddItem(ctx context.Context, queueName, subjectType, subjectID string) (*Item, error) {
	queueName = strings.ToLower(strings.TrimSpace(queueName))
	subjectType = strings.TrimSpace(subjectType)
	subjectID = strings.TrimSpace(subjectID)
	if queueName == "" || subjectType == "" || subjectID == "" {
		return nil, errors.New("queue, subject type, and subject id are required")
	}

	now := timestamp(time.Now())
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO review_items (queue, subject_type, subject_id, completed, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?)`,
		queueName,
		subjectType,
		subjectID,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetItem(ctx, id)
}

// GetItem fetches a review item by identifier. Returns (nil, nil) when the
// item does not exist.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM review_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// NextUnreviewed returns the earliest open item in the queue that has no
// non-skip verdict from reviewer, or nil when the reviewer has seen everything.
// Ordering is (created_at, id) so repeated calls are stable.
func (s *Store) NextUnreviewed(ctx context.Context, queueName, reviewer string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM review_items i
         WHERE i.queue = ? AND i.completed = 0
           AND NOT EXISTS (
               SELECT 1 FROM review_verdicts v
               WHERE v.item_id = i.id AND v.reviewer = ? AND v.response <> 'skip'
           )
         ORDER BY i.created_at, i.id
         LIMIT 1`,
		queueName,
		reviewer,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next unreviewed: %w", err)
	}
	return item, nil
}

// MarkCompleted retires an item. The write is idempotent: completing an
// already-completed item is a no-op, and nothing ever un-completes one.
func (s *Store) MarkCompleted(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE review_items SET completed = 1, updated_at = ? WHERE id = ?`,
		timestamp(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}

// OpenItems returns every non-completed item in the queue ordered by creation.
func (s *Store) OpenItems(ctx context.Context, queueName string) ([]*Item, error) {
	return s.queryItems(
		ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE queue = ? AND completed = 0 ORDER BY created_at, id`,
		queueName,
	)
}

// ListItems returns items in the queue; completed items are included only when
// requested.
func (s *Store) ListItems(ctx context.Context, queueName string, includeCompleted bool) ([]*Item, error) {
	if !includeCompleted {
		return s.OpenItems(ctx, queueName)
	}
	return s.queryItems(
		ctx,
		`SELECT `+itemColumns+` FROM review_items WHERE queue = ? ORDER BY created_at, id`,
		queueName,
	)
}

func (s *Store) queryItems(ctx context.Context, query string, args ...any) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats returns open/completed item counts per queue.
func (s *Store) Stats(ctx context.Context) (map[string]QueueCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT queue, completed, COUNT(1) FROM review_items GROUP BY queue, completed`)
	if err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]QueueCounts)
	for rows.Next() {
		var (
			queueName string
			completed int64
			count     int
		)
		if err := rows.Scan(&queueName, &completed, &count); err != nil {
			return nil, err
		}
		counts := stats[queueName]
		if completed != 0 {
			counts.Completed += count
		} else {
			counts.Open += count
		}
		stats[queueName] = counts
	}
	return stats, rows.Err()
}
