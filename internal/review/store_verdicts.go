package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const skipResponse = "skip"

// SubmitVerdict records a verdict for an item inside one immediate
// transaction: duplicate checks, the insert, and — for non-skip verdicts with
// a disqualification predicate — the completion write all commit together.
// SQLite serializes writers, so two racing submissions cannot both pass the
// checks; the partial unique index on (item_id, reviewer) backstops the
// per-reviewer constraint regardless.
//
// The returned outcome reports Duplicate instead of an error for the
// already-decided cases; ErrNotFound is returned when the item is unknown.
func (s *Store) SubmitVerdict(ctx context.Context, itemID int64, reviewer, response string, disqualify DisqualifyFunc) (*SubmitOutcome, error) {
	if strings.TrimSpace(reviewer) == "" {
		return nil, errors.New("reviewer is required")
	}
	if strings.TrimSpace(response) == "" {
		return nil, errors.New("response is required")
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return nil, fmt.Errorf("begin submit tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	row := conn.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM review_items WHERE id = ?`, itemID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load item: %w", err)
	}

	// An item completed after a substantive verdict is decided for everyone.
	// An item completed without one (auto-disqualified before review) still
	// accepts skips.
	if item.Completed {
		decided, err := connExists(ctx, conn,
			`SELECT 1 FROM review_verdicts WHERE item_id = ? AND response <> 'skip'`, itemID)
		if err != nil {
			return nil, err
		}
		if decided {
			return &SubmitOutcome{Item: item, Duplicate: true}, nil
		}
	}

	reviewed, err := connExists(ctx, conn,
		`SELECT 1 FROM review_verdicts WHERE item_id = ? AND reviewer = ? AND response <> 'skip'`, itemID, reviewer)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return &SubmitOutcome{Item: item, Duplicate: true}, nil
	}

	now := timestamp(time.Now())
	res, err := conn.ExecContext(
		ctx,
		`INSERT INTO review_verdicts (item_id, reviewer, response, created_at) VALUES (?, ?, ?, ?)`,
		itemID,
		reviewer,
		response,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &SubmitOutcome{Item: item, Duplicate: true}, nil
		}
		return nil, fmt.Errorf("insert verdict: %w", err)
	}
	verdictID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	outcome := &SubmitOutcome{
		Item: item,
		Verdict: &Verdict{
			ID:       verdictID,
			ItemID:   itemID,
			Reviewer: reviewer,
			Response: response,
		},
	}
	outcome.Verdict.CreatedAt, _ = parseTimeString(now)

	if response != skipResponse && disqualify != nil {
		tally, err := connTally(ctx, conn, itemID)
		if err != nil {
			return nil, err
		}
		if disqualify(item, tally) {
			if _, err := conn.ExecContext(
				ctx,
				`UPDATE review_items SET completed = 1, updated_at = ? WHERE id = ?`,
				now,
				itemID,
			); err != nil {
				return nil, fmt.Errorf("complete item: %w", err)
			}
			item.Completed = true
			outcome.Disqualified = true
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return nil, fmt.Errorf("commit submit tx: %w", err)
	}
	committed = true
	return outcome, nil
}

// VerdictTally returns the per-response counts of non-skip verdicts for an item.
func (s *Store) VerdictTally(ctx context.Context, itemID int64) (Tally, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT response, COUNT(1) FROM review_verdicts WHERE item_id = ? AND response <> 'skip' GROUP BY response`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("verdict tally: %w", err)
	}
	defer rows.Close()

	tally := make(Tally)
	for rows.Next() {
		var (
			response string
			count    int
		)
		if err := rows.Scan(&response, &count); err != nil {
			return nil, err
		}
		tally[response] = count
	}
	return tally, rows.Err()
}

// GetVerdict fetches a verdict by identifier. Returns (nil, nil) when missing.
func (s *Store) GetVerdict(ctx context.Context, id int64) (*Verdict, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+verdictColumns+` FROM review_verdicts WHERE id = ?`, id)
	verdict, err := scanVerdict(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get verdict: %w", err)
	}
	return verdict, nil
}

// DeleteVerdict removes a verdict by identifier, freeing the reviewer's
// uniqueness slot on the item. Reserved for administrative callers.
func (s *Store) DeleteVerdict(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM review_verdicts WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete verdict: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// History returns verdicts for a queue, newest first, paginated at
// HistoryPageSize. The second return value is the total match count.
func (s *Store) History(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, int, error) {
	if strings.TrimSpace(filter.Queue) == "" {
		return nil, 0, errors.New("history filter requires a queue")
	}

	where := []string{"i.queue = ?"}
	args := []any{strings.ToLower(strings.TrimSpace(filter.Queue))}
	if filter.Reviewer != "" {
		where = append(where, "v.reviewer = ?")
		args = append(args, filter.Reviewer)
	}
	if filter.Response != "" {
		where = append(where, "v.response = ?")
		args = append(args, filter.Response)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(1) FROM review_verdicts v JOIN review_items i ON i.id = v.item_id WHERE ` + whereClause
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * HistoryPageSize

	query := `SELECT v.id, v.item_id, v.reviewer, v.response, v.created_at, i.queue, i.subject_type, i.subject_id
              FROM review_verdicts v JOIN review_items i ON i.id = v.item_id
              WHERE ` + whereClause + `
              ORDER BY v.created_at DESC, v.id DESC
              LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, HistoryPageSize, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var (
			entry      HistoryEntry
			createdRaw string
		)
		if err := rows.Scan(
			&entry.Verdict.ID,
			&entry.Verdict.ItemID,
			&entry.Verdict.Reviewer,
			&entry.Verdict.Response,
			&createdRaw,
			&entry.Queue,
			&entry.SubjectType,
			&entry.SubjectID,
		); err != nil {
			return nil, 0, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			entry.Verdict.CreatedAt = created
		}
		entries = append(entries, &entry)
	}
	return entries, total, rows.Err()
}

func connExists(ctx context.Context, conn *sql.Conn, query string, args ...any) (bool, error) {
	row := conn.QueryRowContext(ctx, `SELECT EXISTS(`+query+`)`, args...)
	var exists int
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("existence check: %w", err)
	}
	return exists != 0, nil
}

func connTally(ctx context.Context, conn *sql.Conn, itemID int64) (Tally, error) {
	rows, err := conn.QueryContext(
		ctx,
		`SELECT response, COUNT(1) FROM review_verdicts WHERE item_id = ? AND response <> 'skip' GROUP BY response`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("tally in tx: %w", err)
	}
	defer rows.Close()

	tally := make(Tally)
	for rows.Next() {
		var (
			response string
			count    int
		)
		if err := rows.Scan(&response, &count); err != nil {
			return nil, err
		}
		tally[response] = count
	}
	return tally, rows.Err()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
