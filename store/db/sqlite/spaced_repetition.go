package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/quizdeck/quizdeck/store"
)

func (d *DB) UpsertSpacedRepetitionEntry(ctx context.Context, upsert *store.SpacedRepetitionEntry) (*store.SpacedRepetitionEntry, error) {
	stmt := `
		INSERT INTO spaced_repetition (user_id, question_id, ease_factor, interval_days, repetitions, due_ts, last_review_ts)
		VALUES (` + placeholders(7) + `)
		ON CONFLICT (user_id, question_id) DO UPDATE SET
			ease_factor = EXCLUDED.ease_factor,
			interval_days = EXCLUDED.interval_days,
			repetitions = EXCLUDED.repetitions,
			due_ts = EXCLUDED.due_ts,
			last_review_ts = EXCLUDED.last_review_ts
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.UserID, upsert.QuestionID, upsert.EaseFactor, upsert.IntervalDays,
		upsert.Repetitions, upsert.DueTs, upsert.LastReviewTs,
	).Scan(&upsert.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert spaced repetition entry: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListSpacedRepetitionEntries(ctx context.Context, find *store.FindSpacedRepetitionEntry) ([]*store.SpacedRepetitionEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "spaced_repetition.user_id = ?"), append(args, *v)
	}
	if v := find.QuestionID; v != nil {
		where, args = append(where, "spaced_repetition.question_id = ?"), append(args, *v)
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "spaced_repetition.due_ts < ?"), append(args, *v)
	}

	query := `
		SELECT id, user_id, question_id, ease_factor, interval_days, repetitions, due_ts, last_review_ts
		FROM spaced_repetition
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY spaced_repetition.due_ts ASC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spaced repetition entries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SpacedRepetitionEntry, 0)
	for rows.Next() {
		var entry store.SpacedRepetitionEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.QuestionID,
			&entry.EaseFactor,
			&entry.IntervalDays,
			&entry.Repetitions,
			&entry.DueTs,
			&entry.LastReviewTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan spaced repetition entry: %w", err)
		}
		list = append(list, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
