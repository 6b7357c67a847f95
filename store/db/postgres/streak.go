package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quizdeck/quizdeck/store"
)

func (d *DB) GetStreak(ctx context.Context, userID int32) (*store.Streak, error) {
	var streak store.Streak
	err := d.db.QueryRowContext(ctx, `
		SELECT user_id, current_streak, longest_streak, last_date_key, updated_ts
		FROM streak
		WHERE user_id = $1`, userID,
	).Scan(
		&streak.UserID,
		&streak.Current,
		&streak.Longest,
		&streak.LastDateKey,
		&streak.UpdatedTs,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}
	return &streak, nil
}

func (d *DB) UpsertStreak(ctx context.Context, upsert *store.Streak) (*store.Streak, error) {
	stmt := `
		INSERT INTO streak (user_id, current_streak, longest_streak, last_date_key, updated_ts)
		VALUES (` + placeholders(5) + `)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_date_key = EXCLUDED.last_date_key,
			updated_ts = EXCLUDED.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.UserID, upsert.Current, upsert.Longest, upsert.LastDateKey, upsert.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert streak: %w", err)
	}
	return upsert, nil
}

func (d *DB) CreateCompletionEvent(ctx context.Context, create *store.CompletionEvent) (*store.CompletionEvent, error) {
	stmt := `INSERT INTO completion_event (user_id, quiz_id, session_id, date_key)
		VALUES (` + placeholders(4) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt,
		create.UserID, create.QuizID, create.SessionID, create.DateKey,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create completion event: %w", err)
	}
	return create, nil
}

func (d *DB) ListCompletionEvents(ctx context.Context, find *store.FindCompletionEvent) ([]*store.CompletionEvent, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.UserID; v != nil {
		where, args = append(where, "completion_event.user_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.DateKey; v != nil {
		where, args = append(where, "completion_event.date_key = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, user_id, quiz_id, session_id, date_key, created_ts
		FROM completion_event
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY completion_event.date_key DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion events: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CompletionEvent, 0)
	for rows.Next() {
		var event store.CompletionEvent
		if err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.QuizID,
			&event.SessionID,
			&event.DateKey,
			&event.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completion event: %w", err)
		}
		list = append(list, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
