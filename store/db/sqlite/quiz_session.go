package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quizdeck/quizdeck/store"
)

func (d *DB) CreateQuizSession(ctx context.Context, create *store.QuizSession) (*store.QuizSession, error) {
	answers, err := marshalAnswers(create.Answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}

	fields := []string{"uid", "user_id", "quiz_id", "current_index", "answers", "status", "timezone", "start_ts", "last_activity_ts"}
	args := []any{
		create.UID, create.UserID, create.QuizID, create.CurrentIndex, answers,
		create.Status.String(), create.Timezone, create.StartTs, create.LastActivityTs,
	}

	stmt := `INSERT INTO quiz_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create quiz session: %w", err)
	}

	return create, nil
}

func (d *DB) ListQuizSessions(ctx context.Context, find *store.FindQuizSession) ([]*store.QuizSession, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "quiz_session.id = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "quiz_session.uid = ?"), append(args, *v)
	}
	if v := find.UserID; v != nil {
		where, args = append(where, "quiz_session.user_id = ?"), append(args, *v)
	}
	if v := find.QuizID; v != nil {
		where, args = append(where, "quiz_session.quiz_id = ?"), append(args, *v)
	}
	if v := find.Status; v != nil {
		where, args = append(where, "quiz_session.status = ?"), append(args, v.String())
	}
	if v := find.StartedAfter; v != nil {
		where, args = append(where, "quiz_session.start_ts > ?"), append(args, *v)
	}

	query := `
		SELECT
			id, uid, user_id, quiz_id, current_index, answers, status, timezone,
			start_ts, last_activity_ts, completed_ts
		FROM quiz_session
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY quiz_session.start_ts DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quiz sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.QuizSession, 0)
	for rows.Next() {
		var session store.QuizSession
		var answers, status string
		var completedTs sql.NullInt64

		if err := rows.Scan(
			&session.ID,
			&session.UID,
			&session.UserID,
			&session.QuizID,
			&session.CurrentIndex,
			&answers,
			&status,
			&session.Timezone,
			&session.StartTs,
			&session.LastActivityTs,
			&completedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quiz session: %w", err)
		}

		session.Status = store.SessionStatus(status)
		if session.Answers, err = unmarshalAnswers(answers); err != nil {
			return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
		}
		if completedTs.Valid {
			session.CompletedTs = &completedTs.Int64
		}

		list = append(list, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) UpdateQuizSession(ctx context.Context, update *store.UpdateQuizSession) error {
	set, args := []string{}, []any{}

	if v := update.CurrentIndex; v != nil {
		set, args = append(set, "current_index = ?"), append(args, *v)
	}
	if update.Answers != nil {
		answers, err := marshalAnswers(update.Answers)
		if err != nil {
			return fmt.Errorf("failed to marshal answers: %w", err)
		}
		set, args = append(set, "answers = ?"), append(args, answers)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = ?"), append(args, v.String())
	}
	if v := update.LastActivityTs; v != nil {
		set, args = append(set, "last_activity_ts = ?"), append(args, *v)
	}
	if v := update.CompletedTs; v != nil {
		set, args = append(set, "completed_ts = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := `UPDATE quiz_session SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update quiz session: %w", err)
	}
	return nil
}

func (d *DB) ExpireStaleSessions(ctx context.Context, cutoffTs int64) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`UPDATE quiz_session SET status = ? WHERE status = ? AND start_ts < ?`,
		store.SessionExpired.String(), store.SessionInProgress.String(), cutoffTs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale sessions: %w", err)
	}
	return result.RowsAffected()
}
