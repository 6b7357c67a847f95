package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/quizdeck/quizdeck/store"
)

func (d *DB) CreateDailyQuiz(ctx context.Context, create *store.DailyQuiz) (*store.DailyQuiz, error) {
	questionIDs, err := marshalJSON(create.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question ids: %w", err)
	}

	stmt := `INSERT INTO daily_quiz (uid, date_key, question_ids)
		VALUES (` + placeholders(3) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, create.UID, create.DateKey, questionIDs).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create daily quiz: %w", err)
	}

	return create, nil
}

func (d *DB) ListDailyQuizzes(ctx context.Context, find *store.FindDailyQuiz) ([]*store.DailyQuiz, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "daily_quiz.id = ?"), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "daily_quiz.uid = ?"), append(args, *v)
	}
	if v := find.DateKey; v != nil {
		where, args = append(where, "daily_quiz.date_key = ?"), append(args, *v)
	}
	if len(find.DateKeys) > 0 {
		list := make([]string, 0, len(find.DateKeys))
		for _, key := range find.DateKeys {
			list = append(list, "?")
			args = append(args, key)
		}
		where = append(where, "daily_quiz.date_key IN ("+strings.Join(list, ", ")+")")
	}

	query := `
		SELECT id, uid, created_ts, date_key, question_ids
		FROM daily_quiz
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY daily_quiz.date_key DESC`

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily quizzes: %w", err)
	}
	defer rows.Close()

	list := make([]*store.DailyQuiz, 0)
	for rows.Next() {
		var quiz store.DailyQuiz
		var questionIDs string

		if err := rows.Scan(
			&quiz.ID,
			&quiz.UID,
			&quiz.CreatedTs,
			&quiz.DateKey,
			&questionIDs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan daily quiz: %w", err)
		}

		if quiz.QuestionIDs, err = unmarshalInt32List(questionIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal question ids: %w", err)
		}

		list = append(list, &quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) DeleteDailyQuizzes(ctx context.Context, delete *store.DeleteDailyQuiz) (int64, error) {
	result, err := d.db.ExecContext(ctx,
		`DELETE FROM daily_quiz WHERE created_ts < ?`, delete.CreatedBefore,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete daily quizzes: %w", err)
	}
	return result.RowsAffected()
}
