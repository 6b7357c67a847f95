package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/quizdeck/quizdeck/store"
)

func (d *DB) CreateQuestion(ctx context.Context, create *store.Question) (*store.Question, error) {
	choices, err := marshalJSON(create.Choices)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal choices: %w", err)
	}
	topics, err := marshalJSON(create.Topics)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal topics: %w", err)
	}

	fields := []string{"uid", "source_ref", "prompt", "choices", "answer", "difficulty", "topics", "approved_ts"}
	args := []any{create.UID, create.SourceRef, create.Prompt, choices, create.Answer, create.Difficulty.String(), topics, create.ApprovedTs}

	stmt := `INSERT INTO question (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, created_ts`

	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&create.ID,
		&create.CreatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return create, nil
}

func questionWhere(find *store.FindQuestion) (string, []any) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "question.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "question.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.IDs) > 0 {
		list := make([]string, 0, len(find.IDs))
		for _, id := range find.IDs {
			list = append(list, placeholder(len(args)+1))
			args = append(args, id)
		}
		where = append(where, "question.id IN ("+strings.Join(list, ", ")+")")
	}
	if find.ApprovedOnly {
		where = append(where, "question.approved_ts IS NOT NULL")
	}
	if len(find.Difficulties) > 0 {
		list := make([]string, 0, len(find.Difficulties))
		for _, difficulty := range find.Difficulties {
			list = append(list, placeholder(len(args)+1))
			args = append(args, difficulty.String())
		}
		where = append(where, "question.difficulty IN ("+strings.Join(list, ", ")+")")
	}
	if len(find.ExcludeIDs) > 0 {
		list := make([]string, 0, len(find.ExcludeIDs))
		for _, id := range find.ExcludeIDs {
			list = append(list, placeholder(len(args)+1))
			args = append(args, id)
		}
		where = append(where, "question.id NOT IN ("+strings.Join(list, ", ")+")")
	}
	if v := find.Topic; v != nil {
		where, args = append(where, "question.topics LIKE "+placeholder(len(args)+1)), append(args, fmt.Sprintf(`%%"%s"%%`, *v))
	}

	return strings.Join(where, " AND "), args
}

func (d *DB) ListQuestions(ctx context.Context, find *store.FindQuestion) ([]*store.Question, error) {
	where, args := questionWhere(find)

	orderBy := "ORDER BY question.id ASC"
	if find.Random {
		orderBy = "ORDER BY RANDOM()"
	}

	query := `
		SELECT
			id, uid, created_ts, source_ref, prompt, choices, answer, difficulty, topics, approved_ts
		FROM question
		WHERE ` + where + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Question, 0)
	for rows.Next() {
		var question store.Question
		var choices, topics string
		var difficulty string
		var approvedTs sql.NullInt64

		if err := rows.Scan(
			&question.ID,
			&question.UID,
			&question.CreatedTs,
			&question.SourceRef,
			&question.Prompt,
			&choices,
			&question.Answer,
			&difficulty,
			&topics,
			&approvedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}

		question.Difficulty = store.Difficulty(difficulty)
		if question.Choices, err = unmarshalStringList(choices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal choices: %w", err)
		}
		if question.Topics, err = unmarshalStringList(topics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
		}
		if approvedTs.Valid {
			question.ApprovedTs = &approvedTs.Int64
		}

		list = append(list, &question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

func (d *DB) CountQuestions(ctx context.Context, find *store.FindQuestion) (int, error) {
	where, args := questionWhere(find)

	var count int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM question WHERE `+where, args...,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func (d *DB) UpdateQuestion(ctx context.Context, update *store.UpdateQuestion) error {
	set, args := []string{}, []any{}
	if v := update.ApprovedTs; v != nil {
		set, args = append(set, "approved_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, update.ID)

	stmt := `UPDATE question SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	return nil
}
