package store

import (
	"context"
)

// Difficulty is the difficulty band of a question.
type Difficulty string

const (
	// Easy questions make up the bulk of a daily quiz.
	Easy Difficulty = "EASY"
	// Medium questions sit between easy and hard.
	Medium Difficulty = "MEDIUM"
	// Hard questions round out the mix.
	Hard Difficulty = "HARD"
)

func (d Difficulty) String() string {
	return string(d)
}

// Question is the object representing an approved quiz question.
// Questions are immutable once approved; only the approval timestamp
// transitions (nil -> set) during moderation.
type Question struct {
	ID        int32
	UID       string
	CreatedTs int64

	// SourceRef points at the passage the question was authored from.
	SourceRef  string
	Prompt     string
	Choices    []string // empty for fill-in questions
	Answer     string
	Difficulty Difficulty
	Topics     []string
	ApprovedTs *int64 // nil until approved; only approved questions are selectable
}

// IsApproved reports whether the question passed moderation.
func (q *Question) IsApproved() bool {
	return q.ApprovedTs != nil
}

// IsFillIn reports whether the question expects free-text input.
func (q *Question) IsFillIn() bool {
	return len(q.Choices) == 0
}

// FindQuestion is the find condition for questions.
type FindQuestion struct {
	ID  *int32
	UID *string
	IDs []int32

	// ApprovedOnly restricts results to approved questions.
	ApprovedOnly bool
	// Difficulties restricts results to the given bands (empty = all).
	Difficulties []Difficulty
	// ExcludeIDs removes the given question ids from the result set.
	ExcludeIDs []int32
	// Topic restricts results to questions tagged with the topic.
	Topic *string
	// Random samples in random order instead of insertion order.
	Random bool

	Limit *int
}

// UpdateQuestion is the update request for a question. Only moderation
// metadata is mutable.
type UpdateQuestion struct {
	ID         int32
	ApprovedTs *int64
}

// CreateQuestion creates a new question.
func (s *Store) CreateQuestion(ctx context.Context, create *Question) (*Question, error) {
	return s.driver.CreateQuestion(ctx, create)
}

// ListQuestions lists questions with filter.
func (s *Store) ListQuestions(ctx context.Context, find *FindQuestion) ([]*Question, error) {
	return s.driver.ListQuestions(ctx, find)
}

// GetQuestion gets a single question, or nil when absent.
func (s *Store) GetQuestion(ctx context.Context, find *FindQuestion) (*Question, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListQuestions(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// CountQuestions counts questions matching the filter.
func (s *Store) CountQuestions(ctx context.Context, find *FindQuestion) (int, error) {
	return s.driver.CountQuestions(ctx, find)
}

// UpdateQuestion updates a question's moderation metadata.
func (s *Store) UpdateQuestion(ctx context.Context, update *UpdateQuestion) error {
	return s.driver.UpdateQuestion(ctx, update)
}
