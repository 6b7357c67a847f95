package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quizdeck/quizdeck/store"
)

// questionView is a question as shown to a quiz taker: the correct answer
// is never included.
type questionView struct {
	ID         int32            `json:"id"`
	Prompt     string           `json:"prompt"`
	Choices    []string         `json:"choices"`
	Difficulty store.Difficulty `json:"difficulty"`
	Topics     []string         `json:"topics"`
}

type quizResponse struct {
	UID       string         `json:"uid"`
	DateKey   string         `json:"date_key"`
	Questions []questionView `json:"questions"`
}

// getDailyQuiz returns the quiz for a date key, generating it on first
// access.
func (s *APIV1Service) getDailyQuiz(c echo.Context) error {
	ctx := c.Request().Context()

	quiz, err := s.QuizService.GetOrCreateDailyQuiz(ctx, c.Param("dateKey"))
	if err != nil {
		return respondError(c, err)
	}
	response, err := s.quizResponseOf(c, quiz)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

// getInventory reports per-difficulty approved question counts.
func (s *APIV1Service) getInventory(c echo.Context) error {
	ctx := c.Request().Context()

	inventory, err := s.QuizService.Inventory(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inventory)
}

func (s *APIV1Service) quizResponseOf(c echo.Context, quiz *store.DailyQuiz) (*quizResponse, error) {
	ctx := c.Request().Context()
	list, err := s.Store.ListQuestions(ctx, &store.FindQuestion{IDs: quiz.QuestionIDs})
	if err != nil {
		return nil, err
	}
	byID := make(map[int32]*store.Question, len(list))
	for _, question := range list {
		byID[question.ID] = question
	}

	views := make([]questionView, 0, len(quiz.QuestionIDs))
	for _, id := range quiz.QuestionIDs {
		question, ok := byID[id]
		if !ok {
			continue
		}
		views = append(views, questionView{
			ID:         question.ID,
			Prompt:     question.Prompt,
			Choices:    question.Choices,
			Difficulty: question.Difficulty,
			Topics:     question.Topics,
		})
	}
	return &quizResponse{
		UID:       quiz.UID,
		DateKey:   quiz.DateKey,
		Questions: views,
	}, nil
}
