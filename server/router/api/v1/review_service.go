package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type dueReviewsResponse struct {
	Questions []questionView `json:"questions"`
}

// getDueReviews returns the caller's due review questions, earliest first.
func (s *APIV1Service) getDueReviews(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	questions, err := s.SRSService.DueQuestions(ctx, userID, limit)
	if err != nil {
		return respondError(c, err)
	}

	views := make([]questionView, 0, len(questions))
	for _, question := range questions {
		views = append(views, questionView{
			ID:         question.ID,
			Prompt:     question.Prompt,
			Choices:    question.Choices,
			Difficulty: question.Difficulty,
			Topics:     question.Topics,
		})
	}
	return c.JSON(http.StatusOK, dueReviewsResponse{Questions: views})
}

type streakResponse struct {
	Current     int32  `json:"current"`
	Longest     int32  `json:"longest"`
	LastDateKey string `json:"last_date_key"`
}

// getStreak returns the caller's streak record.
func (s *APIV1Service) getStreak(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	streak, err := s.Store.GetStreak(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}
	response := streakResponse{}
	if streak != nil {
		response = streakResponse{
			Current:     streak.Current,
			Longest:     streak.Longest,
			LastDateKey: streak.LastDateKey,
		}
	}
	return c.JSON(http.StatusOK, response)
}
