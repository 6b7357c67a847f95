package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/service/session"
	"github.com/quizdeck/quizdeck/store"
)

type sessionResponse struct {
	UID               string              `json:"uid"`
	Status            store.SessionStatus `json:"status"`
	Timezone          string              `json:"timezone"`
	CurrentIndex      int32               `json:"current_index"`
	AnsweredCount     int                 `json:"answered_count"`
	TotalQuestions    int                 `json:"total_questions"`
	Answers           map[int32]string    `json:"answers"`
	StartTs           int64               `json:"start_ts"`
	LastActivityTs    int64               `json:"last_activity_ts"`
	CompletedTs       *int64              `json:"completed_ts,omitempty"`
	InactivityWarning bool                `json:"inactivity_warning"`
}

func sessionResponseOf(state *session.State) *sessionResponse {
	s := state.Session
	return &sessionResponse{
		UID:               s.UID,
		Status:            state.Status,
		Timezone:          s.Timezone,
		CurrentIndex:      s.CurrentIndex,
		AnsweredCount:     s.AnsweredCount(),
		TotalQuestions:    state.TotalQuestions,
		Answers:           s.Answers,
		StartTs:           s.StartTs,
		LastActivityTs:    s.LastActivityTs,
		CompletedTs:       s.CompletedTs,
		InactivityWarning: state.InactivityWarning,
	}
}

type startSessionRequest struct {
	Timezone string `json:"timezone"`
}

// startSession begins (or resumes) today's quiz for the caller.
func (s *APIV1Service) startSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	request := &startSessionRequest{}
	if err := c.Bind(request); err != nil {
		return respondError(c, engineerrors.InvalidArgument("malformed request body"))
	}
	if request.Timezone == "" {
		request.Timezone = "UTC"
	}

	state, err := s.SessionService.Start(ctx, userID, request.Timezone)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponseOf(state))
}

// getSession returns the caller's session with its derived status.
func (s *APIV1Service) getSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	state, err := s.SessionService.Get(ctx, userID, c.Param("uid"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponseOf(state))
}

type recordAnswerRequest struct {
	QuestionID int32  `json:"question_id"`
	Answer     string `json:"answer"`
	Advance    bool   `json:"advance"`
}

// recordAnswer upserts one answer on the caller's session.
func (s *APIV1Service) recordAnswer(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	request := &recordAnswerRequest{}
	if err := c.Bind(request); err != nil {
		return respondError(c, engineerrors.InvalidArgument("malformed request body"))
	}

	state, err := s.SessionService.RecordAnswer(ctx, userID, c.Param("uid"), request.QuestionID, request.Answer, request.Advance)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponseOf(state))
}

type completeSessionRequest struct {
	Answers map[int32]string `json:"answers"`
	Force   bool             `json:"force"`
}

// completeSession finishes the session and returns the scored result.
func (s *APIV1Service) completeSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := requireUser(c)
	if err != nil {
		return respondError(c, err)
	}

	request := &completeSessionRequest{}
	if err := c.Bind(request); err != nil {
		return respondError(c, engineerrors.InvalidArgument("malformed request body"))
	}

	result, err := s.SessionService.Complete(ctx, userID, c.Param("uid"), request.Answers, request.Force)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
