// Package v1 exposes the quiz engine over HTTP.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quizdeck/quizdeck/internal/profile"
	"github.com/quizdeck/quizdeck/server/auth"
	engineerrors "github.com/quizdeck/quizdeck/server/internal/errors"
	"github.com/quizdeck/quizdeck/server/internal/observability"
	"github.com/quizdeck/quizdeck/server/middleware"
	"github.com/quizdeck/quizdeck/server/service/quiz"
	"github.com/quizdeck/quizdeck/server/service/session"
	"github.com/quizdeck/quizdeck/server/service/srs"
	"github.com/quizdeck/quizdeck/server/stats"
	"github.com/quizdeck/quizdeck/store"
)

type APIV1Service struct {
	Secret  string
	Profile *profile.Profile
	Store   *store.Store

	QuizService    *quiz.Service
	SessionService *session.Service
	SRSService     *srs.Service
	StatsCollector *stats.Collector

	limiter *middleware.RateLimiter
}

func NewAPIV1Service(secret string, prof *profile.Profile, st *store.Store, quizService *quiz.Service, sessionService *session.Service, srsService *srs.Service, collector *stats.Collector) *APIV1Service {
	return &APIV1Service{
		Secret:         secret,
		Profile:        prof,
		Store:          st,
		QuizService:    quizService,
		SessionService: sessionService,
		SRSService:     srsService,
		StatsCollector: collector,
		limiter:        middleware.NewRateLimiter(10, 20),
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	group := e.Group("/api/v1",
		auth.Middleware(s.Secret),
		requestLogger(),
		s.limiter.Middleware(func(c echo.Context) string {
			if userID, ok := auth.UserIDFrom(c); ok {
				return strconv.FormatInt(int64(userID), 10)
			}
			return ""
		}),
	)

	group.GET("/quizzes/:dateKey", s.getDailyQuiz)
	group.GET("/inventory", s.getInventory)
	group.POST("/sessions", s.startSession)
	group.GET("/sessions/:uid", s.getSession)
	group.POST("/sessions/:uid/answers", s.recordAnswer)
	group.POST("/sessions/:uid/complete", s.completeSession)
	group.GET("/reviews/due", s.getDueReviews)
	group.GET("/streak", s.getStreak)
	group.GET("/stats", s.getStats)
}

// requestLogger tags every API request with a generated request id and logs
// its outcome and duration. It runs after auth so the user id is available.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := auth.UserIDFrom(c)
			operation := c.Request().Method + " " + c.Path()
			rc := observability.NewRequestContext(slog.Default(), operation, userID)
			err := next(c)
			rc.Done("request complete", slog.Int("status", c.Response().Status))
			return err
		}
	}
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Code    engineerrors.ErrorCode `json:"code"`
	Message string                 `json:"message"`
}

// respondError maps engine errors onto HTTP statuses. Unknown errors become
// opaque 500s so internals never leak.
func respondError(c echo.Context, err error) error {
	var engineErr *engineerrors.EngineError
	if errors.As(err, &engineErr) {
		return c.JSON(engineErr.HTTPStatus(), errorResponse{
			Code:    engineErr.Code,
			Message: engineErr.Message,
		})
	}
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Code:    engineerrors.ErrCodeInternal,
		Message: "internal error",
	})
}

func requireUser(c echo.Context) (int32, error) {
	userID, ok := auth.UserIDFrom(c)
	if !ok {
		return 0, engineerrors.Unauthorized("missing identity")
	}
	return userID, nil
}
