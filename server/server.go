// Package server wires the quiz engine together: HTTP surface, background
// runners, and the services behind them.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/quizdeck/quizdeck/internal/profile"
	"github.com/quizdeck/quizdeck/plugin/notifier"
	apiv1 "github.com/quizdeck/quizdeck/server/router/api/v1"
	"github.com/quizdeck/quizdeck/server/runner/publisher"
	"github.com/quizdeck/quizdeck/server/runner/sweeper"
	"github.com/quizdeck/quizdeck/server/service/quiz"
	"github.com/quizdeck/quizdeck/server/service/scoring"
	"github.com/quizdeck/quizdeck/server/service/session"
	"github.com/quizdeck/quizdeck/server/service/srs"
	"github.com/quizdeck/quizdeck/server/stats"
	"github.com/quizdeck/quizdeck/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	dispatcher *notifier.Dispatcher
	collector  *stats.Collector
	sweeper    *sweeper.Runner
	publisher  *publisher.Runner
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	if prof.Secret == "" {
		return nil, errors.New("a token secret is required; set QUIZDECK_SECRET")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	dispatcher := notifier.NewDispatcher(64)
	dispatcher.Register(notifier.LogSender{})

	scoringService := scoring.NewService(st, dispatcher)
	srsService := srs.NewService(st)
	quizService := quiz.NewService(st, prof.QuizSize).WithRecommender(srsService)
	sessionService := session.NewService(st, quizService, scoringService).
		WithOutcomeRecorder(srsService)
	collector := stats.NewCollector(st)

	apiService := apiv1.NewAPIV1Service(prof.Secret, prof, st,
		quizService, sessionService, srsService, collector)
	apiService.RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	server := &Server{
		Profile:    prof,
		Store:      st,
		echoServer: e,
		dispatcher: dispatcher,
		collector:  collector,
		publisher:  publisher.NewRunner(quizService, prof.PublishTimezones),
	}
	if prof.SweepEnabled {
		server.sweeper = sweeper.NewRunner(st, prof.QuizRetentionDays)
	}
	return server, nil
}

// Start launches the HTTP listener and the background runners. It returns
// once everything is started; failures surface through the context handed
// to Shutdown by the caller.
func (s *Server) Start(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	s.collector.Start(ctx)
	group.Go(func() error {
		s.publisher.Run(ctx)
		return nil
	})
	if s.sweeper != nil {
		group.Go(func() error {
			s.sweeper.Run(ctx)
			return nil
		})
	}
	group.Go(func() error {
		address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
		slog.Info("quizdeck listening", "address", address, "version", s.Profile.Version)
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "failed to start echo server")
		}
		return nil
	})

	go func() {
		if err := group.Wait(); err != nil {
			slog.Error("server group exited", "error", err)
		}
	}()
	return nil
}

// Shutdown drains the HTTP server and stops background work.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	s.collector.Stop()
	s.dispatcher.Close()

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}
	slog.Info("quizdeck stopped")
}
