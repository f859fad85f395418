package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/feedback"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/recommend"
	"github.com/spigell/jobmatcher/internal/storage"
)

const requestIDHeader = "X-Request-ID"

// Deps are the services behind the HTTP API.
type Deps struct {
	Engine       *recommend.Engine
	Feedback     *feedback.Service
	Preferences  *preference.Store
	Profiles     *candidate.Store
	DefaultLimit int
}

type Server struct {
	app    *fiber.App
	deps   Deps
	logger *zap.Logger
}

// Response is the envelope of every reply.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func New(deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.DefaultLimit <= 0 {
		deps.DefaultLimit = 10
	}

	s := &Server{deps: deps, logger: logger}
	s.app = fiber.New(fiber.Config{
		AppName:      "jobmatcher",
		ErrorHandler: s.handleError,
	})
	s.app.Use(s.accessLog)

	s.app.Get("/health", s.health)
	s.app.Post("/recommendations", s.recommendations)
	s.app.Post("/match", s.match)
	s.app.Get("/vacancies/:id", s.getVacancy)

	users := s.app.Group("/users/:id")
	users.Put("/profile", s.saveProfile)
	users.Post("/feedback", s.postFeedback)
	users.Get("/favorites", s.favorites)

	return s
}

// App exposes the fiber application for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) accessLog(c fiber.Ctx) error {
	start := time.Now()

	rid := c.Get(requestIDHeader)
	if rid == "" {
		rid = uuid.NewString()
	}
	c.Set(requestIDHeader, rid)

	err := c.Next()

	s.logger.Debug("http access",
		zap.String("request_id", rid),
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)),
	)
	return err
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status, message = fiberErr.Code, fiberErr.Message
	case errors.Is(err, feedback.ErrUnknownAction):
		status, message = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, feedback.ErrVacancyNotFound), errors.Is(err, storage.ErrNotFound):
		status, message = fiber.StatusNotFound, err.Error()
	}

	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", c.GetRespHeader(requestIDHeader)),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(Response{Status: status, Message: message})
}

func ok(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusOK).JSON(Response{Status: fiber.StatusOK, Message: "ok", Data: data})
}
