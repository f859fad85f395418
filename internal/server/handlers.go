package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/feedback"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/recommend"
	"github.com/spigell/jobmatcher/internal/scoring"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

type recommendRequest struct {
	UserID  string             `json:"user_id"`
	Profile *candidate.Profile `json:"profile"`
	Limit   int                `json:"limit"`
	Explain bool               `json:"explain"`
}

type matchRequest struct {
	UserID     string             `json:"user_id"`
	Profile    *candidate.Profile `json:"profile"`
	VacancyIDs []string           `json:"vacancy_ids"`
	Limit      int                `json:"limit"`
}

func (s *Server) health(c fiber.Ctx) error {
	return ok(c, fiber.Map{"vacancies": s.deps.Engine.Len()})
}

func (s *Server) recommendations(c fiber.Ctx) error {
	var req recommendRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	ctx := c.Context()
	profile, err := s.profile(ctx, req.UserID, req.Profile)
	if err != nil {
		return err
	}

	var prefs *preference.Vector
	if req.UserID != "" && s.deps.Preferences != nil {
		if prefs, err = s.deps.Preferences.Get(ctx, req.UserID); err != nil {
			return err
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.deps.DefaultLimit
	}

	recs, err := s.deps.Engine.Recommend(ctx, profile, prefs, limit)
	if err != nil {
		return err
	}
	if req.Explain {
		return ok(c, recommend.Explain(profile, recs))
	}
	return ok(c, recs)
}

func (s *Server) match(c fiber.Ctx) error {
	var req matchRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	profile, err := s.profile(c.Context(), req.UserID, req.Profile)
	if err != nil {
		return err
	}

	vacancies := s.deps.Engine.Vacancies()
	if len(req.VacancyIDs) > 0 {
		vacancies = make([]*vacancy.Record, 0, len(req.VacancyIDs))
		for _, id := range req.VacancyIDs {
			r, found := s.deps.Engine.Vacancy(id)
			if !found {
				return fmt.Errorf("%w: %s", feedback.ErrVacancyNotFound, id)
			}
			vacancies = append(vacancies, r)
		}
	}

	return ok(c, scoring.BestVacancies(profile, vacancies, req.Limit))
}

func (s *Server) getVacancy(c fiber.Ctx) error {
	id := c.Params("id")
	r, found := s.deps.Engine.Vacancy(id)
	if !found {
		return fmt.Errorf("%w: %s", feedback.ErrVacancyNotFound, id)
	}
	return ok(c, r)
}

func (s *Server) saveProfile(c fiber.Ctx) error {
	if s.deps.Profiles == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "profile storage is not configured")
	}

	var p candidate.Profile
	if err := c.Bind().Body(&p); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	p.ID = c.Params("id")

	if err := s.deps.Profiles.Save(c.Context(), &p); err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) postFeedback(c fiber.Ctx) error {
	var ev feedback.Event
	if err := c.Bind().Body(&ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	msg, err := s.deps.Feedback.Handle(c.Context(), c.Params("id"), ev)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"message": msg})
}

func (s *Server) favorites(c fiber.Ctx) error {
	records, err := s.deps.Feedback.Favorites(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, records)
}

// profile returns the inline profile or the stored profile of userID.
func (s *Server) profile(ctx context.Context, userID string, inline *candidate.Profile) (*candidate.Profile, error) {
	if inline != nil {
		return inline, nil
	}
	if userID == "" || s.deps.Profiles == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "profile or user_id is required")
	}
	return s.deps.Profiles.Load(ctx, userID)
}
