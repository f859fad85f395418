package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/logger"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// Action is a feedback command delivered by the chat or HTTP front-end.
type Action string

const (
	ActionLike       Action = "like"
	ActionDislike    Action = "dislike"
	ActionFavorite   Action = "favorite"
	ActionUnfavorite Action = "unfavorite"
)

var (
	ErrUnknownAction   = errors.New("unrecognized feedback action")
	ErrVacancyNotFound = errors.New("vacancy not found")
)

// ParseAction normalizes an action name.
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case ActionLike, ActionDislike, ActionFavorite, ActionUnfavorite:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

type Event struct {
	Action    Action `json:"action"`
	VacancyID string `json:"vacancy_id"`
}

// Catalog resolves vacancy ids. recommend.Engine satisfies it.
type Catalog interface {
	Vacancy(id string) (*vacancy.Record, bool)
}

type Service struct {
	catalog Catalog
	store   *preference.Store
	logger  *zap.Logger
}

func NewService(catalog Catalog, store *preference.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{catalog: catalog, store: store, logger: log}
}

// Handle applies the event to the user's preferences and returns a confirmation.
// The updated preferences are persisted before Handle returns. Unknown actions
// and vacancies are rejected without touching stored state.
func (s *Service) Handle(ctx context.Context, userID string, ev Event) (string, error) {
	action, err := ParseAction(string(ev.Action))
	if err != nil {
		return "", err
	}

	record, ok := s.catalog.Vacancy(ev.VacancyID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrVacancyNotFound, ev.VacancyID)
	}

	_, err = s.store.Update(ctx, userID, func(v *preference.Vector) error {
		switch action {
		case ActionLike:
			return v.Update(record.ID, record.Skills(), preference.Like)
		case ActionDislike:
			return v.Update(record.ID, record.Skills(), preference.Dislike)
		case ActionFavorite:
			return v.Update(record.ID, record.Skills(), preference.Favorite)
		default:
			v.RemoveFavorite(record.ID)
			return nil
		}
	})
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", action, record.ID, err)
	}

	s.logger.Info("feedback recorded",
		append(logger.UserFields(userID, record.ID), zap.String("action", string(action)))...,
	)
	return confirmation(action, record), nil
}

// Favorites returns the user's favorite vacancies that are still in the corpus,
// ordered by id.
func (s *Service) Favorites(ctx context.Context, userID string) ([]*vacancy.Record, error) {
	prefs, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*vacancy.Record, 0)
	for _, id := range prefs.Favorites() {
		record, ok := s.catalog.Vacancy(id)
		if !ok {
			s.logger.Debug("favorite vacancy is no longer in the corpus", logger.UserFields(userID, id)...)
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func confirmation(action Action, r *vacancy.Record) string {
	title := r.Title
	if title == "" {
		title = r.ID
	}
	switch action {
	case ActionLike:
		return fmt.Sprintf("Liked %q. Similar vacancies will rank higher.", title)
	case ActionDislike:
		return fmt.Sprintf("Disliked %q. It will rank lower from now on.", title)
	case ActionFavorite:
		return fmt.Sprintf("Added %q to favorites.", title)
	default:
		return fmt.Sprintf("Removed %q from favorites.", title)
	}
}
