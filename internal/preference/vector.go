package preference

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Feedback is the kind of signal a user gives about a vacancy.
type Feedback string

const (
	Like     Feedback = "like"
	Dislike  Feedback = "dislike"
	Favorite Feedback = "favorite"
)

var ErrUnknownFeedback = errors.New("unknown feedback kind")

const (
	dislikedPenalty   = -0.5
	likedBonus        = 0.2
	likedSkillStep    = 0.02
	dislikedSkillStep = 0.01
)

// Vector accumulates one user's feedback. Skill keys are stored lower-cased.
// Liked and disliked sets may overlap.
type Vector struct {
	likedSkills    map[string]int
	dislikedSkills map[string]int
	liked          map[string]struct{}
	disliked       map[string]struct{}
	favorites      map[string]struct{}
}

func New() *Vector {
	return &Vector{
		likedSkills:    map[string]int{},
		dislikedSkills: map[string]int{},
		liked:          map[string]struct{}{},
		disliked:       map[string]struct{}{},
		favorites:      map[string]struct{}{},
	}
}

// Update records feedback for a vacancy with the given skills.
// Favorite touches only the favorites set.
func (v *Vector) Update(vacancyID string, skills []string, kind Feedback) error {
	switch kind {
	case Like:
		v.liked[vacancyID] = struct{}{}
		for _, skill := range skills {
			if key := skillKey(skill); key != "" {
				v.likedSkills[key]++
			}
		}
	case Dislike:
		v.disliked[vacancyID] = struct{}{}
		for _, skill := range skills {
			if key := skillKey(skill); key != "" {
				v.dislikedSkills[key]++
			}
		}
	case Favorite:
		v.favorites[vacancyID] = struct{}{}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFeedback, kind)
	}
	return nil
}

func (v *Vector) RemoveFavorite(vacancyID string) {
	delete(v.favorites, vacancyID)
}

func (v *Vector) IsFavorite(vacancyID string) bool {
	if v == nil {
		return false
	}
	_, ok := v.favorites[vacancyID]
	return ok
}

// Favorites returns favorite vacancy ids in sorted order.
func (v *Vector) Favorites() []string {
	if v == nil {
		return []string{}
	}
	return sortedKeys(v.favorites)
}

// Boost is the additive adjustment applied to a similarity score.
// A disliked vacancy always gets the fixed penalty.
func (v *Vector) Boost(vacancyID string, skills []string) float64 {
	if v == nil {
		return 0
	}
	if _, ok := v.disliked[vacancyID]; ok {
		return dislikedPenalty
	}

	boost := 0.0
	_, liked := v.liked[vacancyID]
	_, favorite := v.favorites[vacancyID]
	if liked || favorite {
		boost += likedBonus
	}

	for _, skill := range skills {
		key := skillKey(skill)
		boost += likedSkillStep * float64(v.likedSkills[key])
		boost -= dislikedSkillStep * float64(v.dislikedSkills[key])
	}
	return boost
}

func (v *Vector) Clone() *Vector {
	c := New()
	if v == nil {
		return c
	}
	for k, n := range v.likedSkills {
		c.likedSkills[k] = n
	}
	for k, n := range v.dislikedSkills {
		c.dislikedSkills[k] = n
	}
	for k := range v.liked {
		c.liked[k] = struct{}{}
	}
	for k := range v.disliked {
		c.disliked[k] = struct{}{}
	}
	for k := range v.favorites {
		c.favorites[k] = struct{}{}
	}
	return c
}

type payload struct {
	LikedSkills       map[string]int `mapstructure:"liked_skills"`
	DislikedSkills    map[string]int `mapstructure:"disliked_skills"`
	LikedVacancies    []string       `mapstructure:"liked_vacancies"`
	DislikedVacancies []string       `mapstructure:"disliked_vacancies"`
	FavoriteVacancies []string       `mapstructure:"favorite_vacancies"`
}

// Payload exports the vector as a generic map with sorted id lists.
func (v *Vector) Payload() map[string]any {
	if v == nil {
		v = New()
	}
	return map[string]any{
		"liked_skills":       copyCounts(v.likedSkills),
		"disliked_skills":    copyCounts(v.dislikedSkills),
		"liked_vacancies":    sortedKeys(v.liked),
		"disliked_vacancies": sortedKeys(v.disliked),
		"favorite_vacancies": sortedKeys(v.favorites),
	}
}

// FromPayload rebuilds a vector from a map produced by Payload, including one
// that went through JSON and carries numbers as float64. Missing keys are empty.
func FromPayload(m map[string]any) (*Vector, error) {
	var p payload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create payload decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("decode preference payload: %w", err)
	}

	v := New()
	for k, n := range p.LikedSkills {
		v.likedSkills[skillKey(k)] += n
	}
	for k, n := range p.DislikedSkills {
		v.dislikedSkills[skillKey(k)] += n
	}
	for _, id := range p.LikedVacancies {
		v.liked[id] = struct{}{}
	}
	for _, id := range p.DislikedVacancies {
		v.disliked[id] = struct{}{}
	}
	for _, id := range p.FavoriteVacancies {
		v.favorites[id] = struct{}{}
	}
	return v, nil
}

func skillKey(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}

func copyCounts(src map[string]int) map[string]int {
	dst := make(map[string]int, len(src))
	for k, n := range src {
		dst[k] = n
	}
	return dst
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
