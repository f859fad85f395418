package vacancy

import (
	"strings"

	"github.com/spigell/jobmatcher/internal/candidate"
)

// Salary is the advertised band. Zero bounds are unknown.
type Salary struct {
	Min      int    `json:"min,omitempty"`
	Max      int    `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type Experience struct {
	Years int             `json:"years,omitempty"`
	Level candidate.Level `json:"level,omitempty"`
}

type Education struct {
	Degree          candidate.Degree `json:"degree,omitempty"`
	Specializations []string         `json:"specializations,omitempty"`
}

// Culture describes what the company says about itself.
type Culture struct {
	Values              []string `json:"values,omitempty"`
	Interests           []string `json:"interests,omitempty"`
	CareerOpportunities []string `json:"career_opportunities,omitempty"`
}

// Record is a single normalized vacancy. ID is the idempotency key across sources.
type Record struct {
	ID              string               `json:"id"`
	Source          string               `json:"source,omitempty"`
	Title           string               `json:"title"`
	Company         string               `json:"company,omitempty"`
	City            string               `json:"city,omitempty"`
	WorkFormat      candidate.WorkFormat `json:"work_format,omitempty"`
	Salary          Salary               `json:"salary,omitempty"`
	Experience      Experience           `json:"experience,omitempty"`
	RequiredSkills  []string             `json:"required_skills,omitempty"`
	PreferredSkills []string             `json:"preferred_skills,omitempty"`
	Education       Education            `json:"education,omitempty"`
	Conditions      candidate.Conditions `json:"conditions,omitempty"`
	Description     string               `json:"description,omitempty"`
	URL             string               `json:"url,omitempty"`
	Culture         Culture              `json:"culture,omitempty"`
	RemotePossible  bool                 `json:"remote_possible,omitempty"`
}

// Skills returns required then preferred skills without case-insensitive duplicates.
// The first spelling of a skill wins.
func (r *Record) Skills() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.RequiredSkills)+len(r.PreferredSkills))
	skills := make([]string, 0, len(r.RequiredSkills)+len(r.PreferredSkills))
	for _, list := range [][]string{r.RequiredSkills, r.PreferredSkills} {
		for _, skill := range list {
			skill = strings.TrimSpace(skill)
			if skill == "" {
				continue
			}
			key := strings.ToLower(skill)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			skills = append(skills, skill)
		}
	}
	return skills
}

// Format returns the work format with the unspecified default applied.
func (r *Record) Format() candidate.WorkFormat {
	if r == nil || r.WorkFormat == "" {
		return candidate.FormatUnspecified
	}
	return r.WorkFormat
}

// InCity compares cities case-insensitively.
func (r *Record) InCity(city string) bool {
	return strings.EqualFold(strings.TrimSpace(r.City), strings.TrimSpace(city))
}

func (r *Record) HasWorkFormat(format candidate.WorkFormat) bool {
	return r.Format() == format
}

// PaysAtLeast reports whether the minimum salary reaches floor.
// A vacancy with an unknown minimum always passes.
func (r *Record) PaysAtLeast(floor int) bool {
	if r.Salary.Min == 0 {
		return true
	}
	return r.Salary.Min >= floor
}

// NormalizeWorkFormat maps free-form work format spellings, English or Russian,
// to a WorkFormat. Unrecognized values map to FormatUnspecified.
func NormalizeWorkFormat(raw string) candidate.WorkFormat {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return candidate.FormatUnspecified
	case strings.Contains(s, "hybrid"), strings.Contains(s, "гибрид"):
		return candidate.FormatHybrid
	case strings.Contains(s, "remote"), strings.Contains(s, "удал"):
		return candidate.FormatRemote
	case strings.Contains(s, "office"), strings.Contains(s, "офис"), strings.Contains(s, "месте"):
		return candidate.FormatOffice
	}
	return candidate.FormatUnspecified
}
