package candidate

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// WorkFormat is the normalized work arrangement shared by candidates and vacancies.
type WorkFormat string

const (
	FormatOffice      WorkFormat = "office"
	FormatRemote      WorkFormat = "remote"
	FormatHybrid      WorkFormat = "hybrid"
	FormatUnspecified WorkFormat = "unspecified"
)

// IsSpecified reports whether the format carries a real preference.
func (f WorkFormat) IsSpecified() bool {
	return f != "" && f != FormatUnspecified
}

// Level is the ordinal seniority of a candidate or a vacancy requirement.
// The zero value means the level is unknown.
type Level int

const (
	LevelUnknown Level = iota
	LevelJunior
	LevelMiddle
	LevelSenior
	LevelLead
)

var levelNames = map[Level]string{
	LevelJunior: "Junior",
	LevelMiddle: "Middle",
	LevelSenior: "Senior",
	LevelLead:   "Lead",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unspecified"
}

// ParseLevel maps a level name to its ordinal. Unknown names map to LevelUnknown.
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)
	for level, name := range levelNames {
		if strings.EqualFold(name, s) {
			return level
		}
	}
	return LevelUnknown
}

// Degree is the ordinal education level, None < Secondary < ... < Doctorate.
type Degree int

const (
	DegreeNone Degree = iota
	DegreeSecondary
	DegreeBachelor
	DegreeMaster
	DegreeCandidate
	DegreeDoctorate
)

var degreeNames = map[Degree]string{
	DegreeNone:      "None",
	DegreeSecondary: "Secondary",
	DegreeBachelor:  "Bachelor",
	DegreeMaster:    "Master",
	DegreeCandidate: "Candidate",
	DegreeDoctorate: "Doctorate",
}

func (d Degree) String() string {
	if name, ok := degreeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Degree(%d)", int(d))
}

// Salary holds the candidate expectation. Zero amounts mean "not specified".
type Salary struct {
	Desired  int    `json:"desired,omitempty"`
	Min      int    `json:"min,omitempty"`
	Currency string `json:"currency,omitempty"`
}

type Experience struct {
	Years int   `json:"years,omitempty"`
	Level Level `json:"level,omitempty"`
}

type Education struct {
	Degree         Degree `json:"degree,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// Conditions are the work-condition preferences besides the work format.
type Conditions struct {
	Schedule        string `json:"schedule,omitempty"`
	TeamSize        string `json:"team_size,omitempty"`
	ManagementStyle string `json:"management_style,omitempty"`
}

// Profile is the structured résumé produced by the external extractor.
type Profile struct {
	ID              string     `json:"id"`
	Name            string     `json:"name,omitempty"`
	City            string     `json:"city,omitempty"`
	RelocationReady bool       `json:"relocation_ready,omitempty"`
	WorkFormat      WorkFormat `json:"work_format,omitempty"`
	Salary          Salary     `json:"salary,omitempty"`
	Experience      Experience `json:"experience,omitempty"`
	Education       Education  `json:"education,omitempty"`
	HardSkills      []string   `json:"hard_skills,omitempty"`
	Interests       []string   `json:"interests,omitempty"`
	Values          []string   `json:"values,omitempty"`
	CareerGoals     []string   `json:"career_goals,omitempty"`
	Conditions      Conditions `json:"conditions,omitempty"`
	PreferredRoles  []string   `json:"preferred_roles,omitempty"`
	RawText         string     `json:"raw_text,omitempty"`
}

// Format returns the work format with the unspecified default applied.
func (p *Profile) Format() WorkFormat {
	if p == nil || p.WorkFormat == "" {
		return FormatUnspecified
	}
	return p.WorkFormat
}

// MarshalText encodes the level by name so stored profiles stay readable.
func (l Level) MarshalText() ([]byte, error) {
	if l == LevelUnknown {
		return []byte(""), nil
	}
	return []byte(l.String()), nil
}

// UnmarshalJSON accepts either a level name or its ordinal. Ordinals outside
// LevelUnknown..LevelLead are rejected.
func (l *Level) UnmarshalJSON(data []byte) error {
	n, name, err := ordinalOrName(data)
	if err != nil {
		return fmt.Errorf("decode level: %w", err)
	}
	if name != "" || n == 0 {
		*l = ParseLevel(name)
		return nil
	}
	if n < int(LevelUnknown) || n > int(LevelLead) {
		return fmt.Errorf("decode level: ordinal %d out of range", n)
	}
	*l = Level(n)
	return nil
}

// Clamp bounds the level to LevelUnknown..LevelLead.
func (l Level) Clamp() Level {
	return min(max(l, LevelUnknown), LevelLead)
}

// ParseDegree maps a degree name to its ordinal. Unknown names map to DegreeNone.
func ParseDegree(s string) Degree {
	s = strings.TrimSpace(s)
	for degree, name := range degreeNames {
		if strings.EqualFold(name, s) {
			return degree
		}
	}
	return DegreeNone
}

func (d Degree) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalJSON accepts either a degree name or its ordinal. Ordinals outside
// DegreeNone..DegreeDoctorate are rejected.
func (d *Degree) UnmarshalJSON(data []byte) error {
	n, name, err := ordinalOrName(data)
	if err != nil {
		return fmt.Errorf("decode degree: %w", err)
	}
	if name != "" || n == 0 {
		*d = ParseDegree(name)
		return nil
	}
	if n < int(DegreeNone) || n > int(DegreeDoctorate) {
		return fmt.Errorf("decode degree: ordinal %d out of range", n)
	}
	*d = Degree(n)
	return nil
}

// Clamp bounds the degree to DegreeNone..DegreeDoctorate.
func (d Degree) Clamp() Degree {
	return min(max(d, DegreeNone), DegreeDoctorate)
}

func ordinalOrName(data []byte) (int, string, error) {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return 0, "", nil
	}
	if strings.HasPrefix(raw, `"`) {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return 0, "", err
		}
		return 0, name, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, "", err
	}
	return n, "", nil
}
