package filtering

import (
	"strings"

	"github.com/spigell/jobmatcher/internal/vacancy"
)

const (
	NameCity       = "city"
	NameWorkFormat = "work_format"
	NameSalary     = "salary"
)

// NewCity keeps vacancies in the candidate's city, compared case-insensitively.
func NewCity() Filter {
	return &predicate{
		name:   NameCity,
		active: func(c Criteria) bool { return strings.TrimSpace(c.City) != "" },
		keep:   func(c Criteria, r *vacancy.Record) bool { return r.InCity(c.City) },
	}
}

// NewWorkFormat keeps vacancies with exactly the candidate's work format.
func NewWorkFormat() Filter {
	return &predicate{
		name:   NameWorkFormat,
		active: func(c Criteria) bool { return c.WorkFormat.IsSpecified() },
		keep:   func(c Criteria, r *vacancy.Record) bool { return r.HasWorkFormat(c.WorkFormat) },
	}
}

// NewSalary keeps vacancies whose minimum salary reaches the floor.
// Vacancies without a known minimum pass.
func NewSalary() Filter {
	return &predicate{
		name:   NameSalary,
		active: func(c Criteria) bool { return c.MinSalary > 0 },
		keep:   func(c Criteria, r *vacancy.Record) bool { return r.PaysAtLeast(c.MinSalary) },
	}
}
