package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// SalaryFloorRatio is the share of the desired salary a vacancy minimum must reach.
const SalaryFloorRatio = 0.6

// Filter represents a single hard-filtering step applied to vacancies.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Apply(ctx context.Context, criteria Criteria, records []*vacancy.Record) ([]*vacancy.Record, Step)
}

// Criteria are the candidate attributes the filters compare against.
// Zero values mean "no constraint".
type Criteria struct {
	City       string
	WorkFormat candidate.WorkFormat
	MinSalary  int
}

// CriteriaFor derives filter criteria from a profile.
func CriteriaFor(p *candidate.Profile) Criteria {
	if p == nil {
		return Criteria{}
	}
	c := Criteria{City: p.City}
	if p.Format().IsSpecified() {
		c.WorkFormat = p.Format()
	}
	if p.Salary.Desired > 0 {
		c.MinSalary = int(SalaryFloorRatio * float64(p.Salary.Desired))
	}
	return c
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
}

// Default returns the standard pipeline: city, work format, salary.
func Default() []Filter {
	return []Filter{NewCity(), NewWorkFormat(), NewSalary()}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
// It reports whether a filter with that name exists.
func DisableByName(steps []Filter, name, reason string) bool {
	found := false
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
			found = true
		}
	}
	return found
}

// Run executes the enabled filters sequentially and returns the surviving records.
// The input slice is never modified.
func Run(ctx context.Context, logger *zap.Logger, criteria Criteria, steps []Filter, records []*vacancy.Record) ([]*vacancy.Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
		if !step.IsEnabled() {
			logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info := step.Apply(ctx, criteria, records)
		logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		records = next
	}

	return records, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		status := Status{Name: step.Name(), Enabled: step.IsEnabled()}
		if r, ok := step.(interface{ Reason() string }); ok {
			status.Reason = r.Reason()
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// predicate is the shared implementation behind the attribute filters.
type predicate struct {
	name     string
	disabled bool
	reason   string
	// active reports whether the criteria constrain this attribute at all.
	active func(c Criteria) bool
	keep   func(c Criteria, r *vacancy.Record) bool
}

func (f *predicate) Name() string { return f.name }

func (f *predicate) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *predicate) IsEnabled() bool { return !f.disabled }

func (f *predicate) Reason() string { return f.reason }

func (f *predicate) Apply(_ context.Context, c Criteria, records []*vacancy.Record) ([]*vacancy.Record, Step) {
	initial := len(records)
	if !f.active(c) {
		return records, Step{Initial: initial, Dropped: 0, Left: initial}
	}

	kept := make([]*vacancy.Record, 0, len(records))
	for _, r := range records {
		if f.keep(c, r) {
			kept = append(kept, r)
		}
	}
	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
}
