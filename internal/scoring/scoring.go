package scoring

import (
	"math"
	"sort"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// Dimension weights. They sum to 1.
const (
	WeightSkills         = 0.30
	WeightExperience     = 0.20
	WeightLocation       = 0.15
	WeightEducation      = 0.10
	WeightWorkConditions = 0.10
	WeightSalary         = 0.10
	WeightCulture        = 0.05
)

// Level is the coarse compatibility bucket of a composite score.
type Level string

const (
	LevelHigh         Level = "high"
	LevelMedium       Level = "medium"
	LevelLow          Level = "low"
	LevelIncompatible Level = "incompatible"
)

// LevelFor buckets a composite score. Each threshold is inclusive.
func LevelFor(score float64) Level {
	switch {
	case score >= 85:
		return LevelHigh
	case score >= 70:
		return LevelMedium
	case score >= 50:
		return LevelLow
	}
	return LevelIncompatible
}

// Scores holds the seven sub-scores, each in [0, 100].
type Scores struct {
	Skills         float64 `json:"skills"`
	Experience     float64 `json:"experience"`
	Location       float64 `json:"location"`
	Education      float64 `json:"education"`
	WorkConditions float64 `json:"work_conditions"`
	Salary         float64 `json:"salary"`
	Culture        float64 `json:"culture"`
}

// CandidateInfo identifies the candidate in reverse (vacancy to candidates) matching.
type CandidateInfo struct {
	ID    string          `json:"id"`
	Name  string          `json:"name,omitempty"`
	Years int             `json:"years"`
	Level candidate.Level `json:"level,omitempty"`
}

// MatchResult is the explained comparison of one candidate and one vacancy.
type MatchResult struct {
	VacancyID string         `json:"vacancy_id"`
	Title     string         `json:"title"`
	Company   string         `json:"company,omitempty"`
	Score     float64        `json:"score"`
	Level     Level          `json:"level"`
	Scores    Scores         `json:"scores"`
	Positives []string       `json:"positives"`
	Negatives []string       `json:"negatives"`
	Candidate *CandidateInfo `json:"candidate,omitempty"`
}

// Score compares a candidate with a vacancy across all dimensions.
// Missing fields are treated as empty and never cause a failure.
func Score(p *candidate.Profile, v *vacancy.Record) MatchResult {
	if p == nil {
		p = &candidate.Profile{}
	}
	if v == nil {
		v = &vacancy.Record{}
	}

	result := MatchResult{
		VacancyID: v.ID,
		Title:     v.Title,
		Company:   v.Company,
		Positives: []string{},
		Negatives: []string{},
	}

	facets := []struct {
		weight float64
		dest   *float64
		facet  facet
	}{
		{WeightSkills, &result.Scores.Skills, skillsFacet(p, v)},
		{WeightExperience, &result.Scores.Experience, experienceFacet(p, v)},
		{WeightLocation, &result.Scores.Location, locationFacet(p, v)},
		{WeightEducation, &result.Scores.Education, educationFacet(p, v)},
		{WeightWorkConditions, &result.Scores.WorkConditions, workConditionsFacet(p, v)},
		{WeightSalary, &result.Scores.Salary, salaryFacet(p, v)},
		{WeightCulture, &result.Scores.Culture, cultureFacet(p, v)},
	}

	total := 0.0
	for _, f := range facets {
		*f.dest = f.facet.score
		total += f.weight * f.facet.score
		result.Positives = append(result.Positives, f.facet.positives...)
		result.Negatives = append(result.Negatives, f.facet.negatives...)
	}

	result.Score = round2(total)
	result.Level = LevelFor(result.Score)
	return result
}

// BestVacancies scores every vacancy for the candidate and returns the top n,
// best first. Equal scores keep input order. n <= 0 returns all results.
func BestVacancies(p *candidate.Profile, vacancies []*vacancy.Record, n int) []MatchResult {
	results := make([]MatchResult, 0, len(vacancies))
	for _, v := range vacancies {
		results = append(results, Score(p, v))
	}
	return top(results, n)
}

// BestCandidates scores every candidate against the vacancy and returns the
// top n, best first, with candidate details attached.
func BestCandidates(v *vacancy.Record, profiles []*candidate.Profile, n int) []MatchResult {
	results := make([]MatchResult, 0, len(profiles))
	for _, p := range profiles {
		if p == nil {
			continue
		}
		r := Score(p, v)
		r.Candidate = &CandidateInfo{
			ID:    p.ID,
			Name:  p.Name,
			Years: p.Experience.Years,
			Level: p.Experience.Level,
		}
		results = append(results, r)
	}
	return top(results, n)
}

func top(results []MatchResult, n int) []MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if n > 0 && len(results) > n {
		results = results[:n]
	}
	return results
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
