package scoring

import (
	"fmt"
	"strings"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// facet is the outcome of one dimension: a sub-score rounded to two decimals
// and the explanations it triggered.
type facet struct {
	score     float64
	positives []string
	negatives []string
}

func (f *facet) positive(format string, args ...any) {
	f.positives = append(f.positives, fmt.Sprintf(format, args...))
}

func (f *facet) negative(format string, args ...any) {
	f.negatives = append(f.negatives, fmt.Sprintf(format, args...))
}

// skillsFacet: 70% required overlap rate, 30% preferred overlap rate.
// An empty list counts as a full match.
func skillsFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	have := newSet(p.HardSkills)

	required := uniq(v.RequiredSkills)
	matched, missing := have.split(required)
	requiredRate := rate(len(matched), len(required))
	if len(matched) > 0 {
		f.positive("Matching required skills: %s", strings.Join(matched, ", "))
	}
	if len(missing) > 0 {
		f.negative("Missing required skills: %s", strings.Join(missing, ", "))
	}

	preferred := uniq(v.PreferredSkills)
	matchedPreferred, _ := have.split(preferred)
	preferredRate := rate(len(matchedPreferred), len(preferred))
	if len(matchedPreferred) > 0 {
		f.positive("Matching preferred skills: %s", strings.Join(matchedPreferred, ", "))
	}

	f.score = round2(100 * (0.7*requiredRate + 0.3*preferredRate))
	return f
}

// experienceFacet: 60 points from years, 40 from the level ordinal.
// Required years are floored at 1 when the candidate meets them.
func experienceFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	have, want := float64(max(p.Experience.Years, 0)), float64(max(v.Experience.Years, 0))

	var years float64
	if have >= want {
		years = min(100, have/max(want, 1)*100)
		f.positive("Experience: %d years (required: %d)", p.Experience.Years, v.Experience.Years)
	} else {
		years = max(0, have/want*100)
		f.negative("Not enough experience: %d years (required: %d)", p.Experience.Years, v.Experience.Years)
	}

	var level float64
	haveLevel, wantLevel := p.Experience.Level.Clamp(), v.Experience.Level.Clamp()
	if haveLevel >= wantLevel {
		level = 40
		if wantLevel != candidate.LevelUnknown {
			f.positive("Level fits: %s", haveLevel)
		}
	} else {
		level = max(0, float64(haveLevel)/float64(max(wantLevel, 1))*40)
		f.negative("Level is below required: %s vs %s", haveLevel, wantLevel)
	}

	f.score = round2(years*0.6 + level)
	return f
}

// locationFacet: the first matching rule wins.
func locationFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	city := strings.TrimSpace(p.City)
	switch {
	case v.InCity(city):
		f.score = 100
		f.positive("Location matches: %s", displayOr(v.City, "unspecified"))
	case v.RemotePossible:
		f.score = 90
		f.positive("Remote work is possible from %s", displayOr(city, "any city"))
	case p.RelocationReady:
		f.score = 70
		f.positive("Ready to relocate to %s", displayOr(v.City, "the vacancy city"))
	default:
		f.score = 0
		f.negative("Location does not match: candidate in %s, vacancy in %s",
			displayOr(city, "unknown city"), displayOr(v.City, "unknown city"))
	}
	return f
}

// educationFacet: 60 points from the degree ordinal, 40 from the specialization.
func educationFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	have, want := p.Education.Degree.Clamp(), v.Education.Degree.Clamp()

	var degree float64
	if have >= want {
		degree = 60
		if want != candidate.DegreeNone {
			f.positive("Education level fits: %s", have)
		}
	} else {
		degree = max(0, float64(have)/float64(max(want, 1))*60)
		f.negative("Education level is below required: %s vs %s", have, want)
	}

	var specialization float64
	specs := uniq(v.Education.Specializations)
	switch {
	case len(specs) == 0:
		specialization = 40
	case newSet(specs).has(p.Education.Specialization):
		specialization = 40
		f.positive("Specialization fits: %s", p.Education.Specialization)
	default:
		f.negative("Specialization does not match required: %s", strings.Join(specs, ", "))
	}

	f.score = round2(degree + specialization)
	return f
}

// workConditionsFacet: share of equal fields among format, schedule, team size
// and management style. Only a format mismatch is reported.
func workConditionsFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	matches := 0

	if p.Format() == v.Format() {
		matches++
		f.positive("Work format: %s", v.Format())
	} else {
		f.negative("Work format does not match: prefers %s, offered %s", p.Format(), v.Format())
	}

	pairs := []struct {
		label      string
		have, want string
	}{
		{label: "Schedule", have: p.Conditions.Schedule, want: v.Conditions.Schedule},
		{label: "Team size", have: p.Conditions.TeamSize, want: v.Conditions.TeamSize},
		{label: "Management style", have: p.Conditions.ManagementStyle, want: v.Conditions.ManagementStyle},
	}
	for _, pair := range pairs {
		if !equalFold(pair.have, pair.want) {
			continue
		}
		matches++
		if strings.TrimSpace(pair.want) != "" {
			f.positive("%s: %s", pair.label, pair.want)
		}
	}

	f.score = round2(100 * float64(matches) / 4)
	return f
}

// salaryFacet is a fixed tier table:
//
//	floor <= max and desired in [min, max]  -> 100
//	floor <= max and desired below min      -> 80
//	floor <= max and desired above max      -> 60
//	floor above max                         -> 100 * max / floor, at least 0
func salaryFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet
	desired, floor := p.Salary.Desired, p.Salary.Min
	vmin, vmax := v.Salary.Min, v.Salary.Max

	switch {
	case floor <= vmax && desired <= vmax:
		if desired >= vmin {
			f.score = 100
			f.positive("Salary expectation is within range: %d (range %d-%d)", desired, vmin, vmax)
		} else {
			f.score = 80
			f.positive("Salary expectation is below range: %d (range %d-%d)", desired, vmin, vmax)
		}
	case floor <= vmax:
		f.score = 60
		f.negative("Desired salary is above range: %d (range %d-%d)", desired, vmin, vmax)
	default:
		f.score = round2(min(100, max(0, float64(vmax)/float64(floor)*100)))
		f.negative("Minimum expectation is above the range ceiling: %d (range %d-%d)", floor, vmin, vmax)
	}
	return f
}

// cultureFacet weighs values 40, interests 30 and career goals 30. Values and
// interests are normalized by the company set, goals by the candidate set.
func cultureFacet(p *candidate.Profile, v *vacancy.Record) facet {
	var f facet

	companyValues := uniq(v.Culture.Values)
	commonValues, _ := newSet(p.Values).split(companyValues)
	if len(commonValues) > 0 {
		f.positive("Shared values: %s", strings.Join(commonValues, ", "))
	}

	companyInterests := uniq(v.Culture.Interests)
	commonInterests, _ := newSet(p.Interests).split(companyInterests)
	if len(commonInterests) > 0 {
		f.positive("Shared interests: %s", strings.Join(commonInterests, ", "))
	}

	goals := uniq(p.CareerGoals)
	commonGoals, _ := newSet(v.Culture.CareerOpportunities).split(goals)
	if len(commonGoals) > 0 {
		f.positive("Career growth opportunities: %s", strings.Join(commonGoals, ", "))
	}

	f.score = round2(40*rate(len(commonValues), len(companyValues)) +
		30*rate(len(commonInterests), len(companyInterests)) +
		30*rate(len(commonGoals), len(goals)))
	return f
}

// rate is matched/total with an empty total counting as a full match.
func rate(matched, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(matched) / float64(total)
}

func displayOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// set is a case-insensitive string set.
type set map[string]struct{}

func newSet(items []string) set {
	s := make(set, len(items))
	for _, item := range items {
		if key := strings.ToLower(strings.TrimSpace(item)); key != "" {
			s[key] = struct{}{}
		}
	}
	return s
}

func (s set) has(item string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(item))]
	return ok
}

// split partitions items into those present in s and those absent, keeping order.
func (s set) split(items []string) (in, out []string) {
	for _, item := range items {
		if s.has(item) {
			in = append(in, item)
		} else {
			out = append(out, item)
		}
	}
	return in, out
}

// uniq trims items and drops blanks and case-insensitive duplicates.
func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
