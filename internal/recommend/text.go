package recommend

import (
	"fmt"
	"strings"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// ProfileText is the text embedded as the search query for a candidate.
// A nil or empty profile still gives a valid, possibly empty, text.
func ProfileText(p *candidate.Profile) string {
	if p == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Candidate from %s, format %s, salary %d.", p.City, p.Format(), p.Salary.Desired)
	writeList(&b, "Skills", p.HardSkills)
	writeList(&b, "Roles", p.PreferredRoles)
	if raw := strings.TrimSpace(p.RawText); raw != "" {
		fmt.Fprintf(&b, " Summary: %s", raw)
	}
	return b.String()
}

// VacancyText is the text embedded for a vacancy when the corpus is loaded.
func VacancyText(r *vacancy.Record) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s. Company: %s. City: %s. Format: %s.", r.Title, r.Company, r.City, r.Format())
	writeList(&b, "Skills", r.Skills())
	if desc := strings.TrimSpace(r.Description); desc != "" {
		fmt.Fprintf(&b, " Description: %s", desc)
	}
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, " %s: %s.", label, strings.Join(items, ", "))
}
