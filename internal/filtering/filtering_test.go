package filtering

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

func corpus() []*vacancy.Record {
	return []*vacancy.Record{
		{ID: "1", City: "Moscow", WorkFormat: candidate.FormatRemote, Salary: vacancy.Salary{Min: 150000}},
		{ID: "2", City: "moscow", WorkFormat: candidate.FormatOffice, Salary: vacancy.Salary{Min: 50000}},
		{ID: "3", City: "Kazan", WorkFormat: candidate.FormatRemote},
		{ID: "4", City: "MOSCOW", WorkFormat: candidate.FormatRemote},
		{ID: "5", City: "Moscow", WorkFormat: candidate.FormatRemote, Salary: vacancy.Salary{Min: 119999}},
	}
}

func ids(records []*vacancy.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestCriteriaFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile *candidate.Profile
		expect  Criteria
	}{
		{name: "nil profile", profile: nil, expect: Criteria{}},
		{name: "unspecified format is ignored", profile: &candidate.Profile{City: "Moscow", WorkFormat: candidate.FormatUnspecified}, expect: Criteria{City: "Moscow"}},
		{name: "salary floor", profile: &candidate.Profile{WorkFormat: candidate.FormatRemote, Salary: candidate.Salary{Desired: 200001}}, expect: Criteria{WorkFormat: candidate.FormatRemote, MinSalary: 120000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CriteriaFor(tt.profile); got != tt.expect {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestRunDefaultPipeline(t *testing.T) {
	t.Parallel()

	profile := &candidate.Profile{City: "moscow", WorkFormat: candidate.FormatRemote, Salary: candidate.Salary{Desired: 200000}}
	records := corpus()

	got, err := Run(context.Background(), nil, CriteriaFor(profile), Default(), records)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := []string{"1", "4"}
	if gotIDs := ids(got); len(gotIDs) != len(want) || gotIDs[0] != want[0] || gotIDs[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, gotIDs)
	}
	if len(records) != 5 || records[2].ID != "3" {
		t.Fatalf("expected input slice to stay untouched, got %v", ids(records))
	}
}

func TestRunWithoutCriteriaKeepsEverything(t *testing.T) {
	t.Parallel()

	got, err := Run(context.Background(), nil, Criteria{}, Default(), corpus())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected all 5 records, got %v", ids(got))
	}
}

func TestDisableByName(t *testing.T) {
	t.Parallel()

	steps := Default()
	if !DisableByName(steps, NameCity, "configured") {
		t.Fatalf("expected city filter to be found")
	}
	if DisableByName(steps, "unknown", "configured") {
		t.Fatalf("expected unknown filter not to be found")
	}

	got, err := Run(context.Background(), nil, Criteria{City: "Kazan", WorkFormat: candidate.FormatRemote}, steps, corpus())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected city filter to be skipped, got %v", ids(got))
	}

	statuses := Describe(steps)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != NameCity || statuses[0].Enabled || statuses[0].Reason != "configured" {
		t.Fatalf("unexpected city status: %+v", statuses[0])
	}
	if !statuses[1].Enabled || !statuses[2].Enabled {
		t.Fatalf("expected other filters to stay enabled: %+v", statuses)
	}
}

func TestRunLogsSteps(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	steps := Default()
	DisableByName(steps, NameSalary, "test")

	_, err := Run(context.Background(), zap.New(core), Criteria{City: "Kazan"}, steps, corpus())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entries := observed.FilterMessage("filter step").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 step entries, got %d", len(entries))
	}
	city := entries[0].ContextMap()
	if city["name"] != NameCity || city["initial"] != int64(5) || city["dropped"] != int64(4) || city["left"] != int64(1) {
		t.Fatalf("unexpected city step fields: %v", city)
	}
	if observed.FilterMessage("filter disabled").Len() != 1 {
		t.Fatalf("expected disabled filter to be logged")
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, nil, Criteria{}, Default(), corpus()); err == nil {
		t.Fatalf("expected context error")
	}
}
