package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatcher/internal/candidate"
)

type stubGenerator struct {
	responses []string
	errs      []error

	prompts []string
	configs []*genai.GenerateContentConfig
}

func (s *stubGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.prompts = append(s.prompts, contents[0].Parts[0].Text)
	s.configs = append(s.configs, config)

	i := len(s.prompts) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		return nil, errors.New("unexpected call")
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: s.responses[i]}}},
		}},
	}, nil
}

func TestExtractorExtract(t *testing.T) {
	stub := &stubGenerator{responses: []string{`{
		"name": "Anna",
		"city": "Kazan",
		"relocation_ready": "yes",
		"work_format": "Удаленно",
		"salary": {"desired": "250 000", "min": 180000, "currency": "RUB"},
		"experience": {"years": 4.4, "level": "senior"},
		"education": {"degree": "master", "specialization": "Computer Science"},
		"hard_skills": ["Go", "go", " PostgreSQL ", ""],
		"values": "openness, growth",
		"conditions": {"schedule": "flexible"}
	}`}}
	e := newExtractor(stub, ExtractorConfig{}, zap.NewNop())

	p, err := e.Extract(context.Background(), "c1", "  Backend developer from Kazan.  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.ID != "c1" || p.RawText != "Backend developer from Kazan." {
		t.Fatalf("expected id and raw text to be set, got %q %q", p.ID, p.RawText)
	}
	if p.City != "Kazan" || !p.RelocationReady || p.WorkFormat != candidate.FormatRemote {
		t.Fatalf("unexpected location fields: %+v", p)
	}
	if p.Salary.Desired != 250000 || p.Salary.Min != 180000 || p.Salary.Currency != "RUB" {
		t.Fatalf("unexpected salary: %+v", p.Salary)
	}
	if p.Experience.Years != 4 || p.Experience.Level != candidate.LevelSenior {
		t.Fatalf("unexpected experience: %+v", p.Experience)
	}
	if p.Education.Degree != candidate.DegreeMaster {
		t.Fatalf("unexpected education: %+v", p.Education)
	}
	if len(p.HardSkills) != 2 || p.HardSkills[0] != "Go" || p.HardSkills[1] != "PostgreSQL" {
		t.Fatalf("unexpected skills: %v", p.HardSkills)
	}
	if len(p.Values) != 2 || p.Values[1] != "growth" {
		t.Fatalf("unexpected values: %v", p.Values)
	}
	if p.Conditions.Schedule != "flexible" {
		t.Fatalf("unexpected conditions: %+v", p.Conditions)
	}

	if !strings.Contains(stub.prompts[0], "Backend developer from Kazan.") {
		t.Fatalf("expected resume text in prompt")
	}
	if strings.Contains(stub.prompts[0], "{{RESUME_TEXT}}") {
		t.Fatalf("expected placeholder to be replaced")
	}
	if stub.configs[0].ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response type, got %q", stub.configs[0].ResponseMIMEType)
	}
}

func TestExtractorRetriesTemporaryErrors(t *testing.T) {
	stub := &stubGenerator{
		errs:      []error{genai.APIError{Code: http.StatusServiceUnavailable}},
		responses: []string{"", "```json\n{\"city\": \"Moscow\"}\n```"},
	}
	e := newExtractor(stub, ExtractorConfig{MaxRetries: 2}, zap.NewNop())
	e.wait = noWait

	p, err := e.Extract(context.Background(), "c1", "resume")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.City != "Moscow" || len(stub.prompts) != 2 {
		t.Fatalf("expected retry to succeed, got %+v after %d calls", p, len(stub.prompts))
	}
}

func TestExtractorErrors(t *testing.T) {
	e := newExtractor(&stubGenerator{}, ExtractorConfig{}, zap.NewNop())
	if _, err := e.Extract(context.Background(), "c1", "   "); err == nil {
		t.Fatalf("expected error for empty resume")
	}

	e = newExtractor(&stubGenerator{responses: []string{"not json"}}, ExtractorConfig{}, zap.NewNop())
	if _, err := e.Extract(context.Background(), "c1", "resume"); err == nil || !strings.Contains(err.Error(), "parse gemini response") {
		t.Fatalf("expected parse error, got %v", err)
	}

	bad := &stubGenerator{errs: []error{genai.APIError{Code: http.StatusBadRequest}}}
	e = newExtractor(bad, ExtractorConfig{MaxRetries: 3}, zap.NewNop())
	e.wait = noWait
	if _, err := e.Extract(context.Background(), "c1", "resume"); err == nil {
		t.Fatalf("expected client error to be returned")
	}
	if len(bad.prompts) != 1 {
		t.Fatalf("expected no retry on client error, got %d calls", len(bad.prompts))
	}
}

func TestExtractJSONHandlesCodeBlock(t *testing.T) {
	raw := "```json\n{\"city\": \"Omsk\"}\n```"
	if got := extractJSON(raw); got != `{"city": "Omsk"}` {
		t.Fatalf("unexpected json: %q", got)
	}
}
