package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/logger"
	"github.com/spigell/jobmatcher/internal/utils"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

const defaultExtractModel = "gemini-2.5-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

//go:embed prompt.md
var promptTemplate string

// ExtractorConfig holds the extractor settings. Zero values fall back to defaults.
type ExtractorConfig struct {
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Extractor turns free résumé text into a candidate.Profile with a Gemini model.
type Extractor struct {
	models     contentGenerator
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger

	wait func(ctx context.Context, d time.Duration) error
}

func NewExtractor(ctx context.Context, apiKey string, cfg ExtractorConfig, log *zap.Logger) (*Extractor, error) {
	client, err := newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return newExtractor(client.Models, cfg, log), nil
}

func newExtractor(models contentGenerator, cfg ExtractorConfig, log *zap.Logger) *Extractor {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultExtractModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = 200
	}

	return &Extractor{
		models:     models,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, provider, model),
		wait:       utils.WaitFor,
	}
}

// Extract builds a profile with the given id from résumé text. The text is kept
// as the profile's RawText.
func (e *Extractor) Extract(ctx context.Context, id, text string) (*candidate.Profile, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("resume text is required")
	}

	prompt := buildPrompt(text)
	e.logger.Debug("gemini generate content request",
		zap.String("candidate_id", id),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0),
	}

	var raw string
	err := withRetry(ctx, e.logger, e.wait, e.maxRetries, "generate content", func() error {
		resp, err := e.models.GenerateContent(ctx, e.model, genai.Text(prompt), config)
		if err != nil {
			return err
		}
		if resp == nil {
			return errors.New("gemini api returned no response")
		}
		raw = resp.Text()
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini generate content response",
		zap.String("candidate_id", id),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	profile, err := parseProfile(raw)
	if err != nil {
		return nil, err
	}
	profile.ID = id
	profile.RawText = text
	return profile, nil
}

func buildPrompt(resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Resume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{RESUME_TEXT}}", resumeText)
}

// parseProfile reads the model answer leniently: numbers may come as strings,
// lists as comma separated strings, and enums in any case.
func parseProfile(raw string) (*candidate.Profile, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	salary := object(data["salary"])
	experience := object(data["experience"])
	education := object(data["education"])
	conditions := object(data["conditions"])

	return &candidate.Profile{
		Name:            coerceString(data["name"]),
		City:            coerceString(data["city"]),
		RelocationReady: coerceBool(data["relocation_ready"]),
		WorkFormat:      vacancy.NormalizeWorkFormat(coerceString(data["work_format"])),
		Salary: candidate.Salary{
			Desired:  coerceInt(salary["desired"]),
			Min:      coerceInt(salary["min"]),
			Currency: coerceString(salary["currency"]),
		},
		Experience: candidate.Experience{
			Years: coerceInt(experience["years"]),
			Level: candidate.ParseLevel(coerceString(experience["level"])),
		},
		Education: candidate.Education{
			Degree:         candidate.ParseDegree(coerceString(education["degree"])),
			Specialization: coerceString(education["specialization"]),
		},
		HardSkills:     coerceStrings(data["hard_skills"]),
		Interests:      coerceStrings(data["interests"]),
		Values:         coerceStrings(data["values"]),
		CareerGoals:    coerceStrings(data["career_goals"]),
		PreferredRoles: coerceStrings(data["preferred_roles"]),
		Conditions: candidate.Conditions{
			Schedule:        coerceString(conditions["schedule"]),
			TeamSize:        coerceString(conditions["team_size"]),
			ManagementStyle: coerceString(conditions["management_style"]),
		},
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func object(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.ReplaceAll(strings.TrimSpace(val), " ", "")
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// coerceInt rounds to the nearest integer; unusable and negative values become 0.
func coerceInt(v any) int {
	f := coerceFloat(v)
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	return int(math.Round(f))
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

// coerceStrings accepts a list or a comma separated string and drops blanks and
// case-insensitive duplicates.
func coerceStrings(v any) []string {
	var items []string
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			items = append(items, coerceString(item))
		}
	case string:
		items = strings.Split(val, ",")
	}

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
