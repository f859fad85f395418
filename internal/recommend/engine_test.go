package recommend

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"unicode"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/filtering"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// keywordEmbedder marks the presence of each vocabulary word in its own dimension.
type keywordEmbedder struct {
	vocab []string

	mu  sync.Mutex
	err error
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{vocab: []string{"go", "python", "sql", "docker"}}
}

func (k *keywordEmbedder) fail(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.err = err
}

func (k *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	k.mu.Lock()
	err := k.err
	k.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		tokens := map[string]bool{}
		for _, token := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) {
			tokens[token] = true
		}
		v := make([]float32, len(k.vocab))
		for j, word := range k.vocab {
			if tokens[word] {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func fixtures() []*vacancy.Record {
	return []*vacancy.Record{
		{ID: "v1", Title: "Go developer", Company: "Acme", City: "Moscow", WorkFormat: candidate.FormatRemote, RequiredSkills: []string{"Go", "Docker"}},
		{ID: "v2", Title: "Backend developer", Company: "Acme", City: "Moscow", WorkFormat: candidate.FormatRemote, RequiredSkills: []string{"Go", "SQL", "Docker"}},
		{ID: "v3", Title: "Go engineer", Company: "Initech", City: "Kazan", WorkFormat: candidate.FormatRemote, RequiredSkills: []string{"Go", "Docker"}},
		{ID: "v4", Title: "Data analyst", Company: "Initech", City: "Moscow", WorkFormat: candidate.FormatOffice, RequiredSkills: []string{"Python", "SQL"}},
	}
}

func goProfile(city string) *candidate.Profile {
	return &candidate.Profile{ID: "c1", City: city, WorkFormat: candidate.FormatRemote, HardSkills: []string{"Go", "Docker"}}
}

func loaded(t *testing.T) (*Engine, *keywordEmbedder) {
	t.Helper()
	emb := newKeywordEmbedder()
	e := New(emb, nil)
	if err := e.Load(context.Background(), fixtures()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e, emb
}

func recIDs(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Vacancy.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommendEmptyCorpus(t *testing.T) {
	t.Parallel()

	e := New(newKeywordEmbedder(), nil)
	recs, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, 5)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if recs == nil || len(recs) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", recs)
	}

	if err := e.Load(context.Background(), nil); err != nil {
		t.Fatalf("expected empty load to succeed, got %v", err)
	}
	recs, err = e.Recommend(context.Background(), goProfile("Moscow"), nil, 5)
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected empty list after empty load, got %v (%v)", recs, err)
	}
}

func TestRecommendNonPositiveLimit(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	for _, limit := range []int{0, -1} {
		recs, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, limit)
		if err != nil || len(recs) != 0 {
			t.Fatalf("limit %d: expected empty list, got %v (%v)", limit, recs, err)
		}
	}
}

func TestRecommendAppliesFilters(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	recs, err := e.Recommend(context.Background(), goProfile("moscow"), nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if got := recIDs(recs); !equalIDs(got, []string{"v1", "v2"}) {
		t.Fatalf("expected [v1 v2], got %v", got)
	}
	if math.Abs(recs[0].Similarity-1) > 1e-9 {
		t.Fatalf("expected identical skill vectors to score 1, got %f", recs[0].Similarity)
	}
	if want := 2 / math.Sqrt(6); math.Abs(recs[1].Similarity-want) > 1e-6 {
		t.Fatalf("expected similarity %f, got %f", want, recs[1].Similarity)
	}
	for _, r := range recs {
		if r.Boost != 0 || r.Score != r.Similarity {
			t.Fatalf("expected no boost without preferences, got %+v", r)
		}
	}
}

func TestRecommendFallsBackToWholeCorpus(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	recs, err := e.Recommend(context.Background(), goProfile("Paris"), nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// v1 and v3 tie and keep corpus order.
	if got := recIDs(recs); !equalIDs(got, []string{"v1", "v3", "v2", "v4"}) {
		t.Fatalf("expected [v1 v3 v2 v4], got %v", got)
	}
}

func TestRecommendRespectsLimitAndOrder(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	for limit := 1; limit <= 5; limit++ {
		recs, err := e.Recommend(context.Background(), goProfile("Paris"), nil, limit)
		if err != nil {
			t.Fatalf("limit %d: unexpected error %v", limit, err)
		}
		if len(recs) > limit {
			t.Fatalf("limit %d: got %d results", limit, len(recs))
		}
		for i := 1; i < len(recs); i++ {
			if recs[i].Score > recs[i-1].Score {
				t.Fatalf("limit %d: results out of order: %v", limit, recs)
			}
		}
	}
}

func TestRecommendAppliesPreferenceBoost(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	prefs := preference.New()
	v1, _ := e.Vacancy("v1")
	if err := prefs.Update(v1.ID, v1.Skills(), preference.Dislike); err != nil {
		t.Fatalf("update: %v", err)
	}

	recs, err := e.Recommend(context.Background(), goProfile("Moscow"), prefs, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := recIDs(recs); !equalIDs(got, []string{"v2", "v1"}) {
		t.Fatalf("expected disliked vacancy to drop, got %v", got)
	}
	if recs[1].Boost != -0.5 {
		t.Fatalf("expected -0.5 boost for disliked vacancy, got %f", recs[1].Boost)
	}
	// v2 shares the disliked go and docker skills.
	if math.Abs(recs[0].Boost+0.02) > 1e-9 {
		t.Fatalf("expected -0.02 boost, got %f", recs[0].Boost)
	}
	if math.Abs(recs[0].Score-(recs[0].Similarity+recs[0].Boost)) > 1e-12 {
		t.Fatalf("expected score to be similarity plus boost: %+v", recs[0])
	}
}

func TestRecommendWithDisabledFilter(t *testing.T) {
	t.Parallel()

	filters := filtering.Default()
	filtering.DisableByName(filters, filtering.NameCity, "test")

	e := New(newKeywordEmbedder(), nil, WithFilters(filters))
	if err := e.Load(context.Background(), fixtures()); err != nil {
		t.Fatalf("load: %v", err)
	}

	recs, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := recIDs(recs); !equalIDs(got, []string{"v1", "v3", "v2"}) {
		t.Fatalf("expected remote vacancies from any city, got %v", got)
	}
}

func TestRecommendEmbeddingFailure(t *testing.T) {
	t.Parallel()

	e, emb := loaded(t)
	emb.fail(errors.New("quota"))

	if _, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, 3); err == nil {
		t.Fatalf("expected embedding error")
	}
}

func TestLoadFailureKeepsPreviousSnapshot(t *testing.T) {
	t.Parallel()

	e, emb := loaded(t)
	emb.fail(errors.New("unavailable"))

	if err := e.Load(context.Background(), fixtures()[:1]); err == nil {
		t.Fatalf("expected load error")
	}
	if e.Len() != 4 {
		t.Fatalf("expected previous corpus of 4, got %d", e.Len())
	}

	emb.fail(nil)
	recs, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, 10)
	if err != nil || len(recs) != 2 {
		t.Fatalf("expected old snapshot to keep serving, got %v (%v)", recs, err)
	}
}

func TestAppendUpsertsAndReindexes(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	err := e.Append(context.Background(), []*vacancy.Record{
		{ID: "v5", Title: "Go lead", City: "Moscow", WorkFormat: candidate.FormatRemote, RequiredSkills: []string{"Go", "Docker"}},
		{ID: "v2", Title: "Python developer", City: "Moscow", WorkFormat: candidate.FormatRemote, RequiredSkills: []string{"Python"}},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if e.Len() != 5 {
		t.Fatalf("expected 5 vacancies, got %d", e.Len())
	}
	if r, ok := e.Vacancy("v2"); !ok || r.Title != "Python developer" {
		t.Fatalf("expected v2 to be replaced, got %+v", r)
	}

	recs, err := e.Recommend(context.Background(), goProfile("Moscow"), nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := recIDs(recs); !equalIDs(got, []string{"v1", "v5", "v2"}) {
		t.Fatalf("expected [v1 v5 v2], got %v", got)
	}
}

func TestRecommendDuringReload(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				recs, err := e.Recommend(context.Background(), goProfile("Paris"), nil, 2)
				if err != nil {
					errs <- err
					return
				}
				if len(recs) > 2 {
					errs <- errors.New("limit exceeded")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		if err := e.Load(context.Background(), fixtures()[:1+i%4]); err != nil {
			t.Fatalf("reload: %v", err)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent recommend failed: %v", err)
	}
}

func TestExplainKeepsOrder(t *testing.T) {
	t.Parallel()

	e, _ := loaded(t)
	profile := goProfile("Moscow")
	recs, err := e.Recommend(context.Background(), profile, nil, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	explained := Explain(profile, recs)
	if len(explained) != len(recs) {
		t.Fatalf("expected %d entries, got %d", len(recs), len(explained))
	}
	for i, ex := range explained {
		if ex.Vacancy.ID != recs[i].Vacancy.ID || ex.Match.VacancyID != recs[i].Vacancy.ID {
			t.Fatalf("entry %d does not match recommendation: %+v", i, ex)
		}
		if ex.Score != recs[i].Score {
			t.Fatalf("expected ranking score to be kept, got %f", ex.Score)
		}
	}
	if explained[0].Match.Scores.Skills != 100 {
		t.Fatalf("expected full skills match for v1, got %f", explained[0].Match.Scores.Skills)
	}
}

func TestTexts(t *testing.T) {
	t.Parallel()

	if ProfileText(nil) != "" || VacancyText(nil) != "" {
		t.Fatalf("expected empty texts for nil inputs")
	}

	p := &candidate.Profile{
		City:           "Moscow",
		WorkFormat:     candidate.FormatHybrid,
		Salary:         candidate.Salary{Desired: 250000},
		HardSkills:     []string{"Go", "SQL"},
		PreferredRoles: []string{"Backend"},
		RawText:        " Five years of services. ",
	}
	want := "Candidate from Moscow, format hybrid, salary 250000. Skills: Go, SQL. Roles: Backend. Summary: Five years of services."
	if got := ProfileText(p); got != want {
		t.Fatalf("unexpected profile text:\n%s\nwant:\n%s", got, want)
	}

	v := &vacancy.Record{
		Title:           "Go developer",
		Company:         "Acme",
		City:            "Kazan",
		RequiredSkills:  []string{"Go"},
		PreferredSkills: []string{"go", "Kafka"},
		Description:     "Payments.",
	}
	want = "Go developer. Company: Acme. City: Kazan. Format: unspecified. Skills: Go, Kafka. Description: Payments."
	if got := VacancyText(v); got != want {
		t.Fatalf("unexpected vacancy text:\n%s\nwant:\n%s", got, want)
	}
}
