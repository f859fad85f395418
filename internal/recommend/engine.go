package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/ai"
	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/filtering"
	"github.com/spigell/jobmatcher/internal/index"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/scoring"
	"github.com/spigell/jobmatcher/internal/utils"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// retrievalFactor is how many nearest neighbours are fetched per requested result
// before the preference boost reorders them.
const retrievalFactor = 3

// Recommendation is a ranked vacancy. Score is Similarity plus Boost and is not
// on the 0-100 scale of scoring.MatchResult.
type Recommendation struct {
	Vacancy    *vacancy.Record `json:"vacancy"`
	Score      float64         `json:"score"`
	Similarity float64         `json:"similarity"`
	Boost      float64         `json:"boost"`
}

// Explained pairs a recommendation with its criteria breakdown.
type Explained struct {
	Recommendation
	Match scoring.MatchResult `json:"match"`
}

// snapshot is published whole; nothing in it changes after the swap.
type snapshot struct {
	corpus *vacancy.Corpus
	index  *index.Index
}

// Engine ranks vacancies for a candidate. Recommend is safe for concurrent use
// and never observes a partially built index.
type Engine struct {
	embedder     ai.Embedder
	filters      []filtering.Filter
	logger       *zap.Logger
	maxLogLength int

	current atomic.Pointer[snapshot]
	// loadMu serializes Load and Append so an Append never builds on a stale corpus.
	loadMu sync.Mutex
}

type Option func(*Engine)

// WithFilters replaces the default filter pipeline.
func WithFilters(filters []filtering.Filter) Option {
	return func(e *Engine) { e.filters = filters }
}

// WithMaxLogLength limits embedding text previews in debug logs. Non-positive
// values keep the default.
func WithMaxLogLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxLogLength = n
		}
	}
}

func New(embedder ai.Embedder, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		embedder:     embedder,
		filters:      filtering.Default(),
		logger:       logger,
		maxLogLength: 200,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.current.Store(&snapshot{corpus: vacancy.NewCorpus(nil)})
	return e
}

// Load replaces the corpus with records, embedding every vacancy once.
// On error the previous corpus stays in place.
func (e *Engine) Load(ctx context.Context, records []*vacancy.Record) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	return e.publish(ctx, vacancy.NewCorpus(records))
}

// Append upserts records into the current corpus and rebuilds the index.
func (e *Engine) Append(ctx context.Context, records []*vacancy.Record) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	return e.publish(ctx, e.current.Load().corpus.With(records...))
}

func (e *Engine) publish(ctx context.Context, corpus *vacancy.Corpus) error {
	texts := make([]string, 0, corpus.Len())
	for _, r := range corpus.All() {
		texts = append(texts, VacancyText(r))
	}

	var idx *index.Index
	if len(texts) > 0 {
		vectors, err := e.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed vacancies: %w", err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed vacancies: got %d vectors for %d texts", len(vectors), len(texts))
		}
		idx, err = index.New(vectors)
		if err != nil {
			return fmt.Errorf("build index: %w", err)
		}
	}

	e.current.Store(&snapshot{corpus: corpus, index: idx})
	e.logger.Info("corpus loaded",
		zap.Int("vacancies", corpus.Len()),
		zap.Int("dimensions", idx.Dimensions()),
	)
	return nil
}

// Len returns the number of vacancies in the current corpus.
func (e *Engine) Len() int {
	return e.current.Load().corpus.Len()
}

// Vacancy looks a vacancy up by id in the current corpus.
func (e *Engine) Vacancy(id string) (*vacancy.Record, bool) {
	return e.current.Load().corpus.Get(id)
}

// Vacancies returns the current corpus in order.
func (e *Engine) Vacancies() []*vacancy.Record {
	return e.current.Load().corpus.All()
}

// Recommend returns at most limit vacancies ordered by descending score.
// Equal scores keep corpus order. An empty corpus or a non-positive limit
// gives an empty list.
func (e *Engine) Recommend(ctx context.Context, profile *candidate.Profile, prefs *preference.Vector, limit int) ([]Recommendation, error) {
	snap := e.current.Load()
	if limit <= 0 || snap.corpus.Len() == 0 {
		return []Recommendation{}, nil
	}

	subset, err := e.candidates(ctx, snap.corpus, profile)
	if err != nil {
		return nil, err
	}

	query := ProfileText(profile)
	e.logger.Debug("embedding profile", zap.String("text", utils.TruncateForLog(query, e.maxLogLength)))

	vectors, err := e.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed profile: %w", err)
	}
	if len(vectors) != 1 {
		return nil, errors.New("embed profile: no vector returned")
	}

	k := min(retrievalFactor*limit, len(subset))
	hits, err := snap.index.Search(vectors[0], subset, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	type ranked struct {
		pos int
		rec Recommendation
	}
	results := make([]ranked, 0, len(hits))
	for _, hit := range hits {
		r := snap.corpus.At(hit.Pos)
		boost := 0.0
		if prefs != nil {
			boost = prefs.Boost(r.ID, r.Skills())
		}
		results = append(results, ranked{
			pos: hit.Pos,
			rec: Recommendation{Vacancy: r, Score: hit.Score + boost, Similarity: hit.Score, Boost: boost},
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].rec.Score != results[j].rec.Score {
			return results[i].rec.Score > results[j].rec.Score
		}
		return results[i].pos < results[j].pos
	})

	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]Recommendation, 0, len(results))
	for _, r := range results {
		out = append(out, r.rec)
	}

	e.logger.Debug("recommendations ready",
		zap.String("candidate_id", profileID(profile)),
		zap.Int("subset", len(subset)),
		zap.Int("hits", len(hits)),
		zap.Int("returned", len(out)),
	)
	return out, nil
}

// candidates returns corpus positions that pass the hard filters, or every
// position when nothing passes.
func (e *Engine) candidates(ctx context.Context, corpus *vacancy.Corpus, profile *candidate.Profile) ([]int, error) {
	all := corpus.All()
	filtered, err := filtering.Run(ctx, e.logger, filtering.CriteriaFor(profile), e.filters, all)
	if err != nil {
		return nil, fmt.Errorf("filter vacancies: %w", err)
	}

	if len(filtered) == 0 {
		e.logger.Debug("filters left nothing, falling back to the whole corpus",
			zap.Int("corpus", len(all)),
		)
		filtered = all
	}

	positions := make([]int, 0, len(filtered))
	for _, r := range filtered {
		if pos, ok := corpus.Position(r.ID); ok {
			positions = append(positions, pos)
		}
	}
	return positions, nil
}

// Explain attaches the criteria breakdown to each recommendation. The order of
// recs is kept.
func Explain(profile *candidate.Profile, recs []Recommendation) []Explained {
	out := make([]Explained, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Explained{Recommendation: rec, Match: scoring.Score(profile, rec.Vacancy)})
	}
	return out
}

func profileID(p *candidate.Profile) string {
	if p == nil {
		return ""
	}
	return p.ID
}
