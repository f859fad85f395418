package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jobmatcher/internal/logger"
	"github.com/spigell/jobmatcher/internal/utils"
)

const provider = "gemini"

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Config holds the embedder settings. Zero values fall back to defaults.
type Config struct {
	Model        string
	Dimensions   int
	MaxRetries   int
	BatchSize    int
	MaxLogLength int
}

// Embedder computes embeddings with the Gemini API, batching inputs and
// retrying temporary failures.
type Embedder struct {
	models     contentEmbedder
	model      string
	dims       int
	maxRetries int
	batchSize  int
	maxLogLen  int
	logger     *zap.Logger

	wait func(ctx context.Context, d time.Duration) error
}

// NewEmbedder creates an embedder backed by a new genai client.
func NewEmbedder(ctx context.Context, apiKey string, cfg Config, log *zap.Logger) (*Embedder, error) {
	client, err := newClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	return newEmbedder(client.Models, cfg, log), nil
}

func newEmbedder(models contentEmbedder, cfg Config, log *zap.Logger) *Embedder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = 200
	}

	return &Embedder{
		models:     models,
		model:      model,
		dims:       cfg.Dimensions,
		maxRetries: maxRetries,
		batchSize:  batchSize,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, provider, model),
		wait:       utils.WaitFor,
	}
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return e.model
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: text}},
		})
	}

	var config *genai.EmbedContentConfig
	if e.dims > 0 {
		dims := int32(e.dims)
		config = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	if len(texts) > 0 {
		e.logger.Debug("gemini embed content request",
			zap.Int("batch_size", len(texts)),
			zap.String("first_text_preview", utils.TruncateForLog(texts[0], e.maxLogLen)),
		)
	}

	var resp *genai.EmbedContentResponse
	err := withRetry(ctx, e.logger, e.wait, e.maxRetries, "embed content", func() error {
		var err error
		resp, err = e.models.EmbedContent(ctx, e.model, contents, config)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vectorsFrom(resp, len(texts))
}

func vectorsFrom(resp *genai.EmbedContentResponse, want int) ([][]float32, error) {
	if resp == nil || len(resp.Embeddings) != want {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d texts", got, want)
	}

	out := make([][]float32, want)
	for i, embedding := range resp.Embeddings {
		if embedding == nil {
			return nil, fmt.Errorf("gemini api returned empty embedding at %d", i)
		}
		out[i] = embedding.Values
	}
	return out, nil
}
