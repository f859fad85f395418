package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/ai"
	"github.com/spigell/jobmatcher/internal/ai/gemini"
	"github.com/spigell/jobmatcher/internal/filtering"
	"github.com/spigell/jobmatcher/internal/logger"
	"github.com/spigell/jobmatcher/internal/recommend"
	"github.com/spigell/jobmatcher/internal/secrets"
	"github.com/spigell/jobmatcher/internal/storage"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

// runtime holds what every command needs: the parsed config, the logger and
// the connections opened on the way, closed in reverse order by close.
type runtime struct {
	config *Config
	logger *zap.Logger

	pool    *pgxpool.Pool
	closers []func()
}

func bootstrap() *runtime {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return &runtime{config: config, logger: logger}
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.logger.Sync()
}

func (r *runtime) kv(ctx context.Context) storage.KV {
	cfg := r.config.Storage
	if cfg == nil {
		cfg = &StorageConfig{}
	}

	switch backend := strings.ToLower(strings.TrimSpace(cfg.Backend)); backend {
	case "", "file":
		kv, err := storage.NewFileKV(cfg.Dir)
		if err != nil {
			r.logger.Fatal("opening file storage", zap.Error(err))
		}
		return kv
	case "redis":
		client, err := storage.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			r.logger.Fatal("connecting to redis",
				zap.Error(err),
				zap.String("hint", "set JOBMATCHER_REDIS_URL environment variable or the 'storage.redis-url' key in the configuration file"),
			)
		}
		r.closers = append(r.closers, func() { _ = client.Close() })
		return storage.NewRedisKV(client, app+":")
	default:
		r.logger.Fatal("unsupported storage backend", zap.String("backend", backend))
	}
	return nil
}

func (r *runtime) postgres(ctx context.Context) *pgxpool.Pool {
	if r.pool != nil {
		return r.pool
	}

	url := ""
	if r.config.Corpus != nil {
		url = strings.TrimSpace(r.config.Corpus.PostgresURL)
	}
	if url == "" {
		r.logger.Fatal("postgres url is not configured",
			zap.String("hint", "set JOBMATCHER_POSTGRES_URL environment variable or the 'corpus.postgres-url' key in the configuration file"),
		)
	}

	pool, err := vacancy.Connect(ctx, url)
	if err != nil {
		r.logger.Fatal("connecting to postgres", zap.Error(err))
	}
	r.pool = pool
	r.closers = append(r.closers, pool.Close)
	return pool
}

func (r *runtime) source(ctx context.Context) vacancy.Source {
	cfg := r.config.Corpus
	if cfg == nil {
		cfg = &CorpusConfig{}
	}

	switch source := strings.ToLower(strings.TrimSpace(cfg.Source)); source {
	case "", "file":
		return vacancy.NewFileSource(cfg.File)
	case "postgres":
		return vacancy.NewPostgresSource(r.postgres(ctx), r.logger)
	default:
		r.logger.Fatal("unsupported corpus source", zap.String("source", source))
	}
	return nil
}

// vacancies loads the whole corpus from the configured source.
func (r *runtime) vacancies(ctx context.Context) []*vacancy.Record {
	records, err := r.source(ctx).Load(ctx)
	if err != nil {
		r.logger.Fatal("loading vacancies", zap.Error(err))
	}

	r.logger.Info("getting vacancies", zap.Int("count", len(records)))
	return records
}

func (r *runtime) geminiConfig() *GeminiConfig {
	if r.config.Embedding == nil || r.config.Embedding.Gemini == nil {
		return &GeminiConfig{}
	}
	return r.config.Embedding.Gemini
}

func (r *runtime) geminiKey() string {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: r.geminiConfig().APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		r.logger.Fatal("loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'embedding.gemini.api-key-file' key in the configuration file"),
		)
	}
	return apiKey
}

func (r *runtime) embedder(ctx context.Context) ai.Embedder {
	cfg := r.config.Embedding
	if cfg == nil {
		cfg = &EmbeddingConfig{}
	}

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", "hashing":
		return ai.NewHashing(cfg.Dimensions)
	case "gemini":
		g := r.geminiConfig()
		embedder, err := gemini.NewEmbedder(ctx, r.geminiKey(), gemini.Config{
			Model:        g.Model,
			Dimensions:   cfg.Dimensions,
			MaxRetries:   g.MaxRetries,
			BatchSize:    g.BatchSize,
			MaxLogLength: g.MaxLogLength,
		}, r.logger)
		if err != nil {
			r.logger.Fatal("creating gemini embedder", zap.Error(err))
		}
		return embedder
	default:
		r.logger.Fatal("unsupported embedding provider", zap.String("provider", provider))
	}
	return nil
}

func (r *runtime) filters() []filtering.Filter {
	steps := filtering.Default()
	if r.config.Filters == nil {
		return steps
	}

	for _, name := range r.config.Filters.Disabled {
		if !filtering.DisableByName(steps, strings.TrimSpace(name), "disabled in config") {
			r.logger.Warn("unknown filter in config", zap.String("filter", name))
		}
	}
	return steps
}

// engine builds the recommendation engine and loads the configured corpus into it.
func (r *runtime) engine(ctx context.Context) *recommend.Engine {
	engine := recommend.New(r.embedder(ctx), r.logger,
		recommend.WithFilters(r.filters()),
		recommend.WithMaxLogLength(r.geminiConfig().MaxLogLength),
	)

	if err := engine.Load(ctx, r.vacancies(ctx)); err != nil {
		r.logger.Fatal("loading the corpus into the engine", zap.Error(err))
	}
	return engine
}

func (r *runtime) limit(flag int) int {
	if flag > 0 {
		return flag
	}
	if r.config.Recommend != nil && r.config.Recommend.Limit > 0 {
		return r.config.Recommend.Limit
	}
	return 10
}

// catalog resolves vacancy ids against a corpus without embedding it.
type catalog struct {
	corpus *vacancy.Corpus
}

func (c catalog) Vacancy(id string) (*vacancy.Record, bool) {
	return c.corpus.Get(id)
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}
