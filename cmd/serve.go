package cmd

import (
	"context"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jobmatcher/internal/candidate"
	"github.com/spigell/jobmatcher/internal/feedback"
	"github.com/spigell/jobmatcher/internal/preference"
	"github.com/spigell/jobmatcher/internal/recommend"
	"github.com/spigell/jobmatcher/internal/server"
	"github.com/spigell/jobmatcher/internal/vacancy"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := bootstrap()
	defer rt.close()

	rt.logger.Info("starting the jobmatcher api", zap.String("version", resolveVersion(version, debug.ReadBuildInfo)))

	kv := rt.kv(ctx)
	prefs := preference.NewStore(kv, rt.logger)
	engine := rt.engine(ctx)

	srv := server.New(server.Deps{
		Engine:       engine,
		Feedback:     feedback.NewService(engine, prefs, rt.logger),
		Preferences:  prefs,
		Profiles:     candidate.NewStore(kv),
		DefaultLimit: rt.limit(0),
	}, rt.logger)

	refresher, err := scheduleRefresh(ctx, rt, engine, rt.source(ctx))
	if err != nil {
		rt.logger.Fatal("scheduling corpus refresh", zap.Error(err))
	}
	if refresher != nil {
		refresher.Start()
		defer func() { <-refresher.Stop().Done() }()
	}

	addr := ":8080"
	if rt.config.Server != nil && rt.config.Server.Addr != "" {
		addr = rt.config.Server.Addr
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			rt.logger.Fatal("server error", zap.Error(err))
		}
	case <-ctx.Done():
		rt.logger.Info("shutting down", zap.String("reason", "signal received"))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.logger.Error("shutdown error", zap.Error(err))
		}
	}
}

// scheduleRefresh reloads the corpus on the configured cron schedule. An empty
// or "off" schedule disables the refresh and returns a nil scheduler. A failed
// reload keeps the previous corpus serving.
func scheduleRefresh(ctx context.Context, rt *runtime, engine *recommend.Engine, source vacancy.Source) (*cron.Cron, error) {
	spec := ""
	if rt.config.Corpus != nil {
		spec = strings.TrimSpace(rt.config.Corpus.Refresh)
	}
	if spec == "" || strings.EqualFold(spec, "off") {
		return nil, nil
	}

	log := cronLogger{rt.logger.Sugar().With("component", "corpus_refresh")}
	c := cron.New(
		cron.WithLogger(log),
		cron.WithChain(cron.SkipIfStillRunning(log)),
	)

	_, err := c.AddFunc(spec, func() {
		records, err := source.Load(ctx)
		if err != nil {
			rt.logger.Error("corpus refresh failed", zap.Error(err))
			return
		}
		if err := engine.Load(ctx, records); err != nil {
			rt.logger.Error("corpus refresh failed", zap.Error(err))
			return
		}
		rt.logger.Info("corpus refreshed", zap.Int("count", engine.Len()))
	})
	if err != nil {
		return nil, err
	}

	rt.logger.Info("corpus refresh scheduled", zap.String("spec", spec))
	return c, nil
}

// cronLogger routes scheduler messages into zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
