package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/config"
	"quiz-attempt-engine/internal/infra/memory"
	pgstore "quiz-attempt-engine/internal/infra/postgres"
	redisstore "quiz-attempt-engine/internal/infra/redis"
	"quiz-attempt-engine/internal/logging"
	transport "quiz-attempt-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz attempt server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var closers []func() error
	defer func() {
		var result *multierror.Error
		for _, closeFn := range closers {
			result = multierror.Append(result, closeFn())
		}
		if cerr := result.ErrorOrNil(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, redisClient.Close)
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		closers = append(closers, func() error { pool.Close(); return nil })
	}

	loader, err := quizLoader(cfg, pool)
	if err != nil {
		return err
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var attempts app.AttemptRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		attempts = redisstore.NewAttemptStore(redisClient, config.TTLDuration(cfg.Redis.Grace, time.Minute))
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		attempts = memory.NewAttemptStore()
	}

	var (
		aggregates app.AggregateStore
		opts       = []app.AttemptOption{app.WithLogger(logger)}
	)
	switch {
	case pool != nil:
		results := pgstore.NewResultStore(pool)
		aggregates = results
		opts = append(opts, app.WithResultArchive(results))
	case redisClient != nil:
		aggregates = redisstore.NewAggregateStore(redisClient)
	default:
		aggregates = memory.NewAggregateStore()
	}

	defaults := app.DefaultTimeLimitPolicy()
	bank := app.NewQuestionBank(quizRepo, app.TimeLimitPolicy{
		PerQuestion: config.TTLDuration(cfg.Quiz.PerQuestion, defaults.PerQuestion),
		Minimum:     config.TTLDuration(cfg.Quiz.Minimum, defaults.Minimum),
		Maximum:     config.TTLDuration(cfg.Quiz.Maximum, defaults.Maximum),
	})

	leaderboard := app.NewLeaderboardService(aggregates, config.TTLDuration(cfg.Leaderboard.Refresh, 30*time.Second), logger)
	feed := app.NewResultFeed(leaderboard, cfg.Leaderboard.FeedBuffer, logger)
	service := app.NewAttemptService(attempts, bank, app.NewScorer(scoringPolicy(cfg)),
		append(opts, app.WithResultPublisher(feed))...,
	)
	reconciler := app.NewReconciler(service, config.TTLDuration(cfg.Quiz.ReconcileInterval, time.Second), logger)

	router := transport.NewRouter(
		transport.NewHandler(service, bank, leaderboard, logger),
		transport.NewWSHandler(service, time.Second, logger),
	)
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz attempt engine", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return feed.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func scoringPolicy(cfg config.Config) app.ScoringPolicy {
	policy := app.DefaultScoringPolicy()
	if cfg.Reward.Mode != "" {
		policy.Mode = app.RewardMode(cfg.Reward.Mode)
	}
	policy.MinScore = config.IntOr(cfg.Reward.MinScore, policy.MinScore)
	policy.GrantOnExpiry = config.BoolOr(cfg.Reward.GrantOnExpiry, policy.GrantOnExpiry)
	policy.HighScore = config.IntOr(cfg.Reward.HighScore, policy.HighScore)
	return policy
}

// quizLoader reads published quizzes from Postgres, or serves the seed file
// from memory when no database is configured.
func quizLoader(cfg config.Config, pool *pgxpool.Pool) (memory.QuizLoader, error) {
	if pool != nil {
		return pgstore.NewQuizLoader(pool), nil
	}
	if cfg.Quiz.SeedFile == "" {
		return nil, fmt.Errorf("no quiz source: set postgres.url or quiz.seedFile")
	}
	quizzes, err := config.LoadQuizzes(cfg.Quiz.SeedFile)
	if err != nil {
		return nil, err
	}
	return memory.NewStaticQuizLoader(quizzes), nil
}
