package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-attempt-engine/internal/config"
	"quiz-attempt-engine/internal/domain"
	redisstore "quiz-attempt-engine/internal/infra/redis"
	"quiz-attempt-engine/internal/logging"
)

// quizRow is the quizzes table as written by the seed command.
type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	Data      domain.Quiz `bun:"data,type:jsonb"`
	Published bool        `bun:"published"`
}

// NewSeedCmd imports quiz definitions from YAML into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var (
		file        string
		unpublished bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import quizzes from a YAML file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.Quiz.SeedFile
			}
			logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
			return seedQuizzes(cmd.Context(), cfg, file, !unpublished, logger)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "quiz YAML file (defaults to quiz.seedFile)")
	cmd.Flags().BoolVar(&unpublished, "draft", false, "import quizzes unpublished")
	return cmd
}

func seedQuizzes(ctx context.Context, cfg config.Config, file string, published bool, logger *slog.Logger) error {
	if file == "" {
		return fmt.Errorf("no quiz file given")
	}
	quizzes, err := config.LoadQuizzes(file)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
		return err
	}

	rows := make([]quizRow, 0, len(quizzes))
	for id, quiz := range quizzes {
		rows = append(rows, quizRow{ID: id, Data: quiz, Published: published})
	}
	if len(rows) == 0 {
		logger.Info("no quizzes to import", slog.String("file", file))
		return nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if _, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("published = EXCLUDED.published").
		Exec(ctx); err != nil {
		return fmt.Errorf("upsert quizzes: %w", err)
	}
	logger.Info("quizzes imported", slog.String("file", file), slog.Int("count", len(rows)), slog.Bool("published", published))

	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return invalidateCachedQuizzes(ctx, redisstore.NewQuizRepository(client, nil, 0), ids, logger)
}

type quizCache interface {
	Invalidate(ctx context.Context, quizID string) error
}

// invalidateCachedQuizzes drops cached copies so running servers reload the
// imported content.
func invalidateCachedQuizzes(ctx context.Context, cache quizCache, ids []string, logger *slog.Logger) error {
	for _, id := range ids {
		if err := cache.Invalidate(ctx, id); err != nil {
			return fmt.Errorf("invalidate cached quiz %s: %w", id, err)
		}
	}
	logger.Info("cached quizzes invalidated", slog.Int("count", len(ids)))
	return nil
}
