package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"medagent/internal/config"
	"medagent/internal/core"
	"medagent/internal/db"
	httpserver "medagent/internal/http"
	"medagent/internal/llm"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL must be set")
	}

	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	repo := db.NewRepository(dbConn)
	notifier := db.NewNotifier(dbConn, cfg.AlertChannel)
	alerts := db.NewAlertListener(cfg.DatabaseURL, cfg.AlertChannel, log.With().Str("component", "alerts").Logger())

	model := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.ChatModel)
	conv := core.NewConversations(repo, model, notifier, log.With().Str("component", "core").Logger())
	sums := core.NewSummaries(repo)

	if cfg.RetentionDays > 0 {
		go retentionSweep(context.Background(), repo, cfg.RetentionDays)
	}

	srv := httpserver.NewServer(conv, sums, repo, alerts,
		cfg.HistoryLimit, cfg.OpenAIKey != "",
		log.With().Str("component", "http").Logger())

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("model", cfg.ChatModel).Msg("listening")
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// retentionSweep purges sessions older than the retention window once a
// day.
func retentionSweep(ctx context.Context, repo *db.Repository, days int) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		cutoff := time.Now().AddDate(0, 0, -days)
		deleted, err := repo.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			log.Warn().Err(err).Msg("retention sweep failed")
		} else if deleted > 0 {
			log.Info().Int64("deleted", deleted).Msg("retention sweep completed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
