package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizarena/internal/app"
	"quizarena/internal/config"
	"quizarena/internal/domain"
	"quizarena/internal/infra/memory"
	"quizarena/internal/infra/postgres"
	rediscache "quizarena/internal/infra/redis"
	transport "quizarena/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var store app.Store
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = postgres.NewStore(pool)
	} else {
		memStore := memory.NewStore()
		seedDemoData(ctx, memStore)
		store = memStore
	}

	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
		store = rediscache.NewStoreCache(redisClient, store, cacheTTL)
	}

	var registry app.AttemptRegistry = memory.NewAttemptRegistry()
	if redisClient != nil {
		attemptTTL := config.TTLDuration(cfg.Attempt.TTL, time.Hour)
		registry = rediscache.NewAttemptRegistry(redisClient, registry, attemptTTL)
	}

	quizzes := app.NewQuizService(store)
	attempts := app.NewAttemptService(registry, store)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(quizzes, attempts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizarena on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedDemoData loads a sample quiz and two participants so the server is
// usable out of the box when no Postgres is configured.
func seedDemoData(ctx context.Context, store *memory.Store) {
	store.SeedProfiles(
		domain.Profile{ID: "u1", FullName: "Alice Nguyen", Email: "alice@example.com"},
		domain.Profile{ID: "u2", FullName: "Bob Tran", Email: "bob@example.com"},
	)
	quiz, err := domain.NewQuiz("admin", "General Knowledge", "A quick warm-up quiz", 5, []domain.Question{
		{Question: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: 1, Points: 10},
		{Question: "Which planet is closest to the sun?", Options: []string{"Venus", "Earth", "Mercury"}, CorrectAnswer: 2, Points: 10},
		{Question: "How many minutes are in an hour?", Options: []string{"60", "100"}, CorrectAnswer: 0, Points: 5},
	})
	if err != nil {
		log.Printf("seed quiz: %v", err)
		return
	}
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		log.Printf("seed quiz: %v", err)
	}
}
