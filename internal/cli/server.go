package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"vocab-quiz-service/internal/app"
	"vocab-quiz-service/internal/auth"
	"vocab-quiz-service/internal/config"
	"vocab-quiz-service/internal/domain"
	"vocab-quiz-service/internal/infra/memory"
	infrapg "vocab-quiz-service/internal/infra/postgres"
	infraredis "vocab-quiz-service/internal/infra/redis"
	transport "vocab-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz progress server",
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
	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)

	var questions app.QuestionRepository
	var progressStore app.ProgressStore
	var reviewStore app.ReviewStore

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		loader := infrapg.NewQuestionLoader(pool)
		if redisClient != nil {
			questions = infraredis.NewQuestionRepository(redisClient, loader, questionTTL)
		} else {
			questions = memory.NewQuestionRepository(loader, questionTTL)
		}

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()
		progressStore = infrapg.NewProgressStore(db)
		reviewStore = infrapg.NewReviewStore(db)
	} else {
		// No backing store configured: run on in-memory demo data.
		loader := memory.NewStaticQuestionLoader(sampleQuestions())
		if redisClient != nil {
			questions = infraredis.NewQuestionRepository(redisClient, loader, questionTTL)
		} else {
			questions = memory.NewQuestionRepository(loader, questionTTL)
		}
		memProgress := memory.NewProgressStore()
		memProgress.SeedProfile(domain.Profile{UserID: 1})
		progressStore = memProgress
		reviewStore = memory.NewReviewStore()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-only-secret"
		log.Printf("auth secret not configured, using insecure development default")
	}
	authenticator := auth.NewTokenAuthenticator(secret, config.TTLDuration(cfg.Auth.TTL, 8*time.Hour))

	feed := app.NewProgressFeed()
	quizService := app.NewQuizService(questions)
	progressService := app.NewProgressService(progressStore, feed)
	reviewService := app.NewReviewService(reviewStore, questions, quizService)

	handler := transport.NewHandler(quizService, progressService, reviewService, feed, authenticator)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting vocab quiz service on :%s", finalPort)
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

// sampleQuestions provides a minimal servable set for demos without a
// database. Slot 0 is always the correct option.
func sampleQuestions() map[int64]domain.Question {
	return map[int64]domain.Question{
		1: {
			ID:         1,
			Headword:   "ubiquitous",
			Definition: "present, appearing, or found everywhere",
			Example:    "smartphones have become ubiquitous",
			Options:    [domain.OptionCount]string{"everywhere", "rare", "expensive", "fragile"},
			Difficulty: "medium",
			Active:     true,
		},
		2: {
			ID:         2,
			Headword:   "laconic",
			Definition: "using very few words",
			Example:    "his laconic reply suggested a lack of interest",
			Options:    [domain.OptionCount]string{"terse", "talkative", "cheerful", "ancient"},
			Difficulty: "hard",
			Active:     true,
		},
		3: {
			ID:         3,
			Headword:   "candid",
			Definition: "truthful and straightforward",
			Example:    "a candid assessment of the project",
			Options:    [domain.OptionCount]string{"frank", "hidden", "sweet", "careless"},
			Difficulty: "easy",
			Active:     true,
		},
	}
}
