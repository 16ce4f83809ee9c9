package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/config"
	"kambaz-quiz-service/internal/identity"
	"kambaz-quiz-service/internal/infra/memory"
	"kambaz-quiz-service/internal/infra/postgres"
	redisstore "kambaz-quiz-service/internal/infra/redis"
	"kambaz-quiz-service/internal/logger"
	transport "kambaz-quiz-service/internal/transport/http"
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

type quizBackend interface {
	app.QuizStore
	quizSink
}

type userBackend interface {
	identity.UserDirectory
	userSink
}

// stores is the persistence wiring chosen from config.
type stores struct {
	ledger   app.AttemptLedger
	quizzes  quizBackend
	users    userBackend
	sessions identity.SessionStore
	cache    app.QuizRepository
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

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
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 24*time.Hour)
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	st := buildStores(pool, redisClient, sessionTTL, quizTTL)

	if pool == nil && cfg.Seed.Path != "" {
		fx, err := loadFixture(cfg.Seed.Path)
		if err != nil {
			return err
		}
		if err := applyFixture(ctx, fx, st.users, st.quizzes); err != nil {
			return err
		}
	}

	feed := app.NewAttemptFeed()
	cookieName := cfg.Session.CookieName
	if cookieName == "" {
		cookieName = "kambaz.sid"
	}
	handler := transport.NewRouter(transport.Services{
		Attempts: app.NewAttemptService(st.ledger, st.cache, feed),
		Quizzes:  app.NewQuizService(st.quizzes, st.cache),
		Auth:     identity.NewAuthenticator(st.users, st.sessions),
		Feed:     feed,
	}, transport.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second),
		Cookie: identity.CookieOptions{
			Name:      cookieName,
			TTL:       sessionTTL,
			CrossSite: !cfg.Development(),
		},
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Bool("postgres", pool != nil).Bool("redis", redisClient != nil).
			Msg("starting quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores picks Postgres for durable state when a pool is given and Redis for
// shared sessions and quiz caching when a client is given; memory fills the gaps.
func buildStores(pool *pgxpool.Pool, redisClient *redis.Client, sessionTTL, quizTTL time.Duration) stores {
	var st stores
	if pool != nil {
		st.ledger = postgres.NewAttemptLedger(pool)
		st.quizzes = postgres.NewQuizStore(pool)
		st.users = postgres.NewUserDirectory(pool)
	} else {
		st.ledger = memory.NewAttemptLedger()
		st.quizzes = memory.NewQuizStore()
		st.users = memory.NewUserDirectory()
	}

	if redisClient != nil {
		st.cache = redisstore.NewQuizRepository(redisClient, st.quizzes, quizTTL)
		st.sessions = redisstore.NewSessionStore(redisClient, sessionTTL)
	} else {
		st.cache = memory.NewQuizRepository(st.quizzes, quizTTL)
		st.sessions = memory.NewSessionStore(sessionTTL)
	}
	return st
}
