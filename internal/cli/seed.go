package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"kambaz-quiz-service/internal/config"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/identity"
	"kambaz-quiz-service/internal/infra/postgres"
	"kambaz-quiz-service/internal/logger"
)

// fixture is the YAML shape of seed data.
type fixture struct {
	Users   []userFixture `yaml:"users"`
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

type userFixture struct {
	domain.User `yaml:",inline"`
	Password    string `yaml:"password"`
}

type userSink interface {
	Upsert(ctx context.Context, user domain.User) (domain.User, error)
}

type quizSink interface {
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
}

// NewSeedCmd loads fixture users and quizzes into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var fixturePath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and quizzes from a YAML fixture into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, fixturePath)
		},
	}
	cmd.Flags().StringVar(&fixturePath, "file", "", "fixture path (defaults to seed.path from config)")
	return cmd
}

func runSeed(ctx context.Context, configPath, fixturePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
	if fixturePath == "" {
		fixturePath = cfg.Seed.Path
	}
	if fixturePath == "" {
		return fmt.Errorf("no fixture given: pass --file or set seed.path")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	fx, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}
	return applyFixture(ctx, fx, postgres.NewUserDirectory(pool), postgres.NewQuizStore(pool))
}

func loadFixture(path string) (fixture, error) {
	var fx fixture
	data, err := os.ReadFile(path)
	if err != nil {
		return fx, err
	}
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fx, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx, nil
}

// applyFixture hashes fixture passwords and writes users and quizzes to the sinks.
func applyFixture(ctx context.Context, fx fixture, users userSink, quizzes quizSink) error {
	for _, u := range fx.Users {
		hash, err := identity.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		user := u.User
		user.PasswordHash = hash
		if user.Role == "" {
			user.Role = domain.RoleStudent
		}
		if _, err := users.Upsert(ctx, user); err != nil {
			return err
		}
	}
	for _, q := range fx.Quizzes {
		if q.ID == "" {
			return fmt.Errorf("fixture quiz %q has no id", q.Title)
		}
		if err := quizzes.SaveQuiz(ctx, q); err != nil {
			return err
		}
	}
	log.Info().Int("users", len(fx.Users)).Int("quizzes", len(fx.Quizzes)).Msg("fixture applied")
	return nil
}
