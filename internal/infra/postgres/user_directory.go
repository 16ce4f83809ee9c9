package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"kambaz-quiz-service/internal/domain"
)

const userColumns = `id, username, password_hash, first_name, last_name, email, role`

// UserDirectory reads and seeds the users table.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) FindByID(ctx context.Context, userID string) (domain.User, error) {
	return d.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	return d.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

// Upsert stores the user, keeping the existing id when the username is taken.
func (d *UserDirectory) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := d.pool.QueryRow(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (username) DO UPDATE SET
			password_hash=EXCLUDED.password_hash, first_name=EXCLUDED.first_name,
			last_name=EXCLUDED.last_name, email=EXCLUDED.email, role=EXCLUDED.role
		RETURNING id`,
		user.ID, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Email, string(user.Role)).Scan(&user.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (d *UserDirectory) findOne(ctx context.Context, query, arg string) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := d.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Email, &role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("find user: %w", err)
	}
	u.Role = domain.Role(role)
	return u, nil
}
