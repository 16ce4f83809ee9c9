package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"kambaz-quiz-service/internal/domain"
)

// SessionStore maps opaque login tokens to identities (in-memory, Redis, etc).
type SessionStore interface {
	Save(ctx context.Context, token string, who domain.Identity) error
	Lookup(ctx context.Context, token string) (domain.Identity, error)
	Delete(ctx context.Context, token string) error
}

// UserDirectory finds users by id or username.
type UserDirectory interface {
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

// Authenticator signs users in and out.
type Authenticator struct {
	users    UserDirectory
	sessions SessionStore
}

func NewAuthenticator(users UserDirectory, sessions SessionStore) *Authenticator {
	return &Authenticator{users: users, sessions: sessions}
}

// SignIn checks the password and opens a session, returning its token.
func (a *Authenticator) SignIn(ctx context.Context, username, password string) (domain.User, string, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return domain.User{}, "", err
	}
	if err := a.sessions.Save(ctx, token, user.Identity()); err != nil {
		return domain.User{}, "", fmt.Errorf("save session: %w", err)
	}
	log.Info().Str("user", user.ID).Str("role", string(user.Role)).Msg("signed in")
	return user, token, nil
}

// SignOut ends the session behind token.
func (a *Authenticator) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.sessions.Delete(ctx, token)
}

// Profile returns the signed-in user.
func (a *Authenticator) Profile(ctx context.Context, who domain.Identity) (domain.User, error) {
	if !who.Authenticated() {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return a.users.FindByID(ctx, who.UserID)
}

// Resolve maps a token to its identity; unknown tokens yield the anonymous identity.
func (a *Authenticator) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, nil
	}
	who, err := a.sessions.Lookup(ctx, token)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Identity{}, nil
	}
	return who, err
}

// HashPassword returns a bcrypt hash for storing in the user directory.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
