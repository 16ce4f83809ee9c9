package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"kambaz-quiz-service/internal/domain"
)

type ctxKey struct{}

// WithIdentity returns a context carrying who.
func WithIdentity(ctx context.Context, who domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, who)
}

// FromContext returns the request identity, or the anonymous identity.
func FromContext(ctx context.Context) domain.Identity {
	who, _ := ctx.Value(ctxKey{}).(domain.Identity)
	return who
}

// CookieOptions shapes the session cookie.
type CookieOptions struct {
	Name string
	TTL  time.Duration
	// CrossSite sets SameSite=None and Secure for deployments behind a proxy.
	CrossSite bool
}

// Middleware resolves the session cookie or bearer token into a request identity.
// Requests without a valid session continue anonymously. A failing session store
// ends the request through fail.
func Middleware(auth *Authenticator, opts CookieOptions, fail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, opts.Name)
			who, err := auth.Resolve(r.Context(), token)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("session lookup failed")
				fail(w, r, fmt.Errorf("resolve session: %w", err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), who)))
		})
	}
}

// TokenFromRequest reads the session token from the cookie, then the Authorization header.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// SetSessionCookie writes the session cookie for token.
func SetSessionCookie(w http.ResponseWriter, opts CookieOptions, token string) {
	http.SetCookie(w, sessionCookie(opts, token, int(opts.TTL.Seconds())))
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, sessionCookie(opts, "", -1))
}

func sessionCookie(opts CookieOptions, value string, maxAge int) *http.Cookie {
	c := &http.Cookie{
		Name:     opts.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	if opts.CrossSite {
		c.SameSite = http.SameSiteNoneMode
		c.Secure = true
	}
	return c
}
