package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/identity"
)

// RouterConfig holds transport-level settings.
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Cookie         identity.CookieOptions
}

// Services bundles what the router dispatches to.
type Services struct {
	Attempts *app.AttemptService
	Quizzes  *app.QuizService
	Auth     *identity.Authenticator
	Feed     *app.AttemptFeed
}

// NewRouter wires every route of the service.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	attempts := NewAttemptHandler(svc.Attempts)
	quizzes := NewQuizHandler(svc.Quizzes)
	auth := NewAuthHandler(svc.Auth, cfg.Cookie)
	feed := NewFeedHandler(svc.Feed, originChecker(cfg.AllowedOrigins))

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{SessionTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(identity.Middleware(svc.Auth, cfg.Cookie, writeError))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Long-lived; kept outside the request timeout.
	r.Get("/api/quizzes/{quizId}/attempts/feed", feed.ServeFeed)

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/api/users", func(ur chi.Router) {
			ur.Post("/signin", auth.SignIn)
			ur.Post("/signout", auth.SignOut)
			ur.Post("/profile", auth.Profile)
		})

		api.Route("/api/courses/{courseId}/quizzes", func(cr chi.Router) {
			cr.Get("/", quizzes.ListForCourse)
			cr.Post("/", quizzes.Create)
			cr.Delete("/", quizzes.DeleteForCourse)
		})

		api.Route("/api/quizzes/{quizId}", func(qr chi.Router) {
			qr.Get("/", quizzes.Get)
			qr.Put("/", quizzes.Update)
			qr.Delete("/", quizzes.Delete)
			qr.Get("/debug", quizzes.Debug)

			qr.Post("/attempts/start", attempts.Start)
			qr.Get("/attempts", attempts.List)
			qr.Get("/attempts/in-progress", attempts.InProgress)
			qr.Get("/attempts/count", attempts.Count)
			qr.Get("/attempts/latest", attempts.Latest)
		})

		api.Route("/api/attempts/{attemptId}", func(ar chi.Router) {
			ar.Get("/", attempts.Get)
			ar.Put("/update", attempts.Update)
			ar.Post("/submit", attempts.Submit)
		})
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// originChecker admits websocket upgrades from the configured origins.
// Patterns may hold one "*" wildcard, e.g. https://*.vercel.app.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err != nil || u.Host == "" {
			return false
		}
		for _, pattern := range allowed {
			if matchOrigin(pattern, origin) {
				return true
			}
		}
		return false
	}
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" || strings.EqualFold(pattern, origin) {
		return true
	}
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok {
		return false
	}
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, prefix) && strings.HasSuffix(origin, suffix)
}
