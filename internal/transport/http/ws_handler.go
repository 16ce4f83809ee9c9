package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"kambaz-quiz-service/internal/app"
	"kambaz-quiz-service/internal/domain"
	"kambaz-quiz-service/internal/identity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// FeedHandler streams attempt lifecycle events for a quiz to faculty over a websocket.
type FeedHandler struct {
	feed     *app.AttemptFeed
	upgrader websocket.Upgrader
}

func NewFeedHandler(feed *app.AttemptFeed, checkOrigin func(r *http.Request) bool) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID string `json:"quizId"`
}

// ServeFeed upgrades the request and relays events until either side hangs up.
func (h *FeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	who := identity.FromContext(r.Context())
	if !who.Authenticated() {
		writeError(w, r, domain.ErrUnauthenticated)
		return
	}
	if !who.Role.Privileged() {
		writeError(w, r, domain.ErrForbidden)
		return
	}
	quizID := chi.URLParam(r, "quizId")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe(quizID)
	defer cancel()

	// The reader only handles control frames; it ends when the client goes away.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{QuizID: quizID}}); err != nil {
		return
	}
	log.Debug().Str("quiz", quizID).Str("user", who.UserID).Msg("feed watcher connected")

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, outboundMessage[domain.AttemptEvent]{Type: "attempt", Payload: ev}); err != nil {
				log.Debug().Err(err).Msg("ws write error")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

func (h *FeedHandler) write(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
