package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"scholarpath-service/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	AttemptID string `json:"attemptId"`
	Remaining int    `json:"remaining"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// attemptFeed streams the server-authoritative countdown for one attempt
// and the final result when it is submitted. When the clock reaches zero
// the feed itself forces submission with the answers recorded so far.
func (h *Handler) attemptFeed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	attemptID := chi.URLParam(r, "id")

	attempt, err := h.attempts.Get(r.Context(), attemptID, id.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, cancel := h.attempts.Watch(attemptID)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}()

	// Reader only watches for the client going away.
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: attempt}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	done := attempt.Status == domain.AttemptSubmitted
	for !done {
		select {
		case <-ticker.C:
			current, err := h.attempts.Get(r.Context(), attemptID, id.UserID)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				done = true
				break
			}
			remaining := current.Remaining(time.Now())
			send <- outboundMessage[any]{Type: "tick", Payload: tickPayload{AttemptID: attemptID, Remaining: remaining}}
			if remaining == 0 && current.Status == domain.AttemptInProgress {
				if _, _, err := h.attempts.ExpireIfDue(r.Context(), attemptID); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
					done = true
				}
			}
		case event, open := <-events:
			if !open {
				done = true
				break
			}
			send <- outboundMessage[any]{Type: event.Type, Payload: event}
			if event.Type == "submitted" {
				done = true
			}
		case <-readerDone:
			done = true
		case <-r.Context().Done():
			done = true
		}
	}

	close(send)
	<-writerDone
}
