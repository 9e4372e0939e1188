package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"scholarpath-service/internal/domain"
)

func dialFeed(t *testing.T, server *httptest.Server, attemptID, token string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/attempts/" + attemptID
	header := nethttp.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(u, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func TestAttemptFeedStreamsStateTicksAndResult(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{"quizId": "scholarship-cse"})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}

	conn := dialFeed(t, server, attempt.ID, studentToken)

	// Current state arrives first.
	_, payload := readNext(conn, t, "state")
	var state domain.Attempt
	if err := json.Unmarshal(payload, &state); err != nil || state.ID != attempt.ID {
		t.Fatalf("unexpected state payload: %s err=%v", payload, err)
	}

	// The countdown ticks once a second with the remaining time.
	_, payload = readNext(conn, t, "tick")
	var tick struct {
		AttemptID string `json:"attemptId"`
		Remaining int    `json:"remaining"`
	}
	if err := json.Unmarshal(payload, &tick); err != nil {
		t.Fatalf("decode tick: %v", err)
	}
	if tick.AttemptID != attempt.ID || tick.Remaining <= 0 {
		t.Fatalf("unexpected tick: %+v", tick)
	}

	// Submitting over HTTP surfaces as a submitted event on the feed.
	resp, raw = doJSON(t, server, nethttp.MethodPost, "/api/quiz-results", studentToken, map[string]string{"attemptId": attempt.ID})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", resp.StatusCode, raw)
	}

	for i := 0; i < 5; i++ {
		typ, payload := readNext(conn, t, "")
		if typ != "submitted" {
			continue
		}
		var event struct {
			AttemptID string             `json:"attemptId"`
			Result    *domain.QuizResult `json:"result"`
		}
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode submitted: %v", err)
		}
		if event.Result == nil || event.Result.QuizID != "scholarship-cse" {
			t.Fatalf("unexpected submitted event: %s", payload)
		}
		return
	}
	t.Fatalf("never saw a submitted event")
}

func TestAttemptFeedRejectsForeignAttempt(t *testing.T) {
	server := newTestServer(t)

	resp, raw := doJSON(t, server, nethttp.MethodPost, "/api/attempts", studentToken, map[string]string{"quizId": "scholarship-cse"})
	if resp.StatusCode != nethttp.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", resp.StatusCode, raw)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		t.Fatalf("decode attempt: %v", err)
	}

	u := "ws" + server.URL[len("http"):] + "/ws/attempts/" + attempt.ID
	header := nethttp.Header{"Authorization": {"Bearer " + adminToken}}
	if _, resp, err := websocket.DefaultDialer.Dial(u, header); err == nil {
		t.Fatalf("expected the handshake to fail for a foreign attempt")
	} else if resp == nil || resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", resp)
	}
}
