package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testVerifier() *StaticVerifier {
	return NewStaticVerifier(map[string]Identity{
		"student-token": {UserID: "u1", FirstName: "Asha", Role: RoleStudent},
		"admin-token":   {UserID: "admin-1", FirstName: "Rohan", Role: RoleAdmin},
	})
}

func TestStaticVerifier(t *testing.T) {
	v := testVerifier()

	id, err := v.Verify(context.Background(), "student-token")
	if err != nil || id.UserID != "u1" {
		t.Fatalf("verify: id=%+v err=%v", id, err)
	}
	if id.IsAdmin() {
		t.Fatal("student must not be admin")
	}

	if _, err := v.Verify(context.Background(), "bogus"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	var got Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	})
	handler := Middleware(testVerifier())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer student-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got.UserID != "u1" {
		t.Fatalf("code=%d identity=%+v", rec.Code, got)
	}
}

func TestMiddlewareRejectsMissingOrBadToken(t *testing.T) {
	handler := Middleware(testVerifier())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer nope", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
		var body map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["message"] == "" {
			t.Fatalf("expected JSON error body, got %v err=%v", body, err)
		}
	}
}

func TestRequireAdmin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireAdmin(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "u1", Role: RoleStudent}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("student: expected 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: "a1", Role: RoleAdmin}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin: expected 204, got %d", rec.Code)
	}
}

func TestIntrospectVerifier(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "valid" {
			_ = json.NewEncoder(w).Encode(map[string]any{"active": false})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"active": true, "userId": "u9", "firstName": "Mira", "role": "student",
		})
	}))
	defer provider.Close()

	v := NewIntrospectVerifier(provider.URL)

	id, err := v.Verify(context.Background(), "valid")
	if err != nil || id.UserID != "u9" {
		t.Fatalf("verify: id=%+v err=%v", id, err)
	}
	if _, err := v.Verify(context.Background(), "expired"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
