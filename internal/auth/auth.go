// Package auth maps bearer tokens to authenticated identities. Token
// issuing and validation belong to the external identity provider; this
// package only asks it (or a static table) who a token belongs to.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

var (
	// ErrNoToken is returned when the request carries no bearer token.
	ErrNoToken = errors.New("missing bearer token")
	// ErrInvalidToken is returned when the verifier rejects the token.
	ErrInvalidToken = errors.New("invalid token")
)

// Identity is the authenticated caller as the rest of the service sees it.
type Identity struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	Role      string `json:"role"`
}

// IsAdmin reports whether the identity may call admin-only operations.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// Verifier resolves an opaque bearer token to an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticVerifier resolves tokens from a fixed table. Used for development
// and tests.
type StaticVerifier struct {
	tokens map[string]Identity
}

func NewStaticVerifier(tokens map[string]Identity) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

// IntrospectVerifier asks the identity provider's introspection endpoint.
// The provider returns {"active": bool, "userId": ..., "firstName": ..., "role": ...}.
type IntrospectVerifier struct {
	url    string
	client *http.Client
}

func NewIntrospectVerifier(url string) *IntrospectVerifier {
	return &IntrospectVerifier{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (v *IntrospectVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("introspect token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, ErrInvalidToken
	}

	var payload struct {
		Active bool `json:"active"`
		Identity
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Identity{}, fmt.Errorf("decode introspection response: %w", err)
	}
	if !payload.Active || payload.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	return payload.Identity, nil
}
