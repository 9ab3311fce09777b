// Package auth verifies bearer tokens against the hosted identity service
// and carries the resulting identity through request contexts.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized is returned for any missing, malformed or rejected
// credential. Callers map it to a generic 401 without leaking the cause.
var ErrUnauthorized = errors.New("unauthorized")

// User is the identity resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier resolves a bearer token to a user identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (User, error)
}

type contextKey string

const (
	userKey  contextKey = "auth_user"
	tokenKey contextKey = "auth_token"
)

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// ContextWithToken returns a context carrying the caller's raw bearer
// token so pass-through backends can forward it.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the caller's raw bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// BearerToken extracts the token from an Authorization header value.
// Returns "" when the header is absent or not a bearer credential.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// HTTPVerifier validates tokens against the hosted identity endpoint
// (GET {base}/auth/v1/user with the service API key and the caller's
// bearer token).
type HTTPVerifier struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPVerifier(baseURL, apiKey string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("apikey", v.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.client.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, ErrUnauthorized
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return User{}, fmt.Errorf("decode identity response: %w", err)
	}
	if u.ID == "" {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

// StaticVerifier maps fixed tokens to users. It backs the static auth
// mode used for local development and tests.
type StaticVerifier struct {
	tokens map[string]User
}

func NewStaticVerifier(tokens map[string]User) *StaticVerifier {
	if tokens == nil {
		tokens = map[string]User{}
	}
	return &StaticVerifier{tokens: tokens}
}

// ParseStaticTokens parses a "token:user-id" comma-separated list, the
// form STATIC_TOKENS uses.
func ParseStaticTokens(s string) (map[string]User, error) {
	out := map[string]User{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		token, userID, ok := strings.Cut(pair, ":")
		if !ok || token == "" || userID == "" {
			return nil, fmt.Errorf("invalid static token entry %q: want token:user-id", pair)
		}
		out[token] = User{ID: userID}
	}
	return out, nil
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (User, error) {
	if u, ok := v.tokens[token]; ok {
		return u, nil
	}
	return User{}, ErrUnauthorized
}
