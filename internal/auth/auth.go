// Package auth resolves a bearer credential to a user id through an external
// identity provider.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

// RemoteVerifier asks an identity endpoint who owns the credential.
type RemoteVerifier struct {
	url    string
	client *http.Client
}

func NewRemoteVerifier(url string, client *http.Client) *RemoteVerifier {
	return &RemoteVerifier{url: url, client: client}
}

func (v *RemoteVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return "", fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity provider: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("identity provider: status %d", resp.StatusCode)
	}

	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("identity provider: decode: %w", err)
	}
	if body.UserID == "" {
		return "", ErrUnauthorized
	}
	return body.UserID, nil
}

const devPrefix = "dev:"

// DevVerifier accepts "dev:<userId>" credentials. Local use only.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, credential string) (string, error) {
	id, ok := strings.CutPrefix(credential, devPrefix)
	if !ok || strings.TrimSpace(id) == "" {
		return "", ErrUnauthorized
	}
	return id, nil
}

// Credential extracts the bearer token from the Authorization header, falling
// back to the token query parameter used by websocket clients.
func Credential(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
