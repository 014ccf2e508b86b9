package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ChannelName names the provider-side media channel for one session
func ChannelName(sessionID string) string {
	return "cs_" + sessionID
}

// TokenProvider issues expiring credentials for the external real-time media
// provider. The wire protocol behind it is deliberately opaque to this core;
// callers only see a token and how long it is valid.
type TokenProvider interface {
	Issue(ctx context.Context, channel string, uid int) (token string, ttl time.Duration, err error)
}

// HTTPTokenServer asks an external token server for media credentials
type HTTPTokenServer struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTokenServer returns a provider backed by the configured token server
func NewHTTPTokenServer(baseURL string) *HTTPTokenServer {
	return &HTTPTokenServer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type tokenRequest struct {
	Channel string `json:"channel"`
	UID     int    `json:"uid"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// Issue requests one credential for the given channel and uid
func (s *HTTPTokenServer) Issue(ctx context.Context, channel string, uid int) (string, time.Duration, error) {
	body, err := json.Marshal(tokenRequest{Channel: channel, UID: uid})
	if err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/rtc/token", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token server returned status %d", resp.StatusCode)
	}

	var out tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, err
	}
	if out.Token == "" || out.ExpiresIn <= 0 {
		return "", 0, fmt.Errorf("token server returned an empty credential")
	}
	return out.Token, time.Duration(out.ExpiresIn) * time.Second, nil
}
