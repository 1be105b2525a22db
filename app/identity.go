package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/castfeed/castfeed/app/api"
	"github.com/castfeed/castfeed/app/cfg"
)

// identityClient verifies user tokens against the external identity
// service. The pipeline only needs the user id behind a bearer token.
type identityClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ api.UserAuth = (*identityClient)(nil)

func newIdentityClient() *identityClient {
	return &identityClient{
		baseURL:    cfg.Get().IdentityURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *identityClient) UserID(token string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/userinfo", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity service rejected token: %d", resp.StatusCode)
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode identity response: %w", err)
	}
	if body.UserID == "" {
		return "", fmt.Errorf("identity response missing user id")
	}

	return body.UserID, nil
}
