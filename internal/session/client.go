package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Nishi-Taiga/F-education-sub002/internal/model"
)

// Client talks to the hosted auth service's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth service: status %d: %s", e.Status, e.Code)
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type TokenSet struct {
	AccessToken  string   `json:"access_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	RefreshToken string   `json:"refresh_token"`
	User         authUser `json:"user"`
}

func (t *TokenSet) Expiry() time.Time {
	if t.ExpiresAt > 0 {
		return time.Unix(t.ExpiresAt, 0).UTC()
	}
	return time.Now().UTC().Add(time.Duration(t.ExpiresIn) * time.Second)
}

func (t *TokenSet) Session() *model.Session {
	session := &model.Session{UserID: t.User.ID, ExpiresAt: t.Expiry(), AccessToken: t.AccessToken}
	if t.User.Email != "" {
		email := t.User.Email
		session.Email = &email
	}
	return session
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user authUser
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &APIError{Status: http.StatusOK, Code: "missing_user"}
	}

	session := &model.Session{UserID: user.ID, ExpiresAt: tokenExpiry(accessToken), AccessToken: accessToken}
	if user.Email != "" {
		session.Email = &user.Email
	}
	return session, nil
}

// ExchangeCodeForSession trades the one-time code from a verification link for tokens.
func (c *Client) ExchangeCodeForSession(ctx context.Context, code, verifier string) (*TokenSet, error) {
	body, err := json.Marshal(map[string]string{
		"auth_code":     code,
		"code_verifier": verifier,
	})
	if err != nil {
		return nil, err
	}
	endpoint := c.baseURL + "/token?" + url.Values{"grant_type": {"pkce"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens TokenSet
	if err := c.do(req, &tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, &APIError{Status: http.StatusOK, Code: "missing_access_token"}
	}
	return &tokens, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Code: errorCode(resp.Body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func errorCode(body io.Reader) string {
	var payload struct {
		Error     string `json:"error"`
		ErrorCode string `json:"error_code"`
		Message   string `json:"msg"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return "unexpected_response"
	}
	switch {
	case payload.ErrorCode != "":
		return payload.ErrorCode
	case payload.Error != "":
		return payload.Error
	case payload.Message != "":
		return payload.Message
	}
	return "unexpected_response"
}

// tokenExpiry reads exp without verifying; the auth service already vouched for the token.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// RemoteResolver asks the auth service about every request's token.
type RemoteResolver struct {
	client   *Client
	cookie   string
	denylist *Denylist
}

func NewRemoteResolver(client *Client, cookieName string, denylist *Denylist) *RemoteResolver {
	return &RemoteResolver{client: client, cookie: cookieName, denylist: denylist}
}

func (r *RemoteResolver) Resolve(ctx context.Context, req *http.Request) (*model.Session, error) {
	raw := AccessToken(req, r.cookie)
	if raw == "" {
		return nil, ErrNoToken
	}
	revoked, err := r.denylist.Revoked(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return r.client.GetUser(ctx, raw)
}
