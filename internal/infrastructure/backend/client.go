// Package backend implements the HTTP client for the grading backend. It is
// the only component that knows the backend's paths and encodings; everything
// above it speaks the ports interfaces.
package backend

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

	"github.com/rs/zerolog"

	"github.com/gradeflow/grading-gateway/internal/core/domain"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
)

const (
	defaultRequestTimeout = 15 * time.Second
	// minJobTimeout is the contract floor for job routes: grade posting may
	// iterate over many submissions server-side.
	minJobTimeout = 120 * time.Second
)

// Client talks to the grading backend. Two underlying HTTP clients are used:
// a standard one for session traffic and a long-tail one for job routes.
type Client struct {
	baseURL string
	std     *http.Client
	jobs    *http.Client
	log     zerolog.Logger
}

var (
	_ ports.IdentityClient = (*Client)(nil)
	_ ports.JobBackend     = (*Client)(nil)
)

// New builds a Client for the given base URL. A jobTimeout below the 120 s
// contract floor is raised to it.
func New(baseURL string, requestTimeout, jobTimeout time.Duration, log zerolog.Logger) *Client {
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if jobTimeout < minJobTimeout {
		jobTimeout = minJobTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		std:     &http.Client{Timeout: requestTimeout},
		jobs:    &http.Client{Timeout: jobTimeout},
		log:     log.With().Str("component", "backend").Logger(),
	}
}

// Login performs the form-encoded credential grant. The backend expects the
// email in the "username" field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/jwt/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set(headerContentType, mimeForm)

	resp, err := c.std.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, upstreamDetail(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newUpstreamError(resp)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("login response missing access_token")
	}
	return body.AccessToken, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "/auth/me", token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UserStats(ctx context.Context, token string) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := c.getJSON(ctx, "/auth/me/stats", token, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) RecordLogin(ctx context.Context, token string) error {
	return c.send(ctx, http.MethodPost, "/auth/me/update-login", token, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, token string, patch domain.ProfileUpdate) error {
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	return c.send(ctx, http.MethodPut, "/auth/me/profile", token, payload)
}

func (c *Client) GradingPermission(ctx context.Context, token string) (*domain.GradingPermission, error) {
	var perm domain.GradingPermission
	if err := c.getJSON(ctx, "/auth/me/can-grade", token, &perm); err != nil {
		return nil, err
	}
	return &perm, nil
}

func (c *Client) IncrementGrading(ctx context.Context, token string) error {
	return c.send(ctx, http.MethodPost, "/auth/me/increment-grading", token, nil)
}

// JobStatus forwards a job-status query. A 2xx response is returned verbatim;
// anything else becomes an *domain.UpstreamError carrying the backend status.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*ports.RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/canvas/jobs/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, err
	}
	return c.relay(req)
}

// PostGrades forwards a grade-posting command as form data. Runs on the
// long-tail client; grade posting is multi-minute.
func (c *Client) PostGrades(ctx context.Context, jobID, canvasURL, apiKey string) (*ports.RawResponse, error) {
	form := url.Values{
		"canvas_url": {canvasURL},
		"api_key":    {apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/canvas/post-grades/"+url.PathEscape(jobID), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set(headerContentType, mimeForm)
	return c.relay(req)
}

const (
	headerContentType = "Content-Type"
	mimeForm          = "application/x-www-form-urlencoded"
	mimeJSON          = "application/json"
)

func (c *Client) relay(req *http.Request) (*ports.RawResponse, error) {
	resp, err := c.jobs.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newUpstreamError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	ct := resp.Header.Get(headerContentType)
	if ct == "" {
		ct = mimeJSON
	}
	return &ports.RawResponse{Status: resp.StatusCode, ContentType: ct, Body: body}, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.std.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUpstreamError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) send(ctx context.Context, method, path, token string, jsonBody []byte) error {
	var body io.Reader
	if jsonBody != nil {
		body = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if jsonBody != nil {
		req.Header.Set(headerContentType, mimeJSON)
	}

	resp, err := c.std.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newUpstreamError(resp)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// newUpstreamError reads the backend's error body and extracts its structured
// detail. FastAPI reports {"detail": …}; "message" is accepted as a fallback.
func newUpstreamError(resp *http.Response) *domain.UpstreamError {
	return &domain.UpstreamError{Status: resp.StatusCode, Detail: upstreamDetail(resp)}
}

func upstreamDetail(resp *http.Response) string {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			return s
		}
		// Non-string detail (FastAPI validation errors): surface as-is.
		return string(body.Detail)
	}
	return body.Message
}
