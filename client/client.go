// Package client is a typed Go client for the EcoBhandu API. Reports fetched
// by id are cached until a confirmed mutation or a pushed event invalidates them.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"ecobhandu-be/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ecobhandu: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *reportCache

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken authenticates every request with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      newReportCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the bearer token in use, if any.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (c *Client) Signup(ctx context.Context, in SignupRequest) (*UserInfo, error) {
	var out UserInfo
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Signin authenticates and keeps the returned token for later requests.
func (c *Client) Signin(ctx context.Context, in SigninRequest) (*UserInfo, error) {
	var out struct {
		UserInfo
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", nil, in, &out); err != nil {
		return nil, err
	}
	c.setToken(out.Token)
	return &out.UserInfo, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateReportRequest struct {
	UserID      string             `json:"userId,omitempty"`
	Category    string             `json:"category"`
	Description string             `json:"description"`
	Severity    string             `json:"severity,omitempty"`
	IsUrgent    *bool              `json:"isUrgent,omitempty"`
	Location    string             `json:"location"`
	Coordinates models.Coordinates `json:"coordinates"`
	Image       *string            `json:"image,omitempty"`
}

func (c *Client) CreateReport(ctx context.Context, in CreateReportRequest) (*models.Report, error) {
	var out struct {
		Report models.Report `json:"report"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/reports", nil, in, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

type ListReportsQuery struct {
	Status   string
	Category string
	Severity string
	UserID   string
	Limit    int
}

func (q ListReportsQuery) values() url.Values {
	v := url.Values{}
	for key, val := range map[string]string{
		"status":   q.Status,
		"category": q.Category,
		"severity": q.Severity,
		"userId":   q.UserID,
	} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

func (c *Client) ListReports(ctx context.Context, q ListReportsQuery) ([]models.Report, error) {
	var out struct {
		Reports []models.Report `json:"reports"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/reports", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// GetReport serves the report from cache when present and fetches it otherwise.
func (c *Client) GetReport(ctx context.Context, id string) (*models.Report, error) {
	if r, ok := c.cache.get(id); ok {
		return &r, nil
	}
	var out models.Report
	if err := c.do(ctx, http.MethodGet, "/api/reports/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	c.cache.put(&out)
	return &out, nil
}

// UpdateStatus moves the report through the workflow. assignedTo may be empty.
func (c *Client) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, assignedTo string) error {
	body := map[string]string{"status": string(status)}
	if assignedTo != "" {
		body["assignedTo"] = assignedTo
	}
	return c.mutate(ctx, http.MethodPatch, id, "/status", body, nil)
}

// Reserve claims an unassigned report for the volunteer.
func (c *Client) Reserve(ctx context.Context, id, volunteerID string) error {
	return c.UpdateStatus(ctx, id, models.Pending, volunteerID)
}

// Start moves a reserved report to In Progress.
func (c *Client) Start(ctx context.Context, id, volunteerID string) error {
	return c.UpdateStatus(ctx, id, models.InProgress, volunteerID)
}

type ResolveRequest struct {
	UserID string  `json:"userId,omitempty"`
	Image  *string `json:"image,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

func (c *Client) Resolve(ctx context.Context, id string, in ResolveRequest) error {
	return c.mutate(ctx, http.MethodPatch, id, "/resolve", in, nil)
}

type UpvoteResult struct {
	Upvoted bool `json:"upvoted"`
	Upvotes int  `json:"upvotes"`
}

func (c *Client) Upvote(ctx context.Context, id, userID string) (*UpvoteResult, error) {
	var out UpvoteResult
	if err := c.mutate(ctx, http.MethodPost, id, "/upvote", map[string]string{"userId": userID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddComment(ctx context.Context, id, userID, userName, text string) (*models.Comment, error) {
	var out struct {
		Comment models.Comment `json:"comment"`
	}
	body := map[string]string{"userId": userID, "userName": userName, "comment": text}
	if err := c.mutate(ctx, http.MethodPost, id, "/comment", body, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

func (c *Client) DeleteReport(ctx context.Context, id, userID string) error {
	return c.mutate(ctx, http.MethodDelete, id, "", map[string]string{"userId": userID}, nil)
}

// mutate sends a write for report id and drops its cache entry once the
// server confirms it.
func (c *Client) mutate(ctx context.Context, method, id, suffix string, body, out any) error {
	if err := c.do(ctx, method, "/api/reports/"+url.PathEscape(id)+suffix, nil, body, out); err != nil {
		return err
	}
	c.cache.invalidate(id)
	return nil
}

func (c *Client) Stats(ctx context.Context) (*models.ReportStats, error) {
	var out models.ReportStats
	if err := c.do(ctx, http.MethodGet, "/api/reports/stats/summary", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VolunteerStats(ctx context.Context, volunteerID string) (*models.VolunteerStats, error) {
	var out models.VolunteerStats
	if err := c.do(ctx, http.MethodGet, "/api/volunteers/"+url.PathEscape(volunteerID)+"/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Rewards(ctx context.Context) ([]models.Reward, error) {
	var out struct {
		Rewards []models.Reward `json:"rewards"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/rewards", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Rewards, nil
}

func (c *Client) Balance(ctx context.Context, userID string) (*models.Balance, error) {
	var out models.Balance
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodGet, "/api/rewards/balance", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListClaims(ctx context.Context, userID string, limit int) ([]models.RewardClaim, error) {
	var out struct {
		Claims []models.RewardClaim `json:"claims"`
	}
	q := url.Values{"userId": {userID}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if err := c.do(ctx, http.MethodGet, "/api/rewards/claims", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Claims, nil
}

func (c *Client) ClaimReward(ctx context.Context, userID, rewardID string) (*models.RewardClaim, error) {
	var out struct {
		Claim models.RewardClaim `json:"claim"`
	}
	body := map[string]string{"userId": userID, "rewardId": rewardID}
	if err := c.do(ctx, http.MethodPost, "/api/rewards/claim", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Claim, nil
}

// ApplyEvent drops the cached copy of the report the event refers to.
func (c *Client) ApplyEvent(ev models.ReportEvent) {
	if ev.ReportID != "" {
		c.cache.invalidate(ev.ReportID)
	}
}

// InvalidateAll empties the report cache, for example after the event stream
// reconnects and events may have been missed.
func (c *Client) InvalidateAll() {
	c.cache.clear()
}

// StreamEvents reads the server's report event stream until ctx ends or the
// connection drops. Each event is applied to the cache before fn sees it.
func (c *Client) StreamEvents(ctx context.Context, fn func(models.ReportEvent)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/reports/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// The stream outlives the request timeout of the regular client.
	stream := *c.httpClient
	stream.Timeout = 0
	resp, err := stream.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	c.InvalidateAll()
	scanner := bufio.NewScanner(resp.Body)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() == 0 {
				continue
			}
			var ev models.ReportEvent
			if err := json.Unmarshal([]byte(data.String()), &ev); err == nil {
				c.ApplyEvent(ev)
				if fn != nil {
					fn(ev)
				}
			}
			data.Reset()
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
