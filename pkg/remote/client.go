// Package remote talks to the authenticated task service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/tasksync/pkg/model"
)

// DefaultBaseURL is where a locally running task service listens.
const DefaultBaseURL = "http://127.0.0.1:8000/api"

type Option func(*Client)

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTransport sets the transport requests go through after the bearer
// header is attached. http.DefaultTransport is used otherwise.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// WithTimeout bounds each HTTP exchange. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client maps the task operations onto the remote service. It holds no task
// state; every call is a fresh round trip. Status codes are not interpreted:
// any non-2xx answer comes back as a *googleapi.Error carrying the code and
// raw body, and transport errors are returned as they are.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	base    http.RoundTripper
	timeout time.Duration
}

// NewClient returns a Client for the service at baseURL. tokens is consulted
// on every request for the bearer token.
func NewClient(baseURL string, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("remote: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: base URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		logger:  slog.Default(),
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Transport: &oauth2.Transport{Source: tokens, Base: c.base},
		Timeout:   c.timeout,
	}
	return c, nil
}

// envelope is the {message, data} wrapper around every response.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) hasData() bool {
	d := bytes.TrimSpace(e.Data)
	return len(d) > 0 && !bytes.Equal(d, []byte("null"))
}

type createRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type updateRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      model.Status `json:"status"`
}

// List fetches every task of the signed-in user. A missing payload is an empty list.
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	tasks, err := c.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("remote: list tasks: %w", err)
	}
	return tasks, nil
}

// Add creates a task. Only title and description are sent; the service
// assigns id, status and timestamps.
func (c *Client) Add(ctx context.Context, d model.Draft) (model.Task, error) {
	req := createRequest{Title: d.Title}
	if d.Description != "" {
		req.Description = &d.Description
	}

	body, err := c.do(ctx, http.MethodPost, "tasks", req)
	if err != nil {
		return model.Task{}, fmt.Errorf("remote: add task: %w", err)
	}
	return c.decodeTask(body), nil
}

// Update sends a full record. The service requires every mutable field, so the
// current record is fetched first and p is merged over it.
func (c *Client) Update(ctx context.Context, id model.ID, p model.Patch) (model.Task, error) {
	current, err := c.list(ctx)
	if err != nil {
		return model.Task{}, fmt.Errorf("remote: update task %s: %w", id, err)
	}
	i := model.IndexOf(current, id)
	if i == -1 {
		return model.Task{}, fmt.Errorf("remote: update task %s: %w", id, model.ErrNotFound)
	}

	merged := p.Apply(current[i])
	req := updateRequest{
		Title:       merged.Title,
		Description: merged.Description,
		Status:      merged.Status,
	}

	body, err := c.do(ctx, http.MethodPut, "tasks/"+url.PathEscape(string(id)), req)
	if err != nil {
		return model.Task{}, fmt.Errorf("remote: update task %s: %w", id, err)
	}
	return c.decodeTask(body), nil
}

func (c *Client) Delete(ctx context.Context, id model.ID) (bool, error) {
	if _, err := c.do(ctx, http.MethodDelete, "tasks/"+url.PathEscape(string(id)), nil); err != nil {
		return false, fmt.Errorf("remote: delete task %s: %w", id, err)
	}
	return true, nil
}

// Clear is not offered by the service.
func (c *Client) Clear(_ context.Context) (bool, error) {
	return false, fmt.Errorf("remote: clear tasks: %w", model.ErrUnsupported)
}

// Logout revokes the current token on the service.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "logout", nil); err != nil {
		return fmt.Errorf("remote: logout: %w", err)
	}
	return nil
}

func (c *Client) list(ctx context.Context) ([]model.Task, error) {
	body, err := c.do(ctx, http.MethodGet, "tasks", nil)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.hasData() {
		return []model.Task{}, nil
	}

	var tasks []model.Task
	if err := json.Unmarshal(env.Data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode task list: %w", err)
	}
	return tasks, nil
}

// looseTask decodes a task whose id may be of any JSON type. The outer ID
// field hides the embedded one.
type looseTask struct {
	model.Task
	ID json.RawMessage `json:"id"`
}

// decodeTask unwraps a single task. Bodies without a data field are decoded
// as the task itself. A payload that is not an object, or whose id is neither
// a string nor an integer, yields a task without an id; callers treat that as
// unconfirmed rather than failed.
func (c *Client) decodeTask(body []byte) model.Task {
	payload := body
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.hasData() {
		payload = env.Data
	}

	var task model.Task
	err := json.Unmarshal(payload, &task)
	if err == nil {
		return task
	}

	var loose looseTask
	if lerr := json.Unmarshal(payload, &loose); lerr != nil {
		c.logger.Warn("discarding malformed task payload", "error", err)
		return model.Task{}
	}
	c.logger.Warn("task payload has an unusable id", "id", string(loose.ID), "error", err)
	loose.Task.ID = ""
	return loose.Task
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	defer res.Body.Close()

	if err := googleapi.CheckResponse(res); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			c.logger.Error("request rejected", "method", method, "path", path, "status", gerr.Code)
		}
		return nil, err
	}

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return b, nil
}
