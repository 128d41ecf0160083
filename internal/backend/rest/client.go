// Package rest implements the service.Service interface against the task
// tracker's REST API.
package rest

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

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskdesk/internal/logging"
	"taskdesk/internal/service"
)

// RequestIDHeader carries a per-request id for correlating collaborator logs.
const RequestIDHeader = "X-Request-ID"

// Client implements service.Service over HTTP.
type Client struct {
	basePath string
	anon     *http.Client // login only
	authed   *http.Client // bearer credential from the token source
	timeout  time.Duration
	log      *slog.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	base    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// WithHTTPClient sets the underlying HTTP client (for testing).
// Its transport is wrapped; its Timeout is kept.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.base = c }
}

// WithTimeout bounds each call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *clientOptions) { o.log = log }
}

// New creates a client for the API rooted at baseURL.
// Authenticated calls take their credential from tokens on every request.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url: %q", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	o := clientOptions{base: &http.Client{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logging.Discard()
	}

	baseTransport := o.base.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	tagged := requestIDTransport{base: baseTransport}

	return &Client{
		basePath: u.String(),
		anon:     &http.Client{Transport: tagged, Timeout: o.base.Timeout},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: tagged},
			Timeout:   o.base.Timeout,
		},
		timeout: o.timeout,
		log:     o.log,
	}, nil
}

// Login implements service.Authenticator.
func (c *Client) Login(ctx context.Context, username, password string) (service.Session, error) {
	var resp loginResponse
	err := c.do(ctx, c.anon, http.MethodPost, "auth/login", nil, nil,
		loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return service.Session{}, err
	}
	return service.Session{Token: resp.Token, User: resp.User}, nil
}

// ListUsers implements service.Service.
func (c *Client) ListUsers(ctx context.Context) ([]service.Identity, error) {
	var users []service.Identity
	if err := c.do(ctx, c.authed, http.MethodGet, "auth/users", nil, nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, filter service.Filter) ([]service.Task, error) {
	if filter == "" {
		filter = service.FilterAll
	}
	query := url.Values{"filter": {string(filter)}}

	var wire []wireTask
	if err := c.do(ctx, c.authed, http.MethodGet, "tasks", nil, query, nil, &wire); err != nil {
		return nil, err
	}
	result := make([]service.Task, 0, len(wire))
	for _, w := range wire {
		result = append(result, w.toTask())
	}
	return result, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, task service.NewTask) (service.Task, error) {
	body := createTaskRequest{
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssignedTo,
		Priority:    encodePriority(task.Priority),
	}
	var wire wireTask
	if err := c.do(ctx, c.authed, http.MethodPost, "tasks", nil, nil, body, &wire); err != nil {
		return service.Task{}, err
	}
	return wire.toTask(), nil
}

// UpdateStatus implements service.Service.
func (c *Client) UpdateStatus(ctx context.Context, taskID string, status service.Status) (service.Task, error) {
	var wire wireTask
	err := c.do(ctx, c.authed, http.MethodPatch, "tasks/{id}", map[string]string{"id": taskID}, nil,
		updateStatusRequest{Status: encodeStatus(status)}, &wire)
	if err != nil {
		return service.Task{}, err
	}
	return wire.toTask(), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "tasks/{id}", map[string]string{"id": taskID}, nil, nil, nil)
}

// do issues one request. A nil out discards the response body.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, params map[string]string, query url.Values, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	urls := googleapi.ResolveRelative(c.basePath, path)
	if len(query) > 0 {
		urls += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, urls, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if params != nil {
		googleapi.Expand(req.URL, params)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("api request", "method", method, "path", req.URL.Path)
	res, err := hc.Do(req)
	if err != nil {
		return wrapError(err)
	}
	defer googleapi.CloseBody(res)

	if err := googleapi.CheckResponse(res); err != nil {
		return rejection(err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// rejection converts a non-success response into a service.RejectedError
// carrying the collaborator's error string.
func rejection(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	msg := gerr.Message
	var eb errorBody
	if json.Unmarshal([]byte(gerr.Body), &eb) == nil {
		switch {
		case eb.Error != "":
			msg = eb.Error
		case eb.Message != "":
			msg = eb.Message
		}
	}
	return &service.RejectedError{StatusCode: gerr.Code, Message: msg, Err: gerr}
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrNoSession) {
		return service.ErrNoSession
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}

// requestIDTransport stamps each outgoing request with a fresh id.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}
