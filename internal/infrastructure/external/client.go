package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/users-api/domain"
	"github.com/fastygo/users-api/internal/config"
)

// Kind classifies a failed lookup.
type Kind int

const (
	KindRemote Kind = iota + 1
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// Error is returned by GetUserStatus for every failure it does not absorb.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindTimeout:
		return fmt.Sprintf("external api timeout: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("external api responded with status %d", e.StatusCode)
	default:
		return fmt.Sprintf("external api request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DomainError maps the failure onto the shared error codes for direct callers.
func (e *Error) DomainError() *domain.Error {
	if e.Kind == KindTimeout {
		return domain.WrapError(domain.ErrCodeTimeout, "external api timeout", e)
	}
	return domain.WrapError(domain.ErrCodeRemote, "external api error", e)
}

// IsTimeout reports whether err is an external lookup timeout.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindTimeout
}

// IsRemote reports whether err is any other external lookup failure.
func IsRemote(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRemote
}

// Client talks to the third-party user status API.
type Client struct {
	baseURL       string
	timeout       time.Duration
	healthTimeout time.Duration
	http          *fasthttp.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// NewClient constructs a new client.
func NewClient(cfg config.ExternalConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:       cfg.BaseURL,
		timeout:       cfg.Timeout.Value(),
		healthTimeout: cfg.HealthTimeout.Value(),
		http: &fasthttp.Client{
			Name:                "users-api",
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUserStatus fetches GET {base}/users/{id}. A 404 yields an empty payload.
func (c *Client) GetUserStatus(ctx context.Context, id int64) (domain.ExternalStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyTransport(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/users/" + strconv.FormatInt(id, 10))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx, c.timeout)); err != nil {
		return nil, classifyTransport(err)
	}

	code := resp.StatusCode()
	switch {
	case code == fasthttp.StatusNotFound:
		return domain.ExternalStatus{}, nil
	case code < 200 || code > 299:
		return nil, &Error{Kind: KindRemote, StatusCode: code}
	}

	var payload domain.ExternalStatus
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &Error{Kind: KindRemote, Err: fmt.Errorf("decode body: %w", err)}
	}
	if payload == nil {
		return nil, &Error{Kind: KindRemote, Err: errors.New("body is not a JSON object")}
	}
	return payload, nil
}

// Health probes GET {base}/posts/1. It never fails; the outcome is in the status.
func (c *Client) Health(ctx context.Context) domain.ComponentHealth {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + "/posts/1")
	req.Header.SetMethod(fasthttp.MethodGet)

	if err := c.http.DoDeadline(req, resp, c.deadline(ctx, c.healthTimeout)); err != nil {
		return domain.ComponentHealth{
			Status:  domain.ExternalError,
			Message: "could not reach the external api",
		}
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return domain.ComponentHealth{
			Status:  domain.ExternalInactive,
			Message: fmt.Sprintf("external api responded with status %d", resp.StatusCode()),
		}
	}
	return domain.ComponentHealth{
		Status:  domain.ExternalActive,
		Message: "external api is reachable",
	}
}

// deadline is the earlier of now+timeout and the context deadline.
func (c *Client) deadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func classifyTransport(err error) *Error {
	if errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindRemote, Err: err}
}
