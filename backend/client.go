// Package backend is the client for the spreadsheet-backed RPC endpoint,
// the authoritative store of record. Reads go out as GET query parameters
// with a cache-defeating nonce; writes as a JSON body {action, payload}.
// Every call is bounded by a per-attempt timeout and retried with a fixed
// backoff until the retry budget runs out.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/peerawits/reqbridge/utils"
)

type Method string

const (
	MethodRead  Method = "read"
	MethodWrite Method = "write"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = time.Second
	DefaultRetries    = 2
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the application-level envelope returned by the endpoint.
type Response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}

type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindTimeout
	KindApplication
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindApplication:
		return "application"
	default:
		return "network"
	}
}

// CallError is the typed failure surfaced by Call. Application errors carry
// the server-provided message; the other kinds wrap the transport error.
type CallError struct {
	Kind     ErrorKind
	Action   string
	Message  string
	Attempts int
	Err      error
}

func (e *CallError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("backend call %q failed (%s): %s", e.Action, e.Kind, msg)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// UserMessage is the message category shown to the end user.
func (e *CallError) UserMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "The server took too long to respond. Please try again."
	case KindApplication:
		return e.Message
	default:
		return "Cannot reach the server. Check your connection and try again."
	}
}

func IsTimeout(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindTimeout
}

func IsApplication(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindApplication
}

type Config struct {
	URL        string
	Timeout    time.Duration
	RetryDelay time.Duration
	Retries    int
}

// Client holds no state across calls beyond its configuration.
type Client struct {
	url        string
	timeout    time.Duration
	retryDelay time.Duration
	retries    int
	httpClient *http.Client
	logger     *utils.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.Retries < 0 {
		cfg.Retries = DefaultRetries
	}
	return &Client{
		url:        cfg.URL,
		timeout:    cfg.Timeout,
		retryDelay: cfg.RetryDelay,
		retries:    cfg.Retries,
		httpClient: &http.Client{},
		logger:     utils.NewLogger("backend"),
	}
}

// Call executes action against the endpoint with the client's default retry
// budget. On success the parsed envelope is returned unchanged. Failures are
// surfaced as *CallError; an application error envelope aborts immediately,
// transport failures and timeouts are retried with a fixed delay in between.
func (c *Client) Call(ctx context.Context, method Method, action string, payload map[string]interface{}) (*Response, error) {
	return c.CallWithRetries(ctx, method, action, payload, c.retries)
}

func (c *Client) CallWithRetries(ctx context.Context, method Method, action string, payload map[string]interface{}, retries int) (*Response, error) {
	if retries < 0 {
		retries = 0
	}

	config := &utils.RetryConfig{
		MaxAttempts: retries + 1,
		BaseDelay:   c.retryDelay,
		BackoffType: utils.Fixed,
		Retryable:   retryable,
	}

	var resp *Response
	attempts := 0

	err := utils.Retry(ctx, config, func() error {
		attempts++
		r, err := c.attempt(ctx, method, action, payload)
		if err != nil {
			c.logger.Warn(ctx, "backend attempt failed", map[string]interface{}{
				"action":  action,
				"attempt": attempts,
				"error":   err.Error(),
			})
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		var ce *CallError
		if errors.As(err, &ce) {
			ce.Attempts = attempts
			return nil, ce
		}
		// Context cancellation from the caller's side.
		return nil, err
	}

	return resp, nil
}

func (c *Client) attempt(ctx context.Context, method Method, action string, payload map[string]interface{}) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(attemptCtx, method, action, payload)
	if err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return nil, &CallError{Kind: kind, Action: action, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return nil, &CallError{
			Kind:    KindNetwork,
			Action:  action,
			Message: fmt.Sprintf("unexpected status %d", res.StatusCode),
		}
	}

	var envelope Response
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, &CallError{Kind: KindNetwork, Action: action, Message: "malformed response envelope", Err: err}
	}

	if envelope.Status == StatusError {
		return nil, &CallError{Kind: KindApplication, Action: action, Message: envelope.Message}
	}

	return &envelope, nil
}

func (c *Client) buildRequest(ctx context.Context, method Method, action string, payload map[string]interface{}) (*http.Request, error) {
	switch method {
	case MethodRead:
		q := url.Values{}
		q.Set("action", action)
		for k, v := range payload {
			q.Set(k, fmt.Sprint(v))
		}
		q.Set("nonce", uuid.NewString())
		return http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	case MethodWrite:
		body, err := json.Marshal(map[string]interface{}{
			"action":  action,
			"payload": payload,
		})
		if err != nil {
			return nil, fmt.Errorf("encode payload for %q: %w", action, err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	default:
		return nil, fmt.Errorf("unknown call method %q", method)
	}
}

// Application errors are final; only transport failures and timeouts burn
// the retry budget.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind != KindApplication
	}
	return true
}
