// Package cafeapi is the typed client for the café REST backend.
package cafeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/pmcafe/kiosk/pkg/errors"
	"github.com/pmcafe/kiosk/pkg/types"
)

const (
	defaultTimeout             = 10 * time.Second
	responseBodyReadLimit int64 = 1 << 20

	// IdempotencyHeader is forwarded on order creation.
	IdempotencyHeader = "Idempotency-Key"
)

var errBaseURLRequired = errors.New("cafe api base url is required")

// UnauthorizedHook runs when the backend rejects the bearer token in ctx.
type UnauthorizedHook func(ctx context.Context, token string)

// Client wraps the café backend endpoints used by the kiosk, barista and admin surfaces.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	onUnauthorized UnauthorizedHook
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithUnauthorizedHook registers a callback for 401 responses.
func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(c *Client) {
		c.onUnauthorized = hook
	}
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("parse cafe api base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

// SetUnauthorizedHook replaces the 401 callback after construction.
func (c *Client) SetUnauthorizedHook(hook UnauthorizedHook) {
	c.onUnauthorized = hook
}

type tokenKey struct{}

// WithToken attaches the admin bearer token used by subsequent calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the bearer token attached to ctx.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "cafe api client not configured")
	}

	target := c.buildURL(req.path)
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cafe api request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build cafe api request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	token := TokenFromContext(ctx)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range req.headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", req.method, req.path))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cafe api response")
	}

	var env types.UpstreamEnvelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success && env.Error != nil) {
		upErr := upstreamError(resp.StatusCode, env, raw)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil && token != "" {
			c.onUnauthorized(ctx, token)
		}
		return upErr
	}
	if decodeErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode cafe api response")
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cafe api payload")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(path, "/"))
}

// backend error codes with a dedicated local code
var upstreamCodes = map[string]pkgerrors.Code{
	"INSUFFICIENT_BALANCE": pkgerrors.CodeInsufficientBalance,
	"MISSING_CELL_ID":      pkgerrors.CodeMissingCellInfo,
	"CELL_NOT_FOUND":       pkgerrors.CodeNotFound,
	"ORDER_NOT_FOUND":      pkgerrors.CodeNotFound,
	"MENU_NOT_FOUND":       pkgerrors.CodeNotFound,
	"SETTLEMENT_NOT_FOUND": pkgerrors.CodeNotFound,
	"ALREADY_CONFIRMED":    pkgerrors.CodeStateConflict,
	"INVALID_CREDENTIALS":  pkgerrors.CodeUnauthorized,
	"DUPLICATE_PHONE":      pkgerrors.CodeConflict,
}

func upstreamError(status int, env types.UpstreamEnvelope, raw []byte) error {
	details := pkgerrors.UpstreamDetails{Status: status}
	if env.Error != nil {
		details.Code = env.Error.Code
		details.Message = env.Error.Message
	}
	if details.Message == "" && len(env.Detail) > 0 {
		var detail string
		if json.Unmarshal(env.Detail, &detail) == nil {
			details.Message = detail
		} else {
			details.Message = string(env.Detail)
		}
	}
	if details.Message == "" {
		details.Body = truncateBody(raw)
	}

	code, ok := upstreamCodes[details.Code]
	if !ok {
		switch {
		case status == http.StatusUnauthorized:
			code = pkgerrors.CodeUnauthorized
		case status == http.StatusForbidden:
			code = pkgerrors.CodeForbidden
		case status == http.StatusNotFound:
			code = pkgerrors.CodeNotFound
		case status == http.StatusConflict:
			code = pkgerrors.CodeConflict
		case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
			code = pkgerrors.CodeValidation
		default:
			code = pkgerrors.CodeDependency
		}
	}

	message := details.Message
	if message == "" {
		message = http.StatusText(status)
	}
	cause := fmt.Errorf("cafe api status %d: %s", status, details.Code)
	return pkgerrors.Wrap(code, cause, message).WithDetails(details)
}

const maxLoggedBody = 512

func truncateBody(raw []byte) string {
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	return body
}
