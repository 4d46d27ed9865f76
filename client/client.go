package client

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gaborage/go-tlq/config"
	"github.com/gaborage/go-tlq/logger"
	"github.com/gaborage/go-tlq/message"
	"github.com/gaborage/go-tlq/retry"
)

// MaxMessageSize is the largest message body the server accepts, in bytes.
const MaxMessageSize = 65536

// healthCheckTimeout bounds the health probe regardless of the
// configured request timeout.
const healthCheckTimeout = 5 * time.Second

// Server endpoint paths.
const (
	pathAdd    = "/add"
	pathGet    = "/get"
	pathDelete = "/delete"
	pathRetry  = "/retry"
	pathPurge  = "/purge"
	pathHello  = "/hello"
)

// Client is the TLQ client. It holds only immutable configuration, so a
// single value is safe for concurrent use; every call opens and fully
// owns its own connection.
type Client struct {
	config config.Config
	log    logger.Logger
	addr   string
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithLogger sets the structured logger used for request/response
// logging. The default logger discards everything.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the given host and port with default
// configuration: 30s timeout, 3 retries, 100ms backoff base.
func New(host string, port uint16, opts ...Option) *Client {
	cfg := config.NewBuilder().
		WithHost(host).
		WithPort(port).
		Build()

	return NewWithConfig(cfg, opts...)
}

// NewWithConfig creates a client with custom configuration.
func NewWithConfig(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		config: cfg,
		log:    logger.Disabled(),
		addr:   cfg.Addr(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client's configuration.
func (c *Client) Config() config.Config {
	return c.config
}

// HealthCheck probes the server with GET /hello under a fixed 5-second
// deadline. It returns true iff the response status line reports 200 OK.
// The probe bypasses the retry engine.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	raw, err := c.send(ctx, nethttp.MethodGet, pathHello, nil, healthCheckTimeout)
	if err != nil {
		return false, err
	}
	return strings.Contains(string(raw), "200 OK"), nil
}

// AddMessage submits a new message body to the queue and returns the
// created message with its server-assigned ID. Bodies over MaxMessageSize
// bytes are rejected before any network activity.
func (c *Client) AddMessage(ctx context.Context, body string) (*message.Message, error) {
	if len(body) > MaxMessageSize {
		return nil, NewMessageTooLargeError(len(body))
	}

	msg, err := request[message.Message](ctx, c, pathAdd, message.AddRequest{Body: body})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetMessages retrieves up to count messages, moving them to the
// Processing state server-side. The result may be shorter than count,
// including empty.
func (c *Client) GetMessages(ctx context.Context, count int) ([]message.Message, error) {
	if count < 1 {
		return nil, NewValidationError("count must be greater than 0", "count")
	}

	return request[[]message.Message](ctx, c, pathGet, message.GetRequest{Count: count})
}

// GetMessage retrieves a single message, or nil when the queue is empty.
func (c *Client) GetMessage(ctx context.Context) (*message.Message, error) {
	msgs, err := c.GetMessages(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return &msgs[0], nil
}

// DeleteMessage removes a single message from the queue.
func (c *Client) DeleteMessage(ctx context.Context, id uuid.UUID) (string, error) {
	return c.DeleteMessages(ctx, []uuid.UUID{id})
}

// DeleteMessages removes the given messages from the queue permanently,
// regardless of their state. Returns the server's status string.
func (c *Client) DeleteMessages(ctx context.Context, ids []uuid.UUID) (string, error) {
	if len(ids) == 0 {
		return "", NewValidationError("no message IDs provided", "ids")
	}

	return request[string](ctx, c, pathDelete, message.DeleteRequest{IDs: ids})
}

// RetryMessage moves a single Failed message back to Ready.
func (c *Client) RetryMessage(ctx context.Context, id uuid.UUID) (string, error) {
	return c.RetryMessages(ctx, []uuid.UUID{id})
}

// RetryMessages moves the given Failed messages back to Ready,
// incrementing their retry counts server-side. Returns the server's
// status string.
func (c *Client) RetryMessages(ctx context.Context, ids []uuid.UUID) (string, error) {
	if len(ids) == 0 {
		return "", NewValidationError("no message IDs provided", "ids")
	}

	return request[string](ctx, c, pathRetry, message.RetryRequest{IDs: ids})
}

// PurgeQueue removes every message from the queue. Returns the server's
// status string.
func (c *Client) PurgeQueue(ctx context.Context) (string, error) {
	return request[string](ctx, c, pathPurge, struct{}{})
}

// request routes one logical operation through the retry engine: the
// round trip is re-attempted with exponential backoff while failures
// stay transport-level retryable.
func request[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	policy := retry.Policy{
		MaxRetries: c.config.MaxRetries,
		BaseDelay:  c.config.RetryDelay,
		Retryable:  IsRetryable,
	}

	return retry.Do(ctx, policy, func(ctx context.Context) (T, error) {
		return roundTrip[T](ctx, c, path, payload)
	})
}

// roundTrip performs a single attempt: encode, send, parse, decode.
func roundTrip[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	var zero T

	body, err := json.Marshal(payload)
	if err != nil {
		return zero, NewSerializationError("failed to encode request payload", err)
	}

	c.logRequest(path, body)

	start := time.Now()
	raw, err := c.send(ctx, nethttp.MethodPost, path, body, c.config.Timeout)
	if err != nil {
		c.logFailure(path, err)
		return zero, err
	}

	respBody, err := parseResponse(raw)
	if err != nil {
		c.logFailure(path, err)
		return zero, err
	}

	var out T
	if err := json.Unmarshal(respBody, &out); err != nil {
		return zero, NewSerializationError("failed to decode response payload", err)
	}

	c.logResponse(path, respBody, time.Since(start))
	return out, nil
}

// logRequest logs the outgoing request
func (c *Client) logRequest(path string, body []byte) {
	c.log.Debug().
		Str("direction", "outbound").
		Str("path", path).
		Int("bytes", len(body)).
		Msg("TLQ client request")
}

// logResponse logs the decoded response
func (c *Client) logResponse(path string, body []byte, elapsed time.Duration) {
	c.log.Debug().
		Str("direction", "inbound").
		Str("path", path).
		Int("bytes", len(body)).
		Dur("elapsed", elapsed).
		Msg("TLQ client response")
}

// logFailure logs one failed attempt
func (c *Client) logFailure(path string, err error) {
	c.log.Warn().
		Str("path", path).
		Err(err).
		Msg("TLQ client request failed")
}
