package chain

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"burnwatch/internal/evmlog"
	"burnwatch/internal/metrics"
	"burnwatch/internal/retry"
)

// ErrorKind separates transport failures from node-reported errors.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindRPC       ErrorKind = "rpc"
)

// Error is a failed JSON-RPC call. Both kinds are retryable.
type Error struct {
	Kind       ErrorKind
	Method     string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRPC:
		return fmt.Sprintf("%s: rpc error %d: %s", e.Method, e.Code, e.Message)
	default:
		if e.StatusCode != 0 {
			return fmt.Sprintf("%s: http status %d: %s", e.Method, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: transport: %v", e.Method, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a Client for one endpoint.
type Options struct {
	Network  string
	Endpoint string
	AuthKey  string
	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	// HTTPClient is the transport shared by every network.
	HTTPClient *http.Client
}

// Client is a stateless JSON-RPC transport for a single endpoint.
type Client struct {
	network   string
	rpcClient *rpc.Client
	limiter   *rate.Limiter
}

// NewClient dials the endpoint. HTTP endpoints do not connect until the first call.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("rpc endpoint is required")
	}

	var dialOpts []rpc.ClientOption
	if opts.HTTPClient != nil {
		dialOpts = append(dialOpts, rpc.WithHTTPClient(opts.HTTPClient))
	}
	if opts.AuthKey != "" {
		dialOpts = append(dialOpts, rpc.WithHeader("Authorization", "Bearer "+opts.AuthKey))
	}

	rpcClient, err := rpc.DialOptions(ctx, opts.Endpoint, dialOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		network:   opts.Network,
		rpcClient: rpcClient,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() error {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
	return nil
}

// Call sends req and decodes the result into result.
// Failures come back as retry.Transient(*Error); cancellation is returned as is.
func (c *Client) Call(ctx context.Context, req evmlog.Request, result interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return retry.Transient(fmt.Errorf("rate limit: %w", err))
		}
	}

	err := c.rpcClient.CallContext(ctx, result, req.Method, req.Params...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	callErr := classify(req.Method, err)
	metrics.RPCFailures.WithLabelValues(c.network, req.Method, string(callErr.Kind)).Inc()
	return retry.Transient(callErr)
}

func classify(method string, err error) *Error {
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return &Error{
			Kind:       KindTransport,
			Method:     method,
			StatusCode: httpErr.StatusCode,
			Message:    string(httpErr.Body),
			Err:        err,
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return &Error{
			Kind:    KindRPC,
			Method:  method,
			Code:    rpcErr.ErrorCode(),
			Message: rpcErr.Error(),
			Err:     err,
		}
	}

	return &Error{Kind: KindTransport, Method: method, Err: err}
}
