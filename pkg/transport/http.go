package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sneldb/sneldb.go/pkg/constants"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
)

// HTTPConfig configures the stateless HTTP transport.
type HTTPConfig struct {
	// Endpoint is the server base URL, e.g. "http://localhost:8085".
	Endpoint    string
	ReadTimeout time.Duration
	// Client is an optional pre-configured http.Client. When supplied it is
	// considered externally owned and Close will not touch it.
	Client *http.Client
	Logger logger.Logger
}

// HTTPTransport posts each command to the server's command endpoint. It holds
// no per-command state; the session semantics live in the auth headers.
type HTTPTransport struct {
	endpoint   string
	client     *http.Client
	ownsClient bool
	logger     logger.Logger
}

func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = constants.DefaultReadTimeout
	}
	t := &HTTPTransport{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   cfg.Client,
		logger:   logger.OrNoOp(cfg.Logger),
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: timeout}
		t.ownsClient = true
	}
	return t
}

func (t *HTTPTransport) Kind() Kind { return KindHTTP }

func (t *HTTPTransport) Execute(ctx context.Context, command string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/command", strings.NewReader(command))
	if err != nil {
		return nil, &errs.ConnectionError{Message: "invalid request", Err: err}
	}
	req.Header.Set("Content-Type", "text/plain")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	t.logger.Debug("posting command", "endpoint", t.endpoint, "bytes", len(command))
	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, &errs.ConnectionError{Message: fmt.Sprintf("request to %s timed out", t.endpoint), Err: err}
		}
		return nil, &errs.ConnectionError{Message: fmt.Sprintf("cannot connect to %s", t.endpoint), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ConnectionError{Message: "reading response body failed", Err: err}
	}

	lowered := make(map[string]string, len(resp.Header))
	for name := range resp.Header {
		lowered[strings.ToLower(name)] = resp.Header.Get(name)
	}
	t.logger.Debug("response received", "status", resp.StatusCode, "bytes", len(body))
	return &Response{Status: resp.StatusCode, Body: body, Headers: lowered}, nil
}

// Close releases idle connections of the pool, but only when the transport
// created it; an injected client is never closed here.
func (t *HTTPTransport) Close() error {
	if t.ownsClient {
		t.client.CloseIdleConnections()
	}
	return nil
}
