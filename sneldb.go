// Package sneldb is a client for the SnelDB event database. It issues
// textual commands over TCP/TLS, unix socket, HTTP or WebSocket transports
// and normalizes the server's heterogeneous response formats into one
// ordered-record representation.
package sneldb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sneldb/sneldb.go/pkg/auth"
	"github.com/sneldb/sneldb.go/pkg/constants"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
	"github.com/sneldb/sneldb.go/pkg/models"
	"github.com/sneldb/sneldb.go/pkg/parser"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

// Client is the primary entry point. One Client owns exactly one transport
// and one session; it is not safe for concurrent use (the line protocol
// allows a single in-flight command per connection).
type Client struct {
	baseURL        string
	transport      transport.Transport
	auth           *auth.Manager
	normalizer     *parser.Normalizer
	defaultHeaders map[string]string
	logger         logger.Logger
}

// New builds a Client from cfg, creating the transport the BaseURL scheme
// asks for unless one is injected.
func New(cfg Config) (*Client, error) {
	log := logger.OrNoOp(cfg.Logger)
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	log.Info("initializing SnelDB client", "base_url", baseURL)

	t := cfg.Transport
	if t == nil {
		var err error
		t, err = newTransport(baseURL, cfg, log)
		if err != nil {
			return nil, err
		}
	}

	headers := make(map[string]string, len(cfg.DefaultHeaders))
	for name, value := range cfg.DefaultHeaders {
		headers[name] = value
	}

	return &Client{
		baseURL:        baseURL,
		transport:      t,
		auth:           auth.NewManager(cfg.UserID, cfg.SecretKey, log),
		normalizer:     &parser.Normalizer{ArrowDecoder: cfg.ArrowDecoder, Logger: log},
		defaultHeaders: headers,
		logger:         log,
	}, nil
}

// Execute sends one command and returns the normalized records, or one of
// the pkg/errs error types. A 200 always yields a record list, possibly
// empty. Faults are never retried here.
func (c *Client) Execute(ctx context.Context, command string) ([]*models.Record, error) {
	kind := c.transport.Kind()
	formatted, err := c.auth.FormatCommand(command, kind)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(c.defaultHeaders))
	for name, value := range c.defaultHeaders {
		headers[name] = value
	}
	if kind == transport.KindHTTP {
		headers, err = c.auth.AddHTTPHeaders(formatted, headers)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.transport.Execute(ctx, formatted, headers)
	if err != nil {
		return nil, err
	}
	return c.handleResponse(resp)
}

// Authenticate runs the AUTH exchange and caches the session token; until
// ClearSession, subsequent commands carry "TOKEN <token>" instead of a
// per-command signature.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	return c.auth.Authenticate(ctx, c.transport)
}

// ClearSession drops the cached session token, reverting to signature-based
// command formatting.
func (c *Client) ClearSession() {
	c.auth.Clear()
}

// Close releases the transport. Idempotent.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) handleResponse(resp *transport.Response) ([]*models.Record, error) {
	if resp.Status == 200 {
		return c.normalizer.Normalize(resp)
	}

	message := parser.ExtractErrorMessage(string(resp.Body))
	switch resp.Status {
	case 400, 405:
		return nil, &errs.CommandError{Message: message}
	case 401:
		return nil, &errs.AuthenticationError{Message: message}
	case 403:
		return nil, &errs.AuthorizationError{Message: message}
	case 404:
		return nil, &errs.NotFoundError{Message: message}
	case 500, 503:
		return nil, &errs.ServerError{Message: message}
	}
	return nil, &errs.ConnectionError{
		Message: fmt.Sprintf("unexpected response %d: %s", resp.Status, strings.TrimSpace(string(resp.Body))),
	}
}

func newTransport(baseURL string, cfg Config, log logger.Logger) (transport.Transport, error) {
	normalized := baseURL
	if !strings.Contains(normalized, "://") {
		normalized = constants.HTTPScheme + "://" + normalized
	}
	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, fmt.Errorf("sneldb: invalid base URL %q: %w", baseURL, err)
	}

	scheme := parsed.Scheme
	host := parsed.Hostname()
	if host == "" && scheme != constants.UnixScheme {
		host = "localhost"
	}

	switch scheme {
	case constants.HTTPScheme, constants.HTTPSecureScheme:
		port := parsed.Port()
		if port == "" {
			if scheme == constants.HTTPSecureScheme {
				port = "443"
			} else {
				port = "80"
			}
		}
		endpoint := strings.TrimRight(fmt.Sprintf("%s://%s:%s%s", scheme, host, port, parsed.Path), "/")
		return transport.NewHTTPTransport(transport.HTTPConfig{
			Endpoint:    endpoint,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      log,
		}), nil

	case constants.TCPScheme, constants.TLSScheme:
		port := constants.DefaultTCPPort
		if p := parsed.Port(); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
		return transport.NewTCPTransport(transport.TCPConfig{
			Host:        host,
			Port:        port,
			UseTLS:      scheme == constants.TLSScheme,
			TLSConfig:   cfg.TLSConfig,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      log,
		}), nil

	case constants.WebsocketScheme, constants.WebsocketSecureScheme:
		return transport.NewWSTransport(transport.WSConfig{
			Endpoint:    normalized,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      log,
		}), nil

	case constants.UnixScheme:
		path := parsed.Path
		if path == "" {
			path = parsed.Opaque
		}
		return transport.NewUnixTransport(transport.UnixConfig{
			SocketPath:  path,
			ReadTimeout: cfg.ReadTimeout,
			Logger:      log,
		}), nil
	}
	return nil, fmt.Errorf("sneldb: unsupported scheme %q", scheme)
}
