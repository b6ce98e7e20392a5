package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sneldb/sneldb.go/pkg/constants"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
)

// WSConfig configures the WebSocket transport.
type WSConfig struct {
	// Endpoint is the ws:// or wss:// URL of the server's ws frontend.
	Endpoint    string
	ReadTimeout time.Duration
	Dialer      *websocket.Dialer
	Logger      logger.Logger
}

// WSTransport speaks the command protocol over the server's WebSocket
// frontend. Commands go out as one text message each; the server renders the
// complete response, terminator lines included, into a single text message,
// so no drain heuristic is needed here.
type WSTransport struct {
	endpoint    string
	readTimeout time.Duration
	dialer      *websocket.Dialer
	logger      logger.Logger

	conn *websocket.Conn
}

func NewWSTransport(cfg WSConfig) *WSTransport {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = constants.DefaultReadTimeout
	}
	dialer := cfg.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{HandshakeTimeout: timeout}
	}
	return &WSTransport{
		endpoint:    cfg.Endpoint,
		readTimeout: timeout,
		dialer:      dialer,
		logger:      logger.OrNoOp(cfg.Logger),
	}
}

func (t *WSTransport) Kind() Kind { return KindWebSocket }

func (t *WSTransport) Execute(ctx context.Context, command string, headers map[string]string) (*Response, error) {
	_ = headers // auth travels inside the command text, as on TCP

	if err := t.ensureConnection(ctx); err != nil {
		return nil, err
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.readTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, []byte(strings.TrimSpace(command))); err != nil {
		t.reset()
		return nil, &errs.ConnectionError{Message: "websocket write failed", Err: err}
	}

	t.conn.SetReadDeadline(time.Now().Add(t.readTimeout))
	_, message, err := t.conn.ReadMessage()
	if err != nil {
		t.reset()
		if isTimeout(err) {
			return nil, &errs.ConnectionError{
				Message: fmt.Sprintf("read timeout after %s", t.readTimeout),
				Err:     err,
			}
		}
		return nil, &errs.ConnectionError{Message: "websocket read failed", Err: err}
	}

	var lines []string
	for _, raw := range strings.Split(string(message), "\n") {
		stripped := strings.TrimRight(raw, "\r")
		if stripped == "" {
			continue
		}
		lines = append(lines, stripped)
		if len(lines) >= maxResponseLines {
			break
		}
	}
	body := strings.Join(lines, "\n")
	t.logger.Debug("response received", "lines", len(lines), "bytes", len(body))

	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	return &Response{Status: deriveStatus(first), Body: []byte(body), Headers: map[string]string{}}, nil
}

func (t *WSTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	// Best-effort close frame; the server drops the connection either way.
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	t.reset()
	return nil
}

func (t *WSTransport) ensureConnection(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	t.logger.Info("connecting", "endpoint", t.endpoint)
	conn, _, err := t.dialer.DialContext(ctx, t.endpoint, nil)
	if err != nil {
		return &errs.ConnectionError{Message: fmt.Sprintf("cannot connect to %s", t.endpoint), Err: err}
	}
	t.conn = conn
	return nil
}

func (t *WSTransport) reset() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
