package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/sneldb/sneldb.go/pkg/constants"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
)

const (
	// maxResponseLines bounds the lines read per response so a misbehaving
	// or never-terminating stream cannot hang the client.
	maxResponseLines = 1000

	// After a success status line, any payload the server already flushed is
	// drained with short read deadlines: bounded attempts, bounded wait.
	drainAttempts     = 1000
	drainPollInterval = 100 * time.Millisecond
)

// TCPConfig configures a TCP or TLS transport.
type TCPConfig struct {
	Host        string
	Port        int
	UseTLS      bool
	TLSConfig   *tls.Config // optional; ServerName defaults to Host
	ReadTimeout time.Duration
	Logger      logger.Logger
}

// TCPTransport speaks the newline-framed command protocol over a single
// lazily-established stream connection. The connection is reused across
// commands and discarded on any I/O error; the next Execute reconnects.
type TCPTransport struct {
	network     string
	addr        string
	serverName  string
	useTLS      bool
	tlsConfig   *tls.Config
	readTimeout time.Duration
	logger      logger.Logger
	kind        Kind

	conn   net.Conn
	reader *bufio.Reader
}

func NewTCPTransport(cfg TCPConfig) *TCPTransport {
	port := cfg.Port
	if port == 0 {
		port = constants.DefaultTCPPort
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = constants.DefaultReadTimeout
	}
	return &TCPTransport{
		network:     "tcp",
		addr:        net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", port)),
		serverName:  cfg.Host,
		useTLS:      cfg.UseTLS,
		tlsConfig:   cfg.TLSConfig,
		readTimeout: timeout,
		logger:      logger.OrNoOp(cfg.Logger),
		kind:        KindTCP,
	}
}

func (t *TCPTransport) Kind() Kind { return t.kind }

func (t *TCPTransport) Execute(ctx context.Context, command string, headers map[string]string) (*Response, error) {
	_ = headers // the line protocol has no headers

	if err := t.ensureConnection(ctx); err != nil {
		return nil, err
	}

	payload := command
	if !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}
	t.logger.Debug("sending command", "bytes", len(payload))
	t.conn.SetWriteDeadline(t.deadline(ctx))
	if _, err := t.conn.Write([]byte(payload)); err != nil {
		t.reset()
		return nil, &errs.ConnectionError{Message: "write failed", Err: err}
	}

	lines, err := t.readResponseLines(ctx)
	if err != nil {
		return nil, err
	}
	body := strings.Join(lines, "\n")
	t.logger.Debug("received response", "lines", len(lines), "bytes", len(body))

	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	return &Response{Status: deriveStatus(first), Body: []byte(body), Headers: map[string]string{}}, nil
}

// Close releases the held connection. Safe to call repeatedly or before the
// first Execute.
func (t *TCPTransport) Close() error {
	t.reset()
	return nil
}

func (t *TCPTransport) ensureConnection(ctx context.Context) error {
	if t.conn != nil {
		return nil
	}
	t.logger.Info("connecting", "addr", t.addr, "network", t.network, "tls", t.useTLS)

	dialer := net.Dialer{Timeout: t.readTimeout}
	conn, err := dialer.DialContext(ctx, t.network, t.addr)
	if err != nil {
		return &errs.ConnectionError{Message: fmt.Sprintf("cannot connect to %s", t.addr), Err: err}
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	if t.useTLS {
		cfg := t.tlsConfig.Clone()
		if cfg == nil {
			cfg = &tls.Config{}
		}
		if cfg.ServerName == "" {
			cfg.ServerName = t.serverName
		}
		tlsConn := tls.Client(conn, cfg)
		tlsConn.SetDeadline(time.Now().Add(t.readTimeout))
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return &errs.ConnectionError{Message: fmt.Sprintf("TLS handshake with %s failed", t.addr), Err: err}
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	return nil
}

// readResponseLines assembles one response. Lines are read until a stream
// terminator, an error line, or a success status line (followed by a
// best-effort drain); a closed peer ends the loop without error.
func (t *TCPTransport) readResponseLines(ctx context.Context) ([]string, error) {
	var lines []string
	for i := 0; i < maxResponseLines; i++ {
		t.conn.SetReadDeadline(t.deadline(ctx))
		raw, err := t.reader.ReadString('\n')
		stripped := strings.TrimRight(raw, "\r\n")
		if err != nil {
			if errors.Is(err, io.EOF) {
				if stripped != "" {
					lines = append(lines, stripped)
				}
				break
			}
			t.reset()
			if isTimeout(err) {
				return nil, &errs.ConnectionError{
					Message: fmt.Sprintf("read timeout after %s", t.readTimeout),
					Err:     err,
				}
			}
			return nil, &errs.ConnectionError{Message: "read failed", Err: err}
		}
		if stripped != "" {
			lines = append(lines, stripped)
			t.logger.Trace("line received", "line", truncate(stripped, 200))
		}

		if isStreamEnd(stripped) || isErrorLine(stripped) {
			break
		}
		if looksLikeStatusLine(stripped) {
			t.drainContent(&lines)
			break
		}
	}
	return lines, nil
}

// drainContent captures payload lines the server already flushed after a
// status line, without blocking indefinitely. The protocol has no length
// prefix, so this stays a bounded heuristic: a quiet socket, a blank line, a
// closed stream or a stream terminator all stop it.
func (t *TCPTransport) drainContent(dest *[]string) {
	for i := 0; i < drainAttempts; i++ {
		t.conn.SetReadDeadline(time.Now().Add(drainPollInterval))
		raw, err := t.reader.ReadString('\n')
		stripped := strings.TrimRight(raw, "\r\n")
		if err != nil {
			if errors.Is(err, io.EOF) && stripped != "" {
				*dest = append(*dest, stripped)
			}
			return
		}
		if stripped == "" {
			return
		}
		*dest = append(*dest, stripped)
		if isStreamEnd(stripped) {
			return
		}
	}
}

// deadline is the configured read timeout from now, clamped to an earlier
// context deadline when one is set.
func (t *TCPTransport) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(t.readTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (t *TCPTransport) reset() {
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
	t.reader = nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
