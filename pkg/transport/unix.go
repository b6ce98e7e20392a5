package transport

import (
	"time"

	"github.com/sneldb/sneldb.go/pkg/constants"
	"github.com/sneldb/sneldb.go/pkg/logger"
)

// UnixConfig configures a unix-socket transport. The server's unix frontend
// speaks the same newline-framed protocol as TCP.
type UnixConfig struct {
	SocketPath  string
	ReadTimeout time.Duration
	Logger      logger.Logger
}

// NewUnixTransport returns a transport over a local stream socket, reusing
// the TCP framing state machine.
func NewUnixTransport(cfg UnixConfig) *TCPTransport {
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = constants.DefaultReadTimeout
	}
	return &TCPTransport{
		network:     "unix",
		addr:        cfg.SocketPath,
		readTimeout: timeout,
		logger:      logger.OrNoOp(cfg.Logger),
		kind:        KindUnix,
	}
}
