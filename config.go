package sneldb

import (
	"crypto/tls"
	"time"

	"github.com/sneldb/sneldb.go/pkg/logger"
	"github.com/sneldb/sneldb.go/pkg/parser"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

// Config carries everything needed to construct a Client. Only BaseURL is
// required; zero values fall back to sane defaults.
type Config struct {
	// BaseURL selects the transport by scheme: http/https, tcp/tls, ws/wss,
	// or unix. A missing scheme defaults to http. The tcp/tls default port
	// is 8086.
	BaseURL string

	// UserID and SecretKey enable command signing and the AUTH exchange.
	// Leave both empty to talk to an unauthenticated server.
	UserID    string
	SecretKey string

	// ReadTimeout bounds connects and blocking reads. Defaults to 60s.
	ReadTimeout time.Duration

	// Transport overrides the BaseURL-derived transport, mostly for tests.
	Transport transport.Transport

	// DefaultHeaders are sent with every HTTP request.
	DefaultHeaders map[string]string

	// TLSConfig customizes the tls scheme; ServerName defaults to the host.
	TLSConfig *tls.Config

	// ArrowDecoder enables columnar binary responses; see pkg/arrowipc.
	ArrowDecoder parser.ArrowDecoder

	// Logger receives client diagnostics. Defaults to a no-op.
	Logger logger.Logger
}
