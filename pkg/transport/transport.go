// Package transport provides the wire transports a SnelDB client can run
// over: the persistent line-oriented TCP/TLS and unix-socket protocol, the
// stateless HTTP endpoint, and the WebSocket frontend.
//
// A transport carries exactly one in-flight command at a time; Execute blocks
// until the full response is assembled. Transports are not safe for
// concurrent use by multiple goroutines.
package transport

import "context"

// Kind discriminates transport behavior for the auth manager and the client
// facade: socket kinds embed credentials in the command line, HTTP carries
// them in headers.
type Kind string

const (
	KindTCP       Kind = "tcp"
	KindHTTP      Kind = "http"
	KindWebSocket Kind = "ws"
	KindUnix      Kind = "unix"
)

// Socket reports whether the kind speaks the newline-framed command protocol
// with auth embedded in the command text.
func (k Kind) Socket() bool { return k != KindHTTP }

// Response is the raw status/body/headers triple a transport hands to the
// normalizer. Header names are lower-cased for uniform lookup. A Response is
// never mutated after construction.
type Response struct {
	Status  int
	Body    []byte
	Headers map[string]string
}

// Header returns the value for a lower-cased header name.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

// Transport executes one command and assembles its complete response.
type Transport interface {
	// Execute sends one command and blocks until the response is complete.
	// Headers are only meaningful for the HTTP transport. On an I/O fault
	// the transport resets itself so the next Execute can reconnect.
	Execute(ctx context.Context, command string, headers map[string]string) (*Response, error)
	// Close releases any held connection. Idempotent.
	Close() error
	Kind() Kind
}
