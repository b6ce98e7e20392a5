// Package constants holds shared defaults for the SnelDB client.
package constants

import "time"

var (
	HTTPScheme            = "http"
	HTTPSecureScheme      = "https"
	TCPScheme             = "tcp"
	TLSScheme             = "tls"
	WebsocketScheme       = "ws"
	WebsocketSecureScheme = "wss"
	UnixScheme            = "unix"
)

const (
	// DefaultReadTimeout bounds every blocking read and the initial dial.
	DefaultReadTimeout = 60 * time.Second

	// DefaultTCPPort is the SnelDB line-protocol port.
	DefaultTCPPort = 8086
)
