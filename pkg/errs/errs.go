// Package errs defines the error types the client returns. Callers branch on
// the concrete type with errors.As; the string form always starts with
// "sneldb:" so logs stay attributable.
package errs

import "fmt"

// message renders "sneldb: <kind>: <msg>", appending the cause when present.
func message(kind, msg string, err error) string {
	if err != nil {
		return fmt.Sprintf("sneldb: %s: %s: %v", kind, msg, err)
	}
	return fmt.Sprintf("sneldb: %s: %s", kind, msg)
}

// ConnectionError covers dial failures, timeouts, dropped connections and any
// response the client cannot attribute to the server's documented statuses.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string { return message("connection error", e.Message, e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthenticationError is returned for 401 responses, failed AUTH exchanges
// and attempts to sign without configured credentials.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return message("authentication failed", e.Message, nil) }

// AuthorizationError is returned for 403 responses.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return message("not authorized", e.Message, nil) }

// CommandError is returned for 400 and 405 responses: the server understood
// the request but rejected the command itself.
type CommandError struct {
	Message string
}

func (e *CommandError) Error() string { return message("command rejected", e.Message, nil) }

// NotFoundError is returned for 404 responses.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return message("not found", e.Message, nil) }

// ServerError is returned for 500 and 503 responses.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return message("server error", e.Message, nil) }

// ParseError reports a response body the normalizer could not decode.
type ParseError struct {
	Message string
	Err     error
}

func (e *ParseError) Error() string { return message("parse error", e.Message, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
