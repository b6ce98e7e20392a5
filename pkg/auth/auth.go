// Package auth signs outgoing commands and manages the session token
// obtained through the explicit AUTH exchange.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/logger"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

// tokenMarker precedes the session token in a successful AUTH response body.
const tokenMarker = "OK TOKEN "

// session is the manager's state: zero value means no session; a populated
// value means an AUTH exchange succeeded. It is always replaced as a whole.
type session struct {
	token string
	user  string
}

// Manager formats commands and headers according to the configured
// credentials. It belongs to exactly one client and is not safe for
// concurrent use.
type Manager struct {
	userID    string
	secretKey string
	logger    logger.Logger

	session session
}

func NewManager(userID, secretKey string, l logger.Logger) *Manager {
	return &Manager{
		userID:    userID,
		secretKey: secretKey,
		logger:    logger.OrNoOp(l),
	}
}

// HasCredentials reports whether both user id and secret key are configured.
func (m *Manager) HasCredentials() bool {
	return m.userID != "" && m.secretKey != ""
}

// SessionToken returns the cached token, or "" outside an active session.
func (m *Manager) SessionToken() string { return m.session.token }

// ComputeSignature returns the lowercase hex HMAC-SHA256 of the trimmed
// message, keyed by the secret. Signing without a configured secret is a
// configuration error, never silently skipped.
func (m *Manager) ComputeSignature(message string) (string, error) {
	if m.secretKey == "" {
		return "", &errs.AuthenticationError{Message: "secret key is not configured"}
	}
	mac := hmac.New(sha256.New, []byte(m.secretKey))
	mac.Write([]byte(strings.TrimSpace(message)))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// FormatCommand decorates a command for the given transport kind. HTTP
// carries credentials in headers, so the command passes through untouched.
// On socket kinds, precedence is: cached session token, then signature-only
// for a previously authenticated user, then user:signature, then plain.
func (m *Manager) FormatCommand(command string, kind transport.Kind) (string, error) {
	if !kind.Socket() {
		return command, nil
	}

	trimmed := strings.TrimSpace(command)
	if m.session.token != "" {
		m.logger.Trace("using cached session token")
		return fmt.Sprintf("%s TOKEN %s", trimmed, m.session.token), nil
	}
	if m.session.user != "" {
		signature, err := m.ComputeSignature(trimmed)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", signature, trimmed), nil
	}
	if m.HasCredentials() {
		signature, err := m.ComputeSignature(trimmed)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s:%s", m.userID, signature, trimmed), nil
	}
	return trimmed, nil
}

// AddHTTPHeaders merges the caller's headers with the auth headers computed
// over the unsigned command text. Without credentials the headers pass
// through unchanged.
func (m *Manager) AddHTTPHeaders(command string, headers map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(headers)+2)
	for name, value := range headers {
		merged[name] = value
	}
	if !m.HasCredentials() {
		return merged, nil
	}
	signature, err := m.ComputeSignature(command)
	if err != nil {
		return nil, err
	}
	merged["X-Auth-User"] = m.userID
	merged["X-Auth-Signature"] = signature
	return merged, nil
}

// Authenticate runs the explicit AUTH exchange over a stream-socket
// transport and caches the issued session token.
func (m *Manager) Authenticate(ctx context.Context, t transport.Transport) (string, error) {
	kind := t.Kind()
	if kind != transport.KindTCP && kind != transport.KindUnix {
		return "", &errs.AuthenticationError{Message: "AUTH is only supported for TCP/TLS and unix transports"}
	}
	if !m.HasCredentials() {
		return "", &errs.AuthenticationError{Message: "user id and secret key are required for AUTH"}
	}

	signature, err := m.ComputeSignature(m.userID)
	if err != nil {
		return "", err
	}
	command := fmt.Sprintf("AUTH %s:%s", m.userID, signature)
	m.logger.Info("issuing AUTH command", "user", m.userID)

	resp, err := t.Execute(ctx, command, nil)
	if err != nil {
		return "", err
	}
	body := string(resp.Body)
	if resp.Status != 200 {
		return "", &errs.AuthenticationError{Message: fmt.Sprintf("authentication failed: %s", body)}
	}

	token := extractToken(body)
	if token == "" {
		return "", &errs.ConnectionError{Message: fmt.Sprintf("unexpected AUTH response: %s", body)}
	}
	m.session = session{token: token, user: m.userID}
	return token, nil
}

// Clear drops the session, returning the manager to signature-based
// formatting on the next command.
func (m *Manager) Clear() {
	m.session = session{}
}

func extractToken(body string) string {
	idx := strings.Index(body, tokenMarker)
	if idx < 0 {
		return ""
	}
	fields := strings.Fields(body[idx+len(tokenMarker):])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
