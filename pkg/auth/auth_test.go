package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneldb/sneldb.go/internal/mock"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

func hmacHex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestComputeSignatureDeterministic(t *testing.T) {
	m := NewManager("user-1", "s3cret", nil)

	first, err := m.ComputeSignature("QUERY orders")
	require.NoError(t, err)
	second, err := m.ComputeSignature("QUERY orders")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, hmacHex("s3cret", "QUERY orders"), first)

	// Changing either input changes the signature.
	other, err := m.ComputeSignature("QUERY users")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	otherSecret := NewManager("user-1", "different", nil)
	changed, err := otherSecret.ComputeSignature("QUERY orders")
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestComputeSignatureTrimsMessage(t *testing.T) {
	m := NewManager("user-1", "s3cret", nil)
	trimmed, err := m.ComputeSignature("QUERY orders")
	require.NoError(t, err)
	padded, err := m.ComputeSignature("  QUERY orders \n")
	require.NoError(t, err)
	assert.Equal(t, trimmed, padded)
}

func TestComputeSignatureWithoutSecret(t *testing.T) {
	m := NewManager("user-1", "", nil)
	_, err := m.ComputeSignature("QUERY orders")

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestFormatCommandPrecedence(t *testing.T) {
	command := "QUERY orders"
	signature := hmacHex("s3cret", command)

	t.Run("no credentials passes through", func(t *testing.T) {
		m := NewManager("", "", nil)
		formatted, err := m.FormatCommand("  "+command+"  ", transport.KindTCP)
		require.NoError(t, err)
		assert.Equal(t, command, formatted)
	})

	t.Run("credentials prepend user and signature", func(t *testing.T) {
		m := NewManager("user-1", "s3cret", nil)
		formatted, err := m.FormatCommand(command, transport.KindTCP)
		require.NoError(t, err)
		assert.Equal(t, "user-1:"+signature+":"+command, formatted)
	})

	t.Run("active session appends token", func(t *testing.T) {
		m := NewManager("user-1", "s3cret", nil)
		m.session = session{token: "tok-1", user: "user-1"}
		formatted, err := m.FormatCommand(command, transport.KindTCP)
		require.NoError(t, err)
		assert.Equal(t, command+" TOKEN tok-1", formatted)
	})

	t.Run("cleared session falls back to signature only", func(t *testing.T) {
		m := NewManager("user-1", "s3cret", nil)
		m.session = session{user: "user-1"}
		formatted, err := m.FormatCommand(command, transport.KindTCP)
		require.NoError(t, err)
		assert.Equal(t, signature+":"+command, formatted)
	})

	t.Run("http never embeds auth", func(t *testing.T) {
		m := NewManager("user-1", "s3cret", nil)
		m.session = session{token: "tok-1", user: "user-1"}
		formatted, err := m.FormatCommand(command, transport.KindHTTP)
		require.NoError(t, err)
		assert.Equal(t, command, formatted)
	})
}

func TestAddHTTPHeaders(t *testing.T) {
	t.Run("without credentials headers pass through", func(t *testing.T) {
		m := NewManager("", "", nil)
		headers, err := m.AddHTTPHeaders("QUERY orders", map[string]string{"X-Trace": "1"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"X-Trace": "1"}, headers)
	})

	t.Run("with credentials auth headers are injected", func(t *testing.T) {
		m := NewManager("user-1", "s3cret", nil)
		headers, err := m.AddHTTPHeaders("QUERY orders", map[string]string{"X-Trace": "1"})
		require.NoError(t, err)
		assert.Equal(t, "user-1", headers["X-Auth-User"])
		assert.Equal(t, hmacHex("s3cret", "QUERY orders"), headers["X-Auth-Signature"])
		assert.Equal(t, "1", headers["X-Trace"])
	})
}

func TestAuthenticateSuccess(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 200, Body: []byte("200 OK TOKEN tok-42 extra"), Headers: map[string]string{}},
	}

	m := NewManager("user-1", "s3cret", nil)
	token, err := m.Authenticate(context.Background(), tr)
	require.NoError(t, err)
	assert.Equal(t, "tok-42", token)
	assert.Equal(t, "tok-42", m.SessionToken())

	require.Len(t, tr.Commands, 1)
	assert.Equal(t, "AUTH user-1:"+hmacHex("s3cret", "user-1"), tr.Commands[0])
}

func TestAuthenticateFailureStatus(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 401, Body: []byte("401 Unauthorized"), Headers: map[string]string{}},
	}

	m := NewManager("user-1", "s3cret", nil)
	_, err := m.Authenticate(context.Background(), tr)

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, m.SessionToken())
}

func TestAuthenticateUnexpectedBody(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 200, Body: []byte("200 OK but no token here"), Headers: map[string]string{}},
	}

	m := NewManager("user-1", "s3cret", nil)
	_, err := m.Authenticate(context.Background(), tr)

	var connErr *errs.ConnectionError
	require.ErrorAs(t, err, &connErr)
}

func TestAuthenticateRequiresSocketTransport(t *testing.T) {
	m := NewManager("user-1", "s3cret", nil)
	_, err := m.Authenticate(context.Background(), mock.New(transport.KindHTTP))

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)

	_, err = m.Authenticate(context.Background(), mock.New(transport.KindWebSocket))
	require.ErrorAs(t, err, &authErr)
}

func TestAuthenticateRequiresCredentials(t *testing.T) {
	m := NewManager("user-1", "", nil)
	_, err := m.Authenticate(context.Background(), mock.New(transport.KindTCP))

	var authErr *errs.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestClearResetsSession(t *testing.T) {
	m := NewManager("user-1", "s3cret", nil)
	m.session = session{token: "tok-1", user: "user-1"}

	m.Clear()
	assert.Empty(t, m.SessionToken())

	formatted, err := m.FormatCommand("QUERY orders", transport.KindTCP)
	require.NoError(t, err)
	assert.NotContains(t, formatted, "TOKEN")
}
