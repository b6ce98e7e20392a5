package sneldb

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sneldb/sneldb.go/internal/mock"
	"github.com/sneldb/sneldb.go/pkg/errs"
	"github.com/sneldb/sneldb.go/pkg/transport"
)

func sign(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.TrimSpace(message)))
	return hex.EncodeToString(mac.Sum(nil))
}

func newMockClient(t *testing.T, tr *mock.Transport, user, secret string) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL:   "tcp://localhost:8086",
		UserID:    user,
		SecretKey: secret,
		Transport: tr,
	})
	require.NoError(t, err)
	return client
}

func TestNewSelectsTransportByScheme(t *testing.T) {
	tests := []struct {
		baseURL string
		want    transport.Kind
	}{
		{"http://localhost:8085", transport.KindHTTP},
		{"https://db.example.com", transport.KindHTTP},
		{"localhost:8085", transport.KindHTTP},
		{"tcp://localhost:8086", transport.KindTCP},
		{"tls://db.example.com:8086", transport.KindTCP},
		{"ws://localhost:8087/ws", transport.KindWebSocket},
		{"unix:///var/run/sneldb.sock", transport.KindUnix},
	}
	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			client, err := New(Config{BaseURL: tt.baseURL})
			require.NoError(t, err)
			defer client.Close()
			assert.Equal(t, tt.want, client.transport.Kind())
		})
	}
}

func TestNewRejectsUnsupportedScheme(t *testing.T) {
	_, err := New(Config{BaseURL: "ftp://localhost"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestExecuteNormalizesSuccess(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 200, Body: []byte("200 OK\nID|NAME\n1|Alice"), Headers: map[string]string{}},
	}
	client := newMockClient(t, tr, "", "")

	records, err := client.Execute(context.Background(), "QUERY users")
	require.NoError(t, err)
	require.Len(t, records, 1)
	name, ok := records[0].Get("name")
	require.True(t, ok)
	assert.Equal(t, "Alice", name)
}

func TestExecuteEmptySuccess(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 200, Body: []byte("200 OK"), Headers: map[string]string{}},
	}
	client := newMockClient(t, tr, "", "")

	records, err := client.Execute(context.Background(), "STORE order FOR ctx-1")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestExecuteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		target any
	}{
		{"bad command", 400, new(*errs.CommandError)},
		{"method not allowed", 405, new(*errs.CommandError)},
		{"unauthenticated", 401, new(*errs.AuthenticationError)},
		{"forbidden", 403, new(*errs.AuthorizationError)},
		{"not found", 404, new(*errs.NotFoundError)},
		{"server fault", 500, new(*errs.ServerError)},
		{"unavailable", 503, new(*errs.ServerError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mock.New(transport.KindTCP)
			tr.Responses = []*transport.Response{
				{Status: tt.status, Body: []byte(`{"message":"nope"}`), Headers: map[string]string{}},
			}
			client := newMockClient(t, tr, "", "")

			_, err := client.Execute(context.Background(), "QUERY users")
			require.Error(t, err)
			require.ErrorAs(t, err, tt.target)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestExecuteUnexpectedStatus(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Responses = []*transport.Response{
		{Status: 418, Body: []byte("odd"), Headers: map[string]string{}},
	}
	client := newMockClient(t, tr, "", "")

	_, err := client.Execute(context.Background(), "QUERY users")
	var connErr *errs.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Message, "418")
}

func TestSessionLifecycle(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	tr.Handler = func(command string, _ map[string]string) (*transport.Response, error) {
		if strings.HasPrefix(command, "AUTH ") {
			return &transport.Response{Status: 200, Body: []byte("200 OK TOKEN tok-9"), Headers: map[string]string{}}, nil
		}
		return &transport.Response{Status: 200, Body: []byte("200 OK"), Headers: map[string]string{}}, nil
	}
	client := newMockClient(t, tr, "user-1", "s3cret")

	// Before AUTH each command carries user and per-command signature.
	_, err := client.Execute(context.Background(), "QUERY users")
	require.NoError(t, err)
	assert.Equal(t, "user-1:"+sign("s3cret", "QUERY users")+":QUERY users", tr.Commands[0])

	token, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)
	assert.Equal(t, "AUTH user-1:"+sign("s3cret", "user-1"), tr.Commands[1])

	// With a session, the token replaces the signature.
	_, err = client.Execute(context.Background(), "QUERY users")
	require.NoError(t, err)
	assert.Equal(t, "QUERY users TOKEN tok-9", tr.Commands[2])

	// Clearing the session reverts to signatures.
	client.ClearSession()
	_, err = client.Execute(context.Background(), "QUERY users")
	require.NoError(t, err)
	assert.Equal(t, "user-1:"+sign("s3cret", "QUERY users")+":QUERY users", tr.Commands[3])
}

func TestExecuteHTTPHeaders(t *testing.T) {
	tr := mock.New(transport.KindHTTP)
	tr.Responses = []*transport.Response{
		{Status: 200, Body: []byte(`[]`), Headers: map[string]string{}},
	}
	client, err := New(Config{
		BaseURL:        "http://localhost:8085",
		UserID:         "user-1",
		SecretKey:      "s3cret",
		Transport:      tr,
		DefaultHeaders: map[string]string{"X-Trace": "abc"},
	})
	require.NoError(t, err)

	_, err = client.Execute(context.Background(), "QUERY users")
	require.NoError(t, err)

	// The command itself stays unsigned over HTTP; auth rides in headers.
	assert.Equal(t, "QUERY users", tr.Commands[0])
	headers := tr.Headers[0]
	assert.Equal(t, "abc", headers["X-Trace"])
	assert.Equal(t, "user-1", headers["X-Auth-User"])
	assert.Equal(t, sign("s3cret", "QUERY users"), headers["X-Auth-Signature"])
}

func TestCloseReleasesTransport(t *testing.T) {
	tr := mock.New(transport.KindTCP)
	client := newMockClient(t, tr, "", "")
	require.NoError(t, client.Close())
	assert.Equal(t, 1, tr.Closed)
}
