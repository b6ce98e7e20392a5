// Package mock provides an in-memory Transport for facade and auth tests.
package mock

import (
	"context"

	"github.com/sneldb/sneldb.go/pkg/transport"
)

// Transport replays scripted responses and records every command it saw.
type Transport struct {
	TransportKind transport.Kind
	// Handler computes the response for a command. When nil, Responses is
	// consumed in order instead.
	Handler   func(command string, headers map[string]string) (*transport.Response, error)
	Responses []*transport.Response

	Commands []string
	Headers  []map[string]string
	Closed   int
}

func New(kind transport.Kind) *Transport {
	return &Transport{TransportKind: kind}
}

func (m *Transport) Execute(_ context.Context, command string, headers map[string]string) (*transport.Response, error) {
	m.Commands = append(m.Commands, command)
	m.Headers = append(m.Headers, headers)
	if m.Handler != nil {
		return m.Handler(command, headers)
	}
	if len(m.Responses) == 0 {
		return &transport.Response{Status: 200, Body: nil, Headers: map[string]string{}}, nil
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}

func (m *Transport) Close() error {
	m.Closed++
	return nil
}

func (m *Transport) Kind() transport.Kind { return m.TransportKind }
