package mcpproxy

import (
	"context"
	"encoding/json"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/transport"
)

// mockConnector records lifecycle calls and returns canned outcomes.
type mockConnector struct {
	connectErr    error
	send          func(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error)
	notified      []*jsonrpc.Notification
	connects      int
	sends         int
	closes        int
	closedInOrder bool
}

func (m *mockConnector) Connect(ctx context.Context) error {
	m.connects++
	return m.connectErr
}

func (m *mockConnector) Send(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
	m.sends++
	return m.send(ctx, r)
}

func (m *mockConnector) Notify(ctx context.Context, n *jsonrpc.Notification) error {
	m.notified = append(m.notified, n)
	return nil
}

func (m *mockConnector) Close() error {
	m.closes++
	m.closedInOrder = m.connects > 0
	return nil
}

var _ transport.Connector = (*mockConnector)(nil)

func echoConnector() *mockConnector {
	return &mockConnector{send: func(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
		return &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: r.Id, Result: json.RawMessage(`{"content":[{"type":"text","text":"it\\u0027s \\u003Cok\\u003E"}]}`)}, nil
	}}
}

func TestTranslator_InitializeIsLocal(t *testing.T) {
	connector := echoConnector()
	translator := NewTranslator(connector)

	envelope, err := translator.Translate(context.Background(), []byte(`{"jsonrpc":"2.0","id":5,"method":"initialize","params":{"protocolVersion":"2025-06-18"}}`))
	require.NoError(t, err)
	require.NotNil(t, envelope)
	data, err := json.Marshal(envelope.Response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":5,"result":{"protocolVersion":"2024-11-05","capabilities":{"tools":{"listChanged":true},"logging":{}},"serverInfo":{"name":"mcp-proxy-tool","version":"1.0.0"}}}`, string(data))

	assert.Equal(t, 0, connector.connects)
	assert.Equal(t, 0, connector.sends)
	assert.Equal(t, 0, connector.closes)
	assert.Equal(t, Unrouted, translator.State())
}

func TestTranslator_InitializeProtocolVersion(t *testing.T) {
	translator := NewTranslator(echoConnector(), WithProtocolVersion("2025-03-26"))
	envelope, err := translator.Translate(context.Background(), []byte(`{"method":"initialize","params":{}}`))
	require.NoError(t, err)
	result, ok := envelope.Response.Result()
	require.True(t, ok)
	assert.Contains(t, string(result), `"protocolVersion":"2025-03-26"`)
}

func TestTranslator_InitializedProducesNothing(t *testing.T) {
	connector := echoConnector()
	translator := NewTranslator(connector)
	envelope, err := translator.Translate(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	assert.NoError(t, err)
	assert.Nil(t, envelope)
	assert.Equal(t, 0, connector.connects)
	assert.Empty(t, connector.notified)
}

func TestTranslator_Forward(t *testing.T) {
	connector := echoConnector()
	translator := NewTranslator(connector)

	envelope, err := translator.Translate(context.Background(), []byte(`{"method":"tools/call","params":{"name":"search"}}`))
	require.NoError(t, err)
	require.NotNil(t, envelope)
	assert.Equal(t, DefaultRequestID, envelope.Request.Id)
	assert.Equal(t, "tools/call", envelope.Request.Method)
	result, ok := envelope.Response.Result()
	require.True(t, ok)
	assert.JSONEq(t, `{"content":[{"type":"text","text":"it's <ok>"}]}`, string(result))

	assert.Equal(t, 1, connector.connects)
	assert.Equal(t, 1, connector.sends)
	assert.Equal(t, 1, connector.closes)
	assert.True(t, connector.closedInOrder)
	assert.Equal(t, Routed, translator.State())

	_, err = translator.Translate(context.Background(), []byte(`{"method":"tools/list"}`))
	assert.ErrorIs(t, err, ErrAlreadyRouted)
	assert.Equal(t, 1, connector.sends)
}

func TestTranslator_BackendErrorIsForwarded(t *testing.T) {
	connector := &mockConnector{send: func(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
		return &jsonrpc.Response{Jsonrpc: jsonrpc.Version, Id: r.Id, Error: &jsonrpc.Error{Code: -32601, Message: "Method not found: bogus"}}, nil
	}}
	envelope, err := NewTranslator(connector).Translate(context.Background(), []byte(`{"method":"bogus","params":{}}`))
	require.NoError(t, err)
	require.True(t, envelope.Response.IsError())
	assert.EqualValues(t, -32601, envelope.Response.RPCError().Code)
	_, ok := envelope.Response.Result()
	assert.False(t, ok)
}

func TestTranslator_TransportFailures(t *testing.T) {
	var testCases = []struct {
		description string
		connector   *mockConnector
		expectKind  transport.Kind
		expectSends int
	}{
		{
			description: "connect failed",
			connector: &mockConnector{
				connectErr: transport.NewError(transport.ConnectFailed, transport.NameChannel, "connect", syscall.ECONNREFUSED),
			},
			expectKind: transport.ConnectFailed,
		},
		{
			description: "timeout",
			connector: &mockConnector{send: func(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
				return nil, transport.NewError(transport.Timeout, transport.NameHTTP, "send", context.DeadlineExceeded)
			}},
			expectKind:  transport.Timeout,
			expectSends: 1,
		},
		{
			description: "malformed",
			connector: &mockConnector{send: func(ctx context.Context, r *jsonrpc.Request) (*jsonrpc.Response, error) {
				return nil, transport.NewError(transport.MalformedResponse, transport.NameStdio, "receive", errors.New("bad line"))
			}},
			expectKind:  transport.MalformedResponse,
			expectSends: 1,
		},
	}
	for _, testCase := range testCases {
		envelope, err := NewTranslator(testCase.connector).Translate(context.Background(), []byte(`{"method":"tools/list"}`))
		assert.Nil(t, envelope, testCase.description)
		assert.ErrorIs(t, err, testCase.expectKind, testCase.description)
		assert.Equal(t, testCase.expectSends, testCase.connector.sends, testCase.description)
		assert.Equal(t, 1, testCase.connector.closes, testCase.description)
	}
}

func TestTranslator_InputParseError(t *testing.T) {
	connector := echoConnector()
	envelope, err := NewTranslator(connector).Translate(context.Background(), []byte(`{"method":`))
	assert.Nil(t, envelope)
	assert.ErrorIs(t, err, ErrInputParse)
	assert.Equal(t, 0, connector.connects)
}

func TestTranslator_NotificationIsForwarded(t *testing.T) {
	connector := echoConnector()
	envelope, err := NewTranslator(connector).Translate(context.Background(), []byte(`{"method":"notifications/cancelled","params":{"requestId":1}}`))
	require.NoError(t, err)
	assert.Nil(t, envelope)
	require.Len(t, connector.notified, 1)
	assert.Equal(t, "notifications/cancelled", connector.notified[0].Method)
	assert.Equal(t, 0, connector.sends)
	assert.Equal(t, 1, connector.closes)
}

func TestTranslator_UnknownLocalMethod(t *testing.T) {
	translator := NewTranslator(echoConnector())
	delete(translator.handlers, "initialize")
	_, err := translator.Translate(context.Background(), []byte(`{"method":"initialize"}`))
	assert.ErrorIs(t, err, ErrUnknownLocalMethod)
}
