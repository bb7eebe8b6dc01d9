// Package streamable implements the HTTP transport: one POST per exchange,
// answered either by a single JSON document or by an event stream.
package streamable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
	"github.com/viant/mcpproxy/transport"
	"github.com/viant/mcpproxy/transport/sse"
)

const (
	// DefaultTimeout bounds an exchange when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	contentTypeJSON        = "application/json"
	contentTypeEventStream = "text/event-stream"
	acceptHeader           = contentTypeJSON + ", " + contentTypeEventStream
	maxLoggedBody          = 4096
)

// Connector forwards requests to a remote MCP endpoint.
type Connector struct {
	endpoint        string
	timeout         time.Duration
	headers         http.Header
	protocolVersion string
	token           string
	oauth2ConfigURL string
	encryptionKey   string
	client          *http.Client
	logger          zerolog.Logger
	now             func() time.Time
}

// Connect prepares the http client; no network I/O happens before Send.
func (c *Connector) Connect(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	client, err := c.newHTTPClient(ctx)
	if err != nil {
		return transport.NewError(transport.ConnectFailed, transport.NameHTTP, "connect", err)
	}
	c.client = client
	return nil
}

// Send posts the request and waits for its response within the configured timeout.
func (c *Connector) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	body, err := transport.EncodeRequest(request)
	if err != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameHTTP, "send", err)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpResponse, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()
	return c.decode(ctx, httpResponse)
}

// Notify posts a one-way message; any 2xx status is accepted.
func (c *Connector) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	body, err := transport.EncodeNotification(notification)
	if err != nil {
		return transport.NewError(transport.SendFailed, transport.NameHTTP, "notify", err)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	httpResponse, err := c.post(ctx, body)
	if err != nil {
		return err
	}
	defer httpResponse.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(httpResponse.Body, maxLoggedBody))
	if !isSuccess(httpResponse.StatusCode) {
		return transport.NewError(transport.SendFailed, transport.NameHTTP, "notify",
			fmt.Errorf("unexpected status %d: %s", httpResponse.StatusCode, bytes.TrimSpace(data)))
	}
	return nil
}

// Close releases idle connections.
func (c *Connector) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

func (c *Connector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Connector) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, transport.NewError(transport.ConnectFailed, transport.NameHTTP, "connect", err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			httpRequest.Header.Add(key, value)
		}
	}
	httpRequest.Header.Set("Content-Type", contentTypeJSON)
	httpRequest.Header.Set("Accept", acceptHeader)
	httpRequest.Header.Set("MCP-Protocol-Version", c.protocolVersion)
	c.logger.Debug().Str("endpoint", c.endpoint).Int("bytes", len(body)).Msg("posting request")

	httpResponse, err := c.client.Do(httpRequest)
	if err != nil {
		return nil, c.classify(ctx, "send", err)
	}
	return httpResponse, nil
}

// classify maps a request or body read failure onto the transport taxonomy.
func (c *Connector) classify(ctx context.Context, op string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return transport.NewError(transport.Timeout, transport.NameHTTP, op, fmt.Errorf("no response within %s: %w", c.timeout, context.DeadlineExceeded))
	}
	var opError *net.OpError
	if errors.As(err, &opError) && opError.Op == "dial" {
		return transport.NewError(transport.ConnectFailed, transport.NameHTTP, "connect", err)
	}
	return transport.NewError(transport.SendFailed, transport.NameHTTP, op, err)
}

func (c *Connector) decode(ctx context.Context, httpResponse *http.Response) (*jsonrpc.Response, error) {
	if !isSuccess(httpResponse.StatusCode) {
		data, err := io.ReadAll(httpResponse.Body)
		if err != nil {
			return nil, c.classify(ctx, "receive", err)
		}
		response, decodeErr := c.decodeBody(ctx, data)
		if decodeErr != nil {
			return nil, transport.NewError(transport.SendFailed, transport.NameHTTP, "send",
				fmt.Errorf("unexpected status %d: %s", httpResponse.StatusCode, truncate(data)))
		}
		c.logger.Warn().Int("status", httpResponse.StatusCode).
			Str("body", truncate(data)).Msg("backend returned error status")
		return response, nil
	}
	if isEventStream(httpResponse.Header.Get("Content-Type")) {
		return c.readEvents(ctx, httpResponse.Body)
	}
	data, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, c.classify(ctx, "receive", err)
	}
	return c.decodeBody(ctx, data)
}

// decodeBody parses a fully buffered body, sniffing event streams served with a
// non event-stream content type.
func (c *Connector) decodeBody(ctx context.Context, data []byte) (*jsonrpc.Response, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, transport.NewError(transport.MalformedResponse, transport.NameHTTP, "receive", errors.New("empty response body"))
	}
	if sse.IsEventStream(string(data)) {
		return c.readEvents(ctx, bytes.NewReader(data))
	}
	response, err := transport.DecodeResponse(data)
	if err != nil {
		return nil, transport.NewError(transport.MalformedResponse, transport.NameHTTP, "receive", err)
	}
	return response, nil
}

// readEvents returns the first event that decodes as a JSON-RPC response.
func (c *Connector) readEvents(ctx context.Context, r io.Reader) (*jsonrpc.Response, error) {
	decoder := sse.NewDecoder(r)
	for event, err := range decoder.Events() {
		if err != nil {
			return nil, c.classify(ctx, "receive", err)
		}
		response, err := decodeEvent(event)
		if err != nil {
			c.logger.Debug().Str("event", event.Type).Err(err).Msg("skipping event")
			continue
		}
		return response, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, c.classify(ctx, "receive", err)
	}
	return nil, transport.NewError(transport.MalformedResponse, transport.NameHTTP, "receive", errors.New("event stream ended without a response"))
}

func decodeEvent(event *sse.Event) (*jsonrpc.Response, error) {
	response, err := transport.DecodeResponse([]byte(event.Data()))
	if err == nil || errors.Is(err, transport.ErrNotResponse) || len(event.Lines) < 2 {
		return response, err
	}
	// payload split inside a token
	return transport.DecodeResponse([]byte(event.Concat()))
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mediaType, contentTypeEventStream)
}

func truncate(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) > maxLoggedBody {
		return string(data[:maxLoggedBody]) + "..."
	}
	return string(data)
}

// New creates a Connector for endpoint.
func New(endpoint string, options ...Option) *Connector {
	ret := &Connector{
		endpoint:        endpoint,
		timeout:         DefaultTimeout,
		headers:         make(http.Header),
		protocolVersion: schema.LatestProtocolVersion,
		logger:          zerolog.Nop(),
		now:             time.Now,
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = ret.logger.With().Str("transport", transport.NameHTTP).Logger()
	return ret
}
