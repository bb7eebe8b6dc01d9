// Package channel implements the local IPC transport: Unix domain sockets and
// FIFO pairs on Unix, named pipes on Windows, all with newline framing.
package channel

import (
	"bufio"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/transport"
)

// link is a connected endpoint: where requests go, where responses come from
// and what to release on Close. A nil reader is opened by openReader once the
// request has been written.
type link struct {
	reader     io.Reader
	writer     io.Writer
	openReader func(ctx context.Context) (io.ReadCloser, error)

	mux     sync.Mutex
	closers []io.Closer
	closed  bool
}

// track registers a closer; it is closed right away when the link is already closed.
func (l *link) track(closer io.Closer) bool {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.closed {
		_ = closer.Close()
		return false
	}
	l.closers = append(l.closers, closer)
	return true
}

func (l *link) close() {
	l.mux.Lock()
	defer l.mux.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for _, closer := range l.closers {
		_ = closer.Close()
	}
}

// Connector talks to a backend listening on a local channel.
type Connector struct {
	address string
	logger  zerolog.Logger
	link    *link
	reader  *bufio.Reader
	closed  bool
}

// Address returns the normalized channel address.
func (c *Connector) Address() string {
	return c.address
}

// Connect dials the channel, failing fast when nothing listens on it.
func (c *Connector) Connect(ctx context.Context) error {
	if c.link != nil {
		return nil
	}
	if c.closed {
		return transport.NewError(transport.ConnectFailed, transport.NameChannel, "connect", errors.New("connector closed"))
	}
	aLink, err := dial(ctx, c.address)
	if err != nil {
		return transport.NewError(transport.ConnectFailed, transport.NameChannel, "connect", err)
	}
	c.link = aLink
	if aLink.reader != nil {
		c.reader = bufio.NewReaderSize(aLink.reader, 64*1024)
	}
	c.logger.Debug().Str("address", c.address).Msg("connected")
	return nil
}

// Send writes the request line and blocks until the response line arrives.
func (c *Connector) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	data, err := transport.EncodeRequest(request)
	if err != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameChannel, "send", err)
	}
	// closing the descriptors is the only way to unblock a pending read
	stop := context.AfterFunc(ctx, c.link.close)
	defer stop()

	response, err := c.exchange(ctx, data)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameChannel, "send", ctxErr)
	}
	return response, err
}

func (c *Connector) exchange(ctx context.Context, data []byte) (*jsonrpc.Response, error) {
	if err := transport.WriteLine(c.link.writer, data); err != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameChannel, "send", err)
	}
	if c.reader == nil {
		reader, err := c.link.openReader(ctx)
		if err != nil {
			return nil, transport.NewError(transport.ConnectFailed, transport.NameChannel, "receive", err)
		}
		if !c.link.track(reader) {
			return nil, transport.NewError(transport.ConnectFailed, transport.NameChannel, "receive", errors.New("channel closed"))
		}
		c.reader = bufio.NewReaderSize(reader, 64*1024)
	}
	for {
		line, err := transport.ReadLine(c.reader)
		switch {
		case errors.Is(err, io.EOF):
			return nil, transport.NewError(transport.ConnectFailed, transport.NameChannel, "receive", errors.New("peer closed the channel before responding"))
		case errors.Is(err, transport.ErrLineTooLong):
			return nil, transport.NewError(transport.MalformedResponse, transport.NameChannel, "receive", err)
		case err != nil:
			return nil, transport.NewError(transport.SendFailed, transport.NameChannel, "receive", err)
		}
		response, err := transport.DecodeResponse(line)
		if errors.Is(err, transport.ErrNotResponse) {
			c.logger.Debug().Bytes("message", line).Msg("skipping notification")
			continue
		}
		if err != nil {
			return nil, transport.NewError(transport.MalformedResponse, transport.NameChannel, "receive", err)
		}
		return response, nil
	}
}

// Notify writes a one-way message line.
func (c *Connector) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	data, err := transport.EncodeNotification(notification)
	if err != nil {
		return transport.NewError(transport.SendFailed, transport.NameChannel, "notify", err)
	}
	if err := transport.WriteLine(c.link.writer, data); err != nil {
		return transport.NewError(transport.SendFailed, transport.NameChannel, "notify", err)
	}
	return nil
}

// Close releases the descriptors; the endpoint itself is left in place.
func (c *Connector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.link != nil {
		c.link.close()
	}
	return nil
}

// Option configures a Connector.
type Option func(c *Connector)

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// New creates a Connector for a channel path, normalized for the current platform.
func New(address string, options ...Option) *Connector {
	ret := &Connector{address: Normalize(address), logger: zerolog.Nop()}
	for _, option := range options {
		option(ret)
	}
	ret.logger = ret.logger.With().Str("transport", transport.NameChannel).Logger()
	return ret
}
