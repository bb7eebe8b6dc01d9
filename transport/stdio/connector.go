// Package stdio implements the subprocess transport: newline delimited JSON-RPC
// over the standard input and output of a spawned MCP server.
package stdio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcpproxy/transport"
	"golang.org/x/sync/errgroup"
)

// DefaultGracePeriod is how long Close waits for a child to exit on its own.
const DefaultGracePeriod = 2 * time.Second

// Connector owns one child process and both of its protocol pipes.
type Connector struct {
	command string
	args    []string
	env     []string
	dir     string
	grace   time.Duration
	stderr  io.Writer
	logger  zerolog.Logger

	cmd     *exec.Cmd
	stdin   *os.File
	stdout  *os.File
	reader  *bufio.Reader
	exited  chan struct{}
	waitErr error
	closed  bool
}

// Connect spawns the child. Its stderr is passed through untouched.
func (c *Connector) Connect(ctx context.Context) error {
	if c.cmd != nil {
		return nil
	}
	if c.closed {
		return transport.NewError(transport.ConnectFailed, transport.NameStdio, "connect", errors.New("connector closed"))
	}
	stdinReader, stdinWriter, err := os.Pipe()
	if err != nil {
		return transport.NewError(transport.ConnectFailed, transport.NameStdio, "connect", fmt.Errorf("stdin pipe: %w", err))
	}
	stdoutReader, stdoutWriter, err := os.Pipe()
	if err != nil {
		closeAll(stdinReader, stdinWriter)
		return transport.NewError(transport.ConnectFailed, transport.NameStdio, "connect", fmt.Errorf("stdout pipe: %w", err))
	}

	cmd := exec.Command(c.command, c.args...)
	cmd.Stdin = stdinReader
	cmd.Stdout = stdoutWriter
	cmd.Stderr = c.stderr
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	if err := cmd.Start(); err != nil {
		closeAll(stdinReader, stdinWriter, stdoutReader, stdoutWriter)
		return transport.NewError(transport.ConnectFailed, transport.NameStdio, "connect", fmt.Errorf("start %s: %w", c.command, err))
	}
	// child side ends belong to the child now
	closeAll(stdinReader, stdoutWriter)

	c.cmd = cmd
	c.stdin = stdinWriter
	c.stdout = stdoutReader
	c.reader = bufio.NewReaderSize(stdoutReader, 64*1024)
	c.exited = make(chan struct{})
	go func() {
		c.waitErr = cmd.Wait()
		close(c.exited)
	}()
	c.logger.Debug().Str("command", c.command).Int("pid", cmd.Process.Pid).Msg("started process")
	return nil
}

// Send writes the request line and reads the response line concurrently, so a
// child that answers before draining its input cannot block the exchange.
func (c *Connector) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	data, err := transport.EncodeRequest(request)
	if err != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameStdio, "send", err)
	}
	stop := context.AfterFunc(ctx, c.kill)
	defer stop()

	var response *jsonrpc.Response
	var writeErr error
	group := &errgroup.Group{}
	group.Go(func() error {
		if writeErr = transport.WriteLine(c.stdin, data); writeErr != nil {
			c.kill()
		}
		return nil
	})
	group.Go(func() error {
		var err error
		if response, err = c.readResponse(); err != nil {
			// unblocks a writer stuck on a child that stopped reading
			c.kill()
		}
		return err
	})
	readErr := group.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, transport.NewError(transport.SendFailed, transport.NameStdio, "send", ctxErr)
	}
	switch {
	case writeErr != nil && (readErr == nil || !errors.Is(writeErr, syscall.EPIPE)):
		return nil, transport.NewError(transport.SendFailed, transport.NameStdio, "send", writeErr)
	case readErr != nil:
		return nil, readErr
	}
	return response, nil
}

// Notify writes a one-way message line.
func (c *Connector) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	if err := c.ensureConnected(ctx); err != nil {
		return err
	}
	data, err := transport.EncodeNotification(notification)
	if err != nil {
		return transport.NewError(transport.SendFailed, transport.NameStdio, "notify", err)
	}
	if err := transport.WriteLine(c.stdin, data); err != nil {
		return transport.NewError(transport.SendFailed, transport.NameStdio, "notify", err)
	}
	return nil
}

// Close ends the child's input, waits up to the grace period, then kills and
// reaps it. It is safe to call more than once and before Connect.
func (c *Connector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cmd == nil {
		return nil
	}
	_ = c.stdin.Close()
	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-c.exited:
	case <-timer.C:
		c.logger.Warn().Dur("grace", c.grace).Msg("process did not exit, killing")
		c.kill()
		<-c.exited
	}
	_ = c.stdout.Close()
	if c.waitErr != nil {
		c.logger.Debug().Err(c.waitErr).Msg("process exited")
	}
	return nil
}

func (c *Connector) ensureConnected(ctx context.Context) error {
	if c.closed {
		return transport.NewError(transport.ConnectFailed, transport.NameStdio, "send", errors.New("connector closed"))
	}
	return c.Connect(ctx)
}

// readResponse returns the first response line, skipping notifications the
// child emits before it.
func (c *Connector) readResponse() (*jsonrpc.Response, error) {
	for {
		line, err := transport.ReadLine(c.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, transport.NewError(transport.ConnectFailed, transport.NameStdio, "receive", c.exitCause())
			}
			if errors.Is(err, transport.ErrLineTooLong) {
				return nil, transport.NewError(transport.MalformedResponse, transport.NameStdio, "receive", err)
			}
			return nil, transport.NewError(transport.SendFailed, transport.NameStdio, "receive", err)
		}
		response, err := transport.DecodeResponse(line)
		if errors.Is(err, transport.ErrNotResponse) {
			c.logger.Debug().Bytes("message", line).Msg("skipping notification")
			continue
		}
		if err != nil {
			return nil, transport.NewError(transport.MalformedResponse, transport.NameStdio, "receive", err)
		}
		return response, nil
	}
}

// exitCause describes a child that closed its output without answering.
func (c *Connector) exitCause() error {
	timer := time.NewTimer(100 * time.Millisecond)
	defer timer.Stop()
	select {
	case <-c.exited:
		if c.waitErr != nil {
			return fmt.Errorf("process exited before responding: %w", c.waitErr)
		}
		return errors.New("process exited before responding")
	case <-timer.C:
		return errors.New("process closed stdout before responding")
	}
}

func (c *Connector) kill() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
}

func closeAll(files ...*os.File) {
	for _, file := range files {
		_ = file.Close()
	}
}

// New creates a Connector for command.
func New(command string, args []string, options ...Option) *Connector {
	ret := &Connector{
		command: command,
		args:    args,
		grace:   DefaultGracePeriod,
		stderr:  os.Stderr,
		logger:  zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	ret.logger = ret.logger.With().Str("transport", transport.NameStdio).Logger()
	return ret
}
