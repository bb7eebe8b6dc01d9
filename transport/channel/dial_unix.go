//go:build !windows

package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// ResponseSuffix names the FIFO a backend answers on, next to its request FIFO.
const ResponseSuffix = ".out"

func dial(ctx context.Context, address string) (*link, error) {
	info, err := os.Stat(address)
	if err != nil {
		return nil, err
	}
	switch mode := info.Mode(); {
	case mode&os.ModeSocket != 0:
		conn, err := (&net.Dialer{}).DialContext(ctx, "unix", address)
		if err != nil {
			return nil, err
		}
		return &link{reader: conn, writer: conn, closers: []io.Closer{conn}}, nil
	case mode&os.ModeNamedPipe != 0:
		return dialFIFO(address)
	}
	return nil, fmt.Errorf("%s is neither a socket nor a fifo", address)
}

// dialFIFO opens a FIFO pair: requests go to address, responses come from
// address+ResponseSuffix. The response end is opened read-only after the
// request is written, so a backend that closes it without answering yields EOF.
func dialFIFO(address string) (*link, error) {
	responses := address + ResponseSuffix
	info, err := os.Stat(responses)
	if err != nil {
		return nil, fmt.Errorf("response fifo: %w", err)
	}
	if info.Mode()&os.ModeNamedPipe == 0 {
		return nil, fmt.Errorf("%s is not a fifo", responses)
	}
	// non blocking open fails with ENXIO instead of hanging when no backend reads
	writer, err := os.OpenFile(address, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, unix.ENXIO) {
			return nil, fmt.Errorf("no reader on %s: %w", address, err)
		}
		return nil, err
	}
	return &link{
		writer:  writer,
		closers: []io.Closer{writer},
		openReader: func(ctx context.Context) (io.ReadCloser, error) {
			return openResponses(ctx, responses)
		},
	}, nil
}

// openResponses blocks until the backend opens its write end of path or ctx ends.
func openResponses(ctx context.Context, path string) (io.ReadCloser, error) {
	type opened struct {
		file *os.File
		err  error
	}
	done := make(chan opened, 1)
	go func() {
		file, err := os.OpenFile(path, os.O_RDONLY, 0)
		done <- opened{file: file, err: err}
	}()
	select {
	case result := <-done:
		if result.err != nil {
			return nil, result.err
		}
		return result.file, nil
	case <-ctx.Done():
	}
	// a short lived writer releases the pending open
	for {
		if unblock, err := os.OpenFile(path, os.O_WRONLY|unix.O_NONBLOCK, 0); err == nil {
			_ = unblock.Close()
		}
		select {
		case result := <-done:
			if result.file != nil {
				_ = result.file.Close()
			}
			return nil, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
