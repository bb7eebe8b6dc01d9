package mcpproxy

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/mcpproxy/transport"
	"github.com/viant/mcpproxy/transport/channel"
	"github.com/viant/mcpproxy/transport/stdio"
	"github.com/viant/mcpproxy/transport/streamable"
)

// TargetKind names the selected backend variant.
type TargetKind string

const (
	TargetHTTP       TargetKind = transport.NameHTTP
	TargetSubprocess TargetKind = transport.NameStdio
	TargetChannel    TargetKind = transport.NameChannel
)

// Target selects exactly one backend for a run.
type Target struct {
	Kind       TargetKind
	HTTP       *HTTPTarget
	Subprocess *SubprocessTarget
	Channel    *ChannelTarget
}

// HTTPTarget defines a remote streamable HTTP endpoint.
type HTTPTarget struct {
	Endpoint        string
	Timeout         time.Duration
	Headers         http.Header
	ProtocolVersion string
	Token           string
	OAuth2ConfigURL string
	EncryptionKey   string
}

// SubprocessTarget defines an MCP server spawned over stdio.
type SubprocessTarget struct {
	Command     string
	Arguments   []string
	Env         []string
	Dir         string
	// GracePeriod is how long Close waits after ending the child's input; zero kills at once.
	GracePeriod time.Duration
	// Stderr receives the child's standard error; the proxy's own stderr when nil.
	Stderr io.Writer
}

// ChannelTarget defines a local socket, FIFO pair or named pipe.
type ChannelTarget struct {
	Path string
}

// NewHTTPTarget creates an http target
func NewHTTPTarget(endpoint string, timeout time.Duration) *Target {
	return &Target{Kind: TargetHTTP, HTTP: &HTTPTarget{Endpoint: endpoint, Timeout: timeout}}
}

// NewSubprocessTarget creates a subprocess target
func NewSubprocessTarget(command string, arguments ...string) *Target {
	return &Target{Kind: TargetSubprocess, Subprocess: &SubprocessTarget{Command: command, Arguments: arguments, GracePeriod: stdio.DefaultGracePeriod}}
}

// NewChannelTarget creates a local channel target
func NewChannelTarget(path string) *Target {
	return &Target{Kind: TargetChannel, Channel: &ChannelTarget{Path: path}}
}

// Validate checks that the target selects exactly one configured variant.
func (t *Target) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: no target", ErrInvalidTarget)
	}
	count := 0
	for _, set := range []bool{t.HTTP != nil, t.Subprocess != nil, t.Channel != nil} {
		if set {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("%w: expected exactly one of url, executable or pipe, got %d", ErrInvalidTarget, count)
	}
	switch t.Kind {
	case TargetHTTP:
		if t.HTTP == nil || t.HTTP.Endpoint == "" {
			return fmt.Errorf("%w: url is required for %s transport", ErrInvalidTarget, t.Kind)
		}
	case TargetSubprocess:
		if t.Subprocess == nil || t.Subprocess.Command == "" {
			return fmt.Errorf("%w: executable is required for %s transport", ErrInvalidTarget, t.Kind)
		}
		if t.Subprocess.GracePeriod < 0 {
			return fmt.Errorf("%w: negative grace period %s", ErrInvalidTarget, t.Subprocess.GracePeriod)
		}
	case TargetChannel:
		if t.Channel == nil || t.Channel.Path == "" {
			return fmt.Errorf("%w: pipe is required for %s transport", ErrInvalidTarget, t.Kind)
		}
	default:
		return fmt.Errorf("%w: unsupported transport %q", ErrInvalidTarget, t.Kind)
	}
	return nil
}

// NewConnector creates the connector for a validated target. No I/O happens
// until Connect.
func NewConnector(target *Target, logger zerolog.Logger) (transport.Connector, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	switch target.Kind {
	case TargetHTTP:
		httpTarget := target.HTTP
		options := []streamable.Option{streamable.WithLogger(logger)}
		if httpTarget.Timeout > 0 {
			options = append(options, streamable.WithTimeout(httpTarget.Timeout))
		}
		for key, values := range httpTarget.Headers {
			for _, value := range values {
				options = append(options, streamable.WithHeader(key, value))
			}
		}
		if httpTarget.ProtocolVersion != "" {
			options = append(options, streamable.WithProtocolVersion(httpTarget.ProtocolVersion))
		}
		if httpTarget.Token != "" {
			options = append(options, streamable.WithBearerToken(httpTarget.Token))
		}
		if httpTarget.OAuth2ConfigURL != "" {
			options = append(options, streamable.WithOAuth2Config(httpTarget.OAuth2ConfigURL, httpTarget.EncryptionKey))
		}
		return streamable.New(httpTarget.Endpoint, options...), nil
	case TargetSubprocess:
		subprocess := target.Subprocess
		options := []stdio.Option{
			stdio.WithLogger(logger),
			stdio.WithDir(subprocess.Dir),
			stdio.WithGracePeriod(subprocess.GracePeriod),
		}
		if len(subprocess.Env) > 0 {
			options = append(options, stdio.WithEnv(subprocess.Env...))
		}
		if subprocess.Stderr != nil {
			options = append(options, stdio.WithStderr(subprocess.Stderr))
		}
		return stdio.New(subprocess.Command, subprocess.Arguments, options...), nil
	default:
		return channel.New(target.Channel.Path, channel.WithLogger(logger)), nil
	}
}
