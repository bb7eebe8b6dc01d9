package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/mcpproxy"
)

var errUsage = errors.New("usage error")

// Service runs one forwarding pipeline for parsed options.
type Service struct {
	options *Options
	logger  zerolog.Logger
	fs      afs.Service
	stderr  io.Writer
}

// Target builds and validates the transport target described by the options.
func (s *Service) Target() (*mcpproxy.Target, error) {
	options := s.options
	selected := 0
	for _, value := range []string{options.URL, options.Executable, options.Pipe} {
		if value != "" {
			selected++
		}
	}
	if selected != 1 {
		return nil, fmt.Errorf("%w: exactly one of --url, --executable or --pipe is required", errUsage)
	}

	var target *mcpproxy.Target
	switch {
	case options.URL != "":
		if options.Timeout <= 0 {
			return nil, fmt.Errorf("%w: timeout must be positive, got %d", errUsage, options.Timeout)
		}
		headers, err := parseHeaders(options.Headers)
		if err != nil {
			return nil, err
		}
		target = mcpproxy.NewHTTPTarget(options.URL, time.Duration(options.Timeout)*time.Second)
		target.HTTP.Headers = headers
		target.HTTP.ProtocolVersion = options.ProtocolVersion
		target.HTTP.Token = options.Token
		target.HTTP.OAuth2ConfigURL = options.OAuth2ConfigURL
		target.HTTP.EncryptionKey = options.EncryptionKey
	case options.Executable != "":
		if options.Grace < 0 {
			return nil, fmt.Errorf("%w: grace must not be negative, got %d", errUsage, options.Grace)
		}
		for _, pair := range options.Env {
			if key, _, ok := strings.Cut(pair, "="); !ok || key == "" {
				return nil, fmt.Errorf("%w: invalid env %q, expected KEY=VALUE", errUsage, pair)
			}
		}
		target = mcpproxy.NewSubprocessTarget(options.Executable, options.Arguments...)
		target.Subprocess.Env = options.Env
		target.Subprocess.Dir = options.Dir
		target.Subprocess.GracePeriod = time.Duration(options.Grace) * time.Second
		target.Subprocess.Stderr = s.stderr
	default:
		target = mcpproxy.NewChannelTarget(options.Pipe)
	}
	if err := target.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	return target, nil
}

// Forward reads one request, translates it and writes the envelope to stdout.
// Nothing is written to stdout unless the envelope was fully produced.
func (s *Service) Forward(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	target, err := s.Target()
	if err != nil {
		return err
	}
	connector, err := mcpproxy.NewConnector(target, s.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	raw, err := s.readInput(ctx, stdin)
	if err != nil {
		return err
	}

	var translatorOptions = []mcpproxy.TranslatorOption{mcpproxy.WithLogger(s.logger)}
	if s.options.ProtocolVersion != "" {
		translatorOptions = append(translatorOptions, mcpproxy.WithProtocolVersion(s.options.ProtocolVersion))
	}
	translator := mcpproxy.NewTranslator(connector, translatorOptions...)
	envelope, err := translator.Translate(ctx, raw)
	if err != nil {
		return err
	}
	if envelope == nil {
		s.logger.Debug().Msg("no envelope produced")
		return nil
	}
	buffer := &bytes.Buffer{}
	if err = envelope.Write(buffer); err != nil {
		return err
	}
	_, err = stdout.Write(buffer.Bytes())
	return err
}

func (s *Service) readInput(ctx context.Context, stdin io.Reader) ([]byte, error) {
	location := s.options.Input
	if location == "" || location == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read standard input: %w", err)
		}
		return data, nil
	}
	URL, err := inputURL(location)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("input", URL).Msg("loading request")
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load input %v: %w", location, err)
	}
	return data, nil
}

// inputURL turns a bare path into an absolute file URL.
func inputURL(location string) (string, error) {
	if strings.Contains(location, "://") {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("failed to resolve input %v: %w", location, err)
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	return "file://" + abs, nil
}

func parseHeaders(lines []string) (http.Header, error) {
	headers := http.Header{}
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: invalid header %q, expected 'Key: Value'", errUsage, line)
		}
		headers.Add(key, strings.TrimSpace(value))
	}
	return headers, nil
}

// New creates a service
func New(options *Options, logger zerolog.Logger, stderr io.Writer) *Service {
	return &Service{options: options, logger: logger, fs: afs.New(), stderr: stderr}
}
