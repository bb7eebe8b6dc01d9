package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jessevdk/go-flags"
	"github.com/viant/mcpproxy/internal/logging"
	"github.com/viant/mcpproxy/transport"
)

// Process exit codes
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Run parses args, forwards one request and returns the process exit code.
// Arguments after "--" are appended to the executable arguments.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	options := &Options{}
	parser := flags.NewParser(options, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "mcp-proxy"
	parser.Usage = "[OPTIONS] [-- ARGUMENTS...]"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return ExitOK
		}
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	if options.File != "" {
		if err = loadConfig(options.File, options, explicit(parser)); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitUsage
		}
	}
	if len(rest) > 0 {
		if options.Executable == "" {
			fmt.Fprintf(stderr, "unexpected arguments %v without --executable\n", rest)
			return ExitUsage
		}
		options.Arguments = append(options.Arguments, rest...)
	}

	logger := logging.New(stderr, options.Verbose)
	service := New(options, logger, stderr)
	if err = service.Forward(ctx, stdin, stdout); err != nil {
		event := logger.Error().Err(err)
		if kind, ok := transport.KindOf(err); ok {
			event = event.Str("kind", kind.String())
		}
		event.Msg("failed to forward request")
		if errors.Is(err, errUsage) {
			return ExitUsage
		}
		return ExitFailure
	}
	return ExitOK
}

// explicit reports whether a long option was given on the command line, as
// opposed to carrying its default.
func explicit(parser *flags.Parser) func(long string) bool {
	return func(long string) bool {
		option := parser.FindOptionByLongName(long)
		return option != nil && option.IsSet() && !option.IsSetDefault()
	}
}
