// Command mcp-proxy forwards a single MCP request to an HTTP endpoint, a
// subprocess or a local channel and prints the request/response envelope.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/viant/mcpproxy/bridge"
	_ "github.com/viant/scy/kms/blowfish"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := bridge.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
