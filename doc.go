// Package mcpproxy forwards a single Model Context Protocol (MCP) request to one backend
// and reports the outcome as a {request, response} envelope.
//
// A run reads one JSON-RPC request, answers the two handshake methods (initialize and
// notifications/initialized) locally and sends everything else over exactly one
// transport selected at startup:
//  1. http – a remote streamable HTTP endpoint answering with JSON or an event stream,
//  2. stdio – a spawned MCP server speaking newline delimited JSON-RPC, and
//  3. channel – a local Unix domain socket, FIFO pair or Windows named pipe.
//
// Example:
//
//	target := mcpproxy.NewHTTPTarget("https://learn.microsoft.com/api/mcp", 30*time.Second)
//	connector, _ := mcpproxy.NewConnector(target, logger)
//	translator := mcpproxy.NewTranslator(connector)
//	envelope, err := translator.Translate(ctx, []byte(`{"method":"tools/list","params":{}}`))
//	if err == nil && envelope != nil {
//		_ = envelope.Write(os.Stdout)
//	}
package mcpproxy
