// Package bridge wires the command line surface of mcp-proxy to the forwarding
// pipeline.
//
// Options are parsed with go-flags and optionally overlaid with a TOML file; the
// resulting target is validated before any input is read. Run executes one
// request and returns the process exit status:
//
//	0  an envelope was written (or the request needed no output)
//	1  the envelope could not be produced (bad input, transport failure)
//	2  usage or configuration error
//
// Most users interact with the compiled mcp-proxy binary; the source lives in
// bridge/mcp-proxy.
package bridge
