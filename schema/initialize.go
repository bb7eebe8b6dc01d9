package schema

import (
	mcpschema "github.com/viant/mcp-protocol/schema"
)

const (
	// DefaultProtocolVersion is advertised by the canned initialize result.
	DefaultProtocolVersion = "2024-11-05"
	ServerName             = "mcp-proxy-tool"
	ServerVersion          = "1.0.0"
)

// LatestProtocolVersion is the version sent in the MCP-Protocol-Version header.
var LatestProtocolVersion = mcpschema.LatestProtocolVersion

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// Capabilities advertised by the proxy itself. Logging is always emitted as {}.
type Capabilities struct {
	Tools   ToolsCapability `json:"tools"`
	Logging struct{}        `json:"logging"`
}

// InitializeResult is the locally produced answer to initialize.
type InitializeResult struct {
	ProtocolVersion string                   `json:"protocolVersion"`
	Capabilities    Capabilities             `json:"capabilities"`
	ServerInfo      mcpschema.Implementation `json:"serverInfo"`
}

// NewInitializeResult creates the canned initialize result; an empty
// protocolVersion selects DefaultProtocolVersion.
func NewInitializeResult(protocolVersion string) *InitializeResult {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	return &InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    Capabilities{Tools: ToolsCapability{ListChanged: true}},
		ServerInfo:      mcpschema.Implementation{Name: ServerName, Version: ServerVersion},
	}
}
