package schema

import (
	mcpschema "github.com/viant/mcp-protocol/schema"
)

// DefaultProtocolVersion is the MCP revision spoken by the persistent endpoint.
const DefaultProtocolVersion = "2024-11-05"

type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type InitializeResult struct {
	ProtocolVersion string                   `json:"protocolVersion"`
	Capabilities    ServerCapabilities       `json:"capabilities"`
	ServerInfo      mcpschema.Implementation `json:"serverInfo"`
}

type InitializeParams struct {
	ProtocolVersion string                   `json:"protocolVersion"`
	Capabilities    map[string]interface{}   `json:"capabilities"`
	ClientInfo      mcpschema.Implementation `json:"clientInfo"`
}

// NewInitializeResult returns the local identity answered to initialize.
func NewInitializeResult(protocolVersion, name, version string) *InitializeResult {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	return &InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
		ServerInfo:      mcpschema.Implementation{Name: name, Version: version},
	}
}

// NewInitializeParams returns the params sent when this process initiates the handshake.
func NewInitializeParams(protocolVersion, name, version string) *InitializeParams {
	if protocolVersion == "" {
		protocolVersion = DefaultProtocolVersion
	}
	return &InitializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]interface{}{},
		ClientInfo:      mcpschema.Implementation{Name: name, Version: version},
	}
}
