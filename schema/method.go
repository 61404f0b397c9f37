package schema

import mcpschema "github.com/viant/mcp-protocol/schema"

const (
	MethodInitialize              = mcpschema.MethodInitialize
	MethodPing                    = mcpschema.MethodPing
	MethodToolsList               = mcpschema.MethodToolsList
	MethodToolsCall               = mcpschema.MethodToolsCall
	MethodNotificationInitialized = "notifications/initialized"
	MethodNotificationCancel      = "notifications/cancelled"
)

// MethodKind is the closed set of method variants the router dispatches on.
type MethodKind int

const (
	// MethodRelay covers every method not owned locally; it is forwarded across the bridge.
	MethodRelay MethodKind = iota
	MethodKindInitialize
	MethodKindPing
	MethodKindToolsList
	MethodKindToolsCall
)

func (k MethodKind) String() string {
	switch k {
	case MethodKindInitialize:
		return MethodInitialize
	case MethodKindPing:
		return MethodPing
	case MethodKindToolsList:
		return MethodToolsList
	case MethodKindToolsCall:
		return MethodToolsCall
	}
	return "relay"
}

// KindOfMethod resolves a method name, defaulting to MethodRelay.
func KindOfMethod(method string) MethodKind {
	switch method {
	case MethodInitialize:
		return MethodKindInitialize
	case MethodPing:
		return MethodKindPing
	case MethodToolsList:
		return MethodKindToolsList
	case MethodToolsCall:
		return MethodKindToolsCall
	}
	return MethodRelay
}
