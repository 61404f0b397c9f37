// Package mcpws bridges a persistent websocket MCP endpoint with locally
// served tools and an optional stdio peer.
//
// The module is organized as:
//   - schema: JSON-RPC envelopes, MCP initialize and tool payloads
//   - translator: request identifier mapping between two identifier spaces
//   - supervisor: websocket dial, handshake, heartbeat and reconnect
//   - router: local answers, relay with identifier translation, pre-handshake queue
//   - tool: the dispatch table with text-only results and output truncation
//   - tool/builtin: file, shell, git, notes, calendar, expense, messaging and search tools
//   - stdio: line delimited endpoint over standard streams
//   - bridge: configuration and wiring; bridge/mcp-bridge holds the command
//
// Example:
//
//	registry := tool.New()
//	_ = tool.Register(registry, "add", "Add two integers", add)
//	aRouter := router.New(&router.Config{Name: "calc"}, registry, logger)
//	endpoint := stdio.New(os.Stdin, os.Stdout, logger)
//	aRouter.SetEndpoint(router.Remote, endpoint)
//	aRouter.OnReady(ctx, 1)
//	_ = endpoint.Serve(ctx, func(ctx context.Context, envelope *schema.Envelope) {
//		aRouter.Handle(ctx, router.Remote, 1, envelope)
//	})
//
// See docs/main.go for a runnable version.
package mcpws
