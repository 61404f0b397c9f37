// Package bridge wires a persistent websocket connection to an MCP endpoint
// with the local tool registry and, in relay mode, a stdio peer.
//
// The remote endpoint (for example a voice assistant backend) sends MCP
// requests over the websocket. The bridge answers initialize, ping,
// tools/list and tools/call itself and relays any other request to the stdio
// peer, translating request identifiers so each side only sees its own.
// Responses that arrive for a connection which has since been replaced are
// discarded, and requests pending on a lost connection are failed with a
// "connection lost" error.
//
// Configuration comes from command line flags with environment fallbacks;
// the endpoint URL is read from XIAOZHI_MCP_URL when --url is not given.
package bridge
