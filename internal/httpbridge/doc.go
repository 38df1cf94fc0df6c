// Package httpbridge serves the mcptools tool surface over JSON-RPC
// 2.0 on HTTP, for callers that cannot speak the MCP stdio transport
// (CI steps, external services, same-host daemons talking to a
// single long-lived server process). It is a thin transport: request
// provenance headers are resolved into the same args/data-payload
// fields the stdio tools already accept, then dispatched to the exact
// same Tools methods internal/mcptools registers over stdio.
package httpbridge
