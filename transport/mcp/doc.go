// Package mcp provides a thin MCP (Model Context Protocol) client that
// proxies all game operations to the REST API server.
//
// The client registers one MCP tool per REST endpoint and translates tool
// calls into HTTP requests against the configured base URL. It carries no
// game state of its own; the HTTP server remains the single source of truth,
// so MCP and browser players share the same sessions.
package mcp
