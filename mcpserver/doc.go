// Package mcpserver exposes the Jules tools over MCP's streamable HTTP
// transport.
//
// The server derives the caller's credential from the Authorization header
// of each inbound request (see auth.HTTPContextFunc) and registers the tool
// table built by package tools. It also serves GET /health.
package mcpserver
