// Package mcp provides an MCP (Model Context Protocol) server adapter for Retriva.
// It lets AI assistants like Claude query and manage the local document index.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")
