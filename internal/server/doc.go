// Package server implements an MCP (Model Context Protocol) server for
// mechanical drawing analysis.
//
// This package provides a JSON-RPC 2.0 server that exposes an
// analyzer.Analyzer through the MCP protocol, so an MCP client can analyze
// drawings, re-check specifications against rule sets and read summaries.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Analysis:
//   - analyze_drawing: Full pipeline for one drawing, with summary
//   - analyze_drawings: Full pipeline for several drawings
//   - detect_regions: Region detection and CV metadata only
//
// Compliance:
//   - check_compliance: Structured violations for a specification
//   - check_design_rules: Message-only violations for numeric design rules
//
// Results:
//   - get_summary: Markdown or HTML summary of a cached analysis
//   - test_connection: Vision model provider reachability
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32602 for unknown tools and bad arguments, -32000 for other
//     tool execution failures, -32601 for unknown methods
//   - message: Human-readable error description
//   - data: The Go error string
//
// A vision model outage is not a tool error: analyze_drawing returns a
// result whose processing_info.extraction_status is "provider_error".
//
// # Usage
//
//	srv := server.New(a, version, logger)
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
