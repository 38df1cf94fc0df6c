// Package mcptools wires the memory repository, hybrid retrieval engine,
// and agent/entity repositories up as MCP tools: memory.*, session.*,
// issue_entity.*, vcs_entity.*, and project.* (organization/team)
// operations. Each tool's input/output is a typed struct registered via
// mcp.AddTool, the way internal/mcp/tools_search.go wires the newer
// SDK-typed tools; the tool body stays a thin adapter over a plain
// method on Tools so the adaptation logic (id generation, provenance
// resolution, default application) is testable without a live MCP
// transport.
package mcptools
