// Package mcp provides a Model Context Protocol server for vdlink.
//
// It exposes record linking, record lookup and index statistics as MCP
// tools over stdio transport, so agent frontends can resolve noisy
// citations against a local registry index.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/vdlink/internal/index"
	"github.com/hurttlocker/vdlink/internal/link"
)

// Resolver is the linking capability the server exposes.
// *link.Linker satisfies it.
type Resolver interface {
	LinkFields(ctx context.Context, text, author, place string, year int) (link.Result, error)
}

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Resolver Resolver
	Index    *index.Index // for the stats tool and resource
	Version  string       // version string for MCP server info
}

// NewServer creates a configured MCP server with the vdlink tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"vdlink",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	registerLinkTool(s, cfg.Resolver)
	registerRecordTool(s, cfg.Index)
	registerStatsTool(s, cfg.Index)
	registerStatsResource(s, cfg.Index)

	return s
}

// ServeStdio runs the server on stdin/stdout until the client hangs up.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func registerLinkTool(s *server.MCPServer, resolver Resolver) {
	tool := mcp.NewTool("vdlink_link",
		mcp.WithDescription("Resolve a noisy bibliographic citation (OCR output, catalog entry) to a canonical VD16/VD17/VD18 registry record id. Returns the match with confidence band and the scored shortlist."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Citation text to resolve, e.g. 'Gottsched, Historie der Natur, Basel 1732'"),
		),
		mcp.WithString("author",
			mcp.Description("Author fragment, when known separately from the citation text"),
		),
		mcp.WithString("place",
			mcp.Description("Publication place fragment, when known separately"),
		),
		mcp.WithNumber("year",
			mcp.Description("Publication year, when known. Otherwise extracted from the citation text."),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		var author, place string
		if v, err := req.RequireString("author"); err == nil {
			author = v
		}
		if v, err := req.RequireString("place"); err == nil {
			place = v
		}
		year := 0
		if v, err := req.RequireFloat("year"); err == nil {
			year = int(v)
		}

		res, err := resolver.LinkFields(ctx, query, author, place, year)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("linking failed: %v", err)), nil
		}

		data, _ := json.MarshalIndent(res, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRecordTool(s *server.MCPServer, ix *index.Index) {
	tool := mcp.NewTool("vdlink_record",
		mcp.WithDescription("Fetch the stored registry fields for an exact record id, e.g. 'VD18 10234567'. Use after vdlink_link to inspect what the index holds for a match."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Registry record id as stored in the index"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		if ix == nil {
			return mcp.NewToolResultError("no index configured"), nil
		}

		records, err := ix.GetByIDs(ctx, []string{id})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetching record: %v", err)), nil
		}
		if len(records) == 0 {
			return mcp.NewToolResultError(fmt.Sprintf("no record with id %q", id)), nil
		}

		data, _ := json.MarshalIndent(records[0], "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// indexStats is the stats tool and resource payload.
type indexStats struct {
	Path    string `json:"path"`
	Records int64  `json:"records"`
}

func registerStatsTool(s *server.MCPServer, ix *index.Index) {
	tool := mcp.NewTool("vdlink_stats",
		mcp.WithDescription("Report the registry index location and record count."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := collectStats(ctx, ix)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reading index stats: %v", err)), nil
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerStatsResource(s *server.MCPServer, ix *index.Index) {
	resource := mcp.NewResource(
		"vdlink://index/stats",
		"Index Statistics",
		mcp.WithResourceDescription("Registry index location and record count."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		stats, err := collectStats(ctx, ix)
		if err != nil {
			return nil, fmt.Errorf("reading index stats: %w", err)
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "vdlink://index/stats",
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func collectStats(ctx context.Context, ix *index.Index) (indexStats, error) {
	if ix == nil {
		return indexStats{}, fmt.Errorf("no index configured")
	}
	n, err := ix.Count(ctx)
	if err != nil {
		return indexStats{}, err
	}
	return indexStats{Path: ix.Path(), Records: n}, nil
}
