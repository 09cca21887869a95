// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes notedex tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notedex/internal/discovery"
	"github.com/starford/notedex/internal/document"
	"github.com/starford/notedex/internal/noteservice"
	"github.com/starford/notedex/internal/search"
)

// ContractURI is the resource URI of the note format contract.
const ContractURI = "notedex://note-format"

// Server wraps the MCP server with notedex tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all notedex tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"notedex",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search over submitted notes. Returns matching notes in storage form."),
		mcp.WithString("query", mcp.Description("Search query string")),
		mcp.WithString("filter", mcp.Description("Filter expression: '|' = OR, '&' = AND, '!' = NOT, field:value (default field tags). Example: 'vim | !bash'")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("render_note",
		mcp.WithDescription("Parse a note (metadata, '---' line, body) and render it in storage, disk or human mode. "+
			"Read the contract first via get_note_contract or the "+ContractURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw note text")),
		mcp.WithString("mode", mcp.Description("storage (default), disk or human")),
		mcp.WithString("format", mcp.Description("text (default) or json")),
	), s.renderNote)

	s.mcp.AddTool(mcp.NewTool("convert_legacy",
		mcp.WithDescription("Convert a note in the legacy single-author schema to the current schema."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Raw legacy note text with ---, +++ or ;;; fenced frontmatter")),
		mcp.WithString("mode", mcp.Description("storage (default), disk or human")),
		mcp.WithString("format", mcp.Description("text (default) or json")),
	), s.convertLegacy)

	s.mcp.AddTool(mcp.NewTool("ingest_notes",
		mcp.WithDescription("Submit the note files matching the given glob patterns to the search service."),
		mcp.WithArray("patterns", mcp.Required(), mcp.Items(map[string]any{"type": "string"}),
			mcp.Description("Glob patterns below the configured ingest roots; ** and ~ are supported")),
	), s.ingestNotes)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the notedex note format contract. "+
			"Call this before writing notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Note Format Contract",
			mcp.WithResourceDescription("Note format accepted by notedex."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type searchArgs struct {
	Query  string `json:"query"`
	Filter string `json:"filter"`
	Limit  int    `json:"limit"`
}

type renderArgs struct {
	Content string `json:"content"`
	Mode    string `json:"mode"`
	Format  string `json:"format"`
}

type ingestArgs struct {
	Patterns []string `json:"patterns"`
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[searchArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, search.Query{Query: args.Query, Filter: args.Filter, Limit: args.Limit})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultJSON(map[string]any{"hits": hits, "count": len(hits)})
}

func (s *Server) renderNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.render(req, s.svc.Render)
}

func (s *Server) convertLegacy(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.render(req, s.svc.ConvertLegacy)
}

func (s *Server) render(req mcp.CallToolRequest, fn func([]byte, document.Mode) (*document.Document, error)) (*mcp.CallToolResult, error) {
	args, err := decode[renderArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	mode := document.ModeStorage
	if args.Mode != "" {
		if mode, err = document.ParseMode(args.Mode); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	d, err := fn([]byte(args.Content), mode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	switch args.Format {
	case "", "text":
		text, err := d.Render()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	case "json":
		return mcp.NewToolResultJSON(d)
	default:
		return mcp.NewToolResultError("format must be text or json"), nil
	}
}

func (s *Server) ingestNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ingestArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(args.Patterns) == 0 {
		return mcp.NewToolResultError("patterns are required"), nil
	}
	rep, err := s.svc.IngestWithinRoots(ctx, args.Patterns)
	if err != nil {
		if errors.Is(err, noteservice.ErrDisabled) {
			return mcp.NewToolResultError("ingestion is not configured"), nil
		}
		if errors.Is(err, discovery.ErrOutsideRoots) {
			return mcp.NewToolResultError(discovery.ErrOutsideRoots.Error()), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultJSON(rep)
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
