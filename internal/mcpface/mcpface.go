// Package mcpface exposes the pipeline as a small read-only Model
// Context Protocol surface: a companion tool an AI assistant can poll
// for "has this file settled yet" instead of driving it over the LSP
// wire protocol. Grounded on
// standardbeagle-lci/internal/mcp/server.go's mcp.NewServer/AddTool/Run
// wiring, trimmed from that server's dozens of indexing/search tools
// down to the handful spec.md's DOMAIN STACK names for this server:
// revision and per-file stat.
package mcpface

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Koenneker/uvl-lsp/internal/pipeline"
)

// Name and Version identify this server in MCP's initialize handshake.
const (
	Name    = "uvls-mcp"
	Version = "0.1.0"
)

// Server wraps a *pipeline.Pipeline as an MCP tool surface. It never
// mutates the pipeline -- every tool here only reads revision/stat/
// snapshot state, mirroring the teacher's own read-mostly MCP tool set.
type Server struct {
	pipeline *pipeline.Pipeline
	server   *mcp.Server
}

// New builds a Server and registers its tools. Call Run to serve it.
func New(p *pipeline.Pipeline) *Server {
	s := &Server{
		pipeline: p,
		server: mcp.NewServer(&mcp.Implementation{
			Name:    Name,
			Version: Version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves the MCP protocol until ctx is cancelled, reading requests
// from file descriptor 3 and writing responses to file descriptor 4, so
// stdin/stdout stay with the LSP transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.IOTransport{
		Reader: os.NewFile(3, "mcp-in"),
		Writer: os.NewFile(4, "mcp-out"),
	})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "stat",
		Description: "Report whether a document is open, who owns its last write (editor or filesystem), and the timestamp of its last accepted edit.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"uri": {
					Type:        "string",
					Description: "Document URI to stat, e.g. file:///abs/path/to/feature.uvl",
				},
			},
			Required: []string{"uri"},
		},
	}, s.handleStat)

	s.server.AddTool(&mcp.Tool{
		Name:        "revision",
		Description: "Report the pipeline's current monotonic revision counter, incremented on every open/update/delete issued so far.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{},
		},
	}, s.handleRevision)

	s.server.AddTool(&mcp.Tool{
		Name:        "snapshot_root",
		Description: "Block until the RootGraph reflects the given document, then report its revision. Use this to confirm a recent edit has been linked before querying analysis results elsewhere.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"uri": {
					Type:        "string",
					Description: "Document URI the RootGraph must have observed",
				},
			},
			Required: []string{"uri"},
		},
	}, s.handleSnapshotRoot)
}

type statParams struct {
	URI string `json:"uri"`
}

func (s *Server) handleStat(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p statParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return jsonResponse(map[string]any{"error": fmt.Sprintf("invalid parameters: %v", err)})
	}

	ts, state, ok := s.pipeline.Stat(p.URI)
	if !ok {
		return jsonResponse(map[string]any{"uri": p.URI, "open": false})
	}
	owner := "editor"
	if state.Kind != 0 {
		owner = "filesystem"
	}
	return jsonResponse(map[string]any{
		"uri":       p.URI,
		"open":      true,
		"owner":     owner,
		"timestamp": ts,
	})
}

func (s *Server) handleRevision(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResponse(map[string]any{"revision": s.pipeline.CurrentRevision()})
}

type snapshotRootParams struct {
	URI string `json:"uri"`
}

func (s *Server) handleSnapshotRoot(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p snapshotRootParams
	if err := json.Unmarshal(req.Params.Arguments, &p); err != nil {
		return jsonResponse(map[string]any{"error": fmt.Sprintf("invalid parameters: %v", err)})
	}

	root, err := s.pipeline.SnapshotRoot(ctx, p.URI)
	if err != nil {
		return jsonResponse(map[string]any{"uri": p.URI, "error": err.Error()})
	}
	return jsonResponse(map[string]any{"uri": p.URI, "revision": root.Revision()})
}

func jsonResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("mcpface: marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}
