// Package mcp exposes the code-navigation tools over the Model Context
// Protocol. Handlers are thin glue: validate parameters, invoke the
// external language service, and hand the materialized result to the
// response assembler, which enforces the caller's token budget.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/config"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/navigation"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/resources"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/response"
)

// ServerName identifies this MCP server to clients.
const ServerName = "codenav-mcp-server"

// Server wires the language-service collaborator, the reduction engine
// and the MCP transport together. Everything request-scoped is created
// fresh per tool call; the server itself holds only configuration and
// collaborators.
type Server struct {
	cfg       *config.Config
	service   navigation.Service
	est       *budget.TokenEstimator
	assembler *response.Assembler
	store     *resources.MemoryStore
	log       *zap.Logger
	logPath   string
	server    *mcp.Server
}

// NewServer creates an MCP server fronting the given language service.
func NewServer(service navigation.Service, cfg *config.Config, version string) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	// File-based logging keeps MCP stdio clean for the protocol.
	logger, logPath := NewDiagnosticLogger(true, cfg.Log.Dir, cfg.Log.Level)

	est := budget.NewTokenEstimator()
	store := resources.NewMemoryStore(cfg.Budget.ResourceEntries)

	s := &Server{
		cfg:       cfg,
		service:   service,
		est:       est,
		assembler: response.NewAssembler(est, store, cfg.Budget.DefaultTokenLimit, logger),
		store:     store,
		log:       logger,
		logPath:   logPath,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version,
	}, nil)
	s.registerTools()
	s.registerResources()

	logger.Info("server initialized",
		zap.String("project_root", cfg.Project.Root),
		zap.Int("default_token_limit", cfg.Budget.DefaultTokenLimit))

	return s, nil
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Close flushes the diagnostic log.
func (s *Server) Close() error {
	return s.log.Sync()
}

// LogPath returns the diagnostic log file path, when file logging is on.
func (s *Server) LogPath() string {
	return s.logPath
}

// registerResources exposes offloaded full payloads: when reduction
// discards data, the envelope carries a resourceUri the client can read
// back here.
func (s *Server) registerResources() {
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		Name:        "full-results",
		URITemplate: resources.URIScheme + "{id}",
		Description: "Full, unreduced payloads for truncated tool responses",
		MIMEType:    "application/json",
	}, s.handleReadResult)
}

func (s *Server) handleReadResult(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	data, ok := s.store.Get(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// budgetProperties are the parameters every tool shares.
func budgetProperties() map[string]*jsonschema.Schema {
	return map[string]*jsonschema.Schema{
		"max_tokens": {
			Type:        "integer",
			Description: "Token budget for the response. Defaults to the server limit; large results are reduced to fit.",
		},
		"mode": {
			Type:        "string",
			Description: "Detail level: 'summary', 'detailed', or 'optimized' (default).",
		},
	}
}

func withBudgetProperties(props map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	for k, v := range budgetProperties() {
		props[k] = v
	}
	return props
}

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Get help for any tool, or server version info. Use 'info' for an overview or 'info <tool>' for specifics.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name to get help for (optional)",
				},
			},
		},
	}, s.handleInfo)

	s.server.AddTool(&mcp.Tool{
		Name:        "csharp_find_all_references",
		Description: "Find every usage of a symbol across the workspace. Large result sets are reduced to the token budget, highest-value references first.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: withBudgetProperties(map[string]*jsonschema.Schema{
				"symbol": {
					Type:        "string",
					Description: "Symbol name to find references for",
				},
			}),
			Required: []string{"symbol"},
		},
	}, s.handleFindReferences)

	s.server.AddTool(&mcp.Tool{
		Name:        "csharp_get_diagnostics",
		Description: "Get compiler diagnostics for a file, project, or the workspace. Errors outrank warnings when the result is reduced.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: withBudgetProperties(map[string]*jsonschema.Schema{
				"scope": {
					Type:        "string",
					Description: "A file path, a project name, or 'workspace' (default)",
				},
			}),
		},
	}, s.handleDiagnostics)

	s.server.AddTool(&mcp.Tool{
		Name:        "csharp_trace_call_stack",
		Description: "Show incoming and outgoing call hierarchies for a symbol. Trees are reduced per level with a fan-out cap; the root is always kept.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: withBudgetProperties(map[string]*jsonschema.Schema{
				"symbol": {
					Type:        "string",
					Description: "Function or method to trace",
				},
				"depth": {
					Type:        "integer",
					Description: "Maximum hierarchy depth (default 3, cap 10)",
				},
			}),
			Required: []string{"symbol"},
		},
	}, s.handleTraceCallStack)

	s.server.AddTool(&mcp.Tool{
		Name:        "csharp_get_type_members",
		Description: "List the members of a type as a hierarchy: containers and public members survive reduction first.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: withBudgetProperties(map[string]*jsonschema.Schema{
				"type_name": {
					Type:        "string",
					Description: "Type to outline, simple or fully qualified",
				},
			}),
			Required: []string{"type_name"},
		},
	}, s.handleTypeMembers)

	s.server.AddTool(&mcp.Tool{
		Name:        "csharp_rename_symbol",
		Description: "Safely rename a symbol across the workspace via the language service.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: withBudgetProperties(map[string]*jsonschema.Schema{
				"symbol": {
					Type:        "string",
					Description: "Current symbol name",
				},
				"new_name": {
					Type:        "string",
					Description: "New symbol name",
				},
			}),
			Required: []string{"symbol", "new_name"},
		},
	}, s.handleRenameSymbol)
}
