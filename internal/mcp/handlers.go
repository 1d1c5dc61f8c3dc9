package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/navigation"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/response"
	"github.com/anortham/coa-codenav-mcp-sub005/internal/version"
)

// DefaultCallDepth is the call-hierarchy depth used when the caller does
// not specify one.
// Rationale: three levels of callers in each direction answers most
// "who calls this" questions without exploding the tree.
const DefaultCallDepth = 3

// Tool parameter shapes. Unknown fields are rejected by the SDK schema
// before the handler runs; handlers re-check the semantic constraints.

type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

type ReferencesParams struct {
	Symbol    string `json:"symbol"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type DiagnosticsParams struct {
	Scope     string `json:"scope,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type CallStackParams struct {
	Symbol    string `json:"symbol"`
	Depth     int    `json:"depth,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type TypeMembersParams struct {
	TypeName  string `json:"type_name"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type RenameParams struct {
	Symbol    string `json:"symbol"`
	NewName   string `json:"new_name"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

// respond assembles the envelope and shapes it as an MCP result. Assembly
// errors are cost-function contract violations and are surfaced verbatim.
func (s *Server) respond(tool string, req response.Request) (*mcp.CallToolResult, error) {
	requestID := uuid.NewString()
	env, err := s.assembler.Build(req)
	if err != nil {
		s.log.Error("response assembly failed",
			zap.String("tool", tool),
			zap.String("request_id", requestID),
			zap.Error(err))
		return createErrorResponse(tool, err)
	}
	s.log.Info("tool call completed",
		zap.String("tool", tool),
		zap.String("request_id", requestID),
		zap.Int("tokens", env.Meta.Tokens),
		zap.Bool("truncated", env.Meta.Truncated))
	return createJSONResponse(env)
}

// serviceError shapes an upstream failure into a structured error result.
// Upstream failures never reach the reduction engine.
func (s *Server) serviceError(tool string, err error) (*mcp.CallToolResult, error) {
	s.log.Warn("language service call failed", zap.String("tool", tool), zap.Error(err))
	return createErrorResponse(tool, err)
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse("info", fmt.Errorf("invalid parameters: %w", err))
		}
	}

	switch params.Tool {
	case "", "overview":
		return createJSONResponse(map[string]interface{}{
			"name":           ServerName,
			"server_version": version.FullInfo(),
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
			"tools": []string{
				"csharp_find_all_references",
				"csharp_get_diagnostics",
				"csharp_trace_call_stack",
				"csharp_get_type_members",
				"csharp_rename_symbol",
			},
			"budgeting": "Every tool accepts max_tokens and mode ('summary', 'detailed', 'optimized'). Oversized results are reduced, never dropped: at least one item always survives, and the full payload is retrievable via meta resourceUri.",
		})
	case "csharp_find_all_references":
		return createJSONResponse(map[string]interface{}{
			"name":        params.Tool,
			"description": "Find all usages of a symbol. References are ranked by kind (declarations first), visibility, and affinity to the query; generated files rank last.",
			"parameters": map[string]string{
				"symbol":     "REQUIRED: symbol name",
				"max_tokens": "Token budget (default: server limit)",
				"mode":       "'summary', 'detailed', or 'optimized'",
			},
		})
	case "csharp_trace_call_stack":
		return createJSONResponse(map[string]interface{}{
			"name":        params.Tool,
			"description": "Call hierarchy with independent incoming/outgoing budget shares, at most 3 children per side per level.",
			"parameters": map[string]string{
				"symbol":     "REQUIRED: function or method name",
				"depth":      "Maximum depth (default 3)",
				"max_tokens": "Token budget",
				"mode":       "'summary', 'detailed', or 'optimized'",
			},
		})
	default:
		return createJSONResponse(map[string]interface{}{
			"name":  params.Tool,
			"error": fmt.Sprintf("unknown tool %q - use 'info' without arguments for the overview", params.Tool),
		})
	}
}

func (s *Server) handleFindReferences(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "csharp_find_all_references"
	started := time.Now()

	var params ReferencesParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(tool, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := validateSymbol("symbol", params.Symbol); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateTokenLimit(params.MaxTokens); err != nil {
		return createErrorResponse(tool, err)
	}

	refs, err := s.service.FindReferences(ctx, params.Symbol)
	if err != nil {
		return s.serviceError(tool, err)
	}

	payload := navigation.NewReferencesPayload(s.est, params.Symbol, refs, s.cfg.Scoring.GeneratedGlobs)
	return s.respond(tool, response.Request{
		Message:    fmt.Sprintf("Found %d references to '%s'", len(refs), params.Symbol),
		Mode:       budget.ParseMode(params.Mode),
		TokenLimit: params.MaxTokens,
		Started:    started,
		Data:       payload,
		Actions: []response.ActionRecord{
			{
				Action:      "csharp_trace_call_stack",
				Description: "Trace callers and callees of this symbol",
				Category:    "navigation",
				Priority:    80,
				Parameters:  map[string]any{"symbol": params.Symbol},
			},
			{
				Action:      "csharp_rename_symbol",
				Description: "Safely rename this symbol across the workspace",
				Category:    "refactoring",
				Priority:    40,
				Parameters:  map[string]any{"symbol": params.Symbol},
			},
		},
	})
}

func (s *Server) handleDiagnostics(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "csharp_get_diagnostics"
	started := time.Now()

	var params DiagnosticsParams
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
			return createErrorResponse(tool, fmt.Errorf("invalid parameters: %w", err))
		}
	}
	if params.Scope == "" {
		params.Scope = "workspace"
	}
	if err := validateTokenLimit(params.MaxTokens); err != nil {
		return createErrorResponse(tool, err)
	}

	diags, err := s.service.Diagnostics(ctx, params.Scope)
	if err != nil {
		return s.serviceError(tool, err)
	}

	payload := navigation.NewDiagnosticsPayload(s.est, params.Scope, diags, s.cfg.Scoring.GeneratedGlobs)
	return s.respond(tool, response.Request{
		Message:    fmt.Sprintf("Found %d diagnostics in %s", len(diags), params.Scope),
		Mode:       budget.ParseMode(params.Mode),
		TokenLimit: params.MaxTokens,
		Started:    started,
		Data:       payload,
		Insights:   diagnosticInsights(diags),
	})
}

// diagnosticInsights summarizes severity counts up front so the summary
// survives even when individual diagnostics are truncated away.
func diagnosticInsights(diags []navigation.Diagnostic) []string {
	if len(diags) == 0 {
		return []string{"No diagnostics found."}
	}
	counts := map[string]int{}
	for _, d := range diags {
		counts[d.Severity]++
	}
	return []string{fmt.Sprintf("%d errors, %d warnings, %d informational.",
		counts["error"], counts["warning"], counts["info"])}
}

func (s *Server) handleTraceCallStack(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "csharp_trace_call_stack"
	started := time.Now()

	var params CallStackParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(tool, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := validateSymbol("symbol", params.Symbol); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateDepth(params.Depth); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateTokenLimit(params.MaxTokens); err != nil {
		return createErrorResponse(tool, err)
	}
	if params.Depth == 0 {
		params.Depth = DefaultCallDepth
	}

	root, err := s.service.TraceCallStack(ctx, params.Symbol, params.Depth)
	if err != nil {
		return s.serviceError(tool, err)
	}

	payload := navigation.NewCallTreePayload(s.est, params.Symbol, root,
		s.cfg.Scoring.GeneratedGlobs, s.cfg.Tree.MaxFanout, s.cfg.Tree.Parallel)
	return s.respond(tool, response.Request{
		Message:    fmt.Sprintf("Call hierarchy for '%s' (%d nodes)", params.Symbol, root.CountNodes()),
		Mode:       budget.ParseMode(params.Mode),
		TokenLimit: params.MaxTokens,
		Started:    started,
		Data:       payload,
	})
}

func (s *Server) handleTypeMembers(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "csharp_get_type_members"
	started := time.Now()

	var params TypeMembersParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(tool, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := validateSymbol("type_name", params.TypeName); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateTokenLimit(params.MaxTokens); err != nil {
		return createErrorResponse(tool, err)
	}

	outline, err := s.service.TypeMembers(ctx, params.TypeName)
	if err != nil {
		return s.serviceError(tool, err)
	}

	payload := navigation.NewOutlinePayload(s.est, params.TypeName, outline,
		s.cfg.Tree.MaxFanout, s.cfg.Tree.Parallel)
	return s.respond(tool, response.Request{
		Message:    fmt.Sprintf("Members of '%s' (%d nodes)", params.TypeName, outline.CountNodes()),
		Mode:       budget.ParseMode(params.Mode),
		TokenLimit: params.MaxTokens,
		Started:    started,
		Data:       payload,
	})
}

func (s *Server) handleRenameSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	const tool = "csharp_rename_symbol"
	started := time.Now()

	var params RenameParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(tool, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := validateSymbol("symbol", params.Symbol); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateSymbol("new_name", params.NewName); err != nil {
		return createErrorResponse(tool, err)
	}
	if err := validateTokenLimit(params.MaxTokens); err != nil {
		return createErrorResponse(tool, err)
	}

	result, err := s.service.RenameSymbol(ctx, params.Symbol, params.NewName)
	if err != nil {
		return s.serviceError(tool, err)
	}

	payload := navigation.NewRenamePayload(s.est, result)
	return s.respond(tool, response.Request{
		Message:    fmt.Sprintf("Renamed '%s' to '%s' in %d files", params.Symbol, params.NewName, len(result.ChangedFiles)),
		Mode:       budget.ParseMode(params.Mode),
		TokenLimit: params.MaxTokens,
		Started:    started,
		Data:       payload,
	})
}
