package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// createJSONResponse creates a standardized JSON response for MCP tools.
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createErrorResponse creates a standardized error response for MCP tools.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if suggestions := errorSuggestions(operation, err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}

	// CRITICAL: Set IsError=true per MCP SDK specification
	// "Any errors that originate from the tool should be reported inside
	// the result object, with isError set to true, not as an MCP
	// protocol-level error response. Otherwise, the LLM would not be able
	// to see that an error occurred and self-correct."
	response.IsError = true

	return response, nil
}

// errorSuggestions generates context-aware hints for common failures.
func errorSuggestions(operation string, err error) []string {
	var suggestions []string
	msg := err.Error()

	switch operation {
	case "csharp_find_all_references", "csharp_trace_call_stack":
		if msg == "symbol is required" {
			suggestions = append(suggestions,
				"Provide a symbol name like 'UserService' or 'HandleRequest'",
				"Symbol names are case-sensitive and should match exactly")
		}
	case "csharp_get_type_members":
		if msg == "type_name is required" {
			suggestions = append(suggestions,
				"Provide a type name like 'OrderProcessor' or a fully qualified name")
		}
	case "csharp_rename_symbol":
		if msg == "new_name is required" {
			suggestions = append(suggestions,
				"Provide both 'symbol' and 'new_name' parameters")
		}
	}

	if isUnavailable(err) {
		suggestions = append(suggestions,
			"The language service may still be starting; retry shortly",
			"Check that the workspace loaded successfully")
	}

	return suggestions
}
