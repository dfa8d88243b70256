// Package tool implements the function / tool calling subsystem that lets
// models invoke structured capabilities (APIs, computations, side-effects)
// with schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/promptwire/promptwire/internal/util"
)

// Tool is a typed, schema-described callable exposed to models.
//
// Tool implementations should:
//   - Provide clear, descriptive names and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be thread-safe if used concurrently
type Tool interface {
	// Name returns the unique identifier for this tool.
	// Names should follow function naming conventions (snake_case recommended).
	Name() string

	// Description returns a human-readable description of what this tool does.
	// The description is provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]interface{}

	// Call executes the tool with structured arguments. Arguments are parsed
	// from the model's JSON payload and validated against the tool's schema.
	Call(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Definition is the declarative schema of a tool as sent to providers.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"` // JSON Schema
}

// DefinitionOf extracts the declarative schema from a tool.
func DefinitionOf(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// Definitions maps a tool list to its declarative schemas, preserving order.
func Definitions(tools []Tool) []Definition {
	if len(tools) == 0 {
		return nil
	}
	defs := make([]Definition, len(tools))
	for i, t := range tools {
		defs[i] = DefinitionOf(t)
	}
	return defs
}

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}
