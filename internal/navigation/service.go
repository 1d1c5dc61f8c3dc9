package navigation

import (
	"context"
	"fmt"
	"time"
)

// Service is the upstream result collaborator: an external language
// service (Roslyn workspace or a TypeScript server process) that performs
// the actual symbol resolution. Results are fully materialized: no lazy
// computation remains, and every item is independently measurable and
// scorable. Process management and workspace loading live behind this
// interface and are out of scope here.
type Service interface {
	// FindReferences returns every usage location of a symbol.
	FindReferences(ctx context.Context, symbol string) ([]Reference, error)

	// Diagnostics returns compiler diagnostics for a scope (a file path,
	// a project name, or "workspace").
	Diagnostics(ctx context.Context, scope string) ([]Diagnostic, error)

	// TraceCallStack returns the call hierarchy rooted at a symbol, with
	// incoming and outgoing callers up to the requested depth.
	TraceCallStack(ctx context.Context, symbol string, depth int) (*CallNode, error)

	// TypeMembers returns the member outline of a type.
	TypeMembers(ctx context.Context, typeName string) (*OutlineNode, error)

	// RenameSymbol performs a workspace-wide safe rename.
	RenameSymbol(ctx context.Context, symbol, newName string) (*RenameResult, error)
}

// UnavailableError reports that a language service could not be reached.
// It is shaped into a structured error envelope before the reduction
// engine is ever invoked.
type UnavailableError struct {
	Service    string
	Underlying error
	Timestamp  time.Time
}

// NewUnavailableError creates an unavailability error for a service.
func NewUnavailableError(service string, err error) *UnavailableError {
	return &UnavailableError{
		Service:    service,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("language service %s unavailable: %v", e.Service, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *UnavailableError) Unwrap() error {
	return e.Underlying
}

// SymbolNotFoundError reports that the language service resolved nothing
// for the requested symbol.
type SymbolNotFoundError struct {
	Symbol    string
	Operation string
}

// Error implements the error interface.
func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("%s: symbol %q not found", e.Operation, e.Symbol)
}

// Unavailable is a Service that reports every operation as unavailable.
// It stands in until a workspace host attaches a real backend, so the
// server always starts and callers always receive structured errors.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err(op string) error {
	return NewUnavailableError(op, fmt.Errorf("%s", u.Reason))
}

func (u Unavailable) FindReferences(context.Context, string) ([]Reference, error) {
	return nil, u.err("find-references")
}

func (u Unavailable) Diagnostics(context.Context, string) ([]Diagnostic, error) {
	return nil, u.err("diagnostics")
}

func (u Unavailable) TraceCallStack(context.Context, string, int) (*CallNode, error) {
	return nil, u.err("trace-call-stack")
}

func (u Unavailable) TypeMembers(context.Context, string) (*OutlineNode, error) {
	return nil, u.err("type-members")
}

func (u Unavailable) RenameSymbol(context.Context, string, string) (*RenameResult, error) {
	return nil, u.err("rename-symbol")
}
