package response

import (
	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
)

// ActionRecord is a suggested follow-up operation attached to a response.
// Actions carry their own priority so reduction can rank them without
// domain knowledge.
type ActionRecord struct {
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	Priority    int            `json:"priority"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// TokenCost reports the structural cost of one action record.
func (a ActionRecord) TokenCost(c *budget.Costing) int {
	total := c.Overhead(5)
	total += c.Text(a.Action)
	total += c.Text(a.Description)
	total += c.Text(a.Category)
	total += c.Scalar()
	total += c.Value(a.Parameters)
	return total
}

// Meta carries response-level bookkeeping.
type Meta struct {
	Mode          string `json:"mode"`
	Truncated     bool   `json:"truncated"`
	Tokens        int    `json:"tokens"`
	ExecutionTime string `json:"executionTime"`
}

// Envelope is the wire contract returned to the client for every tool
// call. Everything inside is created fresh per invocation and discarded
// after serialization.
type Envelope struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message"`
	Data        any            `json:"data,omitempty"`
	Insights    []string       `json:"insights,omitempty"`
	Actions     []ActionRecord `json:"actions,omitempty"`
	Meta        Meta           `json:"meta"`
	ResourceURI string         `json:"resourceUri,omitempty"`
}

// TokenCost reports the structural cost of the whole envelope, so the
// final size can be recomputed after reduction instead of reusing the
// pre-reduction estimate.
func (e *Envelope) TokenCost(c *budget.Costing) int {
	total := c.Overhead(7)
	total += c.Text(e.Message)
	total += c.Value(e.Data)
	for _, insight := range e.Insights {
		total += c.Overhead(1) + c.Text(insight)
	}
	total += budget.SliceCost(c, e.Actions)
	total += c.Overhead(4) // meta fields
	total += c.Text(e.Meta.Mode) + c.Text(e.Meta.ExecutionTime)
	total += c.Text(e.ResourceURI)
	return total
}

// Reducible is the capability a tool payload exposes to the assembler:
// it can report its own cost, its item count, and shrink itself to a
// token budget. Each tool supplies only its scorer and this mapping; the
// reduction machinery itself is shared.
type Reducible interface {
	budget.Costed

	// Len reports the number of reducible items the payload holds.
	Len() int

	// ReduceTo returns a reduced copy fitting within tokens, the number
	// of items kept, and whether anything was discarded or degraded. The
	// flag must be true even when the item count is unchanged, such as a
	// single over-budget item kept in shrunk form. The receiver is not
	// mutated. An error indicates a cost-function contract violation and
	// is surfaced unmodified.
	ReduceTo(tokens int) (Reducible, int, bool, error)
}

// ResourceStore persists full payloads discarded by reduction so clients
// can retrieve them out-of-band. Implementations must be safe for
// concurrent writes. No read path is part of this package.
type ResourceStore interface {
	Store(payload any) (string, error)
}
