package response

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/anortham/coa-codenav-mcp-sub005/internal/budget"
)

// Sub-budget shares of the usable budget.
const (
	// DataShare is both the pass-through threshold and the data
	// sub-budget: payloads already at or under this fraction of the
	// usable budget are returned untouched at full fidelity.
	DataShare = 0.70

	// SummaryDataShare replaces DataShare in summary mode.
	SummaryDataShare = 0.35

	// InsightShare funds the insight list; order is preserved, capped by
	// cost.
	InsightShare = 0.10

	// ActionShare funds suggested actions, ranked by their own declared
	// priority.
	ActionShare = 0.15

	// FramingTokens is reserved up front for the fixed envelope framing
	// (success, message, meta).
	FramingTokens = 150
)

// Assembler orchestrates estimate → reduce → attach-metadata for every
// tool response. It holds no per-request state; running it twice on
// identical inputs yields identical output.
type Assembler struct {
	est          *budget.TokenEstimator
	store        ResourceStore
	defaultLimit int
	log          *zap.Logger
}

// NewAssembler creates an assembler. store may be nil (no out-of-band
// payload offload); log may be nil.
func NewAssembler(est *budget.TokenEstimator, store ResourceStore, defaultLimit int, log *zap.Logger) *Assembler {
	if est == nil {
		est = budget.NewTokenEstimator()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{est: est, store: store, defaultLimit: defaultLimit, log: log}
}

// Request is the input for one response assembly.
type Request struct {
	Message    string
	Mode       budget.Mode
	TokenLimit int // 0 = caller did not declare a limit
	Started    time.Time
	Data       Reducible // optional
	Insights   []string
	Actions    []ActionRecord
}

// Build produces the final envelope. Errors are cost-function contract
// violations only; every well-behaved input yields an envelope, degraded
// rather than absent.
func (a *Assembler) Build(req Request) (*Envelope, error) {
	plan := budget.PlanBudget(req.TokenLimit, a.defaultLimit, req.Mode, FramingTokens)

	env := &Envelope{
		Success: true,
		Message: req.Message,
		Meta: Meta{
			Mode: string(plan.Mode),
		},
	}

	dataTruncated := false
	keptItems, totalItems := 0, 0
	offloadFailed := false

	if req.Data != nil {
		dataBudget := int(float64(plan.Usable) * a.dataShare(plan.Mode))
		totalItems = req.Data.Len()
		keptItems = totalItems

		dataCost := a.est.Estimate(req.Data)
		if dataCost <= dataBudget {
			// Small results pass through untouched.
			env.Data = req.Data
		} else {
			reduced, kept, reducedTruncated, err := req.Data.ReduceTo(dataBudget)
			if err != nil {
				return nil, err
			}
			env.Data = reduced
			keptItems = kept
			// The reducer's own flag covers degradations the item count
			// cannot show, such as a 1-of-1 escape hatch that shrank the
			// only item.
			if reducedTruncated || kept < totalItems {
				dataTruncated = true
				offloadFailed = !a.offloadFullPayload(env, req.Data)
			}
		}
	}

	insights, insightsTruncated, err := a.reduceInsights(req.Insights, plan.Usable)
	if err != nil {
		return nil, err
	}
	actions, actionsTruncated, err := a.reduceActions(req.Actions, plan.Usable)
	if err != nil {
		return nil, err
	}
	truncated := dataTruncated || insightsTruncated || actionsTruncated

	// The notice describes the data section only; trimmed insights or
	// actions are visible in the flag but never misreported as dropped
	// results.
	if dataTruncated && totalItems > 0 {
		notice := fmt.Sprintf("Showing %d of %d results. Narrow the request or raise max_tokens for more.", keptItems, totalItems)
		insights = append([]string{notice}, insights...)
	}
	if plan.Floored {
		insights = append(insights, "Token budget was below the minimum viable size and has been floored.")
	}
	if offloadFailed {
		insights = append(insights, "Full result payload could not be stored for later retrieval.")
	}
	env.Insights = insights
	env.Actions = actions

	env.Meta.Truncated = truncated
	if !req.Started.IsZero() {
		env.Meta.ExecutionTime = time.Since(req.Started).Round(time.Microsecond).String()
	}

	// Post-reduction size is not a linear function of the pre-reduction
	// estimate, so the final count is recomputed from the envelope.
	env.Meta.Tokens = a.est.Estimate(env)

	return env, nil
}

// NewErrorEnvelope shapes an upstream failure into the wire contract.
// Upstream errors never reach the reducers; they are represented as
// structured results before this core is invoked.
func NewErrorEnvelope(message string, mode budget.Mode, started time.Time) *Envelope {
	env := &Envelope{
		Success: false,
		Message: message,
		Meta:    Meta{Mode: string(mode)},
	}
	if !started.IsZero() {
		env.Meta.ExecutionTime = time.Since(started).Round(time.Microsecond).String()
	}
	return env
}

func (a *Assembler) dataShare(mode budget.Mode) float64 {
	if mode == budget.ModeSummary {
		return SummaryDataShare
	}
	return DataShare
}

// reduceInsights caps the insight list by cost while preserving the
// original order: earlier insights outrank later ones.
func (a *Assembler) reduceInsights(insights []string, usable int) ([]string, bool, error) {
	if len(insights) == 0 {
		return nil, false, nil
	}

	type indexed struct {
		pos  int
		text string
	}
	items := make([]indexed, len(insights))
	for i, s := range insights {
		items[i] = indexed{pos: i, text: s}
	}

	res, err := budget.Reduce(budget.Request[indexed]{
		Items:    items,
		Cost:     func(it indexed) int { return a.est.Estimate(it.text) },
		Budget:   int(float64(usable) * InsightShare),
		Priority: func(it indexed) int { return len(insights) - it.pos },
		TieBreak: func(it indexed) string { return fmt.Sprintf("%06d", it.pos) },
	})
	if err != nil {
		return nil, false, err
	}

	out := make([]string, len(res.Selected))
	for i, it := range res.Selected {
		out[i] = it.text
	}
	return out, res.Truncated, nil
}

// reduceActions keeps the highest-priority actions that fit, ranked by
// each action's own declared priority field.
func (a *Assembler) reduceActions(actions []ActionRecord, usable int) ([]ActionRecord, bool, error) {
	if len(actions) == 0 {
		return nil, false, nil
	}

	res, err := budget.Reduce(budget.Request[ActionRecord]{
		Items:    actions,
		Cost:     func(ar ActionRecord) int { return a.est.Estimate(ar) },
		Budget:   int(float64(usable) * ActionShare),
		Priority: func(ar ActionRecord) int { return ar.Priority },
		TieBreak: func(ar ActionRecord) string { return ar.Action },
		Shrink: func(ar ActionRecord) ActionRecord {
			ar.Parameters = nil
			ar.Description = ""
			return ar
		},
	})
	if err != nil {
		return nil, false, err
	}
	return res.Selected, res.Truncated, nil
}

// offloadFullPayload stores the unreduced payload so the client can fetch
// it out-of-band, reporting whether a URI was attached. Store failures
// degrade the response, they never fail it. No configured store is not a
// failure.
func (a *Assembler) offloadFullPayload(env *Envelope, full Reducible) bool {
	if a.store == nil {
		return true
	}
	uri, err := a.store.Store(full)
	if err != nil {
		a.log.Warn("resource store rejected full payload", zap.Error(err))
		return false
	}
	env.ResourceURI = uri
	return true
}
