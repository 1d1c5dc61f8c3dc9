package budget

// Mode selects the response detail level requested by the caller.
type Mode string

const (
	ModeSummary   Mode = "summary"
	ModeDetailed  Mode = "detailed"
	ModeOptimized Mode = "optimized"
)

// ParseMode normalizes a caller-supplied mode string. Unknown or empty
// values fall back to optimized.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeSummary, ModeDetailed, ModeOptimized:
		return Mode(s)
	default:
		return ModeOptimized
	}
}

// Budget planning constants.
const (
	// ExplicitLimitMargin is reserved when the caller declared a limit.
	// Rationale: the caller knows their context window, so only estimator
	// imprecision needs covering.
	ExplicitLimitMargin = 0.08

	// DefaultLimitMargin is reserved when falling back to the server
	// default limit.
	// Rationale: a default limit is a guess about the caller's window, so
	// a larger cushion compensates for both the guess and the estimator.
	DefaultLimitMargin = 0.18

	// MinViableBudget is the smallest usable budget ever planned.
	// Rationale: enough tokens for a single degraded item plus the
	// truncation notice, so a response is never entirely empty.
	MinViableBudget = 50

	// FallbackTokenLimit is used when neither the caller nor the server
	// configuration supplies a limit.
	FallbackTokenLimit = 10000
)

// Plan is a concrete usable budget derived from a limit and mode.
type Plan struct {
	Limit    int     // the limit the plan was derived from
	Mode     Mode    // requested detail level
	Margin   float64 // safety margin that was reserved
	Usable   int     // tokens available for the response
	Floored  bool    // true when MinViableBudget was applied
	Explicit bool    // true when the caller supplied the limit
}

// PlanBudget turns a caller-declared limit (0 = unset) and mode into a
// concrete usable budget. consumed is subtracted for tokens already spent
// on fixed response framing. Underflow is not an error: the result is
// floored at MinViableBudget and flagged.
func PlanBudget(limit, defaultLimit int, mode Mode, consumed int) Plan {
	p := Plan{Mode: mode}

	switch {
	case limit > 0:
		p.Limit = limit
		p.Margin = ExplicitLimitMargin
		p.Explicit = true
	case defaultLimit > 0:
		p.Limit = defaultLimit
		p.Margin = DefaultLimitMargin
	default:
		p.Limit = FallbackTokenLimit
		p.Margin = DefaultLimitMargin
	}

	if consumed < 0 {
		consumed = 0
	}

	p.Usable = int(float64(p.Limit)*(1-p.Margin)) - consumed
	if p.Usable < MinViableBudget {
		p.Usable = MinViableBudget
		p.Floored = true
	}

	return p
}
