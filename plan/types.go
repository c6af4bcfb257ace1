package plan

import "github.com/goshops-com/StormiDB/internal/queryparse"

// Mode identifies which of the four execution strategies the planner
// chose for a query.
type Mode int

const (
	// ModeListing is used for an empty predicate: enumerate the
	// container in natural order.
	ModeListing Mode = iota

	// ModeTagFilter pushes every condition down to the store's
	// server-side tag search.
	ModeTagFilter

	// ModePartial pushes a subset of conditions down to a tag search to
	// narrow the candidate set, then applies the remaining conditions
	// in memory over the fetched documents.
	ModePartial

	// ModeFullScan enumerates the whole container and evaluates the
	// entire predicate in memory.
	ModeFullScan
)

func (m Mode) String() string {
	switch m {
	case ModeListing:
		return "listing"
	case ModeTagFilter:
		return "tag-filter"
	case ModePartial:
		return "partial"
	case ModeFullScan:
		return "full-scan"
	default:
		return "?badMode?"
	}
}

// Plan is the planner's decision for one query.
type Plan struct {
	Mode Mode

	// TagFields are the fields pushed into FilterExpr, in the order
	// used to build it. Empty unless Mode is ModeTagFilter or
	// ModePartial.
	TagFields []string

	// FilterExpr is the generated tag-filter expression. Empty unless
	// Mode is ModeTagFilter or ModePartial.
	FilterExpr string

	// Residual is the subset of the query that still needs in-memory
	// evaluation after the tag search narrows the candidate set.
	// Non-nil (but possibly with zero conditions) for every mode;
	// ModeFullScan sets it to the full query.
	Residual *queryparse.Query
}
