// Package queryparse normalizes the document-shaped query predicates the
// engine accepts into a structured form the planner and in-memory
// evaluator both operate on.
package queryparse

// Op identifies a query operator. The zero value is EQ.
type Op int

const (
	EQ Op = iota
	GT
	GTE
	LT
	LTE
	IN
	NIN
	BETWEEN
)

func (o Op) String() string {
	switch o {
	case EQ:
		return "$eq"
	case GT:
		return "$gt"
	case GTE:
		return "$gte"
	case LT:
		return "$lt"
	case LTE:
		return "$lte"
	case IN:
		return "$in"
	case NIN:
		return "$nin"
	case BETWEEN:
		return "$between"
	default:
		return "?badOp?"
	}
}

// TagExpressible reports whether the operator can be pushed down into the
// store's conjunctive tag-filter dialect. $in and $nin require either a
// disjunction or a negative match the dialect cannot express.
func (o Op) TagExpressible() bool {
	switch o {
	case EQ, GT, GTE, LT, LTE, BETWEEN:
		return true
	default:
		return false
	}
}

// Condition is a single operator clause on one field.
type Condition struct {
	Op Op

	// Value holds the operand for EQ/GT/GTE/LT/LTE.
	Value interface{}

	// Values holds the operand list for IN/NIN (the membership set) and
	// BETWEEN (always exactly two elements, [low, high], inclusive).
	Values []interface{}
}

// Query is a parsed predicate: an ordered list of fields (stable iteration
// order, used when generating tag-filter expressions) plus the conditions
// on each.
type Query struct {
	Fields     []string
	Conditions map[string][]Condition
}

// IsEmpty reports whether the query has no conditions at all, which
// selects the planner's listing mode.
func (q *Query) IsEmpty() bool {
	return q == nil || len(q.Fields) == 0
}

// AllTagExpressible reports whether every condition on every field can be
// pushed into a tag filter.
func (q *Query) AllTagExpressible() bool {
	for _, field := range q.Fields {
		for _, c := range q.Conditions[field] {
			if !c.Op.TagExpressible() {
				return false
			}
		}
	}
	return true
}
