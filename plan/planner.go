package plan

import (
	"github.com/goshops-com/StormiDB/internal/queryparse"
)

// Select chooses an execution mode for q given the set of fields the
// collection's catalog currently indexes and the subset of those that are
// hashed-unique. indexed should contain exactly the catalog's
// indexedFields, unique exactly its uniqueFields.
func Select(q *queryparse.Query, indexed, unique map[string]bool) (*Plan, error) {
	if q.IsEmpty() {
		return &Plan{Mode: ModeListing, Residual: emptyQuery()}, nil
	}

	var tagFields, residualFields []string
	for _, field := range q.Fields {
		if indexed[field] && fieldTagExpressible(q.Conditions[field], unique[field]) {
			tagFields = append(tagFields, field)
		} else {
			residualFields = append(residualFields, field)
		}
	}

	if len(tagFields) == 0 {
		return &Plan{Mode: ModeFullScan, Residual: q}, nil
	}

	expr, err := BuildFilterExpr(q, tagFields, unique)
	if err != nil {
		return nil, err
	}

	if len(residualFields) == 0 {
		return &Plan{Mode: ModeTagFilter, TagFields: tagFields, FilterExpr: expr, Residual: emptyQuery()}, nil
	}

	residual := &queryparse.Query{Conditions: map[string][]queryparse.Condition{}}
	for _, f := range residualFields {
		residual.Fields = append(residual.Fields, f)
		residual.Conditions[f] = q.Conditions[f]
	}
	return &Plan{Mode: ModePartial, TagFields: tagFields, FilterExpr: expr, Residual: residual}, nil
}

// fieldTagExpressible reports whether a field's conditions can be pushed
// into the tag-filter dialect. A hashed-unique field's stored tag has no
// preserved ordering, so it is only pushable when every condition is EQ;
// a non-unique field follows the operator's own TagExpressible rule.
func fieldTagExpressible(conds []queryparse.Condition, unique bool) bool {
	for _, c := range conds {
		if unique {
			if c.Op != queryparse.EQ {
				return false
			}
			continue
		}
		if !c.Op.TagExpressible() {
			return false
		}
	}
	return true
}

func emptyQuery() *queryparse.Query {
	return &queryparse.Query{Conditions: map[string][]queryparse.Condition{}}
}

// Explain describes, in prose, how q would be executed against indexed
// and unique without running it — the planner analogue of gocloud.dev's
// Query.Plan/driver.QueryPlan introspection hook.
func Explain(q *queryparse.Query, indexed, unique map[string]bool) (Mode, string, error) {
	p, err := Select(q, indexed, unique)
	if err != nil {
		return ModeFullScan, "", err
	}
	switch p.Mode {
	case ModeListing:
		return p.Mode, "empty predicate: enumerate container in natural order", nil
	case ModeTagFilter:
		return p.Mode, "tag search: " + p.FilterExpr, nil
	case ModePartial:
		return p.Mode, "tag search narrows candidates (" + p.FilterExpr + "), remaining fields evaluated in memory: " + joinFields(p.Residual.Fields), nil
	default:
		return p.Mode, "full container scan with in-memory predicate evaluation", nil
	}
}

func joinFields(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}
