// Package plan selects a query execution strategy and builds the
// server-side tag-filter expressions that implement it, grounded on the
// same filter-translation shape gocloud.dev's mongodocstore driver uses to
// turn a driver.Query into a backend-native filter.
package plan

import (
	"fmt"
	"strings"

	"github.com/goshops-com/StormiDB/internal/queryparse"
	"github.com/goshops-com/StormiDB/internal/tagcodec"
)

// quote wraps v in single quotes, doubling any internal single quote per
// the tag-filter grammar.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func encodeOperand(v interface{}) (string, bool) {
	return tagcodec.Encode(v)
}

// hashOperand mirrors the write path's hashing of unique-field values
// (see stormidb.Engine.buildTags), so an EQ atom against a hashed-unique
// field's tag matches what was actually stored.
func hashOperand(v interface{}) (string, bool) {
	s, ok := tagcodec.Stringize(v)
	if !ok {
		return "", false
	}
	return tagcodec.Hash(s), true
}

// filterAtoms translates a field's TagExpressible conditions into zero or
// more grammar atoms: "field" OP 'value'. unique reports whether field's
// stored tag is the hashed form; the planner only calls this for a unique
// field when every one of its conditions is EQ, since hashing destroys the
// ordering GT/GTE/LT/LTE/BETWEEN depend on.
func filterAtoms(field string, conds []queryparse.Condition, unique bool) ([]string, error) {
	operand := encodeOperand
	if unique {
		operand = hashOperand
	}
	var atoms []string
	for _, c := range conds {
		switch c.Op {
		case queryparse.EQ:
			enc, ok := operand(c.Value)
			if !ok {
				return nil, fmt.Errorf("plan: field %q: value has no tag encoding", field)
			}
			atoms = append(atoms, fmt.Sprintf(`"%s" = %s`, field, quote(enc)))
		case queryparse.GT, queryparse.GTE, queryparse.LT, queryparse.LTE:
			enc, ok := operand(c.Value)
			if !ok {
				return nil, fmt.Errorf("plan: field %q: value has no tag encoding", field)
			}
			atoms = append(atoms, fmt.Sprintf(`"%s" %s %s`, field, opSymbol(c.Op), quote(enc)))
		case queryparse.BETWEEN:
			lo, okl := operand(c.Values[0])
			hi, okh := operand(c.Values[1])
			if !okl || !okh {
				return nil, fmt.Errorf("plan: field %q: $between operand has no tag encoding", field)
			}
			atoms = append(atoms, fmt.Sprintf(`"%s" BETWEEN %s AND %s`, field, quote(lo), quote(hi)))
		default:
			return nil, fmt.Errorf("plan: field %q: operator %s is not tag-expressible", field, c.Op)
		}
	}
	return atoms, nil
}

func opSymbol(op queryparse.Op) string {
	switch op {
	case queryparse.GT:
		return ">"
	case queryparse.GTE:
		return ">="
	case queryparse.LT:
		return "<"
	case queryparse.LTE:
		return "<="
	default:
		return "?"
	}
}

// BuildFilterExpr builds the conjunctive tag-filter expression for the
// given fields of q. Every condition on every named field must be
// TagExpressible; callers (the planner) are expected to have already
// restricted fields to the indexed, tag-expressible subset, and unique
// fields to their EQ-only subset (see filterAtoms). unique reports which
// of fields are hashed-unique in the catalog.
func BuildFilterExpr(q *queryparse.Query, fields []string, unique map[string]bool) (string, error) {
	var atoms []string
	for _, field := range fields {
		fieldAtoms, err := filterAtoms(field, q.Conditions[field], unique[field])
		if err != nil {
			return "", err
		}
		atoms = append(atoms, fieldAtoms...)
	}
	return strings.Join(atoms, " AND "), nil
}
