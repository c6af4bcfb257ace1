package queryparse

import (
	"fmt"
	"sort"
)

var opNames = map[string]Op{
	"$eq":      EQ,
	"$gt":      GT,
	"$gte":     GTE,
	"$lt":      LT,
	"$lte":     LTE,
	"$in":      IN,
	"$nin":     NIN,
	"$between": BETWEEN,
}

// Parse normalizes a document-shaped predicate (field -> scalar, or field
// -> {"$op": value, ...}) into a Query. A scalar value is shorthand for
// {"$eq": value}. Fields are returned sorted for deterministic tag-filter
// generation.
func Parse(predicate map[string]interface{}) (*Query, error) {
	q := &Query{Conditions: map[string][]Condition{}}
	for field, raw := range predicate {
		conds, err := parseField(field, raw)
		if err != nil {
			return nil, err
		}
		q.Fields = append(q.Fields, field)
		q.Conditions[field] = conds
	}
	sort.Strings(q.Fields)
	return q, nil
}

func parseField(field string, raw interface{}) ([]Condition, error) {
	clauses, ok := raw.(map[string]interface{})
	if !ok {
		return []Condition{{Op: EQ, Value: raw}}, nil
	}
	// A nested object with no "$"-prefixed key is not an operator clause
	// but a literal object value to match by equality.
	hasOperator := false
	for k := range clauses {
		if len(k) > 0 && k[0] == '$' {
			hasOperator = true
			break
		}
	}
	if !hasOperator {
		return []Condition{{Op: EQ, Value: raw}}, nil
	}

	var conds []Condition
	var keys []string
	for k := range clauses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		op, ok := opNames[k]
		if !ok {
			return nil, fmt.Errorf("queryparse: field %q: unknown operator %q", field, k)
		}
		v := clauses[k]
		switch op {
		case IN, NIN:
			values, err := asSlice(field, k, v)
			if err != nil {
				return nil, err
			}
			conds = append(conds, Condition{Op: op, Values: values})
		case BETWEEN:
			values, err := asSlice(field, k, v)
			if err != nil {
				return nil, err
			}
			if len(values) != 2 {
				return nil, fmt.Errorf("queryparse: field %q: %q requires exactly 2 elements, got %d", field, k, len(values))
			}
			conds = append(conds, Condition{Op: op, Values: values})
		default:
			conds = append(conds, Condition{Op: op, Value: v})
		}
	}
	return conds, nil
}

func asSlice(field, op string, v interface{}) ([]interface{}, error) {
	s, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("queryparse: field %q: %q requires an array value, got %T", field, op, v)
	}
	return s, nil
}
