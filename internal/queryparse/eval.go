package queryparse

import (
	"time"
)

// Matches reports whether doc satisfies every condition in q. An absent
// field fails every operator except NIN, which also fails — a documented,
// deliberate policy: missing fields satisfy neither membership nor
// non-membership tests.
func Matches(doc map[string]interface{}, q *Query) bool {
	if q.IsEmpty() {
		return true
	}
	for _, field := range q.Fields {
		v, present := doc[field]
		for _, c := range q.Conditions[field] {
			if !matchCondition(v, present, c) {
				return false
			}
		}
	}
	return true
}

func matchCondition(v interface{}, present bool, c Condition) bool {
	if !present {
		return false
	}
	switch c.Op {
	case EQ:
		return equal(v, c.Value)
	case GT:
		cmp, ok := compare(v, c.Value)
		return ok && cmp > 0
	case GTE:
		cmp, ok := compare(v, c.Value)
		return ok && cmp >= 0
	case LT:
		cmp, ok := compare(v, c.Value)
		return ok && cmp < 0
	case LTE:
		cmp, ok := compare(v, c.Value)
		return ok && cmp <= 0
	case BETWEEN:
		lo, hi := c.Values[0], c.Values[1]
		cl, okl := compare(v, lo)
		ch, okh := compare(v, hi)
		return okl && okh && cl >= 0 && ch <= 0
	case IN:
		for _, want := range c.Values {
			if equal(v, want) {
				return true
			}
		}
		return false
	case NIN:
		for _, want := range c.Values {
			if equal(v, want) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// equal reports whether a and b represent the same value, normalizing
// ISO-8601 timestamps to instants before comparing so "2024-01-01T00:00:00Z"
// and a RFC3339 variant with different formatting still compare equal.
func equal(a, b interface{}) bool {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			return ta.Equal(tb)
		}
	}
	fa, oka := asFloat(a)
	fb, okb := asFloat(b)
	if oka && okb {
		return fa == fb
	}
	sa, oka := a.(string)
	sb, okb := b.(string)
	if oka && okb {
		return sa == sb
	}
	return a == b
}

// compare returns (-1|0|1, true) when a and b are ordered comparable
// values (both numeric, both timestamps, or both strings), and (_, false)
// when the types don't support a natural order against each other — per
// the parser's semantics, a mismatched comparison fails the predicate
// rather than erroring.
func compare(a, b interface{}) (int, bool) {
	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
	}
	fa, oka := asFloat(a)
	fb, okb := asFloat(b)
	if oka && okb {
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, oka := a.(string)
	sb, okb := b.(string)
	if oka && okb {
		switch {
		case sa < sb:
			return -1, true
		case sa > sb:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{
			"2006-01-02T15:04:05.000Z",
			time.RFC3339,
			time.RFC3339Nano,
		} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
