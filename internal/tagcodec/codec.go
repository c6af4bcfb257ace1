package tagcodec

import (
	"fmt"
	"time"
)

// Encode converts a field value into a tag-alphabet-safe string. It returns
// ok=false when v has no defined tag encoding (the write path treats this
// as Unsupported and skips tagging the field, per a per-field warning
// rather than failing the whole write).
//
// Integers and timestamps are rendered through EncodeInt/EncodeTime first so
// that range comparisons on the resulting tag stay order-preserving; every
// other supported value is escaped as its natural string form.
func Encode(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return Escape(t), true
	case bool:
		return Escape(fmt.Sprintf("%t", t)), true
	case int:
		return Escape(EncodeInt(int64(t))), true
	case int32:
		return Escape(EncodeInt(int64(t))), true
	case int64:
		return Escape(EncodeInt(t)), true
	case float64:
		// JSON numbers decode as float64; treat integral values as
		// integers so order-preserving comparisons still apply.
		if t == float64(int64(t)) {
			return Escape(EncodeInt(int64(t))), true
		}
		return Escape(fmt.Sprintf("%g", t)), true
	case time.Time:
		return Escape(EncodeTime(t)), true
	default:
		return "", false
	}
}

// Stringize renders v as the plain string Hash takes as input, the same
// conversion the write path and the query path must agree on so a
// hashed-unique probe and a hashed-unique query produce the same tag.
// It returns ok=false for values with no defined string rendering.
func Stringize(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64, int, int64, bool:
		return fmt.Sprintf("%v", t), true
	default:
		return "", false
	}
}
