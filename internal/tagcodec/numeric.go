package tagcodec

import (
	"fmt"
	"time"
)

// intWidth is the fixed digit width (not counting the sign) used to
// zero-pad integer magnitudes, wide enough for any uint64 magnitude.
const intWidth = 20

// maxMag is the magnitude of math.MinInt64, and so the largest magnitude
// any int64 can have.
const maxMag = uint64(1) << 63

// EncodeInt renders n as a sign character followed by a fixed-width,
// zero-padded decimal magnitude, chosen so byte-lexicographic order on the
// result matches numeric order: '-' (0x2D) sorts before the escaped form of
// '+' (which Escape turns into "_2B", starting with 0x5F) once the result
// passes through Escape, and within a sign the magnitude is encoded so that
// larger magnitude always sorts later among same-signed values — which for
// negative numbers means storing the complement of the magnitude, since a
// more negative number has a larger magnitude but must sort first.
func EncodeInt(n int64) string {
	if n >= 0 {
		return fmt.Sprintf("+%0*d", intWidth, uint64(n))
	}
	mag := uint64(-(n + 1)) + 1 // avoids overflow at n == math.MinInt64
	return fmt.Sprintf("-%0*d", intWidth, maxMag-mag)
}

// DecodeInt reverses EncodeInt.
func DecodeInt(s string) (int64, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("tagcodec: invalid encoded int %q", s)
	}
	var u uint64
	if _, err := fmt.Sscanf(s[1:], "%d", &u); err != nil {
		return 0, fmt.Errorf("tagcodec: invalid encoded int %q: %w", s, err)
	}
	switch s[0] {
	case '+':
		return int64(u), nil
	case '-':
		mag := maxMag - u
		return -int64(mag-1) - 1, nil
	default:
		return 0, fmt.Errorf("tagcodec: invalid encoded int sign %q", s)
	}
}

// timeLayout is the canonical extended ISO-8601 UTC form used so that
// byte-lexicographic comparison on the encoded string matches chronological
// order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// EncodeTime renders t in UTC using the canonical layout.
func EncodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// DecodeTime parses a value produced by EncodeTime.
func DecodeTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
