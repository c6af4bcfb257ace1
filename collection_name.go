package stormidb

import "strings"

const (
	minCollectionNameLen = 3
	maxCollectionNameLen = 63
)

// sanitizeCollectionName maps an arbitrary collection name to a valid
// container identifier: lowercase; strip anything outside [a-z0-9-];
// collapse runs of '-'; trim leading/trailing '-'; clamp length to
// [3, 63], padding right with 'a' if too short.
func sanitizeCollectionName(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	stripped := b.String()

	var collapsed strings.Builder
	lastDash := false
	for _, r := range stripped {
		if r == '-' {
			if lastDash {
				continue
			}
			lastDash = true
		} else {
			lastDash = false
		}
		collapsed.WriteRune(r)
	}

	trimmed := strings.Trim(collapsed.String(), "-")

	if len(trimmed) > maxCollectionNameLen {
		trimmed = trimmed[:maxCollectionNameLen]
	}
	for len(trimmed) < minCollectionNameLen {
		trimmed += "a"
	}
	return trimmed
}
