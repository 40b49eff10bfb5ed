package motion

import (
	"fmt"
	"strings"
)

// SequencePolicy controls whether the receiver consults sequence numbers.
type SequencePolicy int

const (
	// SequenceIgnore logs sequence numbers but never acts on them.
	SequenceIgnore SequencePolicy = iota
	// SequenceRejectStale drops duplicates and records older than the last
	// accepted one.
	SequenceRejectStale
)

func (p SequencePolicy) String() string {
	switch p {
	case SequenceIgnore:
		return "ignore"
	case SequenceRejectStale:
		return "reject-stale"
	default:
		return fmt.Sprintf("SequencePolicy(%d)", int(p))
	}
}

// ParseSequencePolicy maps a config value onto a policy.
func ParseSequencePolicy(s string) (SequencePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return SequenceIgnore, nil
	case "reject-stale":
		return SequenceRejectStale, nil
	default:
		return 0, fmt.Errorf("unknown sequence policy %q", s)
	}
}

// SequenceNewer reports whether a comes after b using serial-number
// arithmetic, so the comparison survives wraparound.
func SequenceNewer(a, b uint32) bool {
	return int32(a-b) > 0 //nolint:gosec // wrap-around difference
}

// ElapsedMillis returns the signed distance from prev to curr for wrapping
// 32-bit millisecond clocks. A negative result means curr is older.
func ElapsedMillis(prev, curr uint32) int32 {
	return int32(curr - prev) //nolint:gosec // wrap-around difference
}
