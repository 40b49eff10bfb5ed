package motion

import (
	"fmt"
	"strings"
)

// OverflowPolicy decides what a sender does with a delta that does not fit
// the packed axis fields.
type OverflowPolicy int

const (
	// OverflowClamp sends the delta clamped to the axis range and carries the
	// remainder into later ticks.
	OverflowClamp OverflowPolicy = iota
	// OverflowSplit sends several in-range records that sum to the delta.
	OverflowSplit
	// OverflowDrop sends nothing and resynchronises on the new position.
	OverflowDrop
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowClamp:
		return "clamp"
	case OverflowSplit:
		return "split"
	case OverflowDrop:
		return "drop"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy maps a config value onto a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return OverflowClamp, nil
	case "split":
		return OverflowSplit, nil
	case "drop":
		return OverflowDrop, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Clamp limits a single axis to [AxisMin, AxisMax].
func Clamp(v int) int {
	return min(max(v, AxisMin), AxisMax)
}

// Split breaks (dx, dy) into the fewest chunks whose magnitude stays within
// AxisMax on both axes. The chunks sum exactly to the input. A zero delta
// yields no chunks.
func Split(dx, dy int) [][2]int {
	if dx == 0 && dy == 0 {
		return nil
	}

	n := max(ceilDiv(abs(dx), AxisMax), ceilDiv(abs(dy), AxisMax), 1)
	chunks := make([][2]int, 0, n)

	var sentX, sentY int
	for i := 1; i <= n; i++ {
		x := dx * i / n
		y := dy * i / n
		chunks = append(chunks, [2]int{x - sentX, y - sentY})
		sentX, sentY = x, y
	}

	return chunks
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
