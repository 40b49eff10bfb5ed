package smoother

import (
	"time"

	"github.com/mousemirror/mousemirror/internal/motion"
)

const (
	DefaultSteps = 5
)

// State is the position of a Tracker in its state machine.
type State int

const (
	// StateIdle means no record has been seen yet.
	StateIdle State = iota
	// StateTracking means the previous record is held for interpolation.
	StateTracking
)

func (s State) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// Step is one relative motion followed by a pause.
type Step struct {
	DX, DY int
	Delay  time.Duration
}

// Plan is the playback of a single received record.
type Plan struct {
	Sequence uint32
	DX, DY   int
	Gap      time.Duration
	Steps    []Step
}

// Options configures a Tracker.
type Options struct {
	// Steps is the number of interpolation sub-steps per record.
	Steps int

	// MaxGap caps the time a single record is spread over. Zero disables the
	// cap.
	MaxGap time.Duration
}

// Tracker turns a stream of records from one sender into playback plans.
// It holds only the previous record.
type Tracker struct {
	opts  Options
	state State
	prev  motion.Record
}

func NewTracker(opts Options) *Tracker {
	if opts.Steps <= 0 {
		opts.Steps = DefaultSteps
	}

	return &Tracker{opts: opts}
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Previous returns the last record seen and whether there is one.
func (t *Tracker) Previous() (motion.Record, bool) {
	return t.prev, t.state == StateTracking
}

// Reset drops the held record and returns to StateIdle.
func (t *Tracker) Reset() {
	t.state = StateIdle
	t.prev = motion.Record{}
}

// Next consumes a record and returns how it should be played back.
//
// The first record is applied in one immediate step. Later records are spread
// over Steps sub-steps across the gap measured between the sender timestamps
// of the previous and current record (at least 1ms).
func (t *Tracker) Next(rec motion.Record) Plan {
	plan := Plan{Sequence: rec.Sequence, DX: rec.DX, DY: rec.DY}

	if t.state == StateIdle {
		plan.Steps = []Step{{DX: rec.DX, DY: rec.DY}}
		t.prev = rec
		t.state = StateTracking
		return plan
	}

	elapsed := max(1, int64(motion.ElapsedMillis(t.prev.Timestamp, rec.Timestamp)))
	plan.Gap = time.Duration(elapsed) * time.Millisecond
	if t.opts.MaxGap > 0 && plan.Gap > t.opts.MaxGap {
		plan.Gap = t.opts.MaxGap
	}

	n := t.opts.Steps
	xs := Interpolate(t.prev.DX, rec.DX, n)
	ys := Interpolate(t.prev.DY, rec.DY, n)
	delay := plan.Gap / time.Duration(n)

	plan.Steps = make([]Step, n)
	for i := range n {
		plan.Steps[i] = Step{DX: xs[i], DY: ys[i], Delay: delay}
	}

	t.prev = rec
	return plan
}

// Interpolate splits curr into steps displacements along the ramp
// prev + (curr-prev)*i/steps, i = 1..steps.
//
// The ramp values act as weights: the result sums exactly to curr, and every
// element has the sign of curr or is zero. Ramp values pointing against curr
// contribute nothing.
func Interpolate(prev, curr, steps int) []int {
	out := make([]int, steps)
	if curr == 0 || steps <= 0 {
		return out
	}

	sign := int64(1)
	if curr < 0 {
		sign = -1
	}

	// weights are scaled by steps to stay in integers
	weights := make([]int64, steps)
	var total int64
	for i := range steps {
		w := sign * (int64(prev)*int64(steps) + int64(curr-prev)*int64(i+1))
		w = max(w, 0)
		weights[i] = w
		total += w
	}

	var cumWeight, sent int64
	for i, w := range weights {
		cumWeight += w
		target := roundDiv(int64(curr)*cumWeight, total)
		out[i] = int(target - sent)
		sent = target
	}

	return out
}

// roundDiv divides a by b > 0, rounding half away from zero.
func roundDiv(a, b int64) int64 {
	if a >= 0 {
		return (a + b/2) / b
	}
	return -((-a + b/2) / b)
}
