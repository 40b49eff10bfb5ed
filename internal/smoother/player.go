package smoother

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mousemirror/mousemirror/internal/pointer"
)

const (
	DefaultQueueDepth = 64
)

// PlaybackPolicy decides what happens when a record arrives while the
// previous one is still being played back.
type PlaybackPolicy int

const (
	// PlaybackQueue finishes the current plan, sleeps included, before
	// starting the next one.
	PlaybackQueue PlaybackPolicy = iota
	// PlaybackPreempt applies the rest of the current plan at once and
	// starts the new plan immediately.
	PlaybackPreempt
)

func (p PlaybackPolicy) String() string {
	switch p {
	case PlaybackQueue:
		return "queue"
	case PlaybackPreempt:
		return "preempt"
	default:
		return fmt.Sprintf("PlaybackPolicy(%d)", int(p))
	}
}

// ParsePlaybackPolicy maps a config value onto a policy.
func ParsePlaybackPolicy(s string) (PlaybackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "queue":
		return PlaybackQueue, nil
	case "preempt":
		return PlaybackPreempt, nil
	default:
		return 0, fmt.Errorf("unknown playback policy %q", s)
	}
}

// PlayerStats counts what a Player has done. Safe to read concurrently.
type PlayerStats struct {
	Played     uint64
	Stalled    uint64
	Dropped    uint64
	Preempted  uint64
	MoveErrors uint64
}

// PlayerOptions configures a Player.
type PlayerOptions struct {
	Policy     PlaybackPolicy
	QueueDepth int

	// After returns a channel that fires once d has elapsed. Defaults to
	// time.After.
	After func(d time.Duration) <-chan time.Time
}

// Player executes plans against a Mover on its own goroutine.
type Player struct {
	mover  pointer.Mover
	policy PlaybackPolicy
	after  func(d time.Duration) <-chan time.Time
	inbox  chan Plan
	done   chan struct{}
	log    *slog.Logger

	played     atomic.Uint64
	stalled    atomic.Uint64
	dropped    atomic.Uint64
	preempted  atomic.Uint64
	moveErrors atomic.Uint64
}

func NewPlayer(mover pointer.Mover, opts PlayerOptions, logger *slog.Logger) *Player {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	if opts.After == nil {
		opts.After = time.After
	}

	return &Player{
		mover:  mover,
		policy: opts.Policy,
		after:  opts.After,
		inbox:  make(chan Plan, opts.QueueDepth),
		done:   make(chan struct{}),
		log:    logger,
	}
}

// Enqueue hands a plan to the player. When the inbox is full it blocks until
// the player catches up, so bursts wait behind the current playback instead
// of being lost. It returns false only if the player has stopped or ctx is
// cancelled first.
func (p *Player) Enqueue(ctx context.Context, plan Plan) bool {
	select {
	case <-p.done:
		p.drop(plan)
		return false
	default:
	}

	select {
	case p.inbox <- plan:
		return true
	default:
	}

	p.stalled.Add(1)
	p.log.Debug("playback queue full, waiting", "sequence", plan.Sequence, "queued", len(p.inbox))

	select {
	case p.inbox <- plan:
		return true
	case <-p.done:
		p.drop(plan)
		return false
	case <-ctx.Done():
		p.dropped.Add(1)
		return false
	}
}

func (p *Player) drop(plan Plan) {
	p.dropped.Add(1)
	p.log.Warn("player stopped, dropping record", "sequence", plan.Sequence, "dx", plan.DX, "dy", plan.DY)
}

// Done is closed once Run has returned.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Stats returns the current counters.
func (p *Player) Stats() PlayerStats {
	return PlayerStats{
		Played:     p.played.Load(),
		Stalled:    p.stalled.Load(),
		Dropped:    p.dropped.Load(),
		Preempted:  p.preempted.Load(),
		MoveErrors: p.moveErrors.Load(),
	}
}

// Run plays plans in arrival order until the context is cancelled.
func (p *Player) Run(ctx context.Context) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			return
		case plan := <-p.inbox:
			p.play(ctx, plan)
		}
	}
}

func (p *Player) play(ctx context.Context, plan Plan) {
	for {
		next, preempted := p.playPlan(ctx, plan)
		if !preempted {
			return
		}
		plan = next
	}
}

// playPlan runs the steps of one plan. When the policy allows preemption and
// a new plan arrives during a pause, the remaining steps are collapsed into
// one move and the new plan is returned.
func (p *Player) playPlan(ctx context.Context, plan Plan) (Plan, bool) {
	var preempt <-chan Plan
	if p.policy == PlaybackPreempt {
		preempt = p.inbox
	}

	for i, step := range plan.Steps {
		p.move(step.DX, step.DY)

		if step.Delay <= 0 {
			continue
		}

		select {
		case <-p.after(step.Delay):
		case <-ctx.Done():
			return Plan{}, false
		case next := <-preempt:
			var restX, restY int
			for _, rest := range plan.Steps[i+1:] {
				restX += rest.DX
				restY += rest.DY
			}
			if restX != 0 || restY != 0 {
				p.move(restX, restY)
			}

			p.preempted.Add(1)
			p.played.Add(1)
			p.log.Debug("playback preempted", "sequence", plan.Sequence, "next", next.Sequence, "stepsSkipped", len(plan.Steps)-i-1)
			return next, true
		}
	}

	p.played.Add(1)
	return Plan{}, false
}

func (p *Player) move(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}

	if err := p.mover.MoveRelative(dx, dy); err != nil {
		p.moveErrors.Add(1)
		p.log.Warn("failed to move pointer, skipping step", "dx", dx, "dy", dy, "error", err)
	}
}
