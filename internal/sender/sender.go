package sender

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mousemirror/mousemirror/internal/motion"
	"github.com/mousemirror/mousemirror/internal/pointer"
)

const (
	DefaultTickInterval = 10 * time.Millisecond
)

// Options configures a Sender.
type Options struct {
	// TickInterval is how often the pointer is sampled.
	TickInterval time.Duration

	// Overflow decides what to do with a delta that does not fit a record.
	Overflow motion.OverflowPolicy

	// FirstSequence is the sequence number given to the first record.
	FirstSequence uint32
}

// Stats counts what the sender has done since it was created.
type Stats struct {
	Ticks     uint64
	Idle      uint64
	Sent      uint64
	Overflows uint64
}

// Sender samples the local pointer and turns its movement into a stream of
// relative motion records. A Sender is driven by one goroutine and is not
// safe for concurrent use.
type Sender struct {
	locator pointer.Locator
	conn    io.Writer
	opts    Options
	log     *slog.Logger

	sequence     uint32
	lastX, lastY int
	primed       bool
	stats        Stats
}

func New(locator pointer.Locator, conn io.Writer, opts Options, logger *slog.Logger) *Sender {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}

	return &Sender{
		locator:  locator,
		conn:     conn,
		opts:     opts,
		log:      logger,
		sequence: opts.FirstSequence,
	}
}

// Stats returns the counters collected so far.
func (s *Sender) Stats() Stats {
	return s.stats
}

// Run samples the pointer every tick until the context is cancelled or a
// record cannot be sent. A send failure is returned and ends the loop.
func (s *Sender) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.log.Info("sender started", "tickInterval", s.opts.TickInterval.String(), "overflowPolicy", s.opts.Overflow.String())

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping sender", "sent", s.stats.Sent, "ticks", s.stats.Ticks)
			return nil
		case now := <-ticker.C:
			if err := s.Tick(now); err != nil {
				return err
			}
		}
	}
}

// Tick takes one sample at the given time and transmits whatever motion
// happened since the previous sample.
func (s *Sender) Tick(now time.Time) error {
	s.stats.Ticks++
	x, y := s.locator.Location()

	// the first sample only establishes where the pointer starts
	if !s.primed {
		s.lastX, s.lastY = x, y
		s.primed = true
		s.log.Debug("sender primed", "x", x, "y", y)
		return nil
	}

	dx, dy := x-s.lastX, y-s.lastY
	if dx == 0 && dy == 0 {
		s.stats.Idle++
		return nil
	}

	ts := uint32(now.UnixMilli()) //nolint:gosec // 32-bit wrapping clock

	if motion.InRange(dx, dy) {
		if err := s.send(ts, dx, dy); err != nil {
			return err
		}
		s.lastX, s.lastY = x, y
		return nil
	}

	s.stats.Overflows++
	switch s.opts.Overflow {
	case motion.OverflowSplit:
		for _, chunk := range motion.Split(dx, dy) {
			if err := s.send(ts, chunk[0], chunk[1]); err != nil {
				return err
			}
		}
		s.lastX, s.lastY = x, y
	case motion.OverflowDrop:
		s.log.Warn("dropping out of range delta", "dx", dx, "dy", dy)
		s.lastX, s.lastY = x, y
	default:
		cx, cy := motion.Clamp(dx), motion.Clamp(dy)
		if err := s.send(ts, cx, cy); err != nil {
			return err
		}

		// the rest of the motion is picked up by the following ticks
		s.lastX += cx
		s.lastY += cy
	}

	return nil
}

func (s *Sender) send(ts uint32, dx, dy int) error {
	buf := motion.Encode(s.sequence, ts, dx, dy)
	if _, err := s.conn.Write(buf[:]); err != nil {
		return fmt.Errorf("failed to send motion record %d: %w", s.sequence, err)
	}

	s.log.Debug("sent motion record", "sequence", s.sequence, "timestamp", ts, "dx", dx, "dy", dy)
	s.sequence++
	s.stats.Sent++
	return nil
}
