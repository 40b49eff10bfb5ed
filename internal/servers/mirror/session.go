package mirror

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mousemirror/mousemirror/internal/motion"
	"github.com/mousemirror/mousemirror/internal/smoother"
)

// Session is the receive-side state of one sender, keyed by its address.
type Session struct {
	ID         uuid.UUID
	clientAddr *net.UDPAddr
	createdAt  time.Time
	lastSeen   atomic.Int64

	tracker *smoother.Tracker
	player  *smoother.Player
	ctx     context.Context
	cancel  context.CancelFunc

	// only touched by the packet processing goroutine
	lastSequence uint32
	hasSequence  bool
	received     uint64
	rejected     uint64
}

// ClientAddr returns the sender address this session belongs to.
func (s *Session) ClientAddr() *net.UDPAddr {
	return s.clientAddr
}

// Tracker returns the session's interpolation state.
func (s *Session) Tracker() *smoother.Tracker {
	return s.tracker
}

// Player returns the session's playback worker.
func (s *Session) Player() *smoother.Player {
	return s.player
}

// LastSeen returns when the last datagram from the sender was accepted.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// accept applies the sequence policy and records the sequence number.
func (s *Session) accept(rec motion.Record, policy motion.SequencePolicy) bool {
	if policy == motion.SequenceRejectStale && s.hasSequence && !motion.SequenceNewer(rec.Sequence, s.lastSequence) {
		s.rejected++
		return false
	}

	s.lastSequence = rec.Sequence
	s.hasSequence = true
	s.received++
	return true
}

func (s *Session) stop() {
	s.cancel()
	<-s.player.Done()
}
