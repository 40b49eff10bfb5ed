package mirror

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mousemirror/mousemirror/internal/motion"
	"github.com/mousemirror/mousemirror/internal/smoother"
)

// Publisher is the part of a NATS connection the relay needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// MotionEvent is the JSON document relayed for every accepted record.
type MotionEvent struct {
	SessionID  string    `json:"sessionId"`
	ClientAddr string    `json:"clientAddr"`
	Sequence   uint32    `json:"sequence"`
	Timestamp  uint32    `json:"timestamp"`
	DX         int       `json:"dx"`
	DY         int       `json:"dy"`
	GapMS      int64     `json:"gapMs"`
	Steps      int       `json:"steps"`
	ReceivedAt time.Time `json:"receivedAt"`
}

func (e *MotionEvent) ToJSON() []byte {
	bytes, _ := json.Marshal(e)
	return bytes
}

// RelaySubject builds the subject records of a session are published on.
func RelaySubject(prefix string, session *Session) string {
	return fmt.Sprintf("%s.%s", prefix, session.ID.String())
}

// relayRecord publishes an accepted record. Publishing failures are logged and
// never affect playback.
func (s *MirrorServer) relayRecord(session *Session, rec motion.Record, plan smoother.Plan, receivedAt time.Time) {
	if s.publisher == nil {
		return
	}

	event := MotionEvent{
		SessionID:  session.ID.String(),
		ClientAddr: session.clientAddr.String(),
		Sequence:   rec.Sequence,
		Timestamp:  rec.Timestamp,
		DX:         rec.DX,
		DY:         rec.DY,
		GapMS:      plan.Gap.Milliseconds(),
		Steps:      len(plan.Steps),
		ReceivedAt: receivedAt,
	}

	subject := RelaySubject(s.Config().NATSSubjectPrefix, session)
	if err := s.publisher.Publish(subject, event.ToJSON()); err != nil {
		s.Logger().Warn("failed to publish motion record to NATS", "subject", subject, "error", err)
	}
}
