package motion

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// AxisBits is the width of each packed delta field.
	AxisBits = 12

	// AxisMin and AxisMax bound the delta a single record can carry per axis.
	AxisMin = -(1 << (AxisBits - 1))
	AxisMax = (1 << (AxisBits - 1)) - 1

	axisMask = (1 << AxisBits) - 1

	sequenceOffset  = 0
	timestampOffset = 4
	deltaOffset     = 8
	deltaSize       = (2*AxisBits + 7) / 8

	// RecordSize is the exact length of an encoded record on the wire.
	RecordSize = deltaOffset + deltaSize
)

// ErrInvalidLength is returned when a datagram is not exactly RecordSize bytes.
var ErrInvalidLength = errors.New("invalid record length")

// Record is one relative pointer motion sample.
type Record struct {
	Sequence  uint32
	Timestamp uint32
	DX        int
	DY        int
}

// Encode packs a record into its fixed wire form (little-endian).
//
// dx and dy are masked to AxisBits; values outside [AxisMin, AxisMax] are
// truncated, not rejected. Callers apply an OverflowPolicy first.
func Encode(seq, ts uint32, dx, dy int) [RecordSize]byte {
	var buf [RecordSize]byte

	binary.LittleEndian.PutUint32(buf[sequenceOffset:], seq)
	binary.LittleEndian.PutUint32(buf[timestampOffset:], ts)

	// bits 0..11 hold dx, bits 12..23 hold dy
	packed := uint32(dx)&axisMask | (uint32(dy)&axisMask)<<AxisBits //nolint:gosec // masked to 12 bits
	buf[deltaOffset] = byte(packed)
	buf[deltaOffset+1] = byte(packed >> 8)
	buf[deltaOffset+2] = byte(packed >> 16)

	return buf
}

// Decode unpacks a wire record. Any buffer that is not exactly RecordSize
// bytes yields ErrInvalidLength and a zero Record.
func Decode(buf []byte) (Record, error) {
	if len(buf) != RecordSize {
		return Record{}, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidLength, len(buf), RecordSize)
	}

	packed := uint32(buf[deltaOffset]) | uint32(buf[deltaOffset+1])<<8 | uint32(buf[deltaOffset+2])<<16

	return Record{
		Sequence:  binary.LittleEndian.Uint32(buf[sequenceOffset:]),
		Timestamp: binary.LittleEndian.Uint32(buf[timestampOffset:]),
		DX:        signExtend(packed & axisMask),
		DY:        signExtend((packed >> AxisBits) & axisMask),
	}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, RecordSize))
}

// AppendBinary appends the encoded record to b.
func (r Record) AppendBinary(b []byte) ([]byte, error) {
	buf := Encode(r.Sequence, r.Timestamp, r.DX, r.DY)
	return append(b, buf[:]...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Record) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}

	*r = decoded
	return nil
}

// InRange reports whether both axes fit the packed field without truncation.
func InRange(dx, dy int) bool {
	return dx >= AxisMin && dx <= AxisMax && dy >= AxisMin && dy <= AxisMax
}

func signExtend(v uint32) int {
	// shift the 12-bit field to the top of an int32 and arithmetic-shift back
	return int(int32(v<<(32-AxisBits)) >> (32 - AxisBits)) //nolint:gosec // intentional reinterpretation
}
