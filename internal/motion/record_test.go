package motion

import (
	"errors"
	"testing"
)

func TestRecordSize(t *testing.T) {
	if RecordSize != 11 {
		t.Fatalf("RecordSize = %d, want 11", RecordSize)
	}
	if AxisMin != -2048 || AxisMax != 2047 {
		t.Fatalf("axis range = [%d, %d], want [-2048, 2047]", AxisMin, AxisMax)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{name: "small positive", rec: Record{Sequence: 1, Timestamp: 1000, DX: 5, DY: 10}},
		{name: "small negative", rec: Record{Sequence: 2, Timestamp: 1010, DX: -5, DY: -1}},
		{name: "mixed signs", rec: Record{Sequence: 3, Timestamp: 1020, DX: 100, DY: -50}},
		{name: "axis max", rec: Record{Sequence: 4, Timestamp: 0xFFFFFFFF, DX: AxisMax, DY: AxisMax}},
		{name: "axis min", rec: Record{Sequence: 0xFFFFFFFF, Timestamp: 7, DX: AxisMin, DY: AxisMin}},
		{name: "max and min", rec: Record{Sequence: 5, Timestamp: 8, DX: AxisMax, DY: AxisMin}},
		{name: "min and max", rec: Record{Sequence: 6, Timestamp: 9, DX: AxisMin, DY: AxisMax}},
		{name: "zero x", rec: Record{Sequence: 7, Timestamp: 10, DX: 0, DY: -2048}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Encode(tt.rec.Sequence, tt.rec.Timestamp, tt.rec.DX, tt.rec.DY)
			got, err := Decode(buf[:])
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got != tt.rec {
				t.Fatalf("Decode(Encode()) = %+v, want %+v", got, tt.rec)
			}
		})
	}
}

func TestEncodeDecodeFullAxisRange(t *testing.T) {
	for v := AxisMin; v <= AxisMax; v++ {
		buf := Encode(uint32(v), ^uint32(v), v, -v-1)
		got, err := Decode(buf[:])
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if got.DX != v || got.DY != -v-1 {
			t.Fatalf("axis %d decoded as (%d, %d), want (%d, %d)", v, got.DX, got.DY, v, -v-1)
		}
	}
}

func TestEncodeLayout(t *testing.T) {
	buf := Encode(0x04030201, 0x08070605, -1, 1)
	want := [RecordSize]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0xFF, 0x1F, 0x00}
	if buf != want {
		t.Fatalf("Encode() = % x, want % x", buf, want)
	}
}

func TestEncodeBoundaryDoesNotLeak(t *testing.T) {
	t.Run("dx at max leaves dy zero", func(t *testing.T) {
		buf := Encode(0, 0, AxisMax, 0)
		got, _ := Decode(buf[:])
		if got.DY != 0 {
			t.Fatalf("DY = %d, want 0", got.DY)
		}
	})

	t.Run("dx at min leaves dy zero", func(t *testing.T) {
		buf := Encode(0, 0, AxisMin, 0)
		got, _ := Decode(buf[:])
		if got.DY != 0 {
			t.Fatalf("DY = %d, want 0", got.DY)
		}
	})

	t.Run("dy at min leaves dx and timestamp intact", func(t *testing.T) {
		buf := Encode(9, 0xAABBCCDD, 0, AxisMin)
		got, _ := Decode(buf[:])
		if got.DX != 0 || got.Timestamp != 0xAABBCCDD || got.Sequence != 9 {
			t.Fatalf("Decode() = %+v, neighbouring fields corrupted", got)
		}
	})
}

func TestEncodeTruncatesOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		in     int
		expect int
	}{
		{name: "one past max wraps to min", in: AxisMax + 1, expect: AxisMin},
		{name: "one below min wraps to max", in: AxisMin - 1, expect: AxisMax},
		{name: "4096 masks to zero", in: 4096, expect: 0},
		{name: "4100 masks to four", in: 4100, expect: 4},
		{name: "-4097 masks to -1", in: -4097, expect: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Encode(1, 2, tt.in, 3)
			got, err := Decode(buf[:])
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.DX != tt.expect {
				t.Fatalf("DX = %d, want %d", got.DX, tt.expect)
			}
			if got.DY != 3 || got.Sequence != 1 || got.Timestamp != 2 {
				t.Fatalf("truncation corrupted neighbouring fields: %+v", got)
			}
		})
	}
}

func TestDecodeInvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, RecordSize - 1, RecordSize + 1, 4096} {
		got, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrInvalidLength) {
			t.Fatalf("Decode(%d bytes) error = %v, want ErrInvalidLength", n, err)
		}
		if got != (Record{}) {
			t.Fatalf("Decode(%d bytes) = %+v, want zero record", n, got)
		}
	}
}

func TestRecordBinaryMarshaler(t *testing.T) {
	rec := Record{Sequence: 42, Timestamp: 99, DX: -7, DY: 300}

	data, err := rec.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	if len(data) != RecordSize {
		t.Fatalf("MarshalBinary() length = %d, want %d", len(data), RecordSize)
	}

	var got Record
	if err = got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if got != rec {
		t.Fatalf("UnmarshalBinary() = %+v, want %+v", got, rec)
	}

	if err = got.UnmarshalBinary(data[:3]); !errors.Is(err, ErrInvalidLength) {
		t.Fatalf("UnmarshalBinary(short) error = %v, want ErrInvalidLength", err)
	}
	if got != rec {
		t.Fatal("UnmarshalBinary(short) modified the record")
	}
}

func TestInRange(t *testing.T) {
	if !InRange(AxisMax, AxisMin) {
		t.Fatal("InRange(max, min) = false")
	}
	if InRange(AxisMax+1, 0) || InRange(0, AxisMin-1) {
		t.Fatal("InRange accepted an out-of-range axis")
	}
}
