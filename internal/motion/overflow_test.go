package motion

import "testing"

func TestParseOverflowPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    OverflowPolicy
		wantErr bool
	}{
		{in: "", want: OverflowClamp},
		{in: "clamp", want: OverflowClamp},
		{in: "SPLIT", want: OverflowSplit},
		{in: " drop ", want: OverflowDrop},
		{in: "wrap", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverflowPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOverflowPolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("ParseOverflowPolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 0},
		{AxisMax, AxisMax},
		{AxisMax + 1, AxisMax},
		{AxisMin, AxisMin},
		{AxisMin - 500, AxisMin},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		dx, dy     int
		wantChunks int
	}{
		{name: "zero", dx: 0, dy: 0, wantChunks: 0},
		{name: "in range", dx: 100, dy: -20, wantChunks: 1},
		{name: "exactly max", dx: AxisMax, dy: 0, wantChunks: 1},
		{name: "just over max", dx: AxisMax + 1, dy: 0, wantChunks: 2},
		{name: "large negative y", dx: 10, dy: -5000, wantChunks: 3},
		{name: "both large", dx: 9000, dy: -9000, wantChunks: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Split(tt.dx, tt.dy)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("Split(%d, %d) returned %d chunks, want %d", tt.dx, tt.dy, len(chunks), tt.wantChunks)
			}

			var sumX, sumY int
			for _, c := range chunks {
				if !InRange(c[0], c[1]) {
					t.Fatalf("chunk %v out of range", c)
				}
				sumX += c[0]
				sumY += c[1]
			}
			if sumX != tt.dx || sumY != tt.dy {
				t.Fatalf("chunks sum to (%d, %d), want (%d, %d)", sumX, sumY, tt.dx, tt.dy)
			}
		})
	}
}
