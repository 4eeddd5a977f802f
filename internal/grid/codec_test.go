package grid

import (
	"strings"
	"testing"
	"time"

	"github.com/abhisek/mathwiz/internal/fact"
)

func TestEncodeDecode_PreservesCells(t *testing.T) {
	g := New("s")
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f := fact.MustNew(7, 8)
	g.Apply(Cell{
		Multiplicand:       7,
		Multiplier:         8,
		ConsecutiveCorrect: 3,
		LastAttemptCorrect: true,
		Attempts:           5,
		IsLocked:           true,
		AverageTimeSeconds: 4.2,
		TotalTimeSpent:     21,
		LastTimeClass:      TimeFast,
		MasteredAt:         &at,
	})

	raw, err := EncodeCells(g)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(raw), `"version":1`) {
		t.Errorf("encoded document missing version: %s", raw[:40])
	}

	cells, err := DecodeCells(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	row, col := f.Key()
	got := cells[row][col]
	if got.Attempts != 5 || got.ConsecutiveCorrect != 3 || !got.IsLocked || got.LastTimeClass != TimeFast {
		t.Errorf("decoded cell = %+v", got)
	}
	if got.MasteredAt == nil || !got.MasteredAt.Equal(at) {
		t.Errorf("MasteredAt = %v, want %v", got.MasteredAt, at)
	}
}

func TestDecode_DefaultsAbsentFields(t *testing.T) {
	raw := []byte(`{"version":1,"cells":[{"multiplicand":2,"multiplier":3,"attempts":4}]}`)
	cells, err := DecodeCells(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	c := cells[1][2]
	if c.Attempts != 4 {
		t.Errorf("Attempts = %d, want 4", c.Attempts)
	}
	if c.LastTimeClass != TimeUnset || c.MasteredAt != nil || c.IsLocked {
		t.Errorf("absent fields not defaulted: %+v", c)
	}
	// Cells not listed are zeroed with their keys filled in.
	if other := cells[11][11]; other.Multiplicand != 12 || other.Multiplier != 12 || other.Attempts != 0 {
		t.Errorf("unlisted cell = %+v", other)
	}
}

func TestDecode_Legacy(t *testing.T) {
	raw := []byte(`[[{"multiplicand":1,"multiplier":1,"consecutiveCorrect":2,"attempts":2,"lastAttemptCorrect":true,"isLocked":false,"averageTimeSeconds":3,"totalTimeSpent":6}]]`)
	cells, err := DecodeCells(raw)
	if err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if c := cells[0][0]; c.ConsecutiveCorrect != 2 || c.TotalTimeSpent != 6 {
		t.Errorf("legacy cell = %+v", c)
	}
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"invalid json", `{"version":`},
		{"missing version", `{"cells":[]}`},
		{"future version", `{"version":2,"cells":[]}`},
		{"out of range", `{"version":1,"cells":[{"multiplicand":13,"multiplier":1}]}`},
		{"bad time class", `{"version":1,"cells":[{"multiplicand":1,"multiplier":1,"lastAttemptTimeClassification":"instant"}]}`},
		{"negative attempts", `{"version":1,"cells":[{"multiplicand":1,"multiplier":1,"attempts":-2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeCells([]byte(tt.raw)); err == nil {
				t.Errorf("expected error for %s", tt.raw)
			}
		})
	}
}
