package lottery

import (
	"testing"
)

func TestTicketsForUSD(t *testing.T) {
	tests := []struct {
		name  string
		cents uint64
		want  uint32
	}{
		{name: "zero", cents: 0, want: 0},
		{name: "just below minimum", cents: 19_99, want: 0},
		{name: "exact minimum", cents: 20_00, want: 1},
		{name: "mid tier one", cents: 55_50, want: 1},
		{name: "just below tier two", cents: 99_99, want: 1},
		{name: "exact tier two", cents: 100_00, want: 4},
		{name: "mid tier two", cents: 249_00, want: 4},
		{name: "just below tier three", cents: 499_99, want: 4},
		{name: "exact tier three", cents: 500_00, want: 10},
		{name: "far above tier three", cents: 1_000_000_00, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TicketsForUSD(tt.cents)
			if got != tt.want {
				t.Errorf("TicketsForUSD(%d) = %d, want %d", tt.cents, got, tt.want)
			}
		})
	}
}

func TestTicketsForUSDMonotonic(t *testing.T) {
	var prev uint32
	for cents := uint64(0); cents <= 600_00; cents += 50 {
		got := TicketsForUSD(cents)
		if got < prev {
			t.Fatalf("tickets decreased from %d to %d at %d cents", prev, got, cents)
		}
		prev = got
	}
}

func TestCentsToQualify(t *testing.T) {
	tests := []struct {
		name  string
		cents uint64
		want  uint64
	}{
		{name: "zero needs full minimum", cents: 0, want: 20_00},
		{name: "one cent short", cents: 19_99, want: 1},
		{name: "qualified", cents: 20_00, want: 0},
		{name: "well above", cents: 500_00, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CentsToQualify(tt.cents)
			if got != tt.want {
				t.Errorf("CentsToQualify(%d) = %d, want %d", tt.cents, got, tt.want)
			}
		})
	}
}
