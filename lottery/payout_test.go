package lottery

import (
	"testing"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
)

func TestCalculateSplit(t *testing.T) {
	tests := []struct {
		name     string
		total    uint64
		wantErr  bool
		validate func(t *testing.T, s Split)
	}{
		{
			name:  "100 SOL splits exactly",
			total: 100_000_000_000,
			validate: func(t *testing.T, s Split) {
				if s.GrandPrize != 68_000_000_000 {
					t.Errorf("grand prize = %d, want 68_000_000_000", s.GrandPrize)
				}
				if s.CarryOver != 8_000_000_000 {
					t.Errorf("carry over = %d, want 8_000_000_000", s.CarryOver)
				}
				if s.MinorShare != 3_000_000_000 {
					t.Errorf("minor share = %d, want 3_000_000_000", s.MinorShare)
				}
				if s.Remainder != 0 {
					t.Errorf("remainder = %d, want 0", s.Remainder)
				}
			},
		},
		{
			name:  "odd total keeps small remainder",
			total: 1_000_000_007,
			validate: func(t *testing.T, s Split) {
				if s.Remainder > 8 {
					t.Errorf("remainder = %d, want <= 8", s.Remainder)
				}
			},
		},
		{
			name:    "zero total rejected",
			total:   0,
			wantErr: true,
		},
		{
			name:    "pathological total rejected",
			total:   99,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			split, err := CalculateSplit(tt.total)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.ErrPayoutCalculation) {
					t.Errorf("expected PayoutCalculation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, split)
			}
		})
	}
}

func TestCalculateSplitConservation(t *testing.T) {
	totals := []uint64{
		100,
		1_000_000,
		1_000_000_000,
		987_654_321_000,
		5_000_000_000_000,
	}

	for _, total := range totals {
		split, err := CalculateSplit(total)
		if err != nil {
			t.Fatalf("unexpected error for total %d: %v", total, err)
		}
		sum := split.GrandPrize + split.CarryOver + split.MinorShare*MinorWinnerCount + split.Remainder
		if sum != total {
			t.Errorf("conservation violated for %d: parts sum to %d", total, sum)
		}
	}
}
