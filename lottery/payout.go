package lottery

import (
	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
)

// Split is the integer division of a jackpot total across recipients.
// GrandPrize + CarryOver + 8*MinorShare + Remainder always equals Total.
type Split struct {
	Total      uint64 `json:"total"`
	GrandPrize uint64 `json:"grand_prize"`
	CarryOver  uint64 `json:"carry_over"`
	MinorShare uint64 `json:"minor_share"`
	Remainder  uint64 `json:"remainder"`
}

// largeTotalThreshold is the total above which a slightly wider remainder
// bound is tolerated.
const largeTotalThreshold = 1_000 * LamportsPerSOL

// CalculateSplit divides total into 68% grand prize, 8% carry-over and
// 3% for each of the eight minor winners. The integer-division remainder
// is bounded; anything larger aborts rather than losing funds.
func CalculateSplit(total uint64) (Split, error) {
	if total == 0 {
		return Split{}, apperrors.New(apperrors.ErrPayoutCalculation, "jackpot total is zero")
	}

	split := Split{
		Total:      total,
		GrandPrize: total * GrandPrizePercent / 100,
		CarryOver:  total * CarryOverPercent / 100,
		MinorShare: total * MinorSharePercent / 100,
	}

	allocated := split.GrandPrize + split.CarryOver + split.MinorShare*MinorWinnerCount
	if allocated > total {
		return Split{}, apperrors.Newf(apperrors.ErrPayoutCalculation,
			"allocated %d exceeds total %d", allocated, total)
	}
	split.Remainder = total - allocated

	maxRemainder := uint64(8)
	if total > largeTotalThreshold {
		maxRemainder = 10
	}
	if split.Remainder > maxRemainder {
		return Split{}, apperrors.Newf(apperrors.ErrPayoutCalculation,
			"remainder %d exceeds bound %d for total %d", split.Remainder, maxRemainder, total)
	}

	return split, nil
}
