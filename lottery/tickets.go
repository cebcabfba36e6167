package lottery

// Entry tier table over cumulative USD cents. Lower bounds are inclusive.
const (
	MinimumEntryCents = 20_00
	TierTwoCents      = 100_00
	TierThreeCents    = 500_00

	TierOneTickets   = 1
	TierTwoTickets   = 4
	TierThreeTickets = 10
)

// TicketsForUSD maps a cumulative USD value in cents to a ticket count.
// Values below the minimum entry yield zero tickets.
func TicketsForUSD(cents uint64) uint32 {
	switch {
	case cents >= TierThreeCents:
		return TierThreeTickets
	case cents >= TierTwoCents:
		return TierTwoTickets
	case cents >= MinimumEntryCents:
		return TierOneTickets
	default:
		return 0
	}
}

// CentsToQualify returns how many more cents a cumulative value needs to
// reach the minimum entry. Zero when the value already qualifies.
func CentsToQualify(cents uint64) uint64 {
	if cents >= MinimumEntryCents {
		return 0
	}
	return MinimumEntryCents - cents
}
