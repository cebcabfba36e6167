package lottery

import (
	"time"
)

// Lamports per SOL, the smallest currency unit used for all balances.
const LamportsPerSOL = 1_000_000_000

// MinParticipants is the hard floor of distinct wallets required before a
// snapshot may be taken.
const MinParticipants = 9

// MinorWinnerCount is the target number of minor winners per draw.
const MinorWinnerCount = 8

// Payout split percentages over jackpot + carry-over.
const (
	GrandPrizePercent = 68
	CarryOverPercent  = 8
	MinorSharePercent = 3
)

// State is the singleton aggregate for one lottery. All balances are
// lamports, all USD values are cents.
type State struct {
	Admin                string        `json:"admin"`
	IsActive             bool          `json:"is_active"`
	JackpotAmount        uint64        `json:"jackpot_amount"`
	CarryOverAmount      uint64        `json:"carry_over_amount"`
	FeesCollected        uint64        `json:"fees_collected"`
	TotalParticipants    uint32        `json:"total_participants"`
	TotalTickets         uint32        `json:"total_tickets"`
	BaseSnapshotInterval time.Duration `json:"base_snapshot_interval"`
	FastSnapshotInterval time.Duration `json:"fast_snapshot_interval"`
	FastModeThreshold    uint64        `json:"fast_mode_threshold"`
	IsFastMode           bool          `json:"is_fast_mode"`
	LastSnapshot         time.Time     `json:"last_snapshot"`
	SnapshotSeed         uint64        `json:"snapshot_seed"`
	PepeBallCount        uint8         `json:"pepe_ball_count"`
	RolloverCount        uint32        `json:"rollover_count"`
	TotalSnapshots       uint32        `json:"total_snapshots"`
	Winners              *WinnerSet    `json:"winners,omitempty"`
}

// CurrentInterval returns the snapshot interval in force for the running
// round.
func (s *State) CurrentInterval() time.Duration {
	if s.IsFastMode {
		return s.FastSnapshotInterval
	}
	return s.BaseSnapshotInterval
}

// NextSnapshotDue returns the earliest time the next snapshot may fire.
func (s *State) NextSnapshotDue() time.Time {
	return s.LastSnapshot.Add(s.CurrentInterval())
}

// Participant is one wallet's ledger row for the running round.
type Participant struct {
	Wallet      string    `json:"wallet"`
	TicketCount uint32    `json:"ticket_count"`
	USDValue    uint64    `json:"usd_value"`
	EntryTime   time.Time `json:"entry_time"`

	// EntrySeq fixes the canonical participant ordering used by the
	// winner selection walk. Assigned once at creation, never reused.
	EntrySeq uint64 `json:"entry_seq"`
}

// WinnerSet holds the pending winners selected for an odd-parity snapshot.
type WinnerSet struct {
	MainWinner   string   `json:"main_winner"`
	MinorWinners []string `json:"minor_winners"`
}

// Outcome is the parity result of a snapshot.
type Outcome string

const (
	OutcomePayout   Outcome = "payout"
	OutcomeRollover Outcome = "rollover"
)

// SnapshotResult reports what a snapshot did.
type SnapshotResult struct {
	Outcome        Outcome       `json:"outcome"`
	SnapshotSeed   uint64        `json:"snapshot_seed"`
	PepeBallCount  uint8         `json:"pepe_ball_count"`
	TotalTickets   uint32        `json:"total_tickets"`
	Participants   uint32        `json:"participants"`
	RolloverCount  uint32        `json:"rollover_count"`
	TotalSnapshots uint32        `json:"total_snapshots"`
	NextDue        time.Time     `json:"next_due"`
	Extension      time.Duration `json:"extension,omitempty"`
}

// PayoutResult reports the amounts disbursed by a successful payout.
type PayoutResult struct {
	MainWinner   string   `json:"main_winner"`
	MinorWinners []string `json:"minor_winners"`
	GrandPrize   uint64   `json:"grand_prize"`
	MinorShare   uint64   `json:"minor_share"`
	CarryOver    uint64   `json:"carry_over"`
	Remainder    uint64   `json:"remainder"`
	Total        uint64   `json:"total"`
}
