// Package providers defines the boundary interfaces the engine consumes.
// Implementations live in the provider package; tests use fakes.
package providers

import (
	"context"
)

// WalletProvider moves and inspects treasury funds. Amounts are lamports.
type WalletProvider interface {
	// GetBalance returns the current balance of a wallet.
	GetBalance(ctx context.Context, wallet string) (uint64, error)

	// Transfer sends lamports from the treasury to a recipient and returns
	// the transaction signature.
	Transfer(ctx context.Context, to string, lamports uint64) (string, error)
}

// SeedProvider supplies chain data for snapshot seed derivation.
type SeedProvider interface {
	// LatestBlock returns the most recent slot and its unix block time.
	LatestBlock(ctx context.Context) (slot uint64, blockTime int64, err error)
}

// EventPublisher emits engine lifecycle events to external consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, eventType string, payload interface{}) error
}

// HistoryProvider records finished rounds for the public history feed.
type HistoryProvider interface {
	RecordRound(ctx context.Context, round RoundRecord) error
	ListRounds(ctx context.Context, limit int) ([]RoundRecord, error)
}

// RoundRecord is one finished round as shown in the history feed.
type RoundRecord struct {
	Round         uint32   `json:"round"`
	Outcome       string   `json:"outcome"`
	SnapshotSeed  uint64   `json:"snapshot_seed"`
	PepeBallCount uint8    `json:"pepe_ball_count"`
	MainWinner    string   `json:"main_winner,omitempty"`
	MinorWinners  []string `json:"minor_winners,omitempty"`
	GrandPrize    uint64   `json:"grand_prize,omitempty"`
	MinorShare    uint64   `json:"minor_share,omitempty"`
	CarryOver     uint64   `json:"carry_over,omitempty"`
	Jackpot       uint64   `json:"jackpot"`
	Timestamp     int64    `json:"timestamp"`
}
