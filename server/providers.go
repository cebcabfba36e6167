package server

import "github.com/Digital-Creators-Team/lottery-engine-module/pkg/providers"

// Re-export provider interfaces/types from pkg/providers to keep a single source of truth.
type (
	WalletProvider  = providers.WalletProvider
	SeedProvider    = providers.SeedProvider
	EventPublisher  = providers.EventPublisher
	HistoryProvider = providers.HistoryProvider
	RoundRecord     = providers.RoundRecord
)
