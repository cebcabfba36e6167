package server

import (
	"context"
	"time"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StateResponse is the public round view. Lamport balances are converted to
// SOL for display; raw lamports ride along for exact clients.
type StateResponse struct {
	IsActive          bool            `json:"is_active"`
	JackpotSOL        decimal.Decimal `json:"jackpot_sol"`
	JackpotLamports   uint64          `json:"jackpot_lamports"`
	CarryOverSOL      decimal.Decimal `json:"carry_over_sol"`
	CarryOverLamports uint64          `json:"carry_over_lamports"`
	TotalParticipants uint32          `json:"total_participants"`
	TotalTickets      uint32          `json:"total_tickets"`
	IsFastMode        bool            `json:"is_fast_mode"`
	NextSnapshotDue   time.Time       `json:"next_snapshot_due"`
	RolloverCount     uint32          `json:"rollover_count"`
	TotalSnapshots    uint32          `json:"total_snapshots"`
	PendingPayout     bool            `json:"pending_payout"`
}

// ParticipantResponse is one ledger row as returned by the API.
type ParticipantResponse struct {
	Wallet      string          `json:"wallet"`
	TicketCount uint32          `json:"ticket_count"`
	USDValue    decimal.Decimal `json:"usd_value"`
	EntryTime   time.Time       `json:"entry_time"`
}

// EnterRequest is the body for POST /enter and POST /update-entry. The
// USD amount is a decimal string ("25.50") converted to integer cents
// before it reaches the engine.
type EnterRequest struct {
	USDValue decimal.Decimal `json:"usd_value" binding:"required"`
}

// RoundHistoryResponse is one finished round for the history feed.
type RoundHistoryResponse struct {
	Round         uint32          `json:"round"`
	Outcome       string          `json:"outcome"`
	PepeBallCount uint8           `json:"pepe_ball_count"`
	MainWinner    string          `json:"main_winner,omitempty"`
	MinorWinners  []string        `json:"minor_winners,omitempty"`
	GrandPrizeSOL decimal.Decimal `json:"grand_prize_sol"`
	JackpotSOL    decimal.Decimal `json:"jackpot_sol"`
	Timestamp     time.Time       `json:"timestamp"`
}

// LotteryService sits between HTTP handlers and the engine, shaping engine
// state into response DTOs.
type LotteryService struct {
	engine  *lottery.Engine
	history HistoryProvider
	logger  zerolog.Logger
}

// NewLotteryService creates a lottery service.
func NewLotteryService(engine *lottery.Engine, history HistoryProvider, logger zerolog.Logger) *LotteryService {
	return &LotteryService{
		engine:  engine,
		history: history,
		logger:  logger.With().Str("service", "lottery").Logger(),
	}
}

func lamportsToSOL(lamports uint64) decimal.Decimal {
	return decimal.New(int64(lamports), 0).Div(decimal.New(lottery.LamportsPerSOL, 0))
}

func centsToUSD(cents uint64) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

// usdToCents converts an API USD amount to integer cents. Sub-cent
// precision and negative amounts are rejected.
func usdToCents(usd decimal.Decimal) (uint64, error) {
	cents := usd.Shift(2)
	if !cents.IsInteger() || cents.IsNegative() {
		return 0, apperrors.Newf(apperrors.ErrInvalidRequest, "invalid USD amount %s", usd)
	}
	return uint64(cents.IntPart()), nil
}

// State returns the public view of the running round.
func (s *LotteryService) State(ctx context.Context) (*StateResponse, error) {
	state, err := s.engine.State(ctx)
	if err != nil {
		return nil, err
	}

	return &StateResponse{
		IsActive:          state.IsActive,
		JackpotSOL:        lamportsToSOL(state.JackpotAmount),
		JackpotLamports:   state.JackpotAmount,
		CarryOverSOL:      lamportsToSOL(state.CarryOverAmount),
		CarryOverLamports: state.CarryOverAmount,
		TotalParticipants: state.TotalParticipants,
		TotalTickets:      state.TotalTickets,
		IsFastMode:        state.IsFastMode,
		NextSnapshotDue:   state.NextSnapshotDue(),
		RolloverCount:     state.RolloverCount,
		TotalSnapshots:    state.TotalSnapshots,
		PendingPayout:     state.Winners != nil,
	}, nil
}

// Enter registers a wallet's first qualifying purchase for the running
// round.
func (s *LotteryService) Enter(ctx context.Context, wallet string, usd decimal.Decimal) (*ParticipantResponse, error) {
	cents, err := usdToCents(usd)
	if err != nil {
		return nil, err
	}
	p, err := s.engine.Enter(ctx, wallet, cents)
	if err != nil {
		return nil, err
	}
	return toParticipantResponse(p), nil
}

// UpdateEntry accumulates a repeat purchase onto an existing row.
func (s *LotteryService) UpdateEntry(ctx context.Context, wallet string, usd decimal.Decimal) (*ParticipantResponse, error) {
	cents, err := usdToCents(usd)
	if err != nil {
		return nil, err
	}
	p, err := s.engine.UpdateEntry(ctx, wallet, cents)
	if err != nil {
		return nil, err
	}
	return toParticipantResponse(p), nil
}

// Participant returns one wallet's ledger row.
func (s *LotteryService) Participant(ctx context.Context, wallet string) (*ParticipantResponse, error) {
	p, err := s.engine.Participant(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return toParticipantResponse(p), nil
}

// Participants returns all ledger rows in canonical order.
func (s *LotteryService) Participants(ctx context.Context) ([]*ParticipantResponse, error) {
	rows, err := s.engine.Participants(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ParticipantResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, toParticipantResponse(p))
	}
	return out, nil
}

// History returns the most recent finished rounds, newest first.
func (s *LotteryService) History(ctx context.Context, limit int) ([]*RoundHistoryResponse, error) {
	if s.history == nil {
		return []*RoundHistoryResponse{}, nil
	}

	records, err := s.history.ListRounds(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "Failed to load round history")
	}

	out := make([]*RoundHistoryResponse, 0, len(records))
	for _, r := range records {
		out = append(out, &RoundHistoryResponse{
			Round:         r.Round,
			Outcome:       r.Outcome,
			PepeBallCount: r.PepeBallCount,
			MainWinner:    r.MainWinner,
			MinorWinners:  r.MinorWinners,
			GrandPrizeSOL: lamportsToSOL(r.GrandPrize),
			JackpotSOL:    lamportsToSOL(r.Jackpot),
			Timestamp:     time.Unix(r.Timestamp, 0).UTC(),
		})
	}
	return out, nil
}

func toParticipantResponse(p *lottery.Participant) *ParticipantResponse {
	return &ParticipantResponse{
		Wallet:      p.Wallet,
		TicketCount: p.TicketCount,
		USDValue:    centsToUSD(p.USDValue),
		EntryTime:   p.EntryTime,
	}
}
