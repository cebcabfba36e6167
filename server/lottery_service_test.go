package server

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type stubWallets struct{}

func (stubWallets) GetBalance(ctx context.Context, wallet string) (uint64, error) {
	return 1_000_000_000, nil
}

func (stubWallets) Transfer(ctx context.Context, to string, lamports uint64) (string, error) {
	return "sig", nil
}

type stubSeeds struct{}

func (stubSeeds) LatestBlock(ctx context.Context) (uint64, int64, error) {
	return 1, 21, nil
}

func newTestService(t *testing.T) *LotteryService {
	t.Helper()
	engine := lottery.NewEngine(lottery.EngineConfig{
		Store:   lottery.NewMemStore(),
		Wallets: stubWallets{},
		Seeds:   stubSeeds{},
		Lottery: config.LotteryConfig{
			AdminWallet:          "admin-wallet",
			InitialJackpot:       5 * lottery.LamportsPerSOL,
			BaseSnapshotInterval: 72 * time.Hour,
			FastSnapshotInterval: 48 * time.Hour,
			FastModeThreshold:    200 * lottery.LamportsPerSOL,
		},
		Logger: zerolog.Nop(),
	})
	return NewLotteryService(engine, nil, zerolog.Nop())
}

func TestLamportsToSOL(t *testing.T) {
	tests := []struct {
		lamports uint64
		want     string
	}{
		{lamports: 0, want: "0"},
		{lamports: 1, want: "0.000000001"},
		{lamports: lottery.LamportsPerSOL, want: "1"},
		{lamports: 68*lottery.LamportsPerSOL + 500_000_000, want: "68.5"},
	}

	for _, tt := range tests {
		got := lamportsToSOL(tt.lamports)
		if got.String() != tt.want {
			t.Errorf("lamportsToSOL(%d) = %s, want %s", tt.lamports, got, tt.want)
		}
	}
}

func TestServiceState(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	state, err := svc.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.IsActive {
		t.Errorf("fresh lottery should be active")
	}
	if !state.JackpotSOL.Equal(decimal.NewFromInt(5)) {
		t.Errorf("jackpot = %s SOL, want 5", state.JackpotSOL)
	}
	if state.JackpotLamports != 5*lottery.LamportsPerSOL {
		t.Errorf("jackpot lamports = %d, want 5 SOL", state.JackpotLamports)
	}
	if state.PendingPayout {
		t.Errorf("fresh lottery should have no pending payout")
	}
}

func TestServiceEnterAndUpdate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.Enter(ctx, "wallet-a", decimal.NewFromInt(60))
	if err != nil {
		t.Fatalf("first enter: %v", err)
	}
	if p.TicketCount != 1 {
		t.Errorf("ticket count = %d, want 1", p.TicketCount)
	}

	if _, err := svc.Enter(ctx, "wallet-a", decimal.NewFromInt(50)); !apperrors.HasCode(err, apperrors.ErrAlreadyEntered) {
		t.Errorf("second enter err = %v, want already entered", err)
	}

	// Repeat purchases accumulate onto the existing row.
	p, err = svc.UpdateEntry(ctx, "wallet-a", decimal.RequireFromString("50.00"))
	if err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if p.TicketCount != 4 {
		t.Errorf("ticket count = %d, want 4 after crossing tier two", p.TicketCount)
	}
	if !p.USDValue.Equal(decimal.New(110, 0)) {
		t.Errorf("usd value = %s, want 110", p.USDValue)
	}
}

func TestUSDToCents(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "25.50", want: 2550},
		{in: "20", want: 2000},
		{in: "0.01", want: 1},
		{in: "19.999", wantErr: true},
		{in: "-5", wantErr: true},
	}

	for _, tt := range tests {
		got, err := usdToCents(decimal.RequireFromString(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("usdToCents(%s) err = nil, want error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("usdToCents(%s): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("usdToCents(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestServiceParticipantsOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Enter(ctx, fmt.Sprintf("wallet-%d", i), decimal.NewFromInt(20)); err != nil {
			t.Fatalf("enter %d: %v", i, err)
		}
	}

	rows, err := svc.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	for i, row := range rows {
		if want := fmt.Sprintf("wallet-%d", i); row.Wallet != want {
			t.Errorf("row %d = %s, want %s (entry order)", i, row.Wallet, want)
		}
	}
}

func TestServiceHistoryWithoutProvider(t *testing.T) {
	svc := newTestService(t)
	rounds, err := svc.History(context.Background(), 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rounds) != 0 {
		t.Errorf("rounds = %d, want empty", len(rounds))
	}
}
