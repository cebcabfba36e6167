package lottery

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/rs/zerolog"
)

type fakeWallets struct {
	mu        sync.Mutex
	balances  map[string]uint64
	transfers []transfer
	failAfter int
}

type transfer struct {
	to     string
	amount uint64
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{
		balances:  map[string]uint64{"admin-wallet": 1_000_000_000},
		failAfter: -1,
	}
}

func (f *fakeWallets) GetBalance(ctx context.Context, wallet string) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[wallet], nil
}

func (f *fakeWallets) Transfer(ctx context.Context, to string, lamports uint64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter >= 0 && len(f.transfers) >= f.failAfter {
		return "", fmt.Errorf("rpc unavailable")
	}
	f.transfers = append(f.transfers, transfer{to: to, amount: lamports})
	return fmt.Sprintf("sig-%d", len(f.transfers)), nil
}

type fakeSeeds struct {
	slot      uint64
	blockTime int64
}

func (f *fakeSeeds) LatestBlock(ctx context.Context) (uint64, int64, error) {
	return f.slot, f.blockTime, nil
}

const testAdmin = "admin-wallet"

func newTestEngine(t *testing.T) (*Engine, *fakeWallets, *fakeSeeds) {
	t.Helper()
	wallets := newFakeWallets()
	seeds := &fakeSeeds{slot: 1, blockTime: 21}
	engine := NewEngine(EngineConfig{
		Store:   NewMemStore(),
		Wallets: wallets,
		Seeds:   seeds,
		Lottery: config.LotteryConfig{
			AdminWallet:          testAdmin,
			BaseSnapshotInterval: 72 * time.Hour,
			FastSnapshotInterval: 48 * time.Hour,
			FastModeThreshold:    200 * LamportsPerSOL,
			AdminFeeFloor:        1,
		},
		Logger: zerolog.Nop(),
	})
	return engine, wallets, seeds
}

// enterNine seeds nine $20 participants, one ticket each.
func enterNine(t *testing.T, engine *Engine) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		wallet := fmt.Sprintf("wallet-%d", i)
		if _, err := engine.Enter(ctx, wallet, 20_00); err != nil {
			t.Fatalf("enter %s: %v", wallet, err)
		}
	}
}

// advanceClock moves the engine clock past the snapshot gate.
func advanceClock(engine *Engine, d time.Duration) {
	base := time.Now()
	engine.now = func() time.Time { return base.Add(d) }
}

func TestEnter(t *testing.T) {
	tests := []struct {
		name     string
		usdCents uint64
		wantCode int
		wantTick uint32
	}{
		{name: "below minimum rejected", usdCents: 19_99, wantCode: apperrors.ErrBelowMinimumEntry},
		{name: "tier one entry", usdCents: 20_00, wantTick: 1},
		{name: "tier two entry", usdCents: 150_00, wantTick: 4},
		{name: "tier three entry", usdCents: 750_00, wantTick: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := newTestEngine(t)
			ctx := context.Background()

			p, err := engine.Enter(ctx, "wallet-a", tt.usdCents)
			if tt.wantCode != 0 {
				if !apperrors.HasCode(err, tt.wantCode) {
					t.Fatalf("expected code %d, got %v", tt.wantCode, err)
				}
				state, err := engine.State(ctx)
				if err != nil {
					t.Fatalf("state: %v", err)
				}
				if state.TotalParticipants != 0 || state.TotalTickets != 0 {
					t.Errorf("rejected entry mutated totals: %d participants, %d tickets",
						state.TotalParticipants, state.TotalTickets)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.TicketCount != tt.wantTick {
				t.Errorf("ticket count = %d, want %d", p.TicketCount, tt.wantTick)
			}

			state, err := engine.State(ctx)
			if err != nil {
				t.Fatalf("state: %v", err)
			}
			if state.TotalParticipants != 1 || state.TotalTickets != tt.wantTick {
				t.Errorf("totals = %d participants, %d tickets, want 1/%d",
					state.TotalParticipants, state.TotalTickets, tt.wantTick)
			}
		})
	}
}

func TestEnterTwiceRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Enter(ctx, "wallet-a", 20_00); err != nil {
		t.Fatalf("first enter: %v", err)
	}
	_, err := engine.Enter(ctx, "wallet-a", 20_00)
	if !apperrors.HasCode(err, apperrors.ErrAlreadyEntered) {
		t.Errorf("expected AlreadyEntered, got %v", err)
	}
}

func TestUpdateEntry(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Enter(ctx, "wallet-a", 60_00); err != nil {
		t.Fatalf("enter: %v", err)
	}

	// $60 + $50 crosses into tier two.
	p, err := engine.UpdateEntry(ctx, "wallet-a", 50_00)
	if err != nil {
		t.Fatalf("update entry: %v", err)
	}
	if p.USDValue != 110_00 {
		t.Errorf("usd value = %d, want 11000", p.USDValue)
	}
	if p.TicketCount != 4 {
		t.Errorf("ticket count = %d, want 4", p.TicketCount)
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.TotalTickets != 4 {
		t.Errorf("total tickets = %d, want 4", state.TotalTickets)
	}
}

func TestUpdateEntryNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.UpdateEntry(context.Background(), "ghost", 100_00)
	if !apperrors.HasCode(err, apperrors.ErrParticipantNotFound) {
		t.Errorf("expected ParticipantNotFound, got %v", err)
	}
}

func TestLedgerInvariant(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	amounts := []uint64{20_00, 150_00, 750_00, 99_99, 100_00, 20_00, 499_99, 500_00, 20_01}
	for i, cents := range amounts {
		if _, err := engine.Enter(ctx, fmt.Sprintf("wallet-%d", i), cents); err != nil {
			t.Fatalf("enter %d: %v", i, err)
		}
	}
	for i := 0; i < 4; i++ {
		if _, err := engine.UpdateEntry(ctx, fmt.Sprintf("wallet-%d", i), 80_00); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	rows, err := engine.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}

	var sum uint32
	for _, p := range rows {
		sum += p.TicketCount
	}
	if state.TotalTickets != sum {
		t.Errorf("total tickets %d != ledger sum %d", state.TotalTickets, sum)
	}
	if int(state.TotalParticipants) != len(rows) {
		t.Errorf("total participants %d != ledger rows %d", state.TotalParticipants, len(rows))
	}
}

func TestTakeSnapshotGates(t *testing.T) {
	t.Run("not enough participants", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		ctx := context.Background()
		for i := 0; i < 6; i++ {
			if _, err := engine.Enter(ctx, fmt.Sprintf("wallet-%d", i), 20_00); err != nil {
				t.Fatalf("enter: %v", err)
			}
		}
		advanceClock(engine, 100*time.Hour)
		_, err := engine.TakeSnapshot(ctx, testAdmin)
		if !apperrors.HasCode(err, apperrors.ErrNotEnoughParticipants) {
			t.Errorf("expected NotEnoughParticipants, got %v", err)
		}
	})

	t.Run("too early", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		enterNine(t, engine)
		_, err := engine.TakeSnapshot(context.Background(), testAdmin)
		if !apperrors.HasCode(err, apperrors.ErrDrawTooEarly) {
			t.Errorf("expected DrawTooEarly, got %v", err)
		}
	})

	t.Run("admin mismatch", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		enterNine(t, engine)
		advanceClock(engine, 100*time.Hour)
		_, err := engine.TakeSnapshot(context.Background(), "intruder")
		if !apperrors.HasCode(err, apperrors.ErrAdminMismatch) {
			t.Errorf("expected AdminMismatch, got %v", err)
		}
	})

	t.Run("paused lottery", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		enterNine(t, engine)
		ctx := context.Background()
		if err := engine.SetActive(ctx, testAdmin, false); err != nil {
			t.Fatalf("set active: %v", err)
		}
		advanceClock(engine, 100*time.Hour)
		_, err := engine.TakeSnapshot(ctx, testAdmin)
		if !apperrors.HasCode(err, apperrors.ErrLotteryInactive) {
			t.Errorf("expected LotteryInactive, got %v", err)
		}
	})
}

func TestTakeSnapshotPayoutOutcome(t *testing.T) {
	engine, _, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()

	// seed = 1*21 + 9 tickets + 0 snapshots = 30, pepe ball (30 mod 30)+1 = 1, odd.
	seeds.slot = 1
	seeds.blockTime = 21
	advanceClock(engine, 100*time.Hour)

	result, err := engine.TakeSnapshot(ctx, testAdmin)
	if err != nil {
		t.Fatalf("take snapshot: %v", err)
	}
	if result.Outcome != OutcomePayout {
		t.Errorf("outcome = %s, want payout", result.Outcome)
	}
	if result.PepeBallCount != 1 {
		t.Errorf("pepe ball count = %d, want 1", result.PepeBallCount)
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.SnapshotSeed != 30 {
		t.Errorf("snapshot seed = %d, want 30", state.SnapshotSeed)
	}
	if state.TotalSnapshots != 1 {
		t.Errorf("total snapshots = %d, want 1", state.TotalSnapshots)
	}
	if state.RolloverCount != 0 {
		t.Errorf("rollover count = %d, want 0", state.RolloverCount)
	}
}

func TestTakeSnapshotRolloverOutcome(t *testing.T) {
	engine, _, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()

	if _, err := engine.FundJackpot(ctx, testAdmin, 50*LamportsPerSOL); err != nil {
		t.Fatalf("fund jackpot: %v", err)
	}

	// seed = 1*22 + 9 tickets + 0 snapshots = 31, pepe ball (31 mod 30)+1 = 2, even.
	seeds.slot = 1
	seeds.blockTime = 22
	advanceClock(engine, 100*time.Hour)

	result, err := engine.TakeSnapshot(ctx, testAdmin)
	if err != nil {
		t.Fatalf("take snapshot: %v", err)
	}
	if result.Outcome != OutcomeRollover {
		t.Errorf("outcome = %s, want rollover", result.Outcome)
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.RolloverCount != 1 {
		t.Errorf("rollover count = %d, want 1", state.RolloverCount)
	}
	if state.SnapshotSeed != 0 {
		t.Errorf("snapshot seed = %d, want 0 after rollover", state.SnapshotSeed)
	}
	if state.JackpotAmount != 50*LamportsPerSOL {
		t.Errorf("jackpot = %d, want preserved", state.JackpotAmount)
	}
	if state.Winners != nil {
		t.Errorf("winners should stay empty on rollover")
	}

	// Participants carry over into the extended round.
	rows, err := engine.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(rows) != 9 {
		t.Errorf("participants = %d, want 9 retained", len(rows))
	}

	// First rollover uses the short extension window. The extension is added
	// on top of the running interval, so a rollover round always lasts longer
	// than a normal one.
	if result.Extension != 48*time.Hour {
		t.Errorf("extension = %s, want 48h", result.Extension)
	}
	wantDue := engine.now().Add(48*time.Hour + 72*time.Hour)
	if !result.NextDue.Equal(wantDue) {
		t.Errorf("next due = %s, want %s", result.NextDue, wantDue)
	}
}

func TestTakeSnapshotRolloverAlternation(t *testing.T) {
	engine, _, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()

	// seed = 1*22 + 9 tickets + 0 snapshots = 31, pepe ball 2, even.
	seeds.slot = 1
	seeds.blockTime = 22
	advanceClock(engine, 100*time.Hour)

	first, err := engine.TakeSnapshot(ctx, testAdmin)
	if err != nil {
		t.Fatalf("first snapshot: %v", err)
	}
	if first.Outcome != OutcomeRollover || first.Extension != 48*time.Hour {
		t.Fatalf("first rollover = %s/%s, want rollover/48h", first.Outcome, first.Extension)
	}

	// seed = 1*23 + 9 tickets + 1 snapshot = 33, pepe ball 4, even again.
	seeds.blockTime = 23
	advanceClock(engine, 250*time.Hour)

	second, err := engine.TakeSnapshot(ctx, testAdmin)
	if err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	if second.Outcome != OutcomeRollover {
		t.Fatalf("second outcome = %s, want rollover", second.Outcome)
	}
	// Even rollover counts fall back to the long extension window.
	if second.Extension != 72*time.Hour {
		t.Errorf("second extension = %s, want 72h", second.Extension)
	}
	if second.RolloverCount != 2 {
		t.Errorf("rollover count = %d, want 2", second.RolloverCount)
	}
	wantDue := engine.now().Add(72*time.Hour + 72*time.Hour)
	if !second.NextDue.Equal(wantDue) {
		t.Errorf("next due = %s, want %s", second.NextDue, wantDue)
	}
}

func TestTakeSnapshotFastModeGate(t *testing.T) {
	t.Run("fast interval governs above threshold", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		enterNine(t, engine)
		ctx := context.Background()

		if _, err := engine.FundJackpot(ctx, testAdmin, 200*LamportsPerSOL); err != nil {
			t.Fatalf("fund jackpot: %v", err)
		}
		state, err := engine.State(ctx)
		if err != nil {
			t.Fatalf("state: %v", err)
		}
		if !state.IsFastMode {
			t.Fatalf("fast mode should be on at the threshold")
		}

		advanceClock(engine, 40*time.Hour)
		if _, err := engine.TakeSnapshot(ctx, testAdmin); !apperrors.HasCode(err, apperrors.ErrDrawTooEarly) {
			t.Errorf("expected DrawTooEarly before 48h, got %v", err)
		}

		advanceClock(engine, 50*time.Hour)
		if _, err := engine.TakeSnapshot(ctx, testAdmin); err != nil {
			t.Errorf("snapshot after 48h in fast mode: %v", err)
		}
	})

	t.Run("base interval governs below threshold", func(t *testing.T) {
		engine, _, _ := newTestEngine(t)
		enterNine(t, engine)
		ctx := context.Background()

		advanceClock(engine, 50*time.Hour)
		if _, err := engine.TakeSnapshot(ctx, testAdmin); !apperrors.HasCode(err, apperrors.ErrDrawTooEarly) {
			t.Errorf("expected DrawTooEarly before 72h, got %v", err)
		}

		advanceClock(engine, 80*time.Hour)
		if _, err := engine.TakeSnapshot(ctx, testAdmin); err != nil {
			t.Errorf("snapshot after 72h in base mode: %v", err)
		}
	})
}

func TestSetWinners(t *testing.T) {
	engine, _, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()

	seeds.slot = 1
	seeds.blockTime = 21
	advanceClock(engine, 100*time.Hour)
	if _, err := engine.TakeSnapshot(ctx, testAdmin); err != nil {
		t.Fatalf("take snapshot: %v", err)
	}

	rows, err := engine.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	expected, err := SelectWinners(Candidates(rows), 30, 9)
	if err != nil {
		t.Fatalf("select winners: %v", err)
	}

	if err := engine.SetWinners(ctx, testAdmin, "wrong-wallet", expected.MinorWinners); !apperrors.HasCode(err, apperrors.ErrInvalidWinnerSet) {
		t.Errorf("expected InvalidWinnerSet for tampered main, got %v", err)
	}

	if err := engine.SetWinners(ctx, testAdmin, expected.MainWinner, expected.MinorWinners); err != nil {
		t.Fatalf("set winners: %v", err)
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Winners == nil || state.Winners.MainWinner != expected.MainWinner {
		t.Errorf("winners not persisted")
	}
}

func TestSetWinnersNoSnapshotPending(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	enterNine(t, engine)
	err := engine.SetWinners(context.Background(), testAdmin, "wallet-0", make([]string, 8))
	if !apperrors.HasCode(err, apperrors.ErrNoSnapshotPending) {
		t.Errorf("expected NoSnapshotPending, got %v", err)
	}
}

func TestPayoutWinners(t *testing.T) {
	engine, wallets, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()

	if _, err := engine.FundJackpot(ctx, testAdmin, 100*LamportsPerSOL); err != nil {
		t.Fatalf("fund jackpot: %v", err)
	}

	seeds.slot = 1
	seeds.blockTime = 21
	advanceClock(engine, 100*time.Hour)
	if _, err := engine.TakeSnapshot(ctx, testAdmin); err != nil {
		t.Fatalf("take snapshot: %v", err)
	}

	rows, err := engine.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	winners, err := SelectWinners(Candidates(rows), 30, 9)
	if err != nil {
		t.Fatalf("select winners: %v", err)
	}
	if err := engine.SetWinners(ctx, testAdmin, winners.MainWinner, winners.MinorWinners); err != nil {
		t.Fatalf("set winners: %v", err)
	}

	result, err := engine.PayoutWinners(ctx, testAdmin)
	if err != nil {
		t.Fatalf("payout: %v", err)
	}

	if result.GrandPrize != 68*LamportsPerSOL {
		t.Errorf("grand prize = %d, want 68 SOL", result.GrandPrize)
	}
	if result.MinorShare != 3*LamportsPerSOL {
		t.Errorf("minor share = %d, want 3 SOL", result.MinorShare)
	}
	if result.CarryOver != 8*LamportsPerSOL {
		t.Errorf("carry over = %d, want 8 SOL", result.CarryOver)
	}

	if len(wallets.transfers) != 9 {
		t.Fatalf("transfers = %d, want 9", len(wallets.transfers))
	}
	if wallets.transfers[0].to != winners.MainWinner || wallets.transfers[0].amount != result.GrandPrize {
		t.Errorf("first transfer = %+v, want grand prize to main winner", wallets.transfers[0])
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.JackpotAmount != 0 {
		t.Errorf("jackpot = %d, want 0", state.JackpotAmount)
	}
	if state.CarryOverAmount != 8*LamportsPerSOL {
		t.Errorf("carry over = %d, want 8 SOL", state.CarryOverAmount)
	}
	if state.Winners != nil {
		t.Errorf("winners not cleared")
	}
	if state.TotalParticipants != 0 || state.TotalTickets != 0 {
		t.Errorf("ledger totals not reset: %d/%d", state.TotalParticipants, state.TotalTickets)
	}
	if state.TotalSnapshots != 1 {
		t.Errorf("total snapshots = %d, payout must not touch it", state.TotalSnapshots)
	}

	rows, err = engine.Participants(ctx)
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("ledger rows = %d, want cleared", len(rows))
	}
}

func TestPayoutWinnersWithoutWinners(t *testing.T) {
	engine, _, seeds := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()
	if _, err := engine.FundJackpot(ctx, testAdmin, LamportsPerSOL); err != nil {
		t.Fatalf("fund jackpot: %v", err)
	}

	// seed 30, pepe ball 1: payout pending but no winner set yet.
	seeds.slot = 1
	seeds.blockTime = 21
	advanceClock(engine, 100*time.Hour)
	if _, err := engine.TakeSnapshot(ctx, testAdmin); err != nil {
		t.Fatalf("take snapshot: %v", err)
	}

	_, err := engine.PayoutWinners(ctx, testAdmin)
	if !apperrors.HasCode(err, apperrors.ErrInvalidWinnerSet) {
		t.Errorf("expected InvalidWinnerSet, got %v", err)
	}
}

func TestPayoutWinnersWithoutSnapshot(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	enterNine(t, engine)
	ctx := context.Background()
	if _, err := engine.FundJackpot(ctx, testAdmin, LamportsPerSOL); err != nil {
		t.Fatalf("fund jackpot: %v", err)
	}

	// No snapshot taken: payout must refuse on its own parity gate, not
	// just because winners are missing.
	_, err := engine.PayoutWinners(ctx, testAdmin)
	if !apperrors.HasCode(err, apperrors.ErrNoSnapshotPending) {
		t.Errorf("expected NoSnapshotPending, got %v", err)
	}
}

func TestConfigureTiming(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.ConfigureTiming(ctx, testAdmin, 24*time.Hour, 12*time.Hour, 10*LamportsPerSOL); err != nil {
		t.Fatalf("configure timing: %v", err)
	}

	if _, err := engine.FundJackpot(ctx, testAdmin, 20*LamportsPerSOL); err != nil {
		t.Fatalf("fund jackpot: %v", err)
	}

	state, err := engine.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.BaseSnapshotInterval != 24*time.Hour {
		t.Errorf("base interval = %s, want 24h", state.BaseSnapshotInterval)
	}
	if !state.IsFastMode {
		t.Errorf("fast mode should be on with jackpot above threshold")
	}

	if err := engine.ConfigureTiming(ctx, "intruder", time.Hour, time.Hour, 1); !apperrors.HasCode(err, apperrors.ErrAdminMismatch) {
		t.Errorf("expected AdminMismatch, got %v", err)
	}
}

func TestEnterWhilePaused(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()
	if err := engine.SetActive(ctx, testAdmin, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	_, err := engine.Enter(ctx, "wallet-a", 20_00)
	if !apperrors.HasCode(err, apperrors.ErrLotteryInactive) {
		t.Errorf("expected LotteryInactive, got %v", err)
	}
}
