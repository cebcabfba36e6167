package indexer

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
)

type fakeLedger struct {
	mu       sync.Mutex
	rows     map[string]*lottery.Participant
	failures map[string]int
	fetches  int
}

func newFakeLedger(counts []uint32) *fakeLedger {
	f := &fakeLedger{
		rows:     make(map[string]*lottery.Participant),
		failures: make(map[string]int),
	}
	for i, c := range counts {
		wallet := fmt.Sprintf("wallet-%02d", i)
		f.rows[wallet] = &lottery.Participant{
			Wallet:      wallet,
			TicketCount: c,
			EntrySeq:    uint64(i + 1),
		}
	}
	return f
}

func (f *fakeLedger) Wallets(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows))
	for w := range f.rows {
		out = append(out, w)
	}
	return out, nil
}

func (f *fakeLedger) Participant(ctx context.Context, wallet string) (*lottery.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.failures[wallet] > 0 {
		f.failures[wallet]--
		return nil, fmt.Errorf("transient fetch error")
	}
	p, ok := f.rows[wallet]
	if !ok {
		return nil, fmt.Errorf("missing row %s", wallet)
	}
	cp := *p
	return &cp, nil
}

type fakeSink struct {
	mu      sync.Mutex
	state   *lottery.State
	main    string
	minors  []string
	setErr  error
	submits int
}

func (f *fakeSink) State(ctx context.Context) (*lottery.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *f.state
	return &cp, nil
}

func (f *fakeSink) SetWinners(ctx context.Context, caller, mainWinner string, minorWinners []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.submits++
	f.main = mainWinner
	f.minors = minorWinners
	return nil
}

func pendingState(seed uint64, totalTickets uint32) *lottery.State {
	return &lottery.State{
		IsActive:      true,
		SnapshotSeed:  seed,
		PepeBallCount: uint8(seed%30) + 1,
		TotalTickets:  totalTickets,
	}
}

func TestComputeAndSubmit(t *testing.T) {
	counts := []uint32{10, 5, 20, 3, 15, 7, 1, 1, 1}
	ledger := newFakeLedger(counts)
	sink := &fakeSink{state: pendingState(30, 63)} // pepe ball 1, odd

	svc := NewService(ServiceConfig{
		Source:      ledger,
		Sink:        sink,
		AdminWallet: "admin",
		Workers:     4,
		Logger:      zerolog.Nop(),
	})

	if err := svc.ComputeAndSubmit(context.Background()); err != nil {
		t.Fatalf("compute and submit: %v", err)
	}
	if sink.submits != 1 {
		t.Fatalf("submits = %d, want 1", sink.submits)
	}

	// The submitted set must match a direct draw over the canonical order.
	candidates := make([]lottery.Candidate, len(counts))
	for i, c := range counts {
		candidates[i] = lottery.Candidate{Wallet: fmt.Sprintf("wallet-%02d", i), TicketCount: c}
	}
	expected, err := lottery.SelectWinners(candidates, 30, 63)
	if err != nil {
		t.Fatalf("select winners: %v", err)
	}
	if sink.main != expected.MainWinner {
		t.Errorf("main winner = %s, want %s", sink.main, expected.MainWinner)
	}
	if len(sink.minors) != len(expected.MinorWinners) {
		t.Fatalf("minor winners = %d, want %d", len(sink.minors), len(expected.MinorWinners))
	}
	for i := range expected.MinorWinners {
		if sink.minors[i] != expected.MinorWinners[i] {
			t.Errorf("minor %d = %s, want %s", i, sink.minors[i], expected.MinorWinners[i])
		}
	}
}

func TestComputeAndSubmitNothingPending(t *testing.T) {
	tests := []struct {
		name  string
		state *lottery.State
	}{
		{
			name:  "no snapshot taken",
			state: &lottery.State{IsActive: true},
		},
		{
			name: "rollover round",
			state: &lottery.State{
				IsActive:      true,
				SnapshotSeed:  31,
				PepeBallCount: 2,
				TotalTickets:  63,
			},
		},
		{
			name: "winners already set",
			state: &lottery.State{
				IsActive:      true,
				SnapshotSeed:  30,
				PepeBallCount: 1,
				TotalTickets:  63,
				Winners:       &lottery.WinnerSet{MainWinner: "wallet-00"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := newFakeLedger([]uint32{1, 1, 1, 1, 1, 1, 1, 1, 1})
			sink := &fakeSink{state: tt.state}
			svc := NewService(ServiceConfig{
				Source:      ledger,
				Sink:        sink,
				AdminWallet: "admin",
				Logger:      zerolog.Nop(),
			})

			if err := svc.ComputeAndSubmit(context.Background()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sink.submits != 0 {
				t.Errorf("submits = %d, want 0", sink.submits)
			}
			if ledger.fetches != 0 {
				t.Errorf("fetches = %d, want 0", ledger.fetches)
			}
		})
	}
}

func TestComputeAndSubmitRetriesTransientFetches(t *testing.T) {
	counts := []uint32{10, 5, 20, 3, 15, 7, 1, 1, 1}
	ledger := newFakeLedger(counts)
	ledger.failures["wallet-03"] = 2 // recovers within the retry budget

	sink := &fakeSink{state: pendingState(30, 63)}
	svc := NewService(ServiceConfig{
		Source:      ledger,
		Sink:        sink,
		AdminWallet: "admin",
		Workers:     2,
		Retries:     3,
		Logger:      zerolog.Nop(),
	})

	if err := svc.ComputeAndSubmit(context.Background()); err != nil {
		t.Fatalf("compute and submit: %v", err)
	}
	if sink.submits != 1 {
		t.Errorf("submits = %d, want 1", sink.submits)
	}
}

func TestComputeAndSubmitFailsClosed(t *testing.T) {
	counts := []uint32{10, 5, 20, 3, 15, 7, 1, 1, 1}
	ledger := newFakeLedger(counts)
	ledger.failures["wallet-05"] = 100 // never recovers

	sink := &fakeSink{state: pendingState(30, 63)}
	svc := NewService(ServiceConfig{
		Source:      ledger,
		Sink:        sink,
		AdminWallet: "admin",
		Workers:     2,
		Retries:     2,
		Logger:      zerolog.Nop(),
	})

	if err := svc.ComputeAndSubmit(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if sink.submits != 0 {
		t.Errorf("submits = %d, want 0 after failed fetch", sink.submits)
	}
}
