package lottery

import (
	"testing"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
)

func nineCandidates() []Candidate {
	counts := []uint32{10, 5, 20, 3, 15, 7, 1, 1, 1}
	out := make([]Candidate, len(counts))
	for i, c := range counts {
		out[i] = Candidate{Wallet: string(rune('A' + i)), TicketCount: c}
	}
	return out
}

func TestSelectWinnersWeightedWalk(t *testing.T) {
	candidates := nineCandidates()

	// seed 1234567 mod 63 = 40; cumulative sums 10,15,35,38,53 so the
	// fifth candidate is the first to exceed the target.
	winners, err := SelectWinners(candidates, 1234567, 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if winners.MainWinner != candidates[4].Wallet {
		t.Errorf("main winner = %s, want %s", winners.MainWinner, candidates[4].Wallet)
	}
	if len(winners.MinorWinners) != MinorWinnerCount {
		t.Errorf("minor winners = %d, want %d", len(winners.MinorWinners), MinorWinnerCount)
	}

	seen := map[string]bool{winners.MainWinner: true}
	for _, w := range winners.MinorWinners {
		if seen[w] {
			t.Errorf("winner %s selected twice", w)
		}
		seen[w] = true
	}
}

func TestSelectWinnersDeterministic(t *testing.T) {
	candidates := nineCandidates()

	first, err := SelectWinners(candidates, 9876543210, 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := SelectWinners(candidates, 9876543210, 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.MainWinner != second.MainWinner {
		t.Errorf("main winner differs between runs: %s vs %s", first.MainWinner, second.MainWinner)
	}
	for i := range first.MinorWinners {
		if first.MinorWinners[i] != second.MinorWinners[i] {
			t.Errorf("minor winner %d differs: %s vs %s", i, first.MinorWinners[i], second.MinorWinners[i])
		}
	}
}

func TestSelectWinnersFairness(t *testing.T) {
	candidates := nineCandidates()
	const totalTickets = 63

	// Seeds covering every residue class mod 63 equally often make each
	// candidate's main-winner frequency exactly proportional to weight.
	wins := make(map[string]int)
	const rounds = 63 * 100
	for seed := uint64(0); seed < rounds; seed++ {
		winners, err := SelectWinners(candidates, seed, totalTickets)
		if err != nil {
			t.Fatalf("unexpected error at seed %d: %v", seed, err)
		}
		wins[winners.MainWinner]++
	}

	for _, c := range candidates {
		want := int(c.TicketCount) * rounds / totalTickets
		if wins[c.Wallet] != want {
			t.Errorf("candidate %s won %d times, want %d", c.Wallet, wins[c.Wallet], want)
		}
	}
}

func TestSelectWinnersTooFewParticipants(t *testing.T) {
	candidates := nineCandidates()[:6]
	_, err := SelectWinners(candidates, 42, 46)
	if !apperrors.HasCode(err, apperrors.ErrNotEnoughParticipants) {
		t.Errorf("expected NotEnoughParticipants, got %v", err)
	}
}

func TestVerifyWinners(t *testing.T) {
	candidates := nineCandidates()
	winners, err := SelectWinners(candidates, 1234567, 63)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name      string
		submitted *WinnerSet
		wantCode  int
	}{
		{
			name:      "matching set accepted",
			submitted: winners,
			wantCode:  0,
		},
		{
			name:      "nil set rejected",
			submitted: nil,
			wantCode:  apperrors.ErrInvalidWinnerSet,
		},
		{
			name: "tampered main winner rejected",
			submitted: &WinnerSet{
				MainWinner:   "Z",
				MinorWinners: winners.MinorWinners,
			},
			wantCode: apperrors.ErrInvalidWinnerSet,
		},
		{
			name: "truncated minor winners rejected",
			submitted: &WinnerSet{
				MainWinner:   winners.MainWinner,
				MinorWinners: winners.MinorWinners[:5],
			},
			wantCode: apperrors.ErrInvalidWinnerSet,
		},
		{
			name: "reordered minor winners rejected",
			submitted: &WinnerSet{
				MainWinner: winners.MainWinner,
				MinorWinners: append(
					[]string{winners.MinorWinners[1], winners.MinorWinners[0]},
					winners.MinorWinners[2:]...),
			},
			wantCode: apperrors.ErrInvalidWinnerSet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyWinners(candidates, 1234567, 63, tt.submitted)
			if tt.wantCode == 0 {
				if err != nil {
					t.Errorf("expected acceptance, got %v", err)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("expected code %d, got %v", tt.wantCode, err)
			}
		})
	}
}
