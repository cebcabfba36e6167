package lottery

import (
	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/samber/lo"
)

// Candidate is one entry in the selection walk.
type Candidate struct {
	Wallet      string
	TicketCount uint32
}

// Candidates converts canonical participant rows into selection candidates.
func Candidates(participants []*Participant) []Candidate {
	return lo.Map(participants, func(p *Participant, _ int) Candidate {
		return Candidate{Wallet: p.Wallet, TicketCount: p.TicketCount}
	})
}

// SelectWinners runs the deterministic weighted draw. Identical inputs,
// including candidate order, always produce identical winners.
//
// The main winner is found by a cumulative walk over ticket counts against
// targetTicket = seed mod totalTickets. Minor winners are drawn without
// replacement from the remaining pool using a derived running seed.
func SelectWinners(candidates []Candidate, seed uint64, totalTickets uint32) (*WinnerSet, error) {
	if len(candidates) < MinParticipants {
		return nil, apperrors.Newf(apperrors.ErrNotEnoughParticipants,
			"not enough participants: %d/%d", len(candidates), MinParticipants)
	}
	if totalTickets == 0 {
		return nil, apperrors.New(apperrors.ErrNotEnoughParticipants, "no tickets in play")
	}

	targetTicket := seed % uint64(totalTickets)

	mainIdx := -1
	var cumulative uint64
	for i, c := range candidates {
		cumulative += uint64(c.TicketCount)
		if cumulative > targetTicket {
			mainIdx = i
			break
		}
	}
	if mainIdx == -1 {
		// Unreachable when sum(tickets) == totalTickets; fall back to the
		// last candidate rather than fail the draw.
		mainIdx = len(candidates) - 1
	}

	winners := &WinnerSet{
		MainWinner:   candidates[mainIdx].Wallet,
		MinorWinners: make([]string, 0, MinorWinnerCount),
	}

	pool := make([]Candidate, 0, len(candidates)-1)
	pool = append(pool, candidates[:mainIdx]...)
	pool = append(pool, candidates[mainIdx+1:]...)

	s := seed * 7
	for len(winners.MinorWinners) < MinorWinnerCount && len(pool) > 0 {
		idx := int(s % uint64(len(pool)))
		winners.MinorWinners = append(winners.MinorWinners, pool[idx].Wallet)
		pool = append(pool[:idx], pool[idx+1:]...)
		s = s*13 + 1
	}

	return winners, nil
}

// VerifyWinners recomputes the draw from the authoritative candidate list
// and rejects any submitted set that does not match. Off-chain results are
// never trusted blindly.
func VerifyWinners(candidates []Candidate, seed uint64, totalTickets uint32, submitted *WinnerSet) error {
	if submitted == nil || submitted.MainWinner == "" {
		return apperrors.New(apperrors.ErrInvalidWinnerSet, "empty winner set")
	}

	expected, err := SelectWinners(candidates, seed, totalTickets)
	if err != nil {
		return err
	}

	if expected.MainWinner != submitted.MainWinner {
		return apperrors.Newf(apperrors.ErrInvalidWinnerSet,
			"main winner mismatch: submitted %s", submitted.MainWinner)
	}
	if len(expected.MinorWinners) != len(submitted.MinorWinners) {
		return apperrors.Newf(apperrors.ErrInvalidWinnerSet,
			"minor winner count mismatch: submitted %d, expected %d",
			len(submitted.MinorWinners), len(expected.MinorWinners))
	}
	for i, w := range expected.MinorWinners {
		if submitted.MinorWinners[i] != w {
			return apperrors.Newf(apperrors.ErrInvalidWinnerSet,
				"minor winner mismatch at position %d", i)
		}
	}
	return nil
}
