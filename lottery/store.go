package lottery

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store lookups when no record exists.
var ErrNotFound = errors.New("lottery: not found")

// Store persists the singleton state and the participant ledger.
//
// ListParticipants must return rows in canonical order: ascending entry
// sequence, wallet as tiebreak. Winner selection depends on this ordering
// being stable across calls.
type Store interface {
	GetState(ctx context.Context) (*State, error)
	SaveState(ctx context.Context, state *State) error

	GetParticipant(ctx context.Context, wallet string) (*Participant, error)
	SaveParticipant(ctx context.Context, p *Participant) error
	ListParticipants(ctx context.Context) ([]*Participant, error)
	ClearParticipants(ctx context.Context) error

	// NextEntrySeq returns a monotonically increasing sequence number used
	// to fix participant ordering.
	NextEntrySeq(ctx context.Context) (uint64, error)
}
