package lottery

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used in development mode and tests.
type MemStore struct {
	mu           sync.RWMutex
	state        *State
	participants map[string]*Participant
	seq          uint64
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		participants: make(map[string]*Participant),
	}
}

func (m *MemStore) GetState(ctx context.Context) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, ErrNotFound
	}
	cp := *m.state
	if m.state.Winners != nil {
		w := *m.state.Winners
		w.MinorWinners = append([]string(nil), m.state.Winners.MinorWinners...)
		cp.Winners = &w
	}
	return &cp, nil
}

func (m *MemStore) SaveState(ctx context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *state
	if state.Winners != nil {
		w := *state.Winners
		w.MinorWinners = append([]string(nil), state.Winners.MinorWinners...)
		cp.Winners = &w
	}
	m.state = &cp
	return nil
}

func (m *MemStore) GetParticipant(ctx context.Context, wallet string) (*Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.participants[wallet]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemStore) SaveParticipant(ctx context.Context, p *Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.participants[p.Wallet] = &cp
	return nil
}

func (m *MemStore) ListParticipants(ctx context.Context) ([]*Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Participant, 0, len(m.participants))
	for _, p := range m.participants {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntrySeq != out[j].EntrySeq {
			return out[i].EntrySeq < out[j].EntrySeq
		}
		return out[i].Wallet < out[j].Wallet
	})
	return out, nil
}

func (m *MemStore) ClearParticipants(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants = make(map[string]*Participant)
	return nil
}

func (m *MemStore) NextEntrySeq(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}
