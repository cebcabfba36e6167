package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	coreredis "github.com/Digital-Creators-Team/lottery-engine-module/db/redis"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
)

// Redis key layout. Participants get one JSON row each plus a membership
// set, so the full ledger can be enumerated without scanning the keyspace.
const (
	stateKey          = "lottery:state"
	participantPrefix = "lottery:participant:"
	participantSetKey = "lottery:participants"
	entrySeqKey       = "lottery:entry_seq"
)

// RedisStore implements lottery.Store and indexer.LedgerSource over Redis.
type RedisStore struct {
	redis  *coreredis.Client
	logger zerolog.Logger
}

// NewRedisStore creates a Redis-backed lottery store.
func NewRedisStore(redisClient *coreredis.Client, logger zerolog.Logger) *RedisStore {
	return &RedisStore{
		redis:  redisClient,
		logger: logger.With().Str("component", "redis_store").Logger(),
	}
}

func participantKey(wallet string) string {
	return participantPrefix + wallet
}

// GetState retrieves the singleton state.
func (s *RedisStore) GetState(ctx context.Context) (*lottery.State, error) {
	var state lottery.State
	if err := s.redis.GetJSON(ctx, stateKey, &state); err != nil {
		if errors.Is(err, coreredis.ErrNotFound) {
			return nil, lottery.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return &state, nil
}

// SaveState persists the singleton state. No expiration, the state lives
// as long as the lottery does.
func (s *RedisStore) SaveState(ctx context.Context, state *lottery.State) error {
	if err := s.redis.SetJSON(ctx, stateKey, state, 0); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// GetParticipant retrieves one ledger row.
func (s *RedisStore) GetParticipant(ctx context.Context, wallet string) (*lottery.Participant, error) {
	var p lottery.Participant
	if err := s.redis.GetJSON(ctx, participantKey(wallet), &p); err != nil {
		if errors.Is(err, coreredis.ErrNotFound) {
			return nil, lottery.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load participant: %w", err)
	}
	return &p, nil
}

// SaveParticipant persists one ledger row and registers it in the
// membership set.
func (s *RedisStore) SaveParticipant(ctx context.Context, p *lottery.Participant) error {
	if err := s.redis.SetJSON(ctx, participantKey(p.Wallet), p, 0); err != nil {
		return fmt.Errorf("failed to save participant: %w", err)
	}
	if err := s.redis.SAdd(ctx, participantSetKey, p.Wallet); err != nil {
		return fmt.Errorf("failed to index participant: %w", err)
	}
	return nil
}

// ListParticipants returns all ledger rows in canonical order: ascending
// entry sequence, wallet as tiebreak.
func (s *RedisStore) ListParticipants(ctx context.Context) ([]*lottery.Participant, error) {
	wallets, err := s.redis.SMembers(ctx, participantSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate participants: %w", err)
	}
	if len(wallets) == 0 {
		return nil, nil
	}

	keys := make([]string, len(wallets))
	for i, w := range wallets {
		keys[i] = participantKey(w)
	}
	values, err := s.redis.MGet(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch participants: %w", err)
	}

	rows := make([]*lottery.Participant, 0, len(values))
	for i, raw := range values {
		if raw == "" {
			// Row deleted between SMEMBERS and MGET; drop the stale index
			// entry and move on.
			s.logger.Warn().Str("wallet", wallets[i]).Msg("Stale participant index entry")
			_ = s.redis.SRem(ctx, participantSetKey, wallets[i])
			continue
		}
		var p lottery.Participant
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal participant %s: %w", wallets[i], err)
		}
		rows = append(rows, &p)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntrySeq != rows[j].EntrySeq {
			return rows[i].EntrySeq < rows[j].EntrySeq
		}
		return rows[i].Wallet < rows[j].Wallet
	})
	return rows, nil
}

// ClearParticipants drops every ledger row and the membership set.
func (s *RedisStore) ClearParticipants(ctx context.Context) error {
	wallets, err := s.redis.SMembers(ctx, participantSetKey)
	if err != nil {
		return fmt.Errorf("failed to enumerate participants: %w", err)
	}
	keys := make([]string, 0, len(wallets)+1)
	for _, w := range wallets {
		keys = append(keys, participantKey(w))
	}
	keys = append(keys, participantSetKey)
	if err := s.redis.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	return nil
}

// NextEntrySeq allocates the next entry sequence number.
func (s *RedisStore) NextEntrySeq(ctx context.Context) (uint64, error) {
	seq, err := s.redis.Incr(ctx, entrySeqKey)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate entry sequence: %w", err)
	}
	return uint64(seq), nil
}

// Wallets enumerates participant wallets for the indexer.
func (s *RedisStore) Wallets(ctx context.Context) ([]string, error) {
	return s.redis.SMembers(ctx, participantSetKey)
}

// Participant implements indexer.LedgerSource.
func (s *RedisStore) Participant(ctx context.Context, wallet string) (*lottery.Participant, error) {
	return s.GetParticipant(ctx, wallet)
}
