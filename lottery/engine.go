package lottery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/Digital-Creators-Team/lottery-engine-module/pkg/providers"
	"github.com/rs/zerolog"
)

// Engine owns the singleton lottery state. All mutating operations take the
// engine mutex, so snapshot, payout and ledger writes are serialized.
type Engine struct {
	mu sync.Mutex

	store   Store
	wallets providers.WalletProvider
	seeds   providers.SeedProvider
	events  providers.EventPublisher
	history providers.HistoryProvider

	broadcaster *Broadcaster
	cfg         config.LotteryConfig
	logger      zerolog.Logger

	now func() time.Time
}

// EngineConfig wires an Engine. Events and History are optional.
type EngineConfig struct {
	Store   Store
	Wallets providers.WalletProvider
	Seeds   providers.SeedProvider
	Events  providers.EventPublisher
	History providers.HistoryProvider
	Lottery config.LotteryConfig
	Logger  zerolog.Logger
}

// NewEngine creates an engine over the given store and providers.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		store:       cfg.Store,
		wallets:     cfg.Wallets,
		seeds:       cfg.Seeds,
		events:      cfg.Events,
		history:     cfg.History,
		broadcaster: NewBroadcaster(64),
		cfg:         cfg.Lottery,
		logger:      cfg.Logger.With().Str("component", "lottery-engine").Logger(),
		now:         time.Now,
	}
}

// Updates exposes the round update stream for SSE/WebSocket senders.
func (e *Engine) Updates() *Broadcaster {
	return e.broadcaster
}

// loadState fetches the singleton, creating it from configuration on first
// use. Callers must hold the engine mutex.
func (e *Engine) loadState(ctx context.Context) (*State, error) {
	state, err := e.store.GetState(ctx)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to load lottery state")
	}

	state = &State{
		Admin:                e.cfg.AdminWallet,
		IsActive:             true,
		JackpotAmount:        e.cfg.InitialJackpot,
		BaseSnapshotInterval: e.cfg.BaseSnapshotInterval,
		FastSnapshotInterval: e.cfg.FastSnapshotInterval,
		FastModeThreshold:    e.cfg.FastModeThreshold,
		LastSnapshot:         e.now(),
	}
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	if err := e.store.SaveState(ctx, state); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to initialize lottery state")
	}
	e.logger.Info().
		Str("admin", state.Admin).
		Uint64("jackpot", state.JackpotAmount).
		Msg("Lottery state initialized")
	return state, nil
}

func (e *Engine) saveState(ctx context.Context, state *State) error {
	if err := e.store.SaveState(ctx, state); err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreError, "failed to save lottery state")
	}
	return nil
}

func (e *Engine) requireAdmin(state *State, caller string) error {
	if caller != state.Admin {
		return apperrors.New(apperrors.ErrAdminMismatch, "caller is not the lottery admin")
	}
	return nil
}

func (e *Engine) requireActive(state *State) error {
	if !state.IsActive {
		return apperrors.New(apperrors.ErrLotteryInactive, "lottery is paused")
	}
	return nil
}

// State returns a copy of the current singleton state.
func (e *Engine) State(ctx context.Context) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadState(ctx)
}

// Participant returns one wallet's ledger row.
func (e *Engine) Participant(ctx context.Context, wallet string) (*Participant, error) {
	p, err := e.store.GetParticipant(ctx, wallet)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.Newf(apperrors.ErrParticipantNotFound, "no entry for wallet %s", wallet)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to load participant")
	}
	return p, nil
}

// Participants returns the full ledger in canonical order.
func (e *Engine) Participants(ctx context.Context) ([]*Participant, error) {
	rows, err := e.store.ListParticipants(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to list participants")
	}
	return rows, nil
}

// Enter creates a ledger row for a wallet's first qualifying entry in the
// running round.
func (e *Engine) Enter(ctx context.Context, wallet string, usdCents uint64) (*Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireActive(state); err != nil {
		return nil, err
	}

	tickets := TicketsForUSD(usdCents)
	if tickets == 0 {
		missing := CentsToQualify(usdCents)
		return nil, apperrors.Newf(apperrors.ErrBelowMinimumEntry,
			"below minimum entry: need $%d.%02d more to qualify", missing/100, missing%100)
	}

	if _, err := e.store.GetParticipant(ctx, wallet); err == nil {
		return nil, apperrors.Newf(apperrors.ErrAlreadyEntered,
			"wallet %s already entered this round", wallet)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to check participant")
	}

	seq, err := e.store.NextEntrySeq(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to allocate entry sequence")
	}

	p := &Participant{
		Wallet:      wallet,
		TicketCount: tickets,
		USDValue:    usdCents,
		EntryTime:   e.now(),
		EntrySeq:    seq,
	}
	if err := e.store.SaveParticipant(ctx, p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to save participant")
	}

	state.TotalParticipants++
	state.TotalTickets += tickets
	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("wallet", wallet).
		Uint32("tickets", tickets).
		Uint32("total_tickets", state.TotalTickets).
		Msg("Participant entered")

	e.notify(ctx, UpdateEntry, wallet, state, "")
	return p, nil
}

// UpdateEntry accumulates additional USD value on an existing ledger row and
// re-tiers its ticket count.
func (e *Engine) UpdateEntry(ctx context.Context, wallet string, additionalCents uint64) (*Participant, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireActive(state); err != nil {
		return nil, err
	}

	p, err := e.store.GetParticipant(ctx, wallet)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.Newf(apperrors.ErrParticipantNotFound,
				"no entry for wallet %s, use enter first", wallet)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to load participant")
	}

	oldTickets := p.TicketCount
	p.USDValue += additionalCents
	p.TicketCount = TicketsForUSD(p.USDValue)

	if err := e.store.SaveParticipant(ctx, p); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to save participant")
	}

	state.TotalTickets += p.TicketCount - oldTickets
	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("wallet", wallet).
		Uint32("tickets", p.TicketCount).
		Uint64("usd_value", p.USDValue).
		Msg("Participant entry updated")

	e.notify(ctx, UpdateEntry, wallet, state, "")
	return p, nil
}

// TakeSnapshot runs the scheduler gate, derives the seed and dispatches the
// parity outcome. Odd pepe ball counts leave a payout pending for SetWinners
// and PayoutWinners; even counts roll the round over.
func (e *Engine) TakeSnapshot(ctx context.Context, caller string) (*SnapshotResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return nil, err
	}
	if err := e.requireActive(state); err != nil {
		return nil, err
	}
	if state.TotalParticipants < MinParticipants {
		return nil, apperrors.Newf(apperrors.ErrNotEnoughParticipants,
			"participants: %d/%d", state.TotalParticipants, MinParticipants)
	}
	if state.TotalTickets == 0 {
		return nil, apperrors.New(apperrors.ErrNotEnoughParticipants, "no tickets in play")
	}

	now := e.now()
	if due := state.NextSnapshotDue(); now.Before(due) {
		return nil, apperrors.Newf(apperrors.ErrDrawTooEarly,
			"next snapshot due at %s", due.UTC().Format(time.RFC3339))
	}

	slot, blockTime, err := e.seeds.LatestBlock(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrSeedSource, "failed to fetch seed source")
	}

	// Wrapping multiply-add over slot, block time, the ticket total and the
	// snapshot count. Unpredictable ahead of time, reproducible after the fact.
	seed := slot*uint64(blockTime) + uint64(state.TotalTickets) + uint64(state.TotalSnapshots)
	if seed == 0 {
		seed = 1
	}

	state.PepeBallCount = uint8(seed%30) + 1
	state.SnapshotSeed = seed
	state.TotalSnapshots++
	state.LastSnapshot = now
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	result := &SnapshotResult{
		SnapshotSeed:   seed,
		PepeBallCount:  state.PepeBallCount,
		TotalTickets:   state.TotalTickets,
		Participants:   state.TotalParticipants,
		TotalSnapshots: state.TotalSnapshots,
	}

	if state.PepeBallCount%2 == 1 {
		result.Outcome = OutcomePayout
	} else {
		result.Outcome = OutcomeRollover
		state.RolloverCount++
		state.Winners = nil

		// No winners on a rollover round, so the seed is consumed and the
		// timer is extended: lastSnapshot advances past now, making the next
		// draw due a full interval after the extension. Odd rollover counts
		// use the short extension window.
		state.SnapshotSeed = 0
		extension := state.BaseSnapshotInterval
		if state.RolloverCount%2 == 1 {
			extension = state.FastSnapshotInterval
		}
		state.LastSnapshot = now.Add(extension)
		result.Extension = extension
		result.RolloverCount = state.RolloverCount
	}
	result.NextDue = state.NextSnapshotDue()

	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("outcome", string(result.Outcome)).
		Uint64("seed", result.SnapshotSeed).
		Uint8("pepe_ball_count", result.PepeBallCount).
		Uint32("total_snapshots", state.TotalSnapshots).
		Msg("Snapshot taken")

	if result.Outcome == OutcomeRollover {
		e.recordHistory(ctx, providers.RoundRecord{
			Round:         state.TotalSnapshots,
			Outcome:       string(OutcomeRollover),
			SnapshotSeed:  result.SnapshotSeed,
			PepeBallCount: result.PepeBallCount,
			Jackpot:       state.JackpotAmount,
			Timestamp:     now.Unix(),
		})
	}

	e.notify(ctx, UpdateSnapshot, "", state, result.Outcome)
	return result, nil
}

// SetWinners accepts an externally computed winner set. The set is only
// stored after the draw is recomputed from the authoritative ledger and
// matches exactly.
func (e *Engine) SetWinners(ctx context.Context, caller, mainWinner string, minorWinners []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return err
	}
	if err := e.requireActive(state); err != nil {
		return err
	}
	if state.SnapshotSeed == 0 {
		return apperrors.New(apperrors.ErrNoSnapshotPending, "no payout snapshot pending")
	}
	if state.PepeBallCount%2 == 0 {
		return apperrors.New(apperrors.ErrNoSnapshotPending, "last snapshot rolled over")
	}

	rows, err := e.store.ListParticipants(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreError, "failed to list participants")
	}

	submitted := &WinnerSet{MainWinner: mainWinner, MinorWinners: minorWinners}
	if err := VerifyWinners(Candidates(rows), state.SnapshotSeed, state.TotalTickets, submitted); err != nil {
		return err
	}

	state.Winners = submitted
	if err := e.saveState(ctx, state); err != nil {
		return err
	}

	e.logger.Info().
		Str("main_winner", mainWinner).
		Int("minor_winners", len(minorWinners)).
		Msg("Winners accepted")
	return nil
}

// PayoutWinners disburses the jackpot according to the fixed split. All
// security checks run before any funds move; calculation or post-state
// failures are fatal and never retried automatically.
func (e *Engine) PayoutWinners(ctx context.Context, caller string) (*PayoutResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return nil, err
	}
	if err := e.requireActive(state); err != nil {
		return nil, err
	}
	if state.SnapshotSeed == 0 || state.PepeBallCount%2 == 0 {
		return nil, apperrors.New(apperrors.ErrNoSnapshotPending, "no payout snapshot pending")
	}
	if state.Winners == nil || state.Winners.MainWinner == "" {
		return nil, apperrors.New(apperrors.ErrInvalidWinnerSet, "winners not set")
	}
	if len(state.Winners.MinorWinners) != MinorWinnerCount {
		return nil, apperrors.Newf(apperrors.ErrInvalidWinnerSet,
			"partial winner set: %d/%d minor winners", len(state.Winners.MinorWinners), MinorWinnerCount)
	}

	total := state.JackpotAmount + state.CarryOverAmount
	if total == 0 {
		return nil, apperrors.New(apperrors.ErrPayoutCalculation, "no funds to disburse")
	}

	adminBalance, err := e.wallets.GetBalance(ctx, state.Admin)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransferFailed, "failed to check admin balance")
	}
	if adminBalance < e.cfg.AdminFeeFloor {
		return nil, apperrors.Newf(apperrors.ErrTransferFailed,
			"admin balance %d below fee floor %d", adminBalance, e.cfg.AdminFeeFloor)
	}

	split, err := CalculateSplit(total)
	if err != nil {
		return nil, err
	}

	winners := state.Winners
	if _, err := e.wallets.Transfer(ctx, winners.MainWinner, split.GrandPrize); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransferFailed, "grand prize transfer failed")
	}
	for i, minor := range winners.MinorWinners {
		if _, err := e.wallets.Transfer(ctx, minor, split.MinorShare); err != nil {
			e.logger.Error().
				Err(err).
				Int("minor_index", i).
				Str("wallet", minor).
				Msg("Minor transfer failed after partial disbursement, manual intervention required")
			return nil, apperrors.Wrap(err, apperrors.ErrTransferFailed, "minor prize transfer failed")
		}
	}

	now := e.now()
	round := state.TotalSnapshots
	seed := state.SnapshotSeed
	pepeBallCount := state.PepeBallCount

	state.JackpotAmount = 0
	state.CarryOverAmount = split.CarryOver + split.Remainder
	state.Winners = nil
	state.SnapshotSeed = 0
	state.PepeBallCount = 0
	state.TotalParticipants = 0
	state.TotalTickets = 0
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	if err := e.store.ClearParticipants(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to clear ledger after payout")
	}
	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	// Post-payout verification against the persisted state.
	verify, err := e.store.GetState(ctx)
	if err != nil || verify.Winners != nil || verify.TotalTickets != 0 || verify.TotalParticipants != 0 {
		e.logger.Error().
			Err(err).
			Msg("Post-payout state verification failed, manual intervention required")
		return nil, apperrors.New(apperrors.ErrStateInconsistent, "post-payout verification failed")
	}

	result := &PayoutResult{
		MainWinner:   winners.MainWinner,
		MinorWinners: winners.MinorWinners,
		GrandPrize:   split.GrandPrize,
		MinorShare:   split.MinorShare,
		CarryOver:    state.CarryOverAmount,
		Remainder:    split.Remainder,
		Total:        total,
	}

	e.logger.Info().
		Str("main_winner", result.MainWinner).
		Uint64("grand_prize", result.GrandPrize).
		Uint64("carry_over", result.CarryOver).
		Uint64("total", result.Total).
		Msg("Payout complete")

	e.recordHistory(ctx, providers.RoundRecord{
		Round:         round,
		Outcome:       string(OutcomePayout),
		SnapshotSeed:  seed,
		PepeBallCount: pepeBallCount,
		MainWinner:    result.MainWinner,
		MinorWinners:  result.MinorWinners,
		GrandPrize:    result.GrandPrize,
		MinorShare:    result.MinorShare,
		CarryOver:     result.CarryOver,
		Jackpot:       total,
		Timestamp:     now.Unix(),
	})

	e.notify(ctx, UpdatePayout, result.MainWinner, state, OutcomePayout)
	return result, nil
}

// ConfigureTiming updates the scheduler parameters.
func (e *Engine) ConfigureTiming(ctx context.Context, caller string, baseInterval, fastInterval time.Duration, fastThreshold uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return err
	}
	if baseInterval <= 0 || fastInterval <= 0 {
		return apperrors.New(apperrors.ErrInvalidRequest, "intervals must be positive")
	}

	state.BaseSnapshotInterval = baseInterval
	state.FastSnapshotInterval = fastInterval
	state.FastModeThreshold = fastThreshold
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	if err := e.saveState(ctx, state); err != nil {
		return err
	}

	e.logger.Info().
		Dur("base_interval", baseInterval).
		Dur("fast_interval", fastInterval).
		Uint64("fast_threshold", fastThreshold).
		Msg("Timing configured")

	e.notify(ctx, UpdateConfig, "", state, "")
	return nil
}

// SetActive pauses or resumes the lottery.
func (e *Engine) SetActive(ctx context.Context, caller string, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return err
	}

	state.IsActive = active
	if err := e.saveState(ctx, state); err != nil {
		return err
	}

	e.logger.Info().Bool("active", active).Msg("Lottery active flag changed")
	e.notify(ctx, UpdateConfig, "", state, "")
	return nil
}

// FundJackpot adds lamports to the jackpot balance.
func (e *Engine) FundJackpot(ctx context.Context, caller string, lamports uint64) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return nil, err
	}

	state.JackpotAmount += lamports
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info().
		Uint64("added", lamports).
		Uint64("jackpot", state.JackpotAmount).
		Bool("fast_mode", state.IsFastMode).
		Msg("Jackpot funded")

	e.notify(ctx, UpdateConfig, "", state, "")
	return state, nil
}

// RecordFees books collected fees, which accrue into the jackpot.
func (e *Engine) RecordFees(ctx context.Context, caller string, lamports uint64) (*State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.requireAdmin(state, caller); err != nil {
		return nil, err
	}

	state.FeesCollected += lamports
	state.JackpotAmount += lamports
	state.IsFastMode = state.JackpotAmount >= state.FastModeThreshold

	if err := e.saveState(ctx, state); err != nil {
		return nil, err
	}

	e.logger.Info().
		Uint64("added", lamports).
		Uint64("fees_collected", state.FeesCollected).
		Msg("Fees recorded")

	e.notify(ctx, UpdateConfig, "", state, "")
	return state, nil
}

// notify pushes a round update to stream listeners and the event bus.
// Failures are logged, never surfaced to the caller.
func (e *Engine) notify(ctx context.Context, updateType, wallet string, state *State, outcome Outcome) {
	update := Update{
		Type:              updateType,
		Wallet:            wallet,
		Outcome:           outcome,
		TotalParticipants: state.TotalParticipants,
		TotalTickets:      state.TotalTickets,
		JackpotAmount:     state.JackpotAmount,
		CarryOverAmount:   state.CarryOverAmount,
		Timestamp:         e.now(),
	}
	e.broadcaster.Send(update)

	if e.events != nil {
		if err := e.events.PublishEvent(ctx, updateType, update); err != nil {
			e.logger.Warn().Err(err).Str("type", updateType).Msg("Failed to publish event")
		}
	}
}

func (e *Engine) recordHistory(ctx context.Context, record providers.RoundRecord) {
	if e.history == nil {
		return
	}
	if err := e.history.RecordRound(ctx, record); err != nil {
		e.logger.Warn().Err(err).Uint32("round", record.Round).Msg("Failed to record round history")
	}
}
