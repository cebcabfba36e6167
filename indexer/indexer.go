// Package indexer computes winner sets off the hot path. It fetches the
// full participant ledger with bounded concurrency, runs the deterministic
// draw and submits the result back to the engine, which re-verifies it.
package indexer

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
)

const (
	// DefaultWorkers bounds the ledger fetch fan-out.
	DefaultWorkers = 8

	// DefaultPollInterval is how often the service checks for a pending draw.
	DefaultPollInterval = 15 * time.Second

	// DefaultRetries is the per-row fetch retry budget.
	DefaultRetries = 3
)

// LedgerSource enumerates and fetches participant rows. At scale this is
// backed by the secondary wallet index, not a linear scan.
type LedgerSource interface {
	Wallets(ctx context.Context) ([]string, error)
	Participant(ctx context.Context, wallet string) (*lottery.Participant, error)
}

// WinnerSink accepts a computed winner set. The engine implements this and
// rejects sets inconsistent with the current seed and ticket totals.
type WinnerSink interface {
	State(ctx context.Context) (*lottery.State, error)
	SetWinners(ctx context.Context, caller, mainWinner string, minorWinners []string) error
}

// ServiceConfig configures the indexer service.
type ServiceConfig struct {
	Source LedgerSource
	Sink   WinnerSink

	// AdminWallet is the identity used when submitting winner sets.
	AdminWallet string

	Workers      int
	Retries      int
	PollInterval time.Duration
	Logger       zerolog.Logger
}

// Service polls for pending draws and resolves them.
type Service struct {
	source      LedgerSource
	sink        WinnerSink
	adminWallet string
	workers     int
	retries     int
	interval    time.Duration
	logger      zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewService creates an indexer service.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Service{
		source:      cfg.Source,
		sink:        cfg.Sink,
		adminWallet: cfg.AdminWallet,
		workers:     cfg.Workers,
		retries:     cfg.Retries,
		interval:    cfg.PollInterval,
		logger:      cfg.Logger.With().Str("component", "winner-indexer").Logger(),
	}
}

// Start launches the polling loop.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	s.mu.Unlock()

	go s.loop(ctx)
	s.logger.Info().Dur("interval", s.interval).Int("workers", s.workers).Msg("Winner indexer started")
}

// Stop terminates the polling loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	done := s.doneChan
	s.mu.Unlock()

	<-done
	s.logger.Info().Msg("Winner indexer stopped")
}

func (s *Service) loop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.ComputeAndSubmit(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Winner computation failed")
			}
		}
	}
}

// ComputeAndSubmit resolves one pending draw if there is one. A round with
// no pending payout snapshot is a no-op.
func (s *Service) ComputeAndSubmit(ctx context.Context) error {
	state, err := s.sink.State(ctx)
	if err != nil {
		return err
	}
	if state.SnapshotSeed == 0 || state.PepeBallCount%2 == 0 {
		return nil
	}
	if state.Winners != nil {
		return nil
	}

	started := time.Now()

	wallets, err := s.source.Wallets(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrStoreError, "failed to enumerate wallets")
	}

	rows, err := s.fetchAll(ctx, wallets)
	if err != nil {
		return err
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntrySeq != rows[j].EntrySeq {
			return rows[i].EntrySeq < rows[j].EntrySeq
		}
		return rows[i].Wallet < rows[j].Wallet
	})

	winners, err := lottery.SelectWinners(lottery.Candidates(rows), state.SnapshotSeed, state.TotalTickets)
	if err != nil {
		return err
	}

	if err := s.sink.SetWinners(ctx, s.adminWallet, winners.MainWinner, winners.MinorWinners); err != nil {
		return err
	}

	s.logger.Info().
		Str("main_winner", winners.MainWinner).
		Int("minor_winners", len(winners.MinorWinners)).
		Int("participants", len(rows)).
		Dur("took", time.Since(started)).
		Msg("Winner set computed and submitted")
	return nil
}

// fetchAll pulls participant rows with a bounded worker pool. The first
// fetch failure cancels the remaining work.
func (s *Service) fetchAll(ctx context.Context, wallets []string) ([]*lottery.Participant, error) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	results := make(chan *lottery.Participant, len(wallets))
	errChan := make(chan error, 1)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wallet := range jobs {
				p, err := s.fetchWithRetry(fetchCtx, wallet)
				if err != nil {
					select {
					case errChan <- err:
					default:
					}
					cancel()
					return
				}
				results <- p
			}
		}()
	}

feed:
	for _, wallet := range wallets {
		select {
		case jobs <- wallet:
		case <-fetchCtx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	select {
	case err := <-errChan:
		return nil, apperrors.Wrap(err, apperrors.ErrStoreError, "failed to fetch participant rows")
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]*lottery.Participant, 0, len(wallets))
	for p := range results {
		rows = append(rows, p)
	}
	return rows, nil
}

func (s *Service) fetchWithRetry(ctx context.Context, wallet string) (*lottery.Participant, error) {
	var lastErr error
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		p, err := s.source.Participant(ctx, wallet)
		if err == nil {
			return p, nil
		}
		lastErr = err
		s.logger.Debug().Err(err).Str("wallet", wallet).Int("attempt", attempt+1).Msg("Participant fetch failed")
	}
	return nil, lastErr
}
