package lottery

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/rs/zerolog"
)

// Scheduler polls the engine and fires snapshots once the time gate opens.
// It acts as the configured admin wallet.
type Scheduler struct {
	engine      *Engine
	adminWallet string
	interval    time.Duration
	logger      zerolog.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewScheduler creates a snapshot scheduler polling at the given interval.
func NewScheduler(engine *Engine, adminWallet string, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		engine:      engine,
		adminWallet: adminWallet,
		interval:    interval,
		logger:      logger.With().Str("component", "snapshot-scheduler").Logger(),
	}
}

// Start launches the polling loop. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
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
	s.logger.Info().Dur("interval", s.interval).Msg("Snapshot scheduler started")
}

// Stop terminates the polling loop and waits for it to exit.
func (s *Scheduler) Stop() {
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
	s.logger.Info().Msg("Snapshot scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
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
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.engine.TakeSnapshot(ctx, s.adminWallet)
	if err != nil {
		switch apperrors.GetCode(err) {
		case apperrors.ErrDrawTooEarly, apperrors.ErrNotEnoughParticipants, apperrors.ErrLotteryInactive:
			// Expected between rounds, not worth more than a debug line.
			s.logger.Debug().Err(err).Msg("Snapshot not eligible")
		default:
			s.logger.Error().Err(err).Msg("Snapshot attempt failed")
		}
		return
	}

	s.logger.Info().
		Str("outcome", string(result.Outcome)).
		Uint8("pepe_ball_count", result.PepeBallCount).
		Time("next_due", result.NextDue).
		Msg("Automatic snapshot fired")
}
