package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/Digital-Creators-Team/lottery-engine-module/events/kafka"
	"github.com/Digital-Creators-Team/lottery-engine-module/pkg/providers"
	"github.com/Digital-Creators-Team/lottery-engine-module/types"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
)

// HistoryProvider implements providers.HistoryProvider. Finished rounds are
// pushed to the audit topic via Kafka; reads go to the history service.
type HistoryProvider struct {
	baseURL       string
	httpClient    *http.Client
	kafkaProducer *kafka.Producer
	auditTopic    string
	logger        zerolog.Logger
}

// NewHistoryProvider creates a new history provider
func NewHistoryProvider(cfg *config.Config, kafkaProducer *kafka.Producer, logger zerolog.Logger) *HistoryProvider {
	timeout := cfg.ExternalServices.HistoryService.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	auditTopic := "lottery.audit"
	if cfg.Kafka.Topics != nil {
		if t, ok := cfg.Kafka.Topics["audit"]; ok {
			auditTopic = t
		}
	}

	return &HistoryProvider{
		baseURL: cfg.ExternalServices.HistoryService.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		kafkaProducer: kafkaProducer,
		auditTopic:    auditTopic,
		logger:        logger.With().Str("component", "history_provider").Logger(),
	}
}

// AuditEvent represents a round audit event for Kafka
type AuditEvent struct {
	Timestamp     time.Time   `json:"timestamp"`
	SessionID     string      `json:"session_id"`
	SourceService string      `json:"source_service"`
	Action        string      `json:"action"`
	Details       interface{} `json:"details"`
	Result        string      `json:"result"`
}

// RecordRound pushes one finished round to the audit topic.
func (p *HistoryProvider) RecordRound(ctx context.Context, round providers.RoundRecord) error {
	if p.kafkaProducer == nil {
		p.logger.Warn().Msg("Kafka producer not configured, skipping round record")
		return nil
	}

	sessionID := uuid.New().String()
	event := AuditEvent{
		Timestamp:     time.Unix(round.Timestamp, 0),
		SessionID:     sessionID,
		SourceService: "lottery-engine",
		Action:        round.Outcome,
		Details:       round,
		Result:        "success",
	}

	if err := p.kafkaProducer.SendMessage(p.auditTopic, sessionID, event); err != nil {
		p.logger.Error().Err(err).Msg("Failed to send round record to Kafka")
		return fmt.Errorf("failed to record round: %w", err)
	}
	return nil
}

// historyEntry is one audit log row from the history service.
type historyEntry struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details"`
}

type historyData struct {
	Logs  []historyEntry `json:"logs"`
	Total int            `json:"total"`
}

// historyServiceResponse wraps the history service response (can be success or error)
type historyServiceResponse struct {
	StatusCode int               `json:"status_code"`
	IsSuccess  bool              `json:"is_success"`
	Data       historyData       `json:"data,omitempty"`
	Error      types.ErrorDetail `json:"error,omitempty"`
}

// roundDetails mirrors providers.RoundRecord for mapstructure decoding of
// the loosely typed details blob.
type roundDetails struct {
	Round         uint32   `mapstructure:"round"`
	Outcome       string   `mapstructure:"outcome"`
	SnapshotSeed  uint64   `mapstructure:"snapshot_seed"`
	PepeBallCount uint8    `mapstructure:"pepe_ball_count"`
	MainWinner    string   `mapstructure:"main_winner"`
	MinorWinners  []string `mapstructure:"minor_winners"`
	GrandPrize    uint64   `mapstructure:"grand_prize"`
	MinorShare    uint64   `mapstructure:"minor_share"`
	CarryOver     uint64   `mapstructure:"carry_over"`
	Jackpot       uint64   `mapstructure:"jackpot"`
	Timestamp     int64    `mapstructure:"timestamp"`
}

// ListRounds fetches the most recent finished rounds.
func (p *HistoryProvider) ListRounds(ctx context.Context, limit int) ([]providers.RoundRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	url := fmt.Sprintf("%s/logs/search?source_service=lottery-engine&limit=%d", p.baseURL, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history service returned status %d", resp.StatusCode)
	}

	var result historyServiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.IsSuccess {
		errMsg := "unknown error"
		if result.Error.ErrorMessage != "" {
			errMsg = result.Error.ErrorMessage
		}
		return nil, fmt.Errorf("history service error: %s", errMsg)
	}

	rounds := make([]providers.RoundRecord, 0, len(result.Data.Logs))
	for _, entry := range result.Data.Logs {
		var details roundDetails
		if err := mapstructure.Decode(entry.Details, &details); err != nil {
			p.logger.Warn().Err(err).Str("id", entry.ID).Msg("Failed to decode round details")
			continue
		}
		rounds = append(rounds, providers.RoundRecord{
			Round:         details.Round,
			Outcome:       details.Outcome,
			SnapshotSeed:  details.SnapshotSeed,
			PepeBallCount: details.PepeBallCount,
			MainWinner:    details.MainWinner,
			MinorWinners:  details.MinorWinners,
			GrandPrize:    details.GrandPrize,
			MinorShare:    details.MinorShare,
			CarryOver:     details.CarryOver,
			Jackpot:       details.Jackpot,
			Timestamp:     details.Timestamp,
		})
	}
	return rounds, nil
}
