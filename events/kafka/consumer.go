package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	apperrors "github.com/Digital-Creators-Team/lottery-engine-module/errors"
	"github.com/Digital-Creators-Team/lottery-engine-module/lottery"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event represents a generic Kafka event
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// EntryEvent is a qualifying-purchase event produced by the payment
// pipeline. Each one becomes an enter or update-entry call.
type EntryEvent struct {
	Wallet        string    `json:"wallet"`
	USDValueCents uint64    `json:"usd_value_cents"`
	Timestamp     time.Time `json:"timestamp"`
}

// EntryHandler applies entry events to the ticket ledger. The engine
// implements this.
type EntryHandler interface {
	Enter(ctx context.Context, wallet string, usdCents uint64) (*lottery.Participant, error)
	UpdateEntry(ctx context.Context, wallet string, usdCents uint64) (*lottery.Participant, error)
}

// Consumer reads entry events and feeds them into the ticket ledger.
type Consumer struct {
	reader  *kafka.Reader
	handler EntryHandler
	logger  zerolog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Logger        zerolog.Logger
}

// NewConsumer creates a new Kafka consumer over the entries topic.
func NewConsumer(config ConsumerConfig, handler EntryHandler) *Consumer {
	ctx, cancel := context.WithCancel(context.Background())

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  config.Logger.With().Str("component", "kafka-consumer").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins consuming messages
func (c *Consumer) Start() error {
	c.wg.Add(1)
	go c.consume()
	c.logger.Info().Msg("Kafka consumer started")
	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info().Msg("Stopping Kafka consumer...")
	c.cancel()
	c.wg.Wait()

	if err := c.reader.Close(); err != nil {
		c.logger.Error().Err(err).Msg("Error closing Kafka reader")
		return err
	}

	c.logger.Info().Msg("Kafka consumer stopped")
	return nil
}

// consume is the main consumer loop
func (c *Consumer) consume() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if err == context.Canceled {
					return
				}
				c.logger.Error().Err(err).Msg("Error fetching message from Kafka")
				time.Sleep(time.Second)
				continue
			}

			if err := c.handleMessage(msg); err != nil {
				c.logger.Error().
					Err(err).
					Str("topic", msg.Topic).
					Int("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("Error handling message")
			}

			if err := c.reader.CommitMessages(c.ctx, msg); err != nil {
				c.logger.Error().Err(err).Msg("Error committing message")
			}
		}
	}
}

// handleMessage applies one entry event. First-time wallets enter, repeat
// wallets accumulate onto their existing row.
func (c *Consumer) handleMessage(msg kafka.Message) error {
	var event EntryEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return err
	}
	if event.Wallet == "" || event.USDValueCents == 0 {
		c.logger.Debug().Msg("Skipping empty entry event")
		return nil
	}

	_, err := c.handler.Enter(c.ctx, event.Wallet, event.USDValueCents)
	if err == nil {
		c.logger.Info().
			Str("wallet", event.Wallet).
			Uint64("usd_value_cents", event.USDValueCents).
			Msg("Entry event applied")
		return nil
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrAlreadyEntered:
		if _, err := c.handler.UpdateEntry(c.ctx, event.Wallet, event.USDValueCents); err != nil {
			return err
		}
		c.logger.Info().
			Str("wallet", event.Wallet).
			Uint64("usd_value_cents", event.USDValueCents).
			Msg("Entry event accumulated")
		return nil
	case apperrors.ErrBelowMinimumEntry:
		// Not an error worth retrying; the purchase just does not qualify.
		c.logger.Debug().
			Str("wallet", event.Wallet).
			Uint64("usd_value_cents", event.USDValueCents).
			Msg("Entry event below minimum, skipped")
		return nil
	default:
		return err
	}
}
