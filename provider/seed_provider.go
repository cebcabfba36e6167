package provider

import (
	"context"
	"fmt"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/Digital-Creators-Team/lottery-engine-module/httpclient"
	"github.com/rs/zerolog"
)

// SeedProvider implements providers.SeedProvider against a Solana JSON-RPC
// endpoint. Snapshot seeds are derived from the latest slot and block time.
type SeedProvider struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewSeedProvider creates a new seed provider
func NewSeedProvider(cfg *config.Config, logger zerolog.Logger) *SeedProvider {
	return &SeedProvider{
		client: httpclient.New(httpclient.Config{
			BaseURL: cfg.ExternalServices.ChainRPC.BaseURL,
			Timeout: cfg.ExternalServices.ChainRPC.Timeout,
			Logger:  logger,
		}),
		logger: logger.With().Str("component", "seed_provider").Logger(),
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// LatestBlock returns the most recent slot and its unix block time.
func (p *SeedProvider) LatestBlock(ctx context.Context) (uint64, int64, error) {
	var slotResp struct {
		Result uint64    `json:"result"`
		Error  *rpcError `json:"error"`
	}
	if err := p.client.PostJSON(ctx, "", rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getSlot",
	}, nil, &slotResp); err != nil {
		return 0, 0, fmt.Errorf("getSlot failed: %w", err)
	}
	if slotResp.Error != nil {
		return 0, 0, fmt.Errorf("getSlot rpc error %d: %s", slotResp.Error.Code, slotResp.Error.Message)
	}

	var timeResp struct {
		Result int64     `json:"result"`
		Error  *rpcError `json:"error"`
	}
	if err := p.client.PostJSON(ctx, "", rpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "getBlockTime",
		Params:  []interface{}{slotResp.Result},
	}, nil, &timeResp); err != nil {
		return 0, 0, fmt.Errorf("getBlockTime failed: %w", err)
	}
	if timeResp.Error != nil {
		return 0, 0, fmt.Errorf("getBlockTime rpc error %d: %s", timeResp.Error.Code, timeResp.Error.Message)
	}

	p.logger.Debug().
		Uint64("slot", slotResp.Result).
		Int64("block_time", timeResp.Result).
		Msg("Fetched seed source")

	return slotResp.Result, timeResp.Result, nil
}
