package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Digital-Creators-Team/lottery-engine-module/config"
	"github.com/rs/zerolog"
)

// WalletProvider implements providers.WalletProvider against the treasury
// service. All amounts are lamports.
type WalletProvider struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewWalletProvider creates a new wallet provider
func NewWalletProvider(cfg *config.Config, logger zerolog.Logger) *WalletProvider {
	timeout := cfg.ExternalServices.TreasuryService.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &WalletProvider{
		baseURL: cfg.ExternalServices.TreasuryService.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				MaxConnsPerHost:     100,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		logger: logger.With().Str("component", "wallet_provider").Logger(),
	}
}

// GetBalance retrieves a wallet balance from the treasury service.
func (p *WalletProvider) GetBalance(ctx context.Context, wallet string) (uint64, error) {
	url := fmt.Sprintf("%s/treasury/balance?wallet=%s", p.baseURL, wallet)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("treasury service returned status %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Lamports uint64 `json:"lamports"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Data.Lamports, nil
}

// Transfer sends lamports from the treasury to a recipient and returns the
// transaction signature.
func (p *WalletProvider) Transfer(ctx context.Context, to string, lamports uint64) (string, error) {
	url := fmt.Sprintf("%s/treasury/transfer", p.baseURL)

	body, _ := json.Marshal(map[string]interface{}{
		"to":       to,
		"lamports": lamports,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to transfer: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transfer failed with status %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Signature string `json:"signature"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	p.logger.Info().
		Str("to", to).
		Uint64("lamports", lamports).
		Str("signature", result.Data.Signature).
		Msg("Transfer submitted")

	return result.Data.Signature, nil
}
