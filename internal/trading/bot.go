package trading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/songzhibin97/futuresbot/internal/models"
)

// Bot is the single path from the interface to the venue.
//
// Failure policy:
//
//	Initialize      log error, return error
//	PlaceOrder      log error, return error
//	GetAccountInfo  log error, return nil
//
// Nothing is retried.
type Bot struct {
	client FuturesClient
	log    *slog.Logger
}

// NewBot wraps an already constructed client
func NewBot(client FuturesClient, log *slog.Logger) *Bot {
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		client: client,
		log:    log,
	}
}

// Initialize dials the venue with creds and returns a ready Bot
func Initialize(ctx context.Context, dialer Dialer, creds models.Credentials, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	if err := creds.Validate(); err != nil {
		log.Error("Failed to initialize client", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	client, err := dialer.Dial(ctx, creds)
	if err != nil {
		log.Error("Failed to initialize client", "credentials", creds, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	log.Info("Binance client initialized successfully", "testnet", creds.Testnet)
	return NewBot(client, log), nil
}

// PlaceOrder validates req and forwards it to the venue
func (b *Bot) PlaceOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	result, err := b.placeOrder(ctx, req)
	if err != nil {
		b.log.Error("Order failed", "symbol", req.Symbol, "side", req.Side, "type", req.Type, "err", err)
		return nil, err
	}

	b.log.Info("Order placed", "order", result)
	return result, nil
}

func (b *Bot) placeOrder(ctx context.Context, req models.OrderRequest) (models.OrderResult, error) {
	if strings.TrimSpace(req.Symbol) == "" {
		return nil, fmt.Errorf("%w: symbol is required", ErrValidation)
	}

	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return nil, fmt.Errorf("%w: invalid side: %q", ErrValidation, req.Side)
	}

	if !req.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	var (
		result models.OrderResult
		err    error
	)

	switch req.Type {
	case models.OrderTypeMarket:
		result, err = b.client.CreateMarketOrder(ctx, req.Symbol, req.Side, req.Quantity)
	case models.OrderTypeLimit:
		if !req.HasPrice() {
			return nil, fmt.Errorf("%w: price required for limit orders", ErrValidation)
		}
		if req.Price.Decimal.IsNegative() {
			return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
		}
		result, err = b.client.CreateLimitOrder(ctx, req.Symbol, req.Side, req.Quantity, req.Price.Decimal, models.TimeInForceGTC)
	default:
		return nil, fmt.Errorf("%w: unsupported order type: %q", ErrValidation, req.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}

	return result, nil
}

// GetAccountInfo returns the current account snapshot, or nil if it could not be fetched
func (b *Bot) GetAccountInfo(ctx context.Context) models.AccountSnapshot {
	info, err := b.client.GetAccountSnapshot(ctx)
	if err != nil {
		b.log.Error("Account info failed", "err", err)
		return nil
	}
	return info
}
