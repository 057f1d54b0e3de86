package trading

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/futuresbot/internal/models"
)

// FuturesClient defines the venue calls the bot depends on
type FuturesClient interface {
	// CreateMarketOrder places a market order; it has no price parameter
	CreateMarketOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error)

	// CreateLimitOrder places a limit order
	CreateLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price decimal.Decimal, tif models.TimeInForce) (models.OrderResult, error)

	// GetAccountSnapshot retrieves the futures account state
	GetAccountSnapshot(ctx context.Context) (models.AccountSnapshot, error)
}

// Dialer builds a FuturesClient from user supplied credentials
type Dialer interface {
	Dial(ctx context.Context, creds models.Credentials) (FuturesClient, error)
}

// DialerFunc adapts a function to Dialer
type DialerFunc func(ctx context.Context, creds models.Credentials) (FuturesClient, error)

func (f DialerFunc) Dial(ctx context.Context, creds models.Credentials) (FuturesClient, error) {
	return f(ctx, creds)
}
