package binance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

const (
	MainnetBaseURL = "https://fapi.binance.com"
	TestnetBaseURL = "https://testnet.binancefuture.com"
)

// FuturesClient implements trading.FuturesClient for Binance USDⓈ-M futures
type FuturesClient struct {
	client *futures.Client
	mu     sync.Mutex
}

var _ trading.FuturesClient = (*FuturesClient)(nil)

// NewFuturesClient creates a client for creds. The endpoint follows creds.Testnet,
// not futures.UseTestnet.
func NewFuturesClient(creds models.Credentials, httpClient *http.Client) *FuturesClient {
	client := futures.NewClient(creds.APIKey, creds.APISecret)
	client.BaseURL = MainnetBaseURL
	if creds.Testnet {
		client.BaseURL = TestnetBaseURL
	}
	if httpClient != nil {
		client.HTTPClient = httpClient
	}

	return &FuturesClient{
		client: client,
	}
}

// CreateMarketOrder implements trading.FuturesClient
func (b *FuturesClient) CreateMarketOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sideType, err := toSideType(side)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType).
		Type(futures.OrderTypeMarket).
		Quantity(quantity.String()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", describe(err))
	}

	return decode[models.OrderResult](resp)
}

// CreateLimitOrder implements trading.FuturesClient
func (b *FuturesClient) CreateLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price decimal.Decimal, tif models.TimeInForce) (models.OrderResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sideType, err := toSideType(side)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(sideType).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceType(tif)).
		Quantity(quantity.String()).
		Price(price.String()).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", describe(err))
	}

	return decode[models.OrderResult](resp)
}

// GetAccountSnapshot implements trading.FuturesClient
func (b *FuturesClient) GetAccountSnapshot(ctx context.Context) (models.AccountSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", describe(err))
	}

	return decode[models.AccountSnapshot](account)
}

// Dialer implements trading.Dialer. A signed account request checks both
// reachability and the key pair before the client is handed out.
type Dialer struct {
	HTTPClient *http.Client
	// BaseURL overrides the endpoint chosen from Credentials.Testnet
	BaseURL string
}

var _ trading.Dialer = (*Dialer)(nil)

func (d *Dialer) Dial(ctx context.Context, creds models.Credentials) (trading.FuturesClient, error) {
	client := NewFuturesClient(creds, d.HTTPClient)
	if d.BaseURL != "" {
		client.client.BaseURL = d.BaseURL
	}

	if _, err := client.client.NewGetAccountService().Do(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", client.client.BaseURL, describe(err))
	}

	return client, nil
}

func toSideType(side models.Side) (futures.SideType, error) {
	switch side {
	case models.SideBuy:
		return futures.SideTypeBuy, nil
	case models.SideSell:
		return futures.SideTypeSell, nil
	default:
		return "", fmt.Errorf("invalid side: %s", side)
	}
}

// venueError renders a *common.APIError once, as code and message, and still
// unwraps to it.
type venueError struct {
	err *common.APIError
}

func (e *venueError) Error() string {
	return fmt.Sprintf("binance error %d: %s", e.err.Code, e.err.Message)
}

func (e *venueError) Unwrap() error { return e.err }

func describe(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &venueError{err: apiErr}
	}
	return err
}

func decode[T ~map[string]any](v any) (T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out T
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out, nil
}
