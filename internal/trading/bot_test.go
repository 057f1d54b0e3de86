package trading

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/futuresbot/internal/models"
)

type orderCall struct {
	Symbol      string
	Side        models.Side
	Type        models.OrderType
	Quantity    decimal.Decimal
	Price       *decimal.Decimal
	TimeInForce models.TimeInForce
}

type stubClient struct {
	calls      []orderCall
	accounts   int
	result     models.OrderResult
	account    models.AccountSnapshot
	orderErr   error
	accountErr error
}

var _ FuturesClient = (*stubClient)(nil)

func (s *stubClient) CreateMarketOrder(ctx context.Context, symbol string, side models.Side, quantity decimal.Decimal) (models.OrderResult, error) {
	s.calls = append(s.calls, orderCall{Symbol: symbol, Side: side, Type: models.OrderTypeMarket, Quantity: quantity})
	return s.result, s.orderErr
}

func (s *stubClient) CreateLimitOrder(ctx context.Context, symbol string, side models.Side, quantity, price decimal.Decimal, tif models.TimeInForce) (models.OrderResult, error) {
	s.calls = append(s.calls, orderCall{Symbol: symbol, Side: side, Type: models.OrderTypeLimit, Quantity: quantity, Price: &price, TimeInForce: tif})
	return s.result, s.orderErr
}

func (s *stubClient) GetAccountSnapshot(ctx context.Context) (models.AccountSnapshot, error) {
	s.accounts++
	return s.account, s.accountErr
}

func newTestBot(client FuturesClient) (*Bot, *bytes.Buffer) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewBot(client, log), &buf
}

func dialerFor(client FuturesClient, err error) Dialer {
	return DialerFunc(func(ctx context.Context, creds models.Credentials) (FuturesClient, error) {
		if err != nil {
			return nil, err
		}
		return client, nil
	})
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	creds := models.Credentials{APIKey: "key", APISecret: "secret", Testnet: true}

	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		bot, err := Initialize(ctx, dialerFor(&stubClient{}, nil), creds, log)
		require.NoError(t, err)
		require.NotNil(t, bot)
		assert.Contains(t, buf.String(), "Binance client initialized successfully")
	})

	t.Run("dial failure", func(t *testing.T) {
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))

		bot, err := Initialize(ctx, dialerFor(nil, errors.New("invalid api-key")), creds, log)
		require.Error(t, err)
		assert.Nil(t, bot)
		assert.ErrorIs(t, err, ErrInitialization)
		assert.Contains(t, err.Error(), "invalid api-key")
		assert.Contains(t, buf.String(), "level=ERROR")
		assert.NotContains(t, buf.String(), "secret=secret")
	})

	t.Run("empty credentials", func(t *testing.T) {
		dialed := false
		dialer := DialerFunc(func(ctx context.Context, creds models.Credentials) (FuturesClient, error) {
			dialed = true
			return &stubClient{}, nil
		})

		_, err := Initialize(ctx, dialer, models.Credentials{APIKey: "key"}, nil)
		assert.ErrorIs(t, err, ErrInitialization)
		assert.False(t, dialed)
	})
}

func TestBot_PlaceOrder_Market(t *testing.T) {
	client := &stubClient{result: models.OrderResult{"orderId": float64(1), "status": "FILLED"}}
	bot, logs := newTestBot(client)

	result, err := bot.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     models.SideBuy,
		Type:     models.OrderTypeMarket,
		Quantity: decimal.RequireFromString("0.001"),
	})
	require.NoError(t, err)
	assert.Equal(t, client.result, result)

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, "BTCUSDT", call.Symbol)
	assert.Equal(t, models.SideBuy, call.Side)
	assert.Equal(t, models.OrderTypeMarket, call.Type)
	assert.True(t, decimal.RequireFromString("0.001").Equal(call.Quantity))
	assert.Nil(t, call.Price)

	assert.Contains(t, logs.String(), "level=INFO")
	assert.Contains(t, logs.String(), "Order placed")
	assert.Contains(t, logs.String(), "orderId")
}

func TestBot_PlaceOrder_MarketIgnoresPrice(t *testing.T) {
	client := &stubClient{result: models.OrderResult{}}
	bot, _ := newTestBot(client)

	_, err := bot.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     models.SideSell,
		Type:     models.OrderTypeMarket,
		Quantity: decimal.NewFromInt(1),
		Price:    decimal.NewNullDecimal(decimal.NewFromInt(30000)),
	})
	require.NoError(t, err)
	require.Len(t, client.calls, 1)
	assert.Nil(t, client.calls[0].Price)
}

func TestBot_PlaceOrder_Limit(t *testing.T) {
	client := &stubClient{result: models.OrderResult{"orderId": float64(2), "status": "NEW"}}
	bot, _ := newTestBot(client)

	result, err := bot.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol:   "ETHUSDT",
		Side:     models.SideSell,
		Type:     models.OrderTypeLimit,
		Quantity: decimal.RequireFromString("0.01"),
		Price:    decimal.NewNullDecimal(decimal.NewFromFloat(21000.0)),
	})
	require.NoError(t, err)
	assert.Equal(t, "NEW", result["status"])

	require.Len(t, client.calls, 1)
	call := client.calls[0]
	assert.Equal(t, "ETHUSDT", call.Symbol)
	assert.Equal(t, models.SideSell, call.Side)
	assert.Equal(t, models.OrderTypeLimit, call.Type)
	assert.Equal(t, models.TimeInForceGTC, call.TimeInForce)
	assert.True(t, decimal.RequireFromString("0.01").Equal(call.Quantity))
	require.NotNil(t, call.Price)
	assert.True(t, decimal.NewFromInt(21000).Equal(*call.Price))
}

func TestBot_PlaceOrder_ValidationNeverCallsVenue(t *testing.T) {
	tests := []struct {
		name string
		req  models.OrderRequest
	}{
		{
			name: "limit without price",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.SideBuy, Type: models.OrderTypeLimit,
				Quantity: decimal.NewFromInt(1),
			},
		},
		{
			name: "limit with zero price",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.SideBuy, Type: models.OrderTypeLimit,
				Quantity: decimal.NewFromInt(1), Price: decimal.NewNullDecimal(decimal.Zero),
			},
		},
		{
			name: "limit with negative price",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.SideBuy, Type: models.OrderTypeLimit,
				Quantity: decimal.NewFromInt(1), Price: decimal.NewNullDecimal(decimal.NewFromInt(-5)),
			},
		},
		{
			name: "unknown order type",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.SideBuy, Type: models.OrderType("STOP"),
				Quantity: decimal.NewFromInt(1),
			},
		},
		{
			name: "unknown side",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.Side("HOLD"), Type: models.OrderTypeMarket,
				Quantity: decimal.NewFromInt(1),
			},
		},
		{
			name: "zero quantity",
			req: models.OrderRequest{
				Symbol: "ETHUSDT", Side: models.SideBuy, Type: models.OrderTypeMarket,
			},
		},
		{
			name: "empty symbol",
			req: models.OrderRequest{
				Side: models.SideBuy, Type: models.OrderTypeMarket, Quantity: decimal.NewFromInt(1),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &stubClient{}
			bot, logs := newTestBot(client)

			result, err := bot.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrValidation)
			assert.NotErrorIs(t, err, ErrRemoteCall)
			assert.Empty(t, client.calls)
			assert.Contains(t, logs.String(), "Order failed")
		})
	}
}

func TestBot_PlaceOrder_RemoteError(t *testing.T) {
	venueErr := errors.New("<APIError> code=-2019, msg=Margin is insufficient.")
	client := &stubClient{orderErr: venueErr}
	bot, logs := newTestBot(client)

	_, err := bot.PlaceOrder(context.Background(), models.OrderRequest{
		Symbol: "BTCUSDT", Side: models.SideBuy, Type: models.OrderTypeMarket,
		Quantity: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRemoteCall)
	assert.ErrorIs(t, err, venueErr)
	assert.Len(t, client.calls, 1)
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestBot_GetAccountInfo(t *testing.T) {
	t.Run("success returns snapshot unchanged", func(t *testing.T) {
		snap := models.AccountSnapshot{"totalWalletBalance": "100.00", "availableBalance": "80.00"}
		client := &stubClient{account: snap}
		bot, _ := newTestBot(client)

		assert.Equal(t, snap, bot.GetAccountInfo(context.Background()))
		assert.Equal(t, 1, client.accounts)
	})

	t.Run("failure returns nil", func(t *testing.T) {
		client := &stubClient{accountErr: errors.New("timeout")}
		bot, logs := newTestBot(client)

		assert.NotPanics(t, func() {
			assert.Nil(t, bot.GetAccountInfo(context.Background()))
		})
		assert.Contains(t, logs.String(), "Account info failed")
	})
}
