package handlers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

var (
	minQuantity = decimal.RequireFromString("0.001")
	minPrice    = decimal.RequireFromString("0.0001")
)

// orderForm is the order panel as posted by the browser
type orderForm struct {
	Symbol    string `form:"symbol"`
	OrderType string `form:"order_type"`
	Side      string `form:"side"`
	Quantity  string `form:"quantity"`
	Price     string `form:"price"`
}

func (f orderForm) request() (models.OrderRequest, error) {
	quantity, err := decimal.NewFromString(strings.TrimSpace(f.Quantity))
	if err != nil {
		return models.OrderRequest{}, fmt.Errorf("%w: invalid quantity %q", trading.ErrValidation, f.Quantity)
	}

	var price decimal.NullDecimal
	if p := strings.TrimSpace(f.Price); p != "" {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return models.OrderRequest{}, fmt.Errorf("%w: invalid price %q", trading.ErrValidation, f.Price)
		}
		price = decimal.NewNullDecimal(d)
	}

	return newOrderRequest(f.Symbol, f.Side, f.OrderType, quantity, price)
}

// apiOrder is the JSON body of POST /api/orders
type apiOrder struct {
	Symbol   string              `json:"symbol"`
	Side     string              `json:"side"`
	Type     string              `json:"type"`
	Quantity decimal.Decimal     `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"`
}

func (o apiOrder) request() (models.OrderRequest, error) {
	return newOrderRequest(o.Symbol, o.Side, o.Type, o.Quantity, o.Price)
}

// orderRejected logs an order turned away before it reached the bot, in the
// same shape as the bot's own "Order failed" records.
func (h *Handler) orderRejected(symbol, side, orderType string, err error) {
	h.log.Error("Order failed", "symbol", symbol, "side", side, "type", orderType, "err", err)
}

// newOrderRequest applies the order panel's input rules: the symbol is
// upper-cased, and price is only read for limit orders. A zero or missing price
// on a limit order is passed on as absent so the bot rejects it.
func newOrderRequest(symbol, side, orderType string, quantity decimal.Decimal, price decimal.NullDecimal) (models.OrderRequest, error) {
	t, err := models.ParseOrderType(orderType)
	if err != nil {
		return models.OrderRequest{}, fmt.Errorf("%w: %w", trading.ErrValidation, err)
	}

	s, err := models.ParseSide(side)
	if err != nil {
		return models.OrderRequest{}, fmt.Errorf("%w: %w", trading.ErrValidation, err)
	}

	if quantity.LessThan(minQuantity) {
		return models.OrderRequest{}, fmt.Errorf("%w: quantity must be at least %s", trading.ErrValidation, minQuantity)
	}

	req := models.OrderRequest{
		Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
		Side:     s,
		Type:     t,
		Quantity: quantity,
	}

	if t == models.OrderTypeLimit && price.Valid && !price.Decimal.IsZero() {
		if price.Decimal.LessThan(minPrice) {
			return models.OrderRequest{}, fmt.Errorf("%w: price must be at least %s", trading.ErrValidation, minPrice)
		}
		req.Price = price
	}

	return req, nil
}
