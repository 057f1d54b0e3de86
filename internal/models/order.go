package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Side 订单方向
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// TimeInForce 订单有效方式
type TimeInForce string

// TimeInForceGTC keeps a limit order open until it fills or is cancelled.
const TimeInForceGTC TimeInForce = "GTC"

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case SideBuy, SideSell:
		return side, nil
	default:
		return "", fmt.Errorf("invalid side: %q", s)
	}
}

// ParseOrderType accepts "market"/"limit" in any case.
func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(strings.ToUpper(strings.TrimSpace(s))); t {
	case OrderTypeMarket, OrderTypeLimit:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported order type: %q", s)
	}
}

// OrderRequest 下单请求
type OrderRequest struct {
	Symbol   string              `json:"symbol"`
	Side     Side                `json:"side"`
	Type     OrderType           `json:"type"`
	Quantity decimal.Decimal     `json:"quantity"`
	Price    decimal.NullDecimal `json:"price"` // 仅限价单
}

// HasPrice reports whether a usable (present, non-zero) price was supplied.
func (r OrderRequest) HasPrice() bool {
	return r.Price.Valid && !r.Price.Decimal.IsZero()
}

// OrderResult is the venue's order response, kept as decoded JSON.
type OrderResult map[string]any

func (r OrderResult) String() string {
	b, err := json.Marshal(map[string]any(r))
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(r))
	}
	return string(b)
}

// AccountSnapshot is the venue's account response, kept as decoded JSON.
type AccountSnapshot map[string]any

func (a AccountSnapshot) String() string {
	b, err := json.Marshal(map[string]any(a))
	if err != nil {
		return fmt.Sprintf("%v", map[string]any(a))
	}
	return string(b)
}

// TotalWalletBalance 钱包总余额
func (a AccountSnapshot) TotalWalletBalance() (decimal.Decimal, error) {
	return a.Decimal("totalWalletBalance")
}

// AvailableBalance 可用余额
func (a AccountSnapshot) AvailableBalance() (decimal.Decimal, error) {
	return a.Decimal("availableBalance")
}

// Decimal reads a numeric field that the venue may encode as a string or a number.
func (a AccountSnapshot) Decimal(key string) (decimal.Decimal, error) {
	v, ok := a[key]
	if !ok {
		return decimal.Zero, fmt.Errorf("field %s not found", key)
	}

	switch n := v.(type) {
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to parse %s: %w", key, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case json.Number:
		return decimal.NewFromString(n.String())
	default:
		return decimal.Zero, fmt.Errorf("field %s has unexpected type %T", key, v)
	}
}
