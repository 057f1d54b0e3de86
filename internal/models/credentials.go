package models

import (
	"errors"
	"log/slog"
	"strings"
)

// Credentials 交易所 API 凭证，只在会话内存中保存
type Credentials struct {
	APIKey    string `json:"api_key" form:"api_key"`
	APISecret string `json:"api_secret" form:"api_secret"`
	Testnet   bool   `json:"testnet" form:"testnet"`
}

// Validate only checks that both halves of the key pair are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" || strings.TrimSpace(c.APISecret) == "" {
		return errors.New("api key and secret are required")
	}
	return nil
}

// LogValue keeps the secret out of every log sink.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("api_key", mask(c.APIKey)),
		slog.String("api_secret", "***"),
		slog.Bool("testnet", c.Testnet),
	)
}

func mask(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}
