package configs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP 服务配置
	Server Server `json:"server" yaml:"server"`

	// 日志配置
	Log Log `json:"log" yaml:"log"`

	// 交易所配置
	ExchangeConfig ExchangeConfig `json:"exchange_config" yaml:"exchange_config"`
}

type Server struct {
	Listen     string `json:"listen" yaml:"listen"`           // 监听地址
	SessionTTL string `json:"session_ttl" yaml:"session_ttl"` // 会话空闲过期时间
}

type Log struct {
	File      string `json:"file" yaml:"file"`             // 日志文件
	Level     string `json:"level" yaml:"level"`           // debug/info/warn/error
	TailLines int    `json:"tail_lines" yaml:"tail_lines"` // 日志面板显示行数
}

type ExchangeConfig struct {
	AllowMainnet bool   `json:"allow_mainnet" yaml:"allow_mainnet"` // 是否允许实盘
	BaseURL      string `json:"base_url" yaml:"base_url"`           // 覆盖交易所地址
	Proxy        string `json:"proxy" yaml:"proxy"`                 // HTTP 代理
	Timeout      string `json:"timeout" yaml:"timeout"`             // 请求超时
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Listen:     ":8501",
			SessionTTL: "30m",
		},
		Log: Log{
			File:      "trading_bot.log",
			Level:     "info",
			TailLines: 20,
		},
		ExchangeConfig: ExchangeConfig{
			Timeout: "10s",
		},
	}
}

// Load reads a JSON or YAML file (by extension) over the defaults.
// An empty path returns Default().
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	default:
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if c.Log.File == "" {
		return fmt.Errorf("log.file is required")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.TailLines <= 0 {
		return fmt.Errorf("log.tail_lines must be positive")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	return nil
}

// SessionTTL parses Server.SessionTTL; "0" disables expiry.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid server.session_ttl %q: %w", c.Server.SessionTTL, err)
	}
	return d, nil
}

// Timeout parses ExchangeConfig.Timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.ExchangeConfig.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid exchange_config.timeout %q: %w", c.ExchangeConfig.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("exchange_config.timeout must be positive")
	}
	return d, nil
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
