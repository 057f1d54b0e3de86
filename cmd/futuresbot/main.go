package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/songzhibin97/futuresbot/internal/configs"
	"github.com/songzhibin97/futuresbot/internal/handlers"
	"github.com/songzhibin97/futuresbot/internal/logging"
	"github.com/songzhibin97/futuresbot/internal/session"
	"github.com/songzhibin97/futuresbot/internal/trading/binance"
	"github.com/songzhibin97/futuresbot/internal/utils/request"
)

var (
	flagconf string

	// 启动阶段日志，日志文件打开前使用
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 加载配置
	config, err := configs.Load(flagconf)
	if err != nil {
		log.Error("Error loading config", "err", err)
		os.Exit(1)
	}

	level, _ := config.LogLevel()
	logger, err := logging.New(config.Log.File, level, os.Stdout)
	if err != nil {
		log.Error("Error opening log file", "err", err)
		os.Exit(1)
	}
	defer logger.Close()

	log = logger.Logger
	log.Debug("Loaded config", "config", config)

	timeout, _ := config.Timeout()
	httpClient, err := request.New(config.ExchangeConfig.Proxy, timeout)
	if err != nil {
		log.Error("Error creating http client", "err", err)
		return
	}

	dialer := &binance.Dialer{
		HTTPClient: httpClient.GetClient(),
		BaseURL:    config.ExchangeConfig.BaseURL,
	}

	ttl, _ := config.SessionTTL()
	h, err := handlers.New(handlers.Options{
		Sessions:     session.NewStore(ttl),
		Dialer:       dialer,
		Logger:       log,
		LogPath:      logger.Path(),
		TailLines:    config.Log.TailLines,
		AllowMainnet: config.ExchangeConfig.AllowMainnet,
	})
	if err != nil {
		log.Error("Error creating handlers", "err", err)
		return
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(handlers.RequestLogger(log))
	h.Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server started", "listen", config.Server.Listen, "allow_mainnet", config.ExchangeConfig.AllowMainnet)
		if err := e.Start(config.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
	}
	log.Info("Shutting down")
}
