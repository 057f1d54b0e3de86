package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

type APIError struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	Testnet bool `json:"testnet"`
}

type logsResponse struct {
	Lines []string `json:"lines"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, trading.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, trading.ErrRemoteCall), errors.Is(err, trading.ErrInitialization):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CreateSession POST /api/session
func (h *Handler) CreateSession(c echo.Context) error {
	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
	}
	if !h.allowMainnet {
		creds.Testnet = true
	}

	if err := creds.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
	}

	bot, err := trading.Initialize(c.Request().Context(), h.dialer, creds, h.log)
	if err != nil {
		return c.JSON(statusFor(err), APIError{Error: err.Error()})
	}

	currentSession(c).Attach(creds, bot)
	return c.JSON(http.StatusCreated, sessionResponse{Testnet: creds.Testnet})
}

// DeleteSession DELETE /api/session
func (h *Handler) DeleteSession(c echo.Context) error {
	h.endSession(c)
	return c.NoContent(http.StatusNoContent)
}

// GetAccount GET /api/account
func (h *Handler) GetAccount(c echo.Context) error {
	bot := currentSession(c).Bot()
	if bot == nil {
		return c.JSON(http.StatusUnauthorized, APIError{Error: "session not initialized"})
	}

	snap := bot.GetAccountInfo(c.Request().Context())
	if snap == nil {
		return c.JSON(http.StatusBadGateway, APIError{Error: "account data unavailable"})
	}
	return c.JSON(http.StatusOK, snap)
}

// PlaceOrder POST /api/orders
func (h *Handler) PlaceOrder(c echo.Context) error {
	bot := currentSession(c).Bot()
	if bot == nil {
		return c.JSON(http.StatusUnauthorized, APIError{Error: "session not initialized"})
	}

	var body apiOrder
	if err := c.Bind(&body); err != nil {
		h.orderRejected("", "", "", err)
		return c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
	}

	req, err := body.request()
	if err != nil {
		h.orderRejected(body.Symbol, body.Side, body.Type, err)
		return c.JSON(http.StatusBadRequest, APIError{Error: err.Error()})
	}

	result, err := bot.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		return c.JSON(statusFor(err), APIError{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// GetLogs GET /api/logs
func (h *Handler) GetLogs(c echo.Context) error {
	lines, _ := h.readLogs()
	if lines == nil {
		lines = []string{}
	}
	return c.JSON(http.StatusOK, logsResponse{Lines: lines})
}
