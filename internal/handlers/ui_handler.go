package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

type banner struct {
	Kind string // success, error, warning, info
	Text string
}

type accountView struct {
	TotalWalletBalance string
	AvailableBalance   string
}

type orderFormView struct {
	Symbol    string
	OrderType string
	Side      string
	Quantity  string
	Price     string
}

type pageData struct {
	Initialized        bool
	Testnet            bool
	AllowMainnet       bool
	Banners            []banner
	Account            *accountView
	AccountUnavailable bool
	Order              orderFormView
	OrderResult        string
	Logs               string
	LogsAvailable      bool
}

func (p *pageData) add(kind, text string) {
	p.Banners = append(p.Banners, banner{Kind: kind, Text: text})
}

func defaultOrderForm() orderFormView {
	return orderFormView{
		Symbol:    "BTCUSDT",
		OrderType: string(models.OrderTypeMarket),
		Side:      string(models.SideBuy),
		Quantity:  "0.001",
		Price:     "20000.0",
	}
}

// render fills in the session and log state and writes the page.
func (h *Handler) render(c echo.Context, status int, data *pageData) error {
	creds, bot := currentSession(c).State()
	data.Initialized = bot != nil
	data.Testnet = bot == nil || creds.Testnet
	data.AllowMainnet = h.allowMainnet
	if data.Order == (orderFormView{}) {
		data.Order = defaultOrderForm()
	}

	if data.Initialized {
		lines, ok := h.readLogs()
		data.LogsAvailable = ok
		data.Logs = strings.Join(lines, "\n")
	}

	return c.Render(status, "index.html", data)
}

// Index GET /
func (h *Handler) Index(c echo.Context) error {
	return h.render(c, http.StatusOK, &pageData{})
}

// Initialize POST /init 凭证表单
func (h *Handler) Initialize(c echo.Context) error {
	data := &pageData{}

	var creds models.Credentials
	if err := c.Bind(&creds); err != nil {
		data.add("error", "❌ Initialization failed: "+err.Error())
		return h.render(c, http.StatusBadRequest, data)
	}
	if !h.allowMainnet {
		creds.Testnet = true
	}

	if err := creds.Validate(); err != nil {
		data.add("warning", "Please enter both API key and secret")
		return h.render(c, http.StatusBadRequest, data)
	}

	bot, err := trading.Initialize(c.Request().Context(), h.dialer, creds, h.log)
	if err != nil {
		data.add("error", "❌ Initialization failed: "+err.Error())
		return h.render(c, http.StatusBadGateway, data)
	}

	currentSession(c).Attach(creds, bot)
	data.add("success", "✅ Bot initialized successfully!")
	return h.render(c, http.StatusOK, data)
}

// RefreshAccount POST /account
func (h *Handler) RefreshAccount(c echo.Context) error {
	data := &pageData{}
	bot := currentSession(c).Bot()
	if bot == nil {
		data.add("warning", "Please configure your API keys first")
		return h.render(c, http.StatusUnauthorized, data)
	}

	snap := bot.GetAccountInfo(c.Request().Context())
	if view, ok := h.accountView(snap); ok {
		data.Account = view
	} else {
		data.AccountUnavailable = true
	}

	return h.render(c, http.StatusOK, data)
}

func (h *Handler) accountView(snap models.AccountSnapshot) (*accountView, bool) {
	if snap == nil {
		return nil, false
	}

	total, err := snap.TotalWalletBalance()
	if err != nil {
		h.log.Warn("unexpected account snapshot", "err", err)
		return nil, false
	}
	available, err := snap.AvailableBalance()
	if err != nil {
		h.log.Warn("unexpected account snapshot", "err", err)
		return nil, false
	}

	return &accountView{
		TotalWalletBalance: total.StringFixed(2) + " USDT",
		AvailableBalance:   available.StringFixed(2) + " USDT",
	}, true
}

// ExecuteOrder POST /orders 下单
func (h *Handler) ExecuteOrder(c echo.Context) error {
	data := &pageData{}
	bot := currentSession(c).Bot()
	if bot == nil {
		data.add("warning", "Please configure your API keys first")
		return h.render(c, http.StatusUnauthorized, data)
	}

	var form orderForm
	if err := c.Bind(&form); err != nil {
		h.orderRejected("", "", "", err)
		data.add("error", "❌ Order failed: "+err.Error())
		return h.render(c, http.StatusBadRequest, data)
	}
	data.Order = orderFormView{
		Symbol:    form.Symbol,
		OrderType: form.OrderType,
		Side:      form.Side,
		Quantity:  form.Quantity,
		Price:     form.Price,
	}

	req, err := form.request()
	if err != nil {
		h.orderRejected(form.Symbol, form.Side, form.OrderType, err)
		data.add("error", "❌ Order failed: "+err.Error())
		return h.render(c, http.StatusBadRequest, data)
	}

	result, err := bot.PlaceOrder(c.Request().Context(), req)
	if err != nil {
		data.add("error", "❌ Order failed: "+err.Error())
		return h.render(c, statusFor(err), data)
	}

	pretty, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		pretty = []byte(result.String())
	}
	data.add("success", "✅ Order placed successfully!")
	data.OrderResult = string(pretty)
	return h.render(c, http.StatusOK, data)
}

// Logout POST /logout
func (h *Handler) Logout(c echo.Context) error {
	h.endSession(c)
	return c.Redirect(http.StatusSeeOther, "/")
}
