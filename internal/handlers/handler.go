package handlers

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/songzhibin97/futuresbot/internal/logging"
	"github.com/songzhibin97/futuresbot/internal/session"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

const (
	sessionCookie = "futuresbot_session"
	sessionKey    = "session"
)

//go:embed templates/*.html
var templateFS embed.FS

type Options struct {
	Sessions     *session.Store
	Dialer       trading.Dialer
	Logger       *slog.Logger
	LogPath      string
	TailLines    int
	AllowMainnet bool
}

// Handler serves the trading page and the JSON API. Every route runs inside a
// session resolved from the session cookie.
type Handler struct {
	sessions     *session.Store
	dialer       trading.Dialer
	log          *slog.Logger
	logPath      string
	tailLines    int
	allowMainnet bool
	renderer     *templateRenderer
}

func New(opts Options) (*Handler, error) {
	if opts.Sessions == nil || opts.Dialer == nil {
		return nil, errors.New("handlers: sessions and dialer are required")
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	tailLines := opts.TailLines
	if tailLines <= 0 {
		tailLines = logging.DefaultTailLines
	}

	return &Handler{
		sessions:     opts.Sessions,
		dialer:       opts.Dialer,
		log:          log,
		logPath:      opts.LogPath,
		tailLines:    tailLines,
		allowMainnet: opts.AllowMainnet,
		renderer:     &templateRenderer{templates: tmpl},
	}, nil
}

// Register mounts all routes on e
func (h *Handler) Register(e *echo.Echo) {
	e.Renderer = h.renderer

	e.GET("/", h.Index, h.withSession)
	e.POST("/init", h.Initialize, h.withSession)
	e.POST("/account", h.RefreshAccount, h.withSession)
	e.POST("/orders", h.ExecuteOrder, h.withSession)
	e.POST("/logout", h.Logout, h.withSession)

	api := e.Group("/api")
	api.POST("/session", h.CreateSession, h.withSession)
	api.DELETE("/session", h.DeleteSession, h.withSession)
	api.GET("/account", h.GetAccount, h.withSession)
	api.POST("/orders", h.PlaceOrder, h.withSession)
	api.GET("/logs", h.GetLogs, h.withSession)
}

// RequestLogger logs one debug record per request
func RequestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "err", v.Error)
			return nil
		},
	})
}

func (h *Handler) withSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if cookie, err := c.Cookie(sessionCookie); err == nil {
			if sess, ok := h.sessions.Get(cookie.Value); ok {
				c.Set(sessionKey, sess)
				return next(c)
			}
		}

		sess, err := h.sessions.Start()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		c.SetCookie(&http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		c.Set(sessionKey, sess)
		return next(c)
	}
}

func (h *Handler) endSession(c echo.Context) {
	h.sessions.End(currentSession(c).ID)
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func currentSession(c echo.Context) *session.Session {
	return c.Get(sessionKey).(*session.Session)
}

// readLogs returns the tail of the log file and whether the file exists.
func (h *Handler) readLogs() ([]string, bool) {
	lines, err := logging.Tail(h.logPath, h.tailLines)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false
	}
	if err != nil {
		h.log.Warn("failed to read log file", "path", h.logPath, "err", err)
		return nil, false
	}
	return lines, true
}

type templateRenderer struct {
	templates *template.Template
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}
