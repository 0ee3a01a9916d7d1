package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mohammad-safakhou/flytogether/internal/ratelimit"
	"github.com/mohammad-safakhou/flytogether/internal/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Searcher    OfferSearcher
	Sessions    *sessions.Service
	Refresher   SessionRefresher
	Limiter     ratelimit.Limiter
	JWTSecret   []byte
	CORSOrigins []string
	MetricsPath string
	Logger      *log.Logger
}

// New builds the echo instance with every route mounted.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := d.Logger
	if baseLogger == nil {
		baseLogger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	registerDocs(e)
	if d.MetricsPath != "" {
		e.GET(d.MetricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api")
	api.Use(Identity(d.JWTSecret))
	(&SearchHandler{Searcher: d.Searcher, Limiter: d.Limiter}).Register(api)
	sg := api.Group("/sessions")
	(&SessionsHandler{Sessions: d.Sessions}).Register(sg)
	(&RefreshHandler{Refresher: d.Refresher, Limiter: d.Limiter}).Register(sg)
	return e
}

// Serve runs e on addr until ctx is cancelled, then drains in-flight
// requests.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
