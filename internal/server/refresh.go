package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/ratelimit"
	"github.com/mohammad-safakhou/flytogether/internal/reconcile"
)

// SessionRefresher refreshes one stored session's wishlist.
type SessionRefresher interface {
	Refresh(ctx context.Context, sessionID string) (reconcile.Report, error)
}

type RefreshHandler struct {
	Refresher SessionRefresher
	Limiter   ratelimit.Limiter
}

func (h *RefreshHandler) Register(g *echo.Group) {
	g.POST("/:id/refresh", h.refresh)
}

func (h *RefreshHandler) refresh(c echo.Context) error {
	if err := enforceLimit(c, h.Limiter, "refresh"); err != nil {
		return err
	}
	rep, err := h.Refresher.Refresh(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rep)
}
