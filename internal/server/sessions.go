package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/sessions"
)

type SessionsHandler struct {
	Sessions *sessions.Service
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.POST("/:id/share", h.share)
	g.DELETE("/:id/share", h.unshare)
	g.POST("/:id/reorder", h.reorder)
	g.PUT("/:id/offers/:offerId/notes", h.setNote)
}

func (h *SessionsHandler) create(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.Sessions.Create(c.Request().Context(), req.WishlistTitle, req.Wishlist, req.SharedWith)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, SessionIDResponse{SessionID: sess.SessionID})
}

func (h *SessionsHandler) get(c echo.Context) error {
	sess, err := h.Sessions.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) update(c echo.Context) error {
	var patch sessions.Patch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.Sessions.Update(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) share(c echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.Sessions.Share(c.Request().Context(), c.Param("id"), req.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) unshare(c echo.Context) error {
	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" {
		req.Email = c.QueryParam("email")
	}
	sess, err := h.Sessions.Unshare(c.Request().Context(), c.Param("id"), req.Email)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) reorder(c echo.Context) error {
	var req ReorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.From == nil || req.To == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "from and to are required")
	}
	sess, err := h.Sessions.Reorder(c.Request().Context(), c.Param("id"), *req.From, *req.To)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *SessionsHandler) setNote(c echo.Context) error {
	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.Sessions.SetNote(c.Request().Context(), c.Param("id"), c.Param("offerId"), req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sess)
}
