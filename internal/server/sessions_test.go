package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/sessions"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/mohammad-safakhou/flytogether/models"
)

func jsonContext(e *echo.Echo, method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	ctx.SetParamNames(names...)
	ctx.SetParamValues(values...)
	return ctx, rec
}

func newSessionsHandler() *SessionsHandler {
	return &SessionsHandler{Sessions: sessions.NewService(store.NewMemoryStore(), nil)}
}

func createSession(t *testing.T, e *echo.Echo, h *SessionsHandler) string {
	t.Helper()
	offers := []models.FlightOffer{oneWay("a", "300.00", 0), oneWay("b", "150.00", 1)}
	body, _ := json.Marshal(CreateSessionRequest{WishlistTitle: "Summer", Wishlist: offers})
	ctx, rec := jsonContext(e, http.MethodPost, "/api/sessions", string(body))
	if err := h.create(ctx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	var resp SessionIDResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.SessionID == "" {
		t.Fatalf("decode create response: %v %s", err, rec.Body.String())
	}
	return resp.SessionID
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) models.Session {
	t.Helper()
	var s models.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func TestCreateSessionRequiresWishlist(t *testing.T) {
	e := echo.New()
	h := newSessionsHandler()
	ctx, _ := jsonContext(e, http.MethodPost, "/api/sessions", `{"wishlistTitle":"Empty","wishlist":[]}`)
	he := requireHTTPError(t, h.create(ctx), http.StatusBadRequest)
	if he.Message != "Wishlist must have at least one flight" {
		t.Fatalf("unexpected message %v", he.Message)
	}
}

func TestGetSession(t *testing.T) {
	e := echo.New()
	h := newSessionsHandler()
	id := createSession(t, e, h)

	ctx, rec := jsonContext(e, http.MethodGet, "/api/sessions/"+id, "", "id", id)
	if err := h.get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	s := decodeSession(t, rec)
	if s.SessionID != id || s.WishlistTitle != "Summer" || len(s.Wishlist) != 2 {
		t.Fatalf("unexpected session %+v", s)
	}

	ctx, _ = jsonContext(e, http.MethodGet, "/api/sessions/missing", "", "id", "missing")
	he := requireHTTPError(t, h.get(ctx), http.StatusNotFound)
	if he.Message != "Session not found" {
		t.Fatalf("unexpected message %v", he.Message)
	}
}

func TestUpdateSession(t *testing.T) {
	e := echo.New()
	h := newSessionsHandler()
	id := createSession(t, e, h)

	ctx, rec := jsonContext(e, http.MethodPut, "/api/sessions/"+id, `{"wishlistTitle":"Winter"}`, "id", id)
	if err := h.update(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	s := decodeSession(t, rec)
	if s.WishlistTitle != "Winter" || len(s.Wishlist) != 2 {
		t.Fatalf("unexpected session %+v", s)
	}

	ctx, _ = jsonContext(e, http.MethodPut, "/api/sessions/"+id, `{}`, "id", id)
	requireHTTPError(t, h.update(ctx), http.StatusBadRequest)

	ctx, _ = jsonContext(e, http.MethodPut, "/api/sessions/nope", `{"wishlistTitle":"x"}`, "id", "nope")
	requireHTTPError(t, h.update(ctx), http.StatusNotFound)
}

func TestShareUnshareReorderAndNotes(t *testing.T) {
	e := echo.New()
	h := newSessionsHandler()
	id := createSession(t, e, h)

	ctx, rec := jsonContext(e, http.MethodPost, "/share", `{"email":"Friend@Example.com"}`, "id", id)
	if err := h.share(ctx); err != nil {
		t.Fatalf("share: %v", err)
	}
	if s := decodeSession(t, rec); len(s.SharedWith) != 1 || s.SharedWith[0] != "friend@example.com" {
		t.Fatalf("unexpected sharedWith %v", s.SharedWith)
	}

	ctx, _ = jsonContext(e, http.MethodPost, "/share", `{"email":"nope"}`, "id", id)
	requireHTTPError(t, h.share(ctx), http.StatusBadRequest)

	ctx, rec = jsonContext(e, http.MethodDelete, "/share", `{"email":"friend@example.com"}`, "id", id)
	if err := h.unshare(ctx); err != nil {
		t.Fatalf("unshare: %v", err)
	}
	if s := decodeSession(t, rec); len(s.SharedWith) != 0 {
		t.Fatalf("expected no collaborators, got %v", s.SharedWith)
	}

	ctx, rec = jsonContext(e, http.MethodPost, "/reorder", `{"from":1,"to":0}`, "id", id)
	if err := h.reorder(ctx); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	s := decodeSession(t, rec)
	if s.Wishlist[0].ID != "b" || s.Wishlist[1].ID != "a" {
		t.Fatalf("unexpected order %s,%s", s.Wishlist[0].ID, s.Wishlist[1].ID)
	}

	ctx, _ = jsonContext(e, http.MethodPost, "/reorder", `{"from":1}`, "id", id)
	requireHTTPError(t, h.reorder(ctx), http.StatusBadRequest)

	ctx, rec = jsonContext(e, http.MethodPut, "/notes", `{"notes":"book before friday"}`, "id", id, "offerId", "a")
	if err := h.setNote(ctx); err != nil {
		t.Fatalf("setNote: %v", err)
	}
	s = decodeSession(t, rec)
	if s.Wishlist[1].Notes != "book before friday" {
		t.Fatalf("note not applied: %+v", s.Wishlist[1])
	}
}
