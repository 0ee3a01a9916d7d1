package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	tokenKey    = "access_token"
	tokenMargin = 30 * time.Second
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// tokenSource fetches client-credentials tokens and caches them until
// shortly before they expire.
type tokenSource struct {
	http     *httpClient
	endpoint string
	key      string
	secret   string

	mu    sync.Mutex
	cache *cache.Cache
}

func newTokenSource(hc *httpClient, endpoint, key, secret string) *tokenSource {
	return &tokenSource{
		http:     hc,
		endpoint: endpoint,
		key:      key,
		secret:   secret,
		cache:    cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	if tok, ok := t.cache.Get(tokenKey); ok {
		return tok.(string), nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	// another caller may have refreshed while we waited
	if tok, ok := t.cache.Get(tokenKey); ok {
		return tok.(string), nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", t.key)
	form.Set("client_secret", t.secret)
	var resp tokenResponse
	headers := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	if err := t.http.doJSON(ctx, "token", http.MethodPost, t.endpoint, headers, []byte(form.Encode()), &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New("amadeus: token response without access_token")
	}
	ttl := time.Duration(resp.ExpiresIn)*time.Second - tokenMargin
	if ttl > 0 {
		t.cache.Set(tokenKey, resp.AccessToken, ttl)
	}
	return resp.AccessToken, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (t *tokenSource) Invalidate() {
	t.cache.Delete(tokenKey)
}
