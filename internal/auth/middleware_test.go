package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func protected(t *testing.T, ts *TokenService) http.Handler {
	t.Helper()
	return RequireAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		w.Write([]byte(id))
	}))
}

func TestRequireAuth_Cookie(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-1")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()

	protected(t, ts).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRequireAuth_Bearer(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-2")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t, ts).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-2", rec.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate("user-3")

	tests := map[string]func(*http.Request){
		"no credentials": func(*http.Request) {},
		"basic scheme":   func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) },
		"bad cookie":     func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "nope"}) },
	}

	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			setup(req)
			rec := httptest.NewRecorder()

			protected(t, ts).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "unauthorized")
		})
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.GenerateWithDuration("user-4", -time.Minute)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t, ts).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "session expired")
}
