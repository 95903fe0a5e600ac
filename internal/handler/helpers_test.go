package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/carbon-tracker/internal/middleware"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/repository/sqlite"
	"github.com/sakif/carbon-tracker/internal/service"
)

var testNow = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time { return testNow }

// newTestHandle opens an in-memory database and checks out its only
// connection. Tests must not use the pool while the handle is open.
func newTestHandle(t *testing.T) repository.Handle {
	t.Helper()

	db, err := sqlite.New(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h, err := db.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func beginSession(t *testing.T, st repository.Store, username string) *service.SessionContext {
	t.Helper()
	sess, err := service.NewSessions(testLogger()).Begin(context.Background(), st, username)
	require.NoError(t, err)
	return sess
}

// request builds a request carrying the given store, session and chi URL
// params. A nil store or session is left out of the context.
func request(method, target, body string, st repository.Handle, sess *service.SessionContext, params map[string]string) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}

	ctx := r.Context()
	if st != nil {
		ctx = middleware.WithStore(ctx, st)
	}
	if sess != nil {
		ctx = middleware.WithSession(ctx, sess)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v))
	return v
}
