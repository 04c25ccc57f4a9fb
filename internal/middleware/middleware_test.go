package middleware

import (
	stdcontext "context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rahul4469/crisis-analyzer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const cookieName = "crisis_handoff"

func newHandoffRequest(t *testing.T, token string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	return req
}

func TestSetHandoff_TakesOnce(t *testing.T) {
	store := models.NewMemoryHandoffStore(time.Minute)
	h, err := store.Put(stdcontext.Background(), "smoke near the library", "Santa Clara University")
	require.NoError(t, err)

	m := NewHandoffMiddleware(store, cookieName, false, nil)
	var got *models.Handoff
	handler := m.SetHandoff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentHandoff(r)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newHandoffRequest(t, h.Token))
	require.NotNil(t, got)
	assert.Equal(t, "smoke near the library", got.Query)
	assert.Equal(t, "Santa Clara University", got.Location)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)

	// replaying the same cookie finds nothing
	got = nil
	handler.ServeHTTP(httptest.NewRecorder(), newHandoffRequest(t, h.Token))
	assert.Nil(t, got)
}

func TestRequireHandoff_RedirectsWithoutHandoff(t *testing.T) {
	m := NewHandoffMiddleware(models.NewMemoryHandoffStore(time.Minute), cookieName, false, nil)
	called := false
	handler := m.SetHandoff(m.RequireHandoff(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	for _, token := range []string{"", "unknown-token"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, newHandoffRequest(t, token))
		assert.Equal(t, http.StatusSeeOther, rec.Code, token)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	}
	assert.False(t, called)
}

func TestMustCurrentHandoff_Panics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
	assert.Panics(t, func() { MustCurrentHandoff(req) })
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/runs/x", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/runs/x", fields["path"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}
