package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	store := kvstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	return NewManager(store, "cookie-secret-for-tests", time.Hour, false)
}

func TestStartLoadDestroy(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Start(ctx, rec, 42))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	id, ok := m.Load(ctx, req)
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	require.NoError(t, m.Destroy(ctx, httptest.NewRecorder(), req))
	_, ok = m.Load(ctx, req)
	assert.False(t, ok)
}

func TestLoad_TamperedCookie(t *testing.T) {
	m := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "forged"})

	_, ok := m.Load(context.Background(), req)
	assert.False(t, ok)
}

func TestLoad_NoCookie(t *testing.T) {
	m := newManager(t)
	_, ok := m.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
}
