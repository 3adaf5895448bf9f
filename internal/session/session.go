// Package session keeps server-side login sessions behind a signed cookie.
package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/re-earth/re-earth-api/internal/kvstore"
)

const CookieName = "reearth.sid"

type Manager struct {
	store  kvstore.Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

func NewManager(store kvstore.Store, secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(int(ttl.Seconds()))
	return &Manager{store: store, codec: codec, ttl: ttl, secure: secure}
}

func key(sid string) string {
	return "sess:" + sid
}

// Start creates a session for userID and writes the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID uint64) error {
	sid := uuid.NewString()
	if err := m.store.Set(ctx, key(sid), strconv.FormatUint(userID, 10), m.ttl); err != nil {
		return err
	}
	encoded, err := m.codec.Encode(CookieName, sid)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(encoded, int(m.ttl.Seconds())))
	return nil
}

// Load returns the user id bound to the request's session cookie, if any.
// A hit slides the expiry forward.
func (m *Manager) Load(ctx context.Context, r *http.Request) (uint64, bool) {
	sid, ok := m.sid(r)
	if !ok {
		return 0, false
	}
	raw, err := m.store.Get(ctx, key(sid))
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	_ = m.store.Expire(ctx, key(sid), m.ttl)
	return id, true
}

// Destroy removes the server-side session and clears the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, m.cookie("", -1))
	sid, ok := m.sid(r)
	if !ok {
		return nil
	}
	if err := m.store.Delete(ctx, key(sid)); err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return err
	}
	return nil
}

func (m *Manager) sid(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	var sid string
	if err := m.codec.Decode(CookieName, c.Value, &sid); err != nil {
		return "", false
	}
	return sid, true
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
