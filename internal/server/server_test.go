package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/re-earth/re-earth-api/internal/config"
	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/storage"
	"github.com/re-earth/re-earth-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type noStations struct{}

func (noStations) Stations(context.Context, int, int) (json.RawMessage, error) {
	return json.RawMessage(`[]`), nil
}

type harness struct {
	t   *testing.T
	srv *Server
	db  *gorm.DB
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:               "test",
		JWTSecret:            "jwt-test-secret",
		JWTTTL:               time.Hour,
		CookieSecret:         "cookie-test-secret-0123456789abcdef",
		SessionTTL:           time.Hour,
		FrontendURL:          "http://localhost:3000",
		DonationPointPerUnit: 100,
		WeightTop:            1,
		WeightBottom:         1,
		WeightOuter:          3,
		WeightShoes:          2,
		WeightBag:            1,
		WeightEtc:            1,
		OTPTTLSec:            300,
		OTPRatePerMin:        60,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.OpenTestDB(t)
	uploads, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := kvstore.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	srv := New(testConfig(), Deps{
		DB:       db,
		Store:    store,
		Uploader: uploads,
		Stations: noStations{},
		Sha:      "abc123",
	})
	return &harness{t: t, srv: srv, db: db}
}

type call struct {
	method  string
	path    string
	body    interface{}
	token   string
	cookies []*http.Cookie
}

func (h *harness) do(c call) (*httptest.ResponseRecorder, map[string]interface{}) {
	h.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

// signup registers and logs in a local user, returning its token and session cookies.
func (h *harness) signup(email, loginID string) (string, []*http.Cookie) {
	h.t.Helper()
	rec, _ := h.do(call{method: http.MethodPost, path: "/auth/join", body: map[string]string{
		"email":    email,
		"name":     loginID,
		"address":  "서울시 마포구",
		"password": "abcd1234!",
		"userId":   loginID,
	}})
	require.Equal(h.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := h.do(call{method: http.MethodPost, path: "/auth/login", body: map[string]string{
		"userId":   loginID,
		"password": "abcd1234!",
	}})
	require.Equal(h.t, http.StatusOK, rec.Code, rec.Body.String())
	tok, _ := body["token"].(string)
	require.NotEmpty(h.t, tok)
	return tok, rec.Result().Cookies()
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec, body := h.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["db"])
	assert.Equal(t, "abc123", body["git_sha"])

	h.srv.SetDB(nil)
	_, body = h.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, false, body["db"])
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	tok, cookies := h.signup("flow@example.com", "flow01")
	require.NotEmpty(t, cookies)

	_, body := h.do(call{method: http.MethodGet, path: "/auth/status", cookies: cookies})
	assert.Equal(t, true, body["isAuthenticated"])

	_, body = h.do(call{method: http.MethodGet, path: "/auth/status", token: tok})
	assert.Equal(t, true, body["isAuthenticated"])

	rec, body := h.do(call{method: http.MethodPost, path: "/auth/login", cookies: cookies, body: map[string]string{
		"userId": "flow01", "password": "abcd1234!",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already_logged_in", body["error"])

	rec, body = h.do(call{method: http.MethodGet, path: "/auth/me", cookies: cookies})
	assert.Equal(t, http.StatusOK, rec.Code)
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, "flow01", user["userId"])

	rec, _ = h.do(call{method: http.MethodPost, path: "/auth/join", body: map[string]string{
		"email": "flow@example.com", "name": "n", "address": "a", "password": "abcd1234!",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = h.do(call{method: http.MethodGet, path: "/auth/logout", cookies: cookies})
	assert.Equal(t, http.StatusOK, rec.Code)
	_, body = h.do(call{method: http.MethodGet, path: "/auth/status", cookies: cookies})
	assert.Equal(t, false, body["isAuthenticated"])

	rec, _ = h.do(call{method: http.MethodGet, path: "/auth/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGuards(t *testing.T) {
	h := newHarness(t)
	tok, cookies := h.signup("guard@example.com", "guard01")

	rec, body := h.do(call{method: http.MethodGet, path: "/item", cookies: cookies})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token_required", body["error"])

	rec, body = h.do(call{method: http.MethodGet, path: "/item", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", body["error"])

	rec, _ = h.do(call{method: http.MethodGet, path: "/item", token: tok})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = h.do(call{method: http.MethodDelete, path: "/item/1", token: tok})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = h.do(call{method: http.MethodGet, path: "/api/admin/members", token: tok})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = h.do(call{method: http.MethodGet, path: "/api/admin/members"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = h.do(call{method: http.MethodGet, path: "/qna/me"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, h.db.Model(&model.User{}).Where("login_id = ?", "guard01").Update("role", model.RoleAdmin).Error)
	rec, body = h.do(call{method: http.MethodGet, path: "/api/admin/members", cookies: cookies})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, body["total"])
}

func TestPointCheckout(t *testing.T) {
	h := newHarness(t)
	tok, _ := h.signup("shop@example.com", "shop01")

	var u model.User
	require.NoError(t, h.db.Where("login_id = ?", "shop01").First(&u).Error)
	require.NoError(t, h.db.Create(model.NewPoint(u.ID, 250, model.ReasonBicycleRide, "seed")).Error)
	item := &model.Item{Name: "대나무 칫솔", Price: 100, StockNumber: 3, SellStatus: model.SellStatusSell}
	require.NoError(t, h.db.Create(item).Error)

	order := map[string]interface{}{"items": []map[string]interface{}{{"itemId": item.ID, "count": 3}}}
	rec, body := h.do(call{method: http.MethodPost, path: "/pointOrder", token: tok, body: order})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "보유 포인트가 부족합니다.", body["message"])

	order = map[string]interface{}{"items": []map[string]interface{}{{"itemId": item.ID, "count": 2}}}
	rec, body = h.do(call{method: http.MethodPost, path: "/pointOrder", token: tok, body: order})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotZero(t, body["orderId"])

	rec, body = h.do(call{method: http.MethodGet, path: "/pointOrder/list", token: tok})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	rec, body = h.do(call{method: http.MethodGet, path: "/saving/points", token: tok})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 50, body["balance"])
}
