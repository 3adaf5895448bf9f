package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestParseKakao(t *testing.T) {
	p := parseKakao([]byte(`{"id":123456789,"properties":{"nickname":"지구지킴이"},"kakao_account":{"email":"eco@kakao.com"}}`))
	assert.Equal(t, "123456789", p.Subject)
	assert.Equal(t, "eco@kakao.com", p.Email)
	assert.Equal(t, "지구지킴이", p.Name)
}

func TestFetchKakao(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":42,"kakao_account":{"email":"a@b.c","profile":{"nickname":"nick"}}}`))
	}))
	defer srv.Close()

	p, err := fetchKakao(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, service.SocialProfile{Subject: "42", Email: "a@b.c", Name: "nick"}, p)
}

func TestAuthURLAndExchange(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	store := kvstore.NewMemory()
	defer store.Close()
	m := NewManager(store)
	m.Register(model.ProviderKakao, Settings{ClientID: "cid", CallbackURL: "http://localhost/cb"},
		oauth2.Endpoint{AuthURL: tokenSrv.URL + "/authorize", TokenURL: tokenSrv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		func(_ context.Context, _ *oauth2.Config, tok *oauth2.Token) (service.SocialProfile, error) {
			assert.Equal(t, "at", tok.AccessToken)
			return service.SocialProfile{Subject: "1", Email: "k@k.com", Name: "k"}, nil
		})

	ctx := context.Background()
	raw, err := m.AuthURL(ctx, model.ProviderKakao)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)

	_, err = m.Exchange(ctx, model.ProviderKakao, "forged", "code")
	assert.ErrorIs(t, err, ErrBadState)

	p, err := m.Exchange(ctx, model.ProviderKakao, state, "code")
	require.NoError(t, err)
	assert.Equal(t, model.ProviderKakao, p.Provider)
	assert.Equal(t, "k@k.com", p.Email)

	// state is single use
	_, err = m.Exchange(ctx, model.ProviderKakao, state, "code")
	assert.ErrorIs(t, err, ErrBadState)
}

func TestUnconfiguredProvider(t *testing.T) {
	store := kvstore.NewMemory()
	defer store.Close()
	m := NewManager(store)
	m.RegisterGoogle(Settings{})

	_, err := m.AuthURL(context.Background(), model.ProviderGoogle)
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = m.AuthURL(context.Background(), model.Provider("NAVER"))
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
