// Package oauth runs the authorization-code flow against Google and Kakao and
// turns the result into a service.SocialProfile.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const stateTTL = 10 * time.Minute

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrNotConfigured   = errors.New("oauth provider not configured")
	ErrBadState        = errors.New("oauth state mismatch")
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const kakaoProfileURL = "https://kapi.kakao.com/v2/user/me"

// ProfileFetcher loads the user profile for an access token.
type ProfileFetcher func(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (service.SocialProfile, error)

type provider struct {
	cfg   *oauth2.Config
	fetch ProfileFetcher
}

type Settings struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
	Scopes       []string
}

type Manager struct {
	store     kvstore.Store
	providers map[model.Provider]*provider
}

func NewManager(store kvstore.Store) *Manager {
	return &Manager{store: store, providers: make(map[model.Provider]*provider)}
}

// Register adds a provider. Providers without a client id are skipped.
func (m *Manager) Register(p model.Provider, s Settings, endpoint oauth2.Endpoint, fetch ProfileFetcher) {
	if s.ClientID == "" {
		return
	}
	m.providers[p] = &provider{
		cfg: &oauth2.Config{
			ClientID:     s.ClientID,
			ClientSecret: s.ClientSecret,
			RedirectURL:  s.CallbackURL,
			Scopes:       s.Scopes,
			Endpoint:     endpoint,
		},
		fetch: fetch,
	}
}

func (m *Manager) RegisterGoogle(s Settings) {
	m.Register(model.ProviderGoogle, s, google.Endpoint, GoogleProfile)
}

func (m *Manager) RegisterKakao(s Settings) {
	m.Register(model.ProviderKakao, s, kakaoEndpoint, KakaoProfile)
}

func (m *Manager) get(p model.Provider) (*provider, error) {
	switch p {
	case model.ProviderGoogle, model.ProviderKakao:
	default:
		return nil, ErrUnknownProvider
	}
	pr, ok := m.providers[p]
	if !ok {
		return nil, ErrNotConfigured
	}
	return pr, nil
}

func stateKey(state string) string {
	return "oauth:state:" + state
}

// AuthURL stores a fresh state and returns the provider's consent URL.
func (m *Manager) AuthURL(ctx context.Context, p model.Provider) (string, error) {
	pr, err := m.get(p)
	if err != nil {
		return "", err
	}
	state := uuid.NewString()
	if err := m.store.Set(ctx, stateKey(state), string(p), stateTTL); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return pr.cfg.AuthCodeURL(state), nil
}

// Exchange consumes state, trades code for a token and fetches the profile.
func (m *Manager) Exchange(ctx context.Context, p model.Provider, state, code string) (service.SocialProfile, error) {
	pr, err := m.get(p)
	if err != nil {
		return service.SocialProfile{}, err
	}
	if state == "" {
		return service.SocialProfile{}, ErrBadState
	}
	saved, err := m.store.Get(ctx, stateKey(state))
	if err != nil || saved != string(p) {
		return service.SocialProfile{}, ErrBadState
	}
	_ = m.store.Delete(ctx, stateKey(state))

	tok, err := pr.cfg.Exchange(ctx, code)
	if err != nil {
		return service.SocialProfile{}, fmt.Errorf("%s token exchange: %w", p, err)
	}
	prof, err := pr.fetch(ctx, pr.cfg, tok)
	if err != nil {
		return service.SocialProfile{}, fmt.Errorf("%s profile: %w", p, err)
	}
	prof.Provider = p
	return prof, nil
}

func GoogleProfile(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (service.SocialProfile, error) {
	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(cfg.TokenSource(ctx, tok)))
	if err != nil {
		return service.SocialProfile{}, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return service.SocialProfile{}, err
	}
	return service.SocialProfile{Subject: info.Id, Email: info.Email, Name: info.Name}, nil
}

func KakaoProfile(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (service.SocialProfile, error) {
	return fetchKakao(ctx, cfg.Client(ctx, tok), kakaoProfileURL)
}

func fetchKakao(ctx context.Context, client *http.Client, url string) (service.SocialProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return service.SocialProfile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return service.SocialProfile{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return service.SocialProfile{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return service.SocialProfile{}, fmt.Errorf("kakao user/me: status %d", resp.StatusCode)
	}
	return parseKakao(body), nil
}

func parseKakao(body []byte) service.SocialProfile {
	res := gjson.ParseBytes(body)
	name := res.Get("kakao_account.profile.nickname").String()
	if name == "" {
		name = res.Get("properties.nickname").String()
	}
	return service.SocialProfile{
		Subject: res.Get("id").String(),
		Email:   res.Get("kakao_account.email").String(),
		Name:    name,
	}
}
