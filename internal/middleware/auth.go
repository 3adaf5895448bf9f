package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/reqctx"
	"github.com/re-earth/re-earth-api/internal/session"
	"github.com/re-earth/re-earth-api/internal/token"
)

const (
	keySessionUser = "sessionUser"
	keyTokenUser   = "tokenUser"
	keyTokenErr    = "tokenErr"

	// StatusTokenExpired is the non-standard status the web client expects for an expired token.
	StatusTokenExpired = 419
)

// Identity is the caller as seen by handlers, whichever way they authenticated.
type Identity struct {
	ID       uint64
	LoginID  string
	Name     string
	Email    string
	Role     model.Role
	Provider model.Provider
}

func (i *Identity) IsAdmin() bool {
	return i != nil && strings.EqualFold(string(i.Role), string(model.RoleAdmin))
}

// UserLoader resolves the user behind a session.
type UserLoader interface {
	FindByID(ctx context.Context, id uint64) (*model.User, error)
}

type Auth struct {
	tokens   *token.Service
	sessions *session.Manager
	users    UserLoader
}

func NewAuth(tokens *token.Service, sessions *session.Manager, users UserLoader) *Auth {
	return &Auth{tokens: tokens, sessions: sessions, users: users}
}

func FromUser(u *model.User) *Identity {
	return &Identity{ID: u.ID, LoginID: u.LoginID, Name: u.Name, Email: u.Email, Role: u.Role, Provider: u.Provider}
}

func fromClaims(c *token.Claims) *Identity {
	return &Identity{
		ID:       c.ID,
		LoginID:  c.UserID,
		Name:     c.Name,
		Email:    c.Email,
		Role:     model.Role(strings.ToUpper(c.Role)),
		Provider: model.Provider(c.Provider),
	}
}

// bearer extracts the raw token from the Authorization header. A bare value
// longer than 20 characters is accepted as a token too.
func bearer(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get(echo.HeaderAuthorization))
	if h == "" {
		return ""
	}
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if len(h) > 20 && !strings.Contains(h, " ") {
		return h
	}
	return ""
}

// Hydrate attaches whatever identities the request carries. It never rejects.
func (a *Auth) Hydrate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := req.Context()

		if raw := bearer(req); raw != "" {
			claims, err := a.tokens.Validate(raw)
			if err != nil {
				c.Set(keyTokenErr, err)
			} else {
				c.Set(keyTokenUser, fromClaims(claims))
			}
		}
		if a.sessions != nil {
			if id, ok := a.sessions.Load(ctx, req); ok {
				if u, err := a.users.FindByID(ctx, id); err == nil {
					c.Set(keySessionUser, FromUser(u))
				}
			}
		}
		if me := CurrentUser(c); me != nil {
			c.SetRequest(req.WithContext(reqctx.WithUserID(ctx, me.ID)))
		}
		return next(c)
	}
}

// CurrentUser returns the session identity, falling back to the token identity.
func CurrentUser(c echo.Context) *Identity {
	if u, ok := c.Get(keySessionUser).(*Identity); ok && u != nil {
		return u
	}
	if u, ok := c.Get(keyTokenUser).(*Identity); ok && u != nil {
		return u
	}
	return nil
}

// SessionUser returns only the session identity.
func SessionUser(c echo.Context) *Identity {
	u, _ := c.Get(keySessionUser).(*Identity)
	return u
}

func deny(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"message": msg,
		"error":   code,
	})
}

func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return deny(c, http.StatusUnauthorized, "unauthorized", "로그인이 필요합니다.")
		}
		return next(c)
	}
}

func RequireGuest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) != nil {
			return deny(c, http.StatusBadRequest, "already_logged_in", "이미 로그인된 상태입니다.")
		}
		return next(c)
	}
}

func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		me := CurrentUser(c)
		if me == nil {
			return deny(c, http.StatusUnauthorized, "unauthorized", "로그인이 필요합니다.")
		}
		if !me.IsAdmin() {
			return deny(c, http.StatusForbidden, "forbidden", "관리자 권한이 필요합니다.")
		}
		return next(c)
	}
}

// VerifyToken requires a valid bearer token regardless of any session.
func VerifyToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err, ok := c.Get(keyTokenErr).(error); ok {
			if errors.Is(err, token.ErrExpired) {
				return deny(c, StatusTokenExpired, "token_expired", "토큰이 만료되었습니다.")
			}
			return deny(c, http.StatusUnauthorized, "invalid_token", "유효하지 않은 토큰입니다.")
		}
		if u, ok := c.Get(keyTokenUser).(*Identity); !ok || u == nil {
			return deny(c, http.StatusUnauthorized, "token_required", "토큰이 필요합니다.")
		}
		return next(c)
	}
}
