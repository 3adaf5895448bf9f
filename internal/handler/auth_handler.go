package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/oauth"
	"github.com/re-earth/re-earth-api/internal/service"
	"github.com/re-earth/re-earth-api/internal/session"
)

type AuthHandler struct {
	svc      service.AuthService
	sessions *session.Manager
	social   *oauth.Manager
}

func NewAuthHandler(svc service.AuthService, sessions *session.Manager, social *oauth.Manager) *AuthHandler {
	return &AuthHandler{svc: svc, sessions: sessions, social: social}
}

type UserSummary struct {
	ID     uint64 `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type UserProfile struct {
	ID          uint64  `json:"id"`
	UserID      string  `json:"userId"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Provider    string  `json:"provider"`
}

type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type JoinRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Password    string `json:"password"`
	UserID      string `json:"userId"`
	ID          string `json:"id"`
	PhoneNumber string `json:"phoneNumber"`
	Phone1      string `json:"phone1"`
	Phone2      string `json:"phone2"`
	Phone3      string `json:"phone3"`
}

type LoginRequest struct {
	UserID   string `json:"userId"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type EditRequest struct {
	Address     *string `json:"address"`
	Email       *string `json:"email"`
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phoneNumber"`
	NewPassword *string `json:"newPassword"`
}

func toUserSummary(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, UserID: u.LoginID, Name: u.Name, Role: string(u.Role)}
}

func toUserProfile(u *model.User) UserProfile {
	return UserProfile{
		ID:          u.ID,
		UserID:      u.LoginID,
		Name:        u.Name,
		Address:     u.Address,
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		Role:        string(u.Role),
		Provider:    string(u.Provider),
	}
}

// Join godoc
// @Summary  Register a local account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body JoinRequest true "account"
// @Success  201 {object} map[string]interface{}
// @Failure  409 {object} ErrorResponse
// @Router   /auth/join [post]
func (h *AuthHandler) Join(c echo.Context) error {
	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	loginID := req.UserID
	if loginID == "" {
		loginID = req.ID
	}
	phone := req.PhoneNumber
	if phone == "" {
		var parts []string
		for _, p := range []string{req.Phone1, req.Phone2, req.Phone3} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		phone = strings.Join(parts, "-")
	}
	u, err := h.svc.Join(c.Request().Context(), service.JoinInput{
		Email:       req.Email,
		Name:        req.Name,
		Address:     req.Address,
		Password:    req.Password,
		LoginID:     loginID,
		PhoneNumber: phone,
	})
	if err != nil {
		return fail(c, err, "회원가입 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "사용자가 성공적으로 등록되었습니다.",
		"user":    toUserSummary(u),
	})
}

// login starts a session and issues a token for an authenticated user.
func (h *AuthHandler) login(c echo.Context, u *model.User, msg string) error {
	ctx := c.Request().Context()
	if err := h.sessions.Start(ctx, c.Response(), u.ID); err != nil {
		return fail(c, err, "로그인 중 오류 발생")
	}
	tok, err := h.svc.IssueToken(u)
	if err != nil {
		return fail(c, err, "로그인 중 오류 발생")
	}
	logging.FromContext(ctx).WithField("user_id", u.ID).Info("[auth] login")
	return c.JSON(http.StatusOK, LoginResponse{Success: true, Message: msg, Token: tok, User: toUserSummary(u)})
}

func (r LoginRequest) identifier() string {
	if r.UserID != "" {
		return r.UserID
	}
	return r.Email
}

// Login godoc
// @Summary  Log in with userId or email
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  401 {object} ErrorResponse
// @Router   /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	u, err := h.svc.Authenticate(c.Request().Context(), req.identifier(), req.Password)
	if err != nil {
		return fail(c, err, "인증 중 오류 발생")
	}
	return h.login(c, u, "로그인 성공")
}

// LoginAdmin godoc
// @Summary  Log in as an administrator
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body LoginRequest true "credentials"
// @Success  200 {object} LoginResponse
// @Failure  403 {object} ErrorResponse
// @Router   /auth/login-admin [post]
func (h *AuthHandler) LoginAdmin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	u, err := h.svc.AuthenticateAdmin(c.Request().Context(), req.identifier(), req.Password)
	if err != nil {
		return fail(c, err, "인증 중 오류 발생")
	}
	return h.login(c, u, "관리자 로그인 성공")
}

func (h *AuthHandler) Edit(c echo.Context) error {
	var req EditRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	_, err := h.svc.Edit(c.Request().Context(), me(c).ID, service.EditInput{
		Address:     req.Address,
		Email:       req.Email,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		return fail(c, err, "회원 정보 수정 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "회원 정보 수정이 완료되었습니다."})
}

// Token re-issues an access token for the logged-in user.
func (h *AuthHandler) Token(c echo.Context) error {
	u, err := h.svc.Get(c.Request().Context(), me(c).ID)
	if err != nil {
		return fail(c, err, "토큰 발급 중 오류")
	}
	tok, err := h.svc.IssueToken(u)
	if err != nil {
		return fail(c, err, "토큰 발급 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]string{"token": tok})
}

func (h *AuthHandler) CheckUserID(c echo.Context) error {
	var req struct {
		UserID string `json:"userId"`
	}
	_ = c.Bind(&req)
	ok, err := h.svc.LoginIDAvailable(c.Request().Context(), req.UserID)
	if err != nil {
		return fail(c, err, "아이디 중복 확인 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": ok})
}

func (h *AuthHandler) CheckNickname(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	_ = c.Bind(&req)
	ok, err := h.svc.NicknameAvailable(c.Request().Context(), req.Name)
	if err != nil {
		return fail(c, err, "닉네임 중복 확인 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": ok})
}

func (h *AuthHandler) CheckEmail(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	_ = c.Bind(&req)
	ok, err := h.svc.EmailAvailable(c.Request().Context(), req.Email)
	if err != nil {
		return fail(c, err, "이메일 중복 확인 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": ok})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.sessions.Destroy(c.Request().Context(), c.Response(), c.Request()); err != nil {
		return fail(c, err, "로그아웃 중 오류 발생")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "로그아웃에 성공했습니다."})
}

func (h *AuthHandler) Status(c echo.Context) error {
	u := me(c)
	if u == nil {
		return c.JSON(http.StatusOK, map[string]bool{"isAuthenticated": false})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"isAuthenticated": true,
		"user":            UserSummary{ID: u.ID, UserID: u.LoginID, Name: u.Name, Role: string(u.Role)},
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	id := me(c)
	if id == nil {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{"user": nil})
	}
	u, err := h.svc.Get(c.Request().Context(), id.ID)
	if errors.Is(err, service.ErrNotFound) {
		return c.JSON(http.StatusUnauthorized, map[string]interface{}{"user": nil})
	}
	if err != nil {
		return fail(c, err, "회원 정보 조회 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"user": toUserProfile(u)})
}

// SocialStart redirects to the provider's consent page.
func (h *AuthHandler) SocialStart(p model.Provider) echo.HandlerFunc {
	return func(c echo.Context) error {
		url, err := h.social.AuthURL(c.Request().Context(), p)
		if errors.Is(err, oauth.ErrNotConfigured) {
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "소셜 로그인이 설정되지 않았습니다."))
		}
		if err != nil {
			return fail(c, err, "소셜 로그인 준비 중 오류")
		}
		return c.Redirect(http.StatusFound, url)
	}
}

// SocialCallback finishes the code flow and logs the user in.
func (h *AuthHandler) SocialCallback(p model.Provider) echo.HandlerFunc {
	label := map[model.Provider]string{model.ProviderGoogle: "구글", model.ProviderKakao: "카카오"}[p]
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if msg := c.QueryParam("error"); msg != "" {
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", label+" 로그인 실패: "+msg))
		}
		prof, err := h.social.Exchange(ctx, p, c.QueryParam("state"), c.QueryParam("code"))
		switch {
		case errors.Is(err, oauth.ErrBadState):
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", label+" 로그인 실패"))
		case errors.Is(err, oauth.ErrNotConfigured):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "소셜 로그인이 설정되지 않았습니다."))
		case err != nil:
			logging.FromContext(ctx).WithError(err).Error("[auth] oauth exchange failed")
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", label+" 인증 중 오류 발생"))
		}
		u, err := h.svc.SocialLogin(ctx, prof)
		if err != nil {
			return fail(c, err, label+" 로그인 세션 처리 중 오류 발생")
		}
		return h.login(c, u, label+" 로그인 성공")
	}
}
