package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/token"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

var (
	passwordPattern = regexp.MustCompile(`^[^\s]{8,}$`)
	letterPattern   = regexp.MustCompile(`[A-Za-z]`)
	digitPattern    = regexp.MustCompile(`\d`)
	specialPattern  = regexp.MustCompile(`[^A-Za-z0-9]`)
	loginIDPattern  = regexp.MustCompile(`^[A-Za-z0-9]{4,20}$`)
	nicknamePattern = regexp.MustCompile(`^\S{2,20}$`)
	mobilePattern   = regexp.MustCompile(`^01[016789]\d{7,8}$`)
	nonDigit        = regexp.MustCompile(`\D`)
	nonAlnum        = regexp.MustCompile(`[^A-Za-z0-9]`)
)

type JoinInput struct {
	Email       string
	Name        string
	Address     string
	Password    string
	LoginID     string
	PhoneNumber string
}

type EditInput struct {
	Address     *string
	Email       *string
	Name        *string
	PhoneNumber *string
	NewPassword *string
}

// SocialProfile is what an OAuth provider tells us about a user.
type SocialProfile struct {
	Provider model.Provider
	Subject  string
	Email    string
	Name     string
}

type AuthService interface {
	Join(ctx context.Context, in JoinInput) (*model.User, error)
	// Authenticate checks local credentials. idOrEmail is treated as an email when it contains "@".
	Authenticate(ctx context.Context, idOrEmail, password string) (*model.User, error)
	AuthenticateAdmin(ctx context.Context, idOrEmail, password string) (*model.User, error)
	SocialLogin(ctx context.Context, p SocialProfile) (*model.User, error)
	Edit(ctx context.Context, userID uint64, in EditInput) (*model.User, error)
	IssueToken(u *model.User) (string, error)
	Get(ctx context.Context, userID uint64) (*model.User, error)
	LoginIDAvailable(ctx context.Context, loginID string) (bool, error)
	NicknameAvailable(ctx context.Context, name string) (bool, error)
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *token.Service
	rnd    func(n int) int
}

func NewAuthService(users repository.UserRepository, tokens *token.Service) AuthService {
	return &authService{users: users, tokens: tokens, rnd: rand.Intn}
}

func validPassword(pw string) bool {
	return passwordPattern.MatchString(pw) &&
		letterPattern.MatchString(pw) &&
		digitPattern.MatchString(pw) &&
		specialPattern.MatchString(pw)
}

// NormalizeMobile formats a Korean mobile number as 010-1234-5678.
func NormalizeMobile(raw string) (string, bool) {
	d := nonDigit.ReplaceAllString(raw, "")
	if !mobilePattern.MatchString(d) {
		return "", false
	}
	if len(d) == 11 {
		return d[:3] + "-" + d[3:7] + "-" + d[7:], true
	}
	return d[:3] + "-" + d[3:6] + "-" + d[6:], true
}

func (s *authService) Join(ctx context.Context, in JoinInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	address := strings.TrimSpace(in.Address)
	loginID := strings.TrimSpace(in.LoginID)

	if email == "" || name == "" || address == "" || in.Password == "" {
		return nil, badRequest("필수 항목이 누락되었습니다. (email, name, address, password)")
	}
	if !validPassword(in.Password) {
		return nil, badRequest("비밀번호는 영문, 숫자, 특수문자를 각각 포함하여 8자 이상이어야 합니다.")
	}
	exists, err := s.users.ExistsEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, conflict("이미 존재하는 사용자입니다.")
	}
	if loginID != "" {
		if !loginIDPattern.MatchString(loginID) {
			return nil, badRequest("userId 형식이 올바르지 않습니다. (4~20자 영문/숫자)")
		}
		taken, err := s.users.ExistsLoginID(ctx, loginID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, conflict("이미 사용 중인 userId 입니다.")
		}
	}

	var phone *string
	if raw := strings.TrimSpace(in.PhoneNumber); raw != "" {
		normalized, ok := NormalizeMobile(raw)
		if !ok {
			return nil, badRequest("휴대폰 번호 형식이 올바르지 않습니다.")
		}
		phone = &normalized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	hashed := string(hash)

	if loginID == "" {
		loginID, err = s.generateLoginID(ctx, "", email)
		if err != nil {
			return nil, err
		}
	}
	u := &model.User{
		Email:       email,
		Name:        name,
		Password:    &hashed,
		Role:        model.RoleUser,
		Address:     address,
		Provider:    model.ProviderLocal,
		PhoneNumber: phone,
		LoginID:     loginID,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflictAs(err, "이미 존재하는 사용자입니다.")
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "login_id": u.LoginID}).Info("[auth] joined")
	return u, nil
}

// generateLoginID derives "<prefix><email head>_<4 digits>" and retries on collision.
func (s *authService) generateLoginID(ctx context.Context, prefix, email string) (string, error) {
	head := email
	if i := strings.Index(email, "@"); i > 0 {
		head = email[:i]
	}
	head = nonAlnum.ReplaceAllString(head, "")
	if head == "" {
		head = "user"
	}
	if len(head) > 30 {
		head = head[:30]
	}
	for i := 0; i < 10; i++ {
		candidate := fmt.Sprintf("%s%s_%04d", prefix, head, s.rnd(10000))
		taken, err := s.users.ExistsLoginID(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", conflict("아이디 생성에 실패했습니다. 다시 시도해 주세요.")
}

func (s *authService) Authenticate(ctx context.Context, idOrEmail, password string) (*model.User, error) {
	raw := strings.TrimSpace(idOrEmail)
	if raw == "" || password == "" {
		return nil, unauthorized("아이디와 비밀번호를 입력하세요.")
	}
	var (
		u   *model.User
		err error
	)
	if strings.Contains(raw, "@") {
		u, err = s.users.FindByEmail(ctx, strings.ToLower(raw))
	} else {
		u, err = s.users.FindByLoginID(ctx, raw)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && u.Provider != model.ProviderLocal) {
		return nil, unauthorized("가입되지 않은 계정이거나 소셜 계정입니다.")
	}
	if err != nil {
		return nil, err
	}
	if u.Password == nil || *u.Password == "" {
		return nil, unauthorized("이 계정은 소셜 로그인으로 가입되었습니다.")
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)) != nil {
		return nil, unauthorized("비밀번호가 일치하지 않습니다.")
	}
	return u, nil
}

func (s *authService) AuthenticateAdmin(ctx context.Context, idOrEmail, password string) (*model.User, error) {
	u, err := s.Authenticate(ctx, idOrEmail, password)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() {
		return nil, forbidden("관리자 권한이 없습니다.")
	}
	return u, nil
}

func (s *authService) SocialLogin(ctx context.Context, p SocialProfile) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return nil, unauthorized("이메일 제공 동의가 필요합니다.")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	prefix := strings.ToLower(string(p.Provider))
	loginID := prefix + "_" + p.Subject
	if taken, err := s.users.ExistsLoginID(ctx, loginID); err != nil {
		return nil, err
	} else if taken {
		if loginID, err = s.generateLoginID(ctx, prefix+"_", email); err != nil {
			return nil, err
		}
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = string(p.Provider) + " User"
	}
	u = &model.User{
		LoginID:  loginID,
		Name:     name,
		Email:    email,
		Provider: p.Provider,
		Role:     model.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflictAs(err, "이미 존재하는 사용자입니다.")
	}
	logrus.WithFields(logrus.Fields{"user_id": u.ID, "provider": p.Provider}).Info("[auth] social account created")
	return u, nil
}

func (s *authService) Edit(ctx context.Context, userID uint64, in EditInput) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "회원 정보가 존재하지 않습니다.")
	}
	fields := map[string]interface{}{}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, badRequest("이름을 입력하세요.")
		}
		fields["name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email == "" {
			return nil, badRequest("이메일을 입력하세요.")
		}
		if email != u.Email {
			taken, err := s.users.ExistsEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, conflict("이미 존재하는 사용자입니다.")
			}
		}
		fields["email"] = email
	}
	if in.PhoneNumber != nil {
		if raw := strings.TrimSpace(*in.PhoneNumber); raw == "" {
			fields["phone_number"] = nil
		} else {
			normalized, ok := NormalizeMobile(raw)
			if !ok {
				return nil, badRequest("휴대폰 번호 형식이 올바르지 않습니다.")
			}
			fields["phone_number"] = normalized
		}
	}
	if in.NewPassword != nil && *in.NewPassword != "" {
		if !validPassword(*in.NewPassword) {
			return nil, badRequest("비밀번호는 영문, 숫자, 특수문자를 각각 포함하여 8자 이상이어야 합니다.")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.NewPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password"] = string(hash)
	}
	if err := s.users.Update(ctx, userID, fields); err != nil {
		return nil, conflictAs(err, "이미 존재하는 사용자입니다.")
	}
	return s.users.FindByID(ctx, userID)
}

func (s *authService) IssueToken(u *model.User) (string, error) {
	return s.tokens.Generate(token.Claims{
		ID:       u.ID,
		UserID:   u.LoginID,
		Role:     string(u.Role),
		Name:     u.Name,
		Email:    u.Email,
		Provider: string(u.Provider),
	})
}

func (s *authService) Get(ctx context.Context, userID uint64) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundAs(err, "회원 정보가 존재하지 않습니다.")
	}
	return u, nil
}

func (s *authService) LoginIDAvailable(ctx context.Context, loginID string) (bool, error) {
	loginID = strings.TrimSpace(loginID)
	if !loginIDPattern.MatchString(loginID) {
		return false, badRequest("userId 형식이 올바르지 않습니다. (4~20자 영문/숫자)")
	}
	taken, err := s.users.ExistsLoginID(ctx, loginID)
	return !taken, err
}

func (s *authService) NicknameAvailable(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if !nicknamePattern.MatchString(name) {
		return false, badRequest("닉네임 형식이 올바르지 않습니다. (공백 없는 2~20자)")
	}
	taken, err := s.users.ExistsName(ctx, name)
	return !taken, err
}

func (s *authService) EmailAvailable(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, badRequest("이메일을 입력하세요.")
	}
	taken, err := s.users.ExistsEmail(ctx, email)
	return !taken, err
}
