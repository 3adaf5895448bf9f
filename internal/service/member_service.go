package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
)

// MemberQuery holds the raw admin list query; dates are YYYY-MM-DD.
type MemberQuery struct {
	Page       int
	Size       int
	Sort       string
	Order      string
	LoginID    string
	Name       string
	Email      string
	JoinedFrom string
	JoinedTo   string
	MinPoint   string
	MaxPoint   string
}

type MemberPage struct {
	Page       int
	Size       int
	Total      int64
	TotalPages int64
	List       []repository.MemberRow
}

type MemberStats struct {
	TotalUsers    int64
	ByRole        map[model.Role]int64
	NewUsers7d    int64
	SignupsByDay  []repository.DayCount
	RecentMembers []model.User
}

type MemberUpdate struct {
	Name        *string
	Address     *string
	PhoneNumber *string
	Role        *string
}

type MemberService interface {
	List(ctx context.Context, q MemberQuery) (*MemberPage, error)
	Stats(ctx context.Context) (*MemberStats, error)
	Get(ctx context.Context, id uint64) (*repository.MemberRow, error)
	Update(ctx context.Context, id uint64, in MemberUpdate) (*model.User, error)
	BulkDelete(ctx context.Context, ids []uint64) (int64, error)
}

type memberService struct {
	members repository.MemberRepository
	users   repository.UserRepository
	now     func() time.Time
}

func NewMemberService(members repository.MemberRepository, users repository.UserRepository) MemberService {
	return &memberService{members: members, users: users, now: time.Now}
}

func parseDay(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.Local)
	if err != nil {
		return nil, badRequest(field + " 형식은 YYYY-MM-DD 입니다.")
	}
	return &t, nil
}

func parsePoint(raw, field string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest(field + " 는 정수여야 합니다.")
	}
	return &n, nil
}

func (s *memberService) List(ctx context.Context, q MemberQuery) (*MemberPage, error) {
	p := repository.NewPage(q.Page, q.Size, 20, 100)
	f := repository.MemberFilter{
		LoginID: strings.TrimSpace(q.LoginID),
		Name:    strings.TrimSpace(q.Name),
		Email:   strings.TrimSpace(q.Email),
		Sort:    q.Sort,
		Desc:    !strings.EqualFold(q.Order, "ASC"),
		Page:    p,
	}
	if !repository.MemberSortColumn(f.Sort) {
		f.Sort = "createdAt"
	}
	var err error
	if f.JoinedFrom, err = parseDay(q.JoinedFrom, "joinedFrom"); err != nil {
		return nil, err
	}
	if f.JoinedTo, err = parseDay(q.JoinedTo, "joinedTo"); err != nil {
		return nil, err
	}
	if f.JoinedTo != nil {
		end := f.JoinedTo.Add(24*time.Hour - time.Nanosecond)
		f.JoinedTo = &end
	}
	if f.MinPoint, err = parsePoint(q.MinPoint, "minPoint"); err != nil {
		return nil, err
	}
	if f.MaxPoint, err = parsePoint(q.MaxPoint, "maxPoint"); err != nil {
		return nil, err
	}

	rows, total, err := s.members.List(ctx, f)
	if err != nil {
		return nil, err
	}
	pages := p.TotalPages(total)
	if pages < 1 {
		pages = 1
	}
	return &MemberPage{Page: p.Page, Size: p.Size, Total: total, TotalPages: pages, List: rows}, nil
}

func (s *memberService) Stats(ctx context.Context) (*MemberStats, error) {
	weekStart := startOfDay(s.now()).AddDate(0, 0, -6)
	var (
		out MemberStats
		err error
	)
	if out.TotalUsers, err = s.members.CountAll(ctx); err != nil {
		return nil, err
	}
	if out.ByRole, err = s.members.CountByRole(ctx); err != nil {
		return nil, err
	}
	created, err := s.members.CreatedSince(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	out.NewUsers7d = int64(len(created))
	out.SignupsByDay = bucketByDay(created, weekStart, 7)
	if out.RecentMembers, err = s.members.Recent(ctx, 6); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *memberService) Get(ctx context.Context, id uint64) (*repository.MemberRow, error) {
	row, err := s.members.Get(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "존재하지 않는 회원입니다.")
	}
	return row, nil
}

func (s *memberService) Update(ctx context.Context, id uint64, in MemberUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, badRequest("이름을 입력하세요.")
		}
		fields["name"] = name
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}
	if in.PhoneNumber != nil {
		raw := strings.TrimSpace(*in.PhoneNumber)
		if raw == "" {
			fields["phone_number"] = nil
		} else {
			mobile, ok := NormalizeMobile(raw)
			if !ok {
				return nil, badRequest("휴대폰 번호 형식이 올바르지 않습니다.")
			}
			fields["phone_number"] = mobile
		}
	}
	if in.Role != nil {
		role := model.Role(strings.ToUpper(strings.TrimSpace(*in.Role)))
		if role != model.RoleAdmin && role != model.RoleUser {
			return nil, badRequest("role 은 ADMIN 또는 USER 여야 합니다.")
		}
		fields["role"] = role
	}
	if err := s.users.Update(ctx, id, fields); err != nil {
		return nil, notFoundAs(err, "존재하지 않는 회원입니다.")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "존재하지 않는 회원입니다.")
	}
	return u, nil
}

func (s *memberService) BulkDelete(ctx context.Context, ids []uint64) (int64, error) {
	clean := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			clean = append(clean, id)
		}
	}
	if len(clean) == 0 {
		return 0, badRequest("삭제할 회원 ID가 필요합니다.")
	}
	n, err := s.members.DeleteMany(ctx, clean)
	if err != nil {
		return 0, err
	}
	logging.FromContext(ctx).WithFields(map[string]interface{}{"stage": "bulk_delete", "deleted": n}).Info("[member] deleted")
	return n, nil
}
