package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/re-earth/re-earth-api/internal/kvstore"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/metrics"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/reward"
)

var (
	donationCategories = map[string]bool{"TOP": true, "BOTTOM": true, "OUTER": true, "SHOES": true, "BAG": true, "ETC": true}
	donationConditions = map[string]bool{"GOOD": true, "NORMAL": true, "POOR": true}
)

type DonationItemInput struct {
	Category  string
	Condition string
	Quantity  int64
	Note      string
}

type DonationInput struct {
	DonorName   string
	DonorPhone  string
	DonorEmail  string
	Zipcode     string
	Address1    string
	Address2    string
	PickupDate  string
	Memo        string
	AgreePolicy bool
	Items       []DonationItemInput
}

type DonationAdminUpdate struct {
	Status     *string
	ReceiptURL *string
	Memo       *string
}

// OTPIssued is the result of an OTP request. DevCode is only set outside production.
type OTPIssued struct {
	TTL     int
	DevCode string
}

type DonationPage struct {
	Page  int
	Size  int
	Total int64
	List  []model.Donation
}

type DonationStats struct {
	DonationsThisMonth int64
	PointsThisMonth    int64
	DonationsByDay     []repository.DayCount
	RecentDonations    []model.Donation
	ByStatus           map[model.DonationStatus]int64
}

// Viewer is who is asking for a resource. A zero ID means anonymous.
type Viewer struct {
	ID    uint64
	Admin bool
}

type DonationService interface {
	RequestOTP(ctx context.Context, phone string) (*OTPIssued, error)
	VerifyOTP(ctx context.Context, phone, code string) error
	Create(ctx context.Context, in DonationInput, userID *uint64) (*model.Donation, error)
	ListMine(ctx context.Context, userID uint64, page, size int) (*DonationPage, error)
	Get(ctx context.Context, id uint64, viewer Viewer) (*model.Donation, error)
	Cancel(ctx context.Context, userID, id uint64) (*model.Donation, error)

	AdminList(ctx context.Context, status, q string, page, size int) (*DonationPage, error)
	AdminGet(ctx context.Context, id uint64) (*model.Donation, error)
	AdminUpdate(ctx context.Context, id uint64, in DonationAdminUpdate) (*model.Donation, error)
	Stats(ctx context.Context) (*DonationStats, error)
}

type DonationOptions struct {
	OTPTTL     time.Duration
	Weights    reward.Weights
	UnitPoint  float64
	Production bool
}

type donationService struct {
	repo  repository.DonationRepository
	store kvstore.Store
	opts  DonationOptions
	now   func() time.Time
	code  func() (string, error)
}

func NewDonationService(repo repository.DonationRepository, store kvstore.Store, opts DonationOptions) DonationService {
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 5 * time.Minute
	}
	if opts.Weights == nil {
		opts.Weights = reward.DefaultWeights()
	}
	if opts.UnitPoint <= 0 {
		opts.UnitPoint = 100
	}
	return &donationService{repo: repo, store: store, opts: opts, now: time.Now, code: otpCode}
}

type otpRecord struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func otpKey(phone string) string {
	return "otp:" + phone
}

func otpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func sanitizePhone(p string) string {
	return nonDigit.ReplaceAllString(p, "")
}

func (s *donationService) RequestOTP(ctx context.Context, phone string) (*OTPIssued, error) {
	phone = sanitizePhone(phone)
	if len(phone) < 10 {
		return nil, badRequest("휴대폰 번호를 정확히 입력하세요.")
	}
	code, err := s.code()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}
	rec, err := json.Marshal(otpRecord{Code: code, ExpiresAt: s.now().Add(s.opts.OTPTTL)})
	if err != nil {
		return nil, err
	}
	// The key outlives the code so an expired code can be told apart from a missing one.
	if err := s.store.Set(ctx, otpKey(phone), string(rec), 2*s.opts.OTPTTL); err != nil {
		return nil, fmt.Errorf("store otp: %w", err)
	}
	out := &OTPIssued{TTL: int(s.opts.OTPTTL / time.Second)}
	if !s.opts.Production {
		out.DevCode = code
	}
	return out, nil
}

func (s *donationService) VerifyOTP(ctx context.Context, phone, code string) error {
	phone = sanitizePhone(phone)
	raw, err := s.store.Get(ctx, otpKey(phone))
	if errors.Is(err, kvstore.ErrNotFound) {
		return badRequest("인증요청이 필요합니다.")
	}
	if err != nil {
		return err
	}
	var rec otpRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return badRequest("인증요청이 필요합니다.")
	}
	if s.now().After(rec.ExpiresAt) {
		return badRequest("인증번호가 만료되었습니다.")
	}
	if rec.Code != strings.TrimSpace(code) {
		return badRequest("인증번호가 올바르지 않습니다.")
	}
	return s.store.Delete(ctx, otpKey(phone))
}

func (s *donationService) Create(ctx context.Context, in DonationInput, userID *uint64) (*model.Donation, error) {
	in.DonorName = strings.TrimSpace(in.DonorName)
	in.DonorPhone = sanitizePhone(in.DonorPhone)
	switch {
	case in.DonorName == "":
		return nil, badRequest("기부자 이름을 입력하세요.")
	case in.DonorPhone == "":
		return nil, badRequest("연락처를 입력하세요.")
	case strings.TrimSpace(in.Zipcode) == "" || strings.TrimSpace(in.Address1) == "":
		return nil, badRequest("수거 주소를 입력하세요.")
	case len(in.Items) == 0:
		return nil, badRequest("기부 품목을 1개 이상 입력하세요.")
	case !in.AgreePolicy:
		return nil, badRequest("개인정보 수집 및 이용에 동의해야 합니다.")
	}
	pickup, err := time.ParseInLocation(dateLayout, strings.TrimSpace(in.PickupDate), time.Local)
	if err != nil {
		return nil, badRequest("수거 희망일(pickupDate)을 YYYY-MM-DD 형식으로 입력하세요.")
	}

	items := make([]model.DonationItem, 0, len(in.Items))
	lines := make([]reward.DonationLine, 0, len(in.Items))
	for _, it := range in.Items {
		cat := strings.ToUpper(strings.TrimSpace(it.Category))
		if cat == "" {
			cat = "ETC"
		}
		if !donationCategories[cat] {
			return nil, badRequest("알 수 없는 품목 분류입니다: " + it.Category)
		}
		cond := strings.ToUpper(strings.TrimSpace(it.Condition))
		if cond == "" {
			cond = "NORMAL"
		}
		if !donationConditions[cond] {
			return nil, badRequest("알 수 없는 상태 값입니다: " + it.Condition)
		}
		qty := it.Quantity
		if qty < 0 {
			qty = 0
		}
		items = append(items, model.DonationItem{Category: cat, Condition: cond, Quantity: qty, Note: it.Note})
		lines = append(lines, reward.DonationLine{Category: cat, Quantity: qty})
	}
	count := reward.DonationCount(lines)
	if count <= 0 {
		return nil, badRequest("물품 총 수량(count)을 확인하세요.")
	}

	d := &model.Donation{
		UserID:        userID,
		DonorName:     in.DonorName,
		DonorPhone:    in.DonorPhone,
		DonorEmail:    strings.TrimSpace(in.DonorEmail),
		Zipcode:       strings.TrimSpace(in.Zipcode),
		Address1:      strings.TrimSpace(in.Address1),
		Address2:      strings.TrimSpace(in.Address2),
		PickupDate:    pickup,
		Memo:          in.Memo,
		Status:        model.DonationRequested,
		AgreePolicy:   true,
		Count:         count,
		ExpectedPoint: reward.ExpectedDonationPoints(lines, s.opts.Weights, s.opts.UnitPoint),
		Items:         items,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"stage":          "create",
		"donation_id":    d.ID,
		"count":          d.Count,
		"expected_point": d.ExpectedPoint,
	}).Info("[donation] requested")
	return d, nil
}

func toDonationPage(p repository.Page, rows []model.Donation, total int64) *DonationPage {
	return &DonationPage{Page: p.Page, Size: p.Size, Total: total, List: rows}
}

func (s *donationService) ListMine(ctx context.Context, userID uint64, page, size int) (*DonationPage, error) {
	p := repository.NewPage(page, size, 10, 50)
	rows, total, err := s.repo.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return toDonationPage(p, rows, total), nil
}

func (s *donationService) Get(ctx context.Context, id uint64, viewer Viewer) (*model.Donation, error) {
	const msg = "존재하지 않거나 접근 권한이 없습니다."
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, msg)
	}
	if d.UserID != nil && !viewer.Admin && *d.UserID != viewer.ID {
		return nil, notFound(msg)
	}
	return d, nil
}

func (s *donationService) Cancel(ctx context.Context, userID, id uint64) (*model.Donation, error) {
	next := model.DonationCancelled
	d, prev, err := s.repo.Apply(ctx, id, repository.DonationUpdate{
		Status:   &next,
		OwnerID:  userID,
		OnlyFrom: model.DonationRequested,
	})
	var te *repository.TransitionError
	switch {
	case err == nil:
		metrics.RecordDonationTransition(string(prev), string(next))
		return d, nil
	case errors.Is(err, repository.ErrNotOwner):
		return nil, notFound("존재하지 않거나 접근 권한이 없습니다.")
	case errors.As(err, &te):
		return nil, badRequest("현재 상태에선 취소할 수 없습니다.")
	}
	return nil, notFoundAs(err, "존재하지 않거나 접근 권한이 없습니다.")
}

func (s *donationService) AdminList(ctx context.Context, status, q string, page, size int) (*DonationPage, error) {
	p := repository.NewPage(page, size, 20, 100)
	rows, total, err := s.repo.List(ctx, repository.DonationFilter{
		Status: strings.ToUpper(strings.TrimSpace(status)),
		Query:  strings.TrimSpace(q),
		Page:   p,
	})
	if err != nil {
		return nil, err
	}
	return toDonationPage(p, rows, total), nil
}

func (s *donationService) AdminGet(ctx context.Context, id uint64) (*model.Donation, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "기부 신청이 없습니다.")
	}
	return d, nil
}

func (s *donationService) AdminUpdate(ctx context.Context, id uint64, in DonationAdminUpdate) (*model.Donation, error) {
	upd := repository.DonationUpdate{ReceiptURL: in.ReceiptURL, Memo: in.Memo}
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		next := model.DonationStatus(strings.ToUpper(strings.TrimSpace(*in.Status)))
		upd.Status = &next
	}
	d, prev, err := s.repo.Apply(ctx, id, upd)
	var te *repository.TransitionError
	if errors.As(err, &te) {
		return nil, badRequest(fmt.Sprintf("상태 전이 불가: %s → %s", te.From, te.To))
	}
	if err != nil {
		return nil, notFoundAs(err, "기부 신청이 없습니다.")
	}
	if upd.Status != nil {
		metrics.RecordDonationTransition(string(prev), string(d.Status))
		if d.UserID != nil && d.ExpectedPoint > 0 {
			switch {
			case d.Status == model.DonationPicked:
				metrics.RecordPoints(string(model.ReasonDonationPicked), d.ExpectedPoint)
			case prev == model.DonationPicked && d.Status == model.DonationCancelled:
				metrics.RecordPoints(string(model.ReasonDonationCancelled), -d.ExpectedPoint)
			}
		}
		logging.FromContext(ctx).WithFields(map[string]interface{}{
			"stage":       "transition",
			"donation_id": d.ID,
			"from":        prev,
			"to":          d.Status,
		}).Info("[donation] status changed")
	}
	return d, nil
}

func (s *donationService) Stats(ctx context.Context) (*DonationStats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	weekStart := startOfDay(now).AddDate(0, 0, -6)

	var (
		out DonationStats
		err error
	)
	if out.DonationsThisMonth, err = s.repo.CountSince(ctx, monthStart); err != nil {
		return nil, err
	}
	if out.PointsThisMonth, err = s.repo.SumExpectedSince(ctx, monthStart); err != nil {
		return nil, err
	}
	created, err := s.repo.CreatedSince(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	out.DonationsByDay = bucketByDay(created, weekStart, 7)
	if out.RecentDonations, err = s.repo.Recent(ctx, 6); err != nil {
		return nil, err
	}
	if out.ByStatus, err = s.repo.CountByStatus(ctx); err != nil {
		return nil, err
	}
	return &out, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// bucketByDay counts timestamps per local day for the days consecutive days from start.
func bucketByDay(ts []time.Time, start time.Time, days int) []repository.DayCount {
	counts := make(map[string]int64, days)
	for _, t := range ts {
		counts[t.In(start.Location()).Format(dateLayout)]++
	}
	out := make([]repository.DayCount, 0, days)
	for i := 0; i < days; i++ {
		key := start.AddDate(0, 0, i).Format(dateLayout)
		out = append(out, repository.DayCount{Date: key, Count: counts[key]})
	}
	return out
}
