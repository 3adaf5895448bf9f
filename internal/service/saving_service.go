package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/re-earth/re-earth-api/internal/bicycle"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/metrics"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/reward"
	"gorm.io/gorm"
)

// StationSource lists rental stations; *bicycle.Client satisfies it.
type StationSource interface {
	Stations(ctx context.Context, start, end int) (json.RawMessage, error)
}

// RideInput describes a finished ride either by distance or by its end points.
type RideInput struct {
	DistanceKm *float64
	StartLat   *float64
	StartLng   *float64
	EndLat     *float64
	EndLng     *float64
}

type RideResult struct {
	DistanceKm float64
	Points     int64
	CarbonSave float64
	LogID      uint64
}

type RecycleResult struct {
	AllowGuest  bool
	Message     string
	PointEarned int64
	CO2Saved    float64
}

type PointSummary struct {
	Balance  int64
	CO2Saved float64
	Page     int
	Size     int
	Total    int64
	History  []model.Point
}

type LogPage struct {
	Page  int
	Size  int
	Total int64
	Logs  []model.EcoActionLog
}

type EcoActionInput struct {
	Code        *string
	Description *string
	Unit        *string
	CarbonUnit  *float64
	PointUnit   *float64
	Active      *bool
}

type SavingService interface {
	Bicycles(ctx context.Context, start, end int) (json.RawMessage, error)
	EndRide(ctx context.Context, userID uint64, in RideInput) (*RideResult, error)
	Recycle(ctx context.Context, phoneOrEmail string, bottleCount int64) (*RecycleResult, error)
	MyLogs(ctx context.Context, userID uint64, page, size int) (*LogPage, error)
	MyPoints(ctx context.Context, userID uint64, page, size int) (*PointSummary, error)

	ListActions(ctx context.Context) ([]model.EcoAction, error)
	CreateAction(ctx context.Context, in EcoActionInput) (*model.EcoAction, error)
	UpdateAction(ctx context.Context, id uint64, in EcoActionInput) (*model.EcoAction, error)
	ListLogs(ctx context.Context, status string, page, size int) (*LogPage, error)
	CorrectLogStatus(ctx context.Context, logID uint64, status string) (*model.EcoActionLog, error)
}

type savingService struct {
	eco      repository.EcoRepository
	points   repository.PointRepository
	users    repository.UserRepository
	stations StationSource
	now      func() time.Time
}

func NewSavingService(eco repository.EcoRepository, points repository.PointRepository, users repository.UserRepository, stations StationSource) SavingService {
	return &savingService{eco: eco, points: points, users: users, stations: stations, now: time.Now}
}

func (s *savingService) Bicycles(ctx context.Context, start, end int) (json.RawMessage, error) {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start + 999
	}
	rows, err := s.stations.Stations(ctx, start, end)
	if errors.Is(err, bicycle.ErrNotConfigured) {
		return nil, &Error{Status: http.StatusServiceUnavailable, Code: "unavailable", Message: "따릉이 API 주소가 설정되지 않았습니다."}
	}
	return rows, err
}

func (in RideInput) distance() (float64, error) {
	if in.DistanceKm != nil {
		if *in.DistanceKm < 0 {
			return 0, badRequest("distanceKm 는 0 이상이어야 합니다.")
		}
		return *in.DistanceKm, nil
	}
	if in.StartLat != nil && in.StartLng != nil && in.EndLat != nil && in.EndLng != nil {
		return reward.Distance(*in.StartLat, *in.StartLng, *in.EndLat, *in.EndLng) / 1000, nil
	}
	return 0, badRequest("distanceKm 또는 출발/도착 좌표가 필요합니다.")
}

func (s *savingService) EndRide(ctx context.Context, userID uint64, in RideInput) (*RideResult, error) {
	km, err := in.distance()
	if err != nil {
		return nil, err
	}
	action, err := s.eco.FindActionByCode(ctx, model.EcoActionBicycle, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, badRequest("친환경 활동 중 BICYCLE 코드가 존재하지 않습니다.")
	}
	if err != nil {
		return nil, err
	}

	points := reward.BikePoints(km)
	carbon := reward.BikeCarbonSave(km)
	now := s.now()
	log := &model.EcoActionLog{
		UserID:            userID,
		EcoActionID:       action.ID,
		Quantity:          km,
		Provider:          model.EcoProviderAPI,
		Status:            model.EcoLogCompleted,
		PointEarned:       points,
		CO2Saved:          carbon,
		SnapPointUnit:     action.PointUnit,
		SnapCO2PerUnit:    action.CarbonUnit,
		SnapUnit:          action.Unit,
		QuantityCanonical: km,
		VerifiedAt:        &now,
		VerifiedBy:        strconv.FormatUint(userID, 10),
		SourceRef:         "bike-" + uuid.NewString(),
	}
	credit := model.NewPoint(userID, points, model.ReasonBicycleRide, fmt.Sprintf("자전거 %.2fkm 주행", km))
	if err := s.eco.Record(ctx, log, credit); err != nil {
		return nil, err
	}
	metrics.RecordPoints(string(model.ReasonBicycleRide), points)
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"stage":   "bicycle",
		"user_id": userID,
		"km":      km,
		"points":  points,
	}).Info("[saving] ride recorded")
	return &RideResult{DistanceKm: km, Points: points, CarbonSave: carbon, LogID: log.ID}, nil
}

func (s *savingService) Recycle(ctx context.Context, phoneOrEmail string, bottleCount int64) (*RecycleResult, error) {
	key := strings.TrimSpace(phoneOrEmail)
	if key == "" {
		return nil, badRequest("휴대폰 번호 또는 이메일을 입력하세요.")
	}
	if bottleCount <= 0 {
		return nil, badRequest("bottleCount 는 1 이상이어야 합니다.")
	}
	if strings.Contains(key, "@") {
		key = strings.ToLower(key)
	} else if mobile, ok := NormalizeMobile(key); ok {
		key = mobile
	}

	user, err := s.users.FindByPhoneOrEmail(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &RecycleResult{
			AllowGuest: true,
			Message:    "포인트 지급이 필요한 경우 앱 내 회원가입 이후 수거를 진행해 주세요.",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	action, err := s.eco.FindActionByCode(ctx, model.EcoActionPet, true)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, badRequest("친환경 활동 중 PET 코드가 존재하지 않습니다.")
	}
	if err != nil {
		return nil, err
	}

	qty := float64(bottleCount)
	points := reward.ActionPoints(qty, action.PointUnit)
	carbon := reward.ActionCarbon(qty, action.CarbonUnit)
	now := s.now()
	log := &model.EcoActionLog{
		UserID:            user.ID,
		EcoActionID:       action.ID,
		Quantity:          qty,
		Provider:          model.EcoProviderManual,
		Status:            model.EcoLogCompleted,
		PointEarned:       points,
		CO2Saved:          carbon,
		SnapPointUnit:     action.PointUnit,
		SnapCO2PerUnit:    action.CarbonUnit,
		SnapUnit:          action.Unit,
		QuantityCanonical: qty,
		VerifiedAt:        &now,
		VerifiedBy:        "kiosk",
		SourceRef:         "pet-" + uuid.NewString(),
	}
	credit := model.NewPoint(user.ID, points, model.ReasonPetRecycle, fmt.Sprintf("페트병 %d개 수거", bottleCount))
	if err := s.eco.Record(ctx, log, credit); err != nil {
		return nil, err
	}
	metrics.RecordPoints(string(model.ReasonPetRecycle), points)
	return &RecycleResult{
		Message:     fmt.Sprintf("%d 포인트가 적립되었습니다. 홈 화면으로 돌아갑니다.", points),
		PointEarned: points,
		CO2Saved:    carbon,
	}, nil
}

func (s *savingService) MyLogs(ctx context.Context, userID uint64, page, size int) (*LogPage, error) {
	p := repository.NewPage(page, size, 10, 100)
	logs, total, err := s.eco.ListLogsByUser(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &LogPage{Page: p.Page, Size: p.Size, Total: total, Logs: logs}, nil
}

func (s *savingService) MyPoints(ctx context.Context, userID uint64, page, size int) (*PointSummary, error) {
	p := repository.NewPage(page, size, 10, 100)
	bal, err := s.points.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	co2, err := s.eco.SumCO2ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.points.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	return &PointSummary{Balance: bal, CO2Saved: co2, Page: p.Page, Size: p.Size, Total: total, History: rows}, nil
}

func (s *savingService) ListActions(ctx context.Context) ([]model.EcoAction, error) {
	return s.eco.ListActions(ctx)
}

func validUnit(u string) bool {
	switch u {
	case "KG", "KM", "EA":
		return true
	}
	return false
}

func (s *savingService) CreateAction(ctx context.Context, in EcoActionInput) (*model.EcoAction, error) {
	if in.Code == nil || strings.TrimSpace(*in.Code) == "" {
		return nil, badRequest("활동 코드(code)를 입력하세요.")
	}
	a := &model.EcoAction{Code: strings.ToUpper(strings.TrimSpace(*in.Code)), Active: true}
	if in.Unit == nil || !validUnit(strings.ToUpper(*in.Unit)) {
		return nil, badRequest("단위(unit)는 KG, KM, EA 중 하나여야 합니다.")
	}
	a.Unit = strings.ToUpper(*in.Unit)
	if in.Description != nil {
		a.Description = *in.Description
	}
	if in.CarbonUnit != nil {
		a.CarbonUnit = *in.CarbonUnit
	}
	if in.PointUnit != nil {
		a.PointUnit = *in.PointUnit
	}
	if in.Active != nil {
		a.Active = *in.Active
	}
	if a.CarbonUnit < 0 || a.PointUnit < 0 {
		return nil, badRequest("단위 값은 0 이상이어야 합니다.")
	}
	if _, err := s.eco.FindActionByCode(ctx, a.Code, false); err == nil {
		return nil, conflict("이미 존재하는 활동 코드입니다.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err := s.eco.CreateAction(ctx, a); err != nil {
		return nil, conflictAs(err, "이미 존재하는 활동 코드입니다.")
	}
	return a, nil
}

func (s *savingService) UpdateAction(ctx context.Context, id uint64, in EcoActionInput) (*model.EcoAction, error) {
	if _, err := s.eco.FindActionByID(ctx, id); err != nil {
		return nil, notFoundAs(err, "친환경 활동을 찾을 수 없습니다.")
	}
	fields := map[string]interface{}{}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Unit != nil {
		u := strings.ToUpper(*in.Unit)
		if !validUnit(u) {
			return nil, badRequest("단위(unit)는 KG, KM, EA 중 하나여야 합니다.")
		}
		fields["unit"] = u
	}
	if in.CarbonUnit != nil {
		if *in.CarbonUnit < 0 {
			return nil, badRequest("단위 값은 0 이상이어야 합니다.")
		}
		fields["carbon_unit"] = *in.CarbonUnit
	}
	if in.PointUnit != nil {
		if *in.PointUnit < 0 {
			return nil, badRequest("단위 값은 0 이상이어야 합니다.")
		}
		fields["point_unit"] = *in.PointUnit
	}
	if in.Active != nil {
		fields["active"] = *in.Active
	}
	return s.eco.UpdateAction(ctx, id, fields)
}

func (s *savingService) ListLogs(ctx context.Context, status string, page, size int) (*LogPage, error) {
	p := repository.NewPage(page, size, 20, 100)
	logs, total, err := s.eco.ListLogs(ctx, strings.ToUpper(strings.TrimSpace(status)), p)
	if err != nil {
		return nil, err
	}
	return &LogPage{Page: p.Page, Size: p.Size, Total: total, Logs: logs}, nil
}

func (s *savingService) CorrectLogStatus(ctx context.Context, logID uint64, status string) (*model.EcoActionLog, error) {
	next := model.EcoLogStatus(strings.ToUpper(strings.TrimSpace(status)))
	switch next {
	case model.EcoLogCompleted, model.EcoLogPending, model.EcoLogRejected:
	default:
		return nil, badRequest("status 는 COMPLETED, PENDING, REJECTED 중 하나여야 합니다.")
	}
	log, err := s.eco.CorrectStatus(ctx, logID, next)
	if err != nil {
		return nil, notFoundAs(err, "활동 기록을 찾을 수 없습니다.")
	}
	logging.FromContext(ctx).WithFields(map[string]interface{}{
		"stage":  "correct",
		"log_id": logID,
		"status": next,
	}).Info("[saving] log status corrected")
	return log, nil
}
