package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
)

type SavingHandler struct {
	svc service.SavingService
}

func NewSavingHandler(svc service.SavingService) *SavingHandler {
	return &SavingHandler{svc: svc}
}

type RideEndRequest struct {
	DistanceKm *float64 `json:"distanceKm"`
	StartLat   *float64 `json:"startLat"`
	StartLng   *float64 `json:"startLng"`
	EndLat     *float64 `json:"endLat"`
	EndLng     *float64 `json:"endLng"`
}

type RecycleRequest struct {
	PhoneOrEmail string `json:"phoneOrEmail"`
	BottleCount  int64  `json:"bottleCount"`
}

type EcoActionResponse struct {
	ID          uint64  `json:"id"`
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	CarbonUnit  float64 `json:"carbonUnit"`
	PointUnit   float64 `json:"pointUnit"`
	Active      bool    `json:"active"`
}

type EcoLogResponse struct {
	ID                uint64             `json:"id"`
	UserID            uint64             `json:"userId"`
	EcoActionID       uint64             `json:"ecoActionId"`
	Quantity          float64            `json:"quantity"`
	Provider          string             `json:"provider"`
	Status            string             `json:"status"`
	PointEarned       int64              `json:"pointEarned"`
	CO2Saved          float64            `json:"co2Saved"`
	SnapPointUnit     float64            `json:"snapPointUnit"`
	SnapCO2PerUnit    float64            `json:"snapCo2PerUnit"`
	SnapUnit          string             `json:"snapUnit"`
	QuantityCanonical float64            `json:"quantityCanonical"`
	VerifiedAt        *string            `json:"verifiedAt"`
	VerifiedBy        string             `json:"verifiedBy"`
	SourceRef         string             `json:"sourceRef"`
	EcoAction         *EcoActionResponse `json:"EcoAction,omitempty"`
	CreatedAt         string             `json:"createdAt"`
}

type PointResponse struct {
	ID          uint64 `json:"id"`
	Amount      int64  `json:"amount"`
	Delta       int64  `json:"delta"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

func toEcoActionResponse(a *model.EcoAction) EcoActionResponse {
	return EcoActionResponse{
		ID: a.ID, Code: a.Code, Description: a.Description, Unit: a.Unit,
		CarbonUnit: a.CarbonUnit, PointUnit: a.PointUnit, Active: a.Active,
	}
}

func toEcoLogResponse(l *model.EcoActionLog) EcoLogResponse {
	resp := EcoLogResponse{
		ID:                l.ID,
		UserID:            l.UserID,
		EcoActionID:       l.EcoActionID,
		Quantity:          l.Quantity,
		Provider:          string(l.Provider),
		Status:            string(l.Status),
		PointEarned:       l.PointEarned,
		CO2Saved:          l.CO2Saved,
		SnapPointUnit:     l.SnapPointUnit,
		SnapCO2PerUnit:    l.SnapCO2PerUnit,
		SnapUnit:          l.SnapUnit,
		QuantityCanonical: l.QuantityCanonical,
		VerifiedBy:        l.VerifiedBy,
		SourceRef:         l.SourceRef,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
	if l.VerifiedAt != nil {
		s := l.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &s
	}
	if l.EcoAction != nil {
		a := toEcoActionResponse(l.EcoAction)
		resp.EcoAction = &a
	}
	return resp
}

func toLogList(p *service.LogPage) map[string]interface{} {
	logs := make([]EcoLogResponse, 0, len(p.Logs))
	for i := range p.Logs {
		logs = append(logs, toEcoLogResponse(&p.Logs[i]))
	}
	return map[string]interface{}{"page": p.Page, "size": p.Size, "total": p.Total, "logs": logs}
}

// Bicycles godoc
// @Summary  Public bike rental stations
// @Tags     saving
// @Produce  json
// @Param    start query int false "first row" default(1)
// @Param    end query int false "last row" default(1000)
// @Success  200 {array} object
// @Failure  503 {object} ErrorResponse
// @Router   /saving/bicycles [get]
func (h *SavingHandler) Bicycles(c echo.Context) error {
	start, end := 1, 1000
	if v, err := strconv.Atoi(c.QueryParam("start")); err == nil {
		start = v
	}
	if v, err := strconv.Atoi(c.QueryParam("end")); err == nil {
		end = v
	}
	rows, err := h.svc.Bicycles(c.Request().Context(), start, end)
	if err != nil {
		return fail(c, err, "따릉이 정보를 불러오는 중 오류가 발생했습니다.")
	}
	return c.JSONBlob(http.StatusOK, rows)
}

// EndRide godoc
// @Summary  Credit a finished bike ride
// @Tags     saving
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body RideEndRequest true "distance or coordinates"
// @Success  200 {object} map[string]interface{}
// @Router   /saving/bicycle/end [post]
func (h *SavingHandler) EndRide(c echo.Context) error {
	var req RideEndRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	res, err := h.svc.EndRide(c.Request().Context(), me(c).ID, service.RideInput{
		DistanceKm: req.DistanceKm,
		StartLat:   req.StartLat,
		StartLng:   req.StartLng,
		EndLat:     req.EndLat,
		EndLng:     req.EndLng,
	})
	if err != nil {
		return fail(c, err, "주행 인증 처리 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":    true,
		"distanceKm": res.DistanceKm,
		"points":     res.Points,
		"carbonSave": res.CarbonSave,
		"logId":      res.LogID,
	})
}

// Recycle godoc
// @Summary  Credit PET bottles dropped at a kiosk
// @Tags     saving
// @Accept   json
// @Produce  json
// @Param    body body RecycleRequest true "member key and count"
// @Success  200 {object} map[string]interface{}
// @Router   /saving/recycle [post]
func (h *SavingHandler) Recycle(c echo.Context) error {
	var req RecycleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	res, err := h.svc.Recycle(c.Request().Context(), req.PhoneOrEmail, req.BottleCount)
	if err != nil {
		return fail(c, err, "수거 처리 중 오류가 발생했습니다.")
	}
	if res.AllowGuest {
		return c.JSON(http.StatusOK, map[string]interface{}{"message": res.Message, "allowGuest": true})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     res.Message,
		"pointEarned": res.PointEarned,
		"co2Saved":    res.CO2Saved,
	})
}

func (h *SavingHandler) MyLogs(c echo.Context) error {
	page, err := h.svc.MyLogs(c.Request().Context(), me(c).ID, queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "활동 내역 조회 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, toLogList(page))
}

func (h *SavingHandler) MyPoints(c echo.Context) error {
	sum, err := h.svc.MyPoints(c.Request().Context(), me(c).ID, queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "포인트 조회 중 오류가 발생했습니다.")
	}
	history := make([]PointResponse, 0, len(sum.History))
	for _, p := range sum.History {
		history = append(history, PointResponse{
			ID: p.ID, Amount: p.Amount, Delta: p.Delta, Reason: string(p.Reason),
			Description: p.Description, CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"balance":  sum.Balance,
		"co2Saved": sum.CO2Saved,
		"page":     sum.Page,
		"size":     sum.Size,
		"total":    sum.Total,
		"history":  history,
	})
}
