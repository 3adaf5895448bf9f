package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
)

type DonationHandler struct {
	svc service.DonationService
}

func NewDonationHandler(svc service.DonationService) *DonationHandler {
	return &DonationHandler{svc: svc}
}

type OTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type DonationItemRequest struct {
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note"`
}

type DonationRequest struct {
	DonorName   string                `json:"donorName"`
	DonorPhone  string                `json:"donorPhone"`
	DonorEmail  string                `json:"donorEmail"`
	Zipcode     string                `json:"zipcode"`
	Address1    string                `json:"address1"`
	Address2    string                `json:"address2"`
	PickupDate  string                `json:"pickupDate"`
	Memo        string                `json:"memo"`
	AgreePolicy bool                  `json:"agreePolicy"`
	Items       []DonationItemRequest `json:"items"`
}

type DonationItemResponse struct {
	ID        uint64 `json:"id"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Quantity  int64  `json:"quantity"`
	Note      string `json:"note"`
}

type DonationResponse struct {
	ID            uint64                 `json:"id"`
	UserID        *uint64                `json:"userId"`
	DonorName     string                 `json:"donorName"`
	DonorPhone    string                 `json:"donorPhone"`
	DonorEmail    string                 `json:"donorEmail"`
	Zipcode       string                 `json:"zipcode"`
	Address1      string                 `json:"address1"`
	Address2      string                 `json:"address2"`
	PickupDate    string                 `json:"pickupDate"`
	Memo          string                 `json:"memo"`
	Status        string                 `json:"status"`
	AgreePolicy   bool                   `json:"agreePolicy"`
	Count         int64                  `json:"count"`
	ExpectedPoint int64                  `json:"expectedPoint"`
	ReceiptURL    string                 `json:"receiptUrl"`
	Items         []DonationItemResponse `json:"items"`
	CreatedAt     string                 `json:"createdAt"`
	UpdatedAt     string                 `json:"updatedAt"`
}

type DonationListResponse struct {
	List  []DonationResponse `json:"list"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
	Total int64              `json:"total"`
}

func toDonationResponse(d *model.Donation) DonationResponse {
	resp := DonationResponse{
		ID:            d.ID,
		UserID:        d.UserID,
		DonorName:     d.DonorName,
		DonorPhone:    d.DonorPhone,
		DonorEmail:    d.DonorEmail,
		Zipcode:       d.Zipcode,
		Address1:      d.Address1,
		Address2:      d.Address2,
		PickupDate:    d.PickupDate.Format("2006-01-02"),
		Memo:          d.Memo,
		Status:        string(d.Status),
		AgreePolicy:   d.AgreePolicy,
		Count:         d.Count,
		ExpectedPoint: d.ExpectedPoint,
		ReceiptURL:    d.ReceiptURL,
		Items:         make([]DonationItemResponse, 0, len(d.Items)),
		CreatedAt:     d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.Format(time.RFC3339),
	}
	for _, it := range d.Items {
		resp.Items = append(resp.Items, DonationItemResponse{
			ID: it.ID, Category: it.Category, Condition: it.Condition, Quantity: it.Quantity, Note: it.Note,
		})
	}
	return resp
}

func toDonationList(p *service.DonationPage) DonationListResponse {
	resp := DonationListResponse{Page: p.Page, Size: p.Size, Total: p.Total, List: make([]DonationResponse, 0, len(p.List))}
	for i := range p.List {
		resp.List = append(resp.List, toDonationResponse(&p.List[i]))
	}
	return resp
}

// RequestOTP godoc
// @Summary  Send a pickup verification code
// @Tags     donation
// @Accept   json
// @Produce  json
// @Param    body body OTPRequest true "phone"
// @Success  200 {object} map[string]interface{}
// @Router   /donations/otp/request [post]
func (h *DonationHandler) RequestOTP(c echo.Context) error {
	var req OTPRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	issued, err := h.svc.RequestOTP(c.Request().Context(), req.Phone)
	if err != nil {
		return fail(c, err, "인증번호 발송 중 오류가 발생했습니다.")
	}
	body := map[string]interface{}{"ok": true, "ttl": issued.TTL}
	if issued.DevCode != "" {
		body["devCode"] = issued.DevCode
	}
	return c.JSON(http.StatusOK, body)
}

func (h *DonationHandler) VerifyOTP(c echo.Context) error {
	var req OTPRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	if err := h.svc.VerifyOTP(c.Request().Context(), req.Phone, req.Code); err != nil {
		return fail(c, err, "인증 처리 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"verified": true})
}

// Create godoc
// @Summary  Request a clothing pickup
// @Tags     donation
// @Accept   json
// @Produce  json
// @Param    body body DonationRequest true "donation"
// @Success  201 {object} map[string]interface{}
// @Failure  400 {object} ErrorResponse
// @Router   /donations [post]
func (h *DonationHandler) Create(c echo.Context) error {
	var req DonationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	in := service.DonationInput{
		DonorName:   req.DonorName,
		DonorPhone:  req.DonorPhone,
		DonorEmail:  req.DonorEmail,
		Zipcode:     req.Zipcode,
		Address1:    req.Address1,
		Address2:    req.Address2,
		PickupDate:  req.PickupDate,
		Memo:        req.Memo,
		AgreePolicy: req.AgreePolicy,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.DonationItemInput{
			Category: it.Category, Condition: it.Condition, Quantity: it.Quantity, Note: it.Note,
		})
	}
	var userID *uint64
	if u := me(c); u != nil {
		id := u.ID
		userID = &id
	}
	d, err := h.svc.Create(c.Request().Context(), in, userID)
	if err != nil {
		return fail(c, err, "기부 신청 처리 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"donation": toDonationResponse(d)})
}

func (h *DonationHandler) ListMine(c echo.Context) error {
	page, err := h.svc.ListMine(c.Request().Context(), me(c).ID, queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "기부 목록 조회 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, toDonationList(page))
}

func (h *DonationHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "존재하지 않거나 접근 권한이 없습니다."))
	}
	d, err := h.svc.Get(c.Request().Context(), id, viewer(c))
	if err != nil {
		return fail(c, err, "기부 조회 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, toDonationResponse(d))
}

func (h *DonationHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "존재하지 않거나 접근 권한이 없습니다."))
	}
	d, err := h.svc.Cancel(c.Request().Context(), me(c).ID, id)
	if err != nil {
		return fail(c, err, "기부 취소 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "donation": toDonationResponse(d)})
}
