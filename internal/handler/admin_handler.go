package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/service"
)

// AdminHandler serves the back-office under /api/admin. Every route sits behind RequireAdmin.
type AdminHandler struct {
	members   service.MemberService
	donations service.DonationService
	qna       service.QnaService
	saving    service.SavingService
}

func NewAdminHandler(members service.MemberService, donations service.DonationService, qna service.QnaService, saving service.SavingService) *AdminHandler {
	return &AdminHandler{members: members, donations: donations, qna: qna, saving: saving}
}

type MemberResponse struct {
	UserProfile
	PointTotal int64  `json:"pointTotal"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

type MemberListResponse struct {
	Page       int              `json:"page"`
	Size       int              `json:"size"`
	Total      int64            `json:"total"`
	TotalPages int64            `json:"totalPages"`
	List       []MemberResponse `json:"list"`
}

type MemberUpdateRequest struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phoneNumber"`
	Role        *string `json:"role"`
}

type BulkDeleteRequest struct {
	IDs []uint64 `json:"ids"`
}

type DonationUpdateRequest struct {
	Status     *string `json:"status"`
	ReceiptURL *string `json:"receiptUrl"`
	Memo       *string `json:"memo"`
}

type AnswerRequest struct {
	Body string `json:"body"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type EcoActionRequest struct {
	Code        *string  `json:"code"`
	Description *string  `json:"description"`
	Unit        *string  `json:"unit"`
	CarbonUnit  *float64 `json:"carbonUnit"`
	PointUnit   *float64 `json:"pointUnit"`
	Active      *bool    `json:"active"`
}

func (r EcoActionRequest) input() service.EcoActionInput {
	return service.EcoActionInput{
		Code:        r.Code,
		Description: r.Description,
		Unit:        r.Unit,
		CarbonUnit:  r.CarbonUnit,
		PointUnit:   r.PointUnit,
		Active:      r.Active,
	}
}

func toMemberResponse(row *repository.MemberRow) MemberResponse {
	return MemberResponse{
		UserProfile: toUserProfile(&row.User),
		PointTotal:  row.PointTotal,
		Status:      "활성",
		CreatedAt:   row.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   row.UpdatedAt.Format(time.RFC3339),
	}
}

func recentUsers(users []model.User) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]interface{}{
			"id":        u.ID,
			"userId":    u.LoginID,
			"name":      u.Name,
			"email":     u.Email,
			"role":      u.Role,
			"createdAt": u.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

// Members godoc
// @Summary  Search members
// @Tags     admin
// @Produce  json
// @Security BearerAuth
// @Param    page query int false "page"
// @Param    size query int false "size"
// @Param    sort query string false "id, userId, name, email, createdAt, updatedAt or pointTotal"
// @Param    order query string false "ASC or DESC"
// @Success  200 {object} MemberListResponse
// @Router   /admin/members [get]
func (h *AdminHandler) Members(c echo.Context) error {
	page, err := h.members.List(c.Request().Context(), service.MemberQuery{
		Page:       queryInt(c, "page"),
		Size:       queryInt(c, "size"),
		Sort:       c.QueryParam("sort"),
		Order:      c.QueryParam("order"),
		LoginID:    c.QueryParam("userId"),
		Name:       c.QueryParam("name"),
		Email:      c.QueryParam("email"),
		JoinedFrom: c.QueryParam("joinedFrom"),
		JoinedTo:   c.QueryParam("joinedTo"),
		MinPoint:   c.QueryParam("minPoint"),
		MaxPoint:   c.QueryParam("maxPoint"),
	})
	if err != nil {
		return fail(c, err, "회원 목록 조회 중 오류")
	}
	resp := MemberListResponse{
		Page:       page.Page,
		Size:       page.Size,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		List:       make([]MemberResponse, 0, len(page.List)),
	}
	for i := range page.List {
		resp.List = append(resp.List, toMemberResponse(&page.List[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) MemberStats(c echo.Context) error {
	st, err := h.members.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err, "대시보드 통계 조회 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"totalUsers":    st.TotalUsers,
		"byRole":        st.ByRole,
		"newUsers7d":    st.NewUsers7d,
		"signupsByDay":  st.SignupsByDay,
		"recentMembers": recentUsers(st.RecentMembers),
	})
}

func (h *AdminHandler) Member(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	row, err := h.members.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "회원 조회 중 오류")
	}
	return c.JSON(http.StatusOK, toMemberResponse(row))
}

func (h *AdminHandler) UpdateMember(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req MemberUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	u, err := h.members.Update(c.Request().Context(), id, service.MemberUpdate{
		Name: req.Name, Address: req.Address, PhoneNumber: req.PhoneNumber, Role: req.Role,
	})
	if err != nil {
		return fail(c, err, "회원 수정 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "수정 완료", "user": toUserProfile(u)})
}

func (h *AdminHandler) DeleteMembers(c echo.Context) error {
	var req BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	n, err := h.members.BulkDelete(c.Request().Context(), req.IDs)
	if err != nil {
		return fail(c, err, "회원 삭제 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "deleted": n})
}

func (h *AdminHandler) DonationStats(c echo.Context) error {
	st, err := h.donations.Stats(c.Request().Context())
	if err != nil {
		return fail(c, err, "기부 통계 조회 중 오류")
	}
	recent := make([]DonationResponse, 0, len(st.RecentDonations))
	for i := range st.RecentDonations {
		recent = append(recent, toDonationResponse(&st.RecentDonations[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"donationsThisMonth": st.DonationsThisMonth,
		"pointsThisMonth":    st.PointsThisMonth,
		"donationsByDay":     st.DonationsByDay,
		"recentDonations":    recent,
		"byStatus":           st.ByStatus,
	})
}

func (h *AdminHandler) Donations(c echo.Context) error {
	page, err := h.donations.AdminList(c.Request().Context(), c.QueryParam("status"), c.QueryParam("q"), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "기부 목록 조회 중 오류")
	}
	return c.JSON(http.StatusOK, toDonationList(page))
}

func (h *AdminHandler) Donation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	d, err := h.donations.AdminGet(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "기부 조회 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"donation": toDonationResponse(d)})
}

// UpdateDonation godoc
// @Summary  Move a donation through pickup states
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id path int true "donation id"
// @Param    body body DonationUpdateRequest true "status, receiptUrl, memo"
// @Success  200 {object} map[string]interface{}
// @Failure  400 {object} ErrorResponse
// @Router   /admin/donations/{id} [put]
func (h *AdminHandler) UpdateDonation(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req DonationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	d, err := h.donations.AdminUpdate(c.Request().Context(), id, service.DonationAdminUpdate{
		Status: req.Status, ReceiptURL: req.ReceiptURL, Memo: req.Memo,
	})
	if err != nil {
		return fail(c, err, "기부 수정 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "donation": toDonationResponse(d)})
}

func (h *AdminHandler) Questions(c echo.Context) error {
	page, err := h.qna.AdminList(c.Request().Context(), c.QueryParam("status"), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "문의 목록 조회 중 오류")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": toQnaList(page.Items),
		"page":  page.Page,
		"size":  page.Size,
		"total": page.Total,
	})
}

func (h *AdminHandler) Answer(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	cm, err := h.qna.Answer(c.Request().Context(), id, me(c).ID, req.Body)
	if err != nil {
		return fail(c, err, "답변 등록 중 오류")
	}
	return c.JSON(http.StatusCreated, toCommentResponse(cm))
}

func (h *AdminHandler) QuestionStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	q, err := h.qna.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return fail(c, err, "문의 상태 변경 중 오류")
	}
	return c.JSON(http.StatusOK, toQnaResponse(q))
}

func (h *AdminHandler) EcoActions(c echo.Context) error {
	actions, err := h.saving.ListActions(c.Request().Context())
	if err != nil {
		return fail(c, err, "친환경 활동 조회 중 오류")
	}
	out := make([]EcoActionResponse, 0, len(actions))
	for i := range actions {
		out = append(out, toEcoActionResponse(&actions[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) CreateEcoAction(c echo.Context) error {
	var req EcoActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	a, err := h.saving.CreateAction(c.Request().Context(), req.input())
	if err != nil {
		return fail(c, err, "친환경 활동 등록 중 오류")
	}
	return c.JSON(http.StatusCreated, toEcoActionResponse(a))
}

func (h *AdminHandler) UpdateEcoAction(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req EcoActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	a, err := h.saving.UpdateAction(c.Request().Context(), id, req.input())
	if err != nil {
		return fail(c, err, "친환경 활동 수정 중 오류")
	}
	return c.JSON(http.StatusOK, toEcoActionResponse(a))
}

func (h *AdminHandler) EcoLogs(c echo.Context) error {
	page, err := h.saving.ListLogs(c.Request().Context(), c.QueryParam("status"), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		return fail(c, err, "활동 기록 조회 중 오류")
	}
	return c.JSON(http.StatusOK, toLogList(page))
}

// EcoLogStatus corrects a verified activity; REJECTED reverses its credit.
func (h *AdminHandler) EcoLogStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "잘못된 ID")
	}
	var req StatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	l, err := h.saving.CorrectLogStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return fail(c, err, "활동 기록 상태 변경 중 오류")
	}
	return c.JSON(http.StatusOK, toEcoLogResponse(l))
}
