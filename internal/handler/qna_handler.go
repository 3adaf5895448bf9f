package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
)

type QnaHandler struct {
	svc service.QnaService
}

func NewQnaHandler(svc service.QnaService) *QnaHandler {
	return &QnaHandler{svc: svc}
}

type QnaRequest struct {
	Title    string `json:"title"`
	Question string `json:"question"`
}

type QnaCommentResponse struct {
	ID        uint64       `json:"id"`
	QnaID     uint64       `json:"qnaId"`
	AdminID   uint64       `json:"adminId"`
	Body      string       `json:"body"`
	Admin     *UserSummary `json:"admin,omitempty"`
	CreatedAt string       `json:"createdAt"`
}

type QnaResponse struct {
	ID        uint64               `json:"id"`
	UserID    uint64               `json:"userId"`
	Title     string               `json:"title"`
	Question  string               `json:"question"`
	Status    string               `json:"status"`
	User      *UserSummary         `json:"user,omitempty"`
	Comments  []QnaCommentResponse `json:"comments"`
	CreatedAt string               `json:"createdAt"`
	UpdatedAt string               `json:"updatedAt"`
}

func toCommentResponse(cm *model.QnaComment) QnaCommentResponse {
	resp := QnaCommentResponse{
		ID: cm.ID, QnaID: cm.QnaID, AdminID: cm.AdminID, Body: cm.Body,
		CreatedAt: cm.CreatedAt.Format(time.RFC3339),
	}
	if cm.Admin != nil {
		s := toUserSummary(cm.Admin)
		resp.Admin = &s
	}
	return resp
}

func toQnaResponse(q *model.Qna) QnaResponse {
	resp := QnaResponse{
		ID:        q.ID,
		UserID:    q.UserID,
		Title:     q.Title,
		Question:  q.Question,
		Status:    string(q.Status),
		Comments:  make([]QnaCommentResponse, 0, len(q.Comments)),
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
		UpdatedAt: q.UpdatedAt.Format(time.RFC3339),
	}
	if q.User != nil {
		s := toUserSummary(q.User)
		resp.User = &s
	}
	for i := range q.Comments {
		resp.Comments = append(resp.Comments, toCommentResponse(&q.Comments[i]))
	}
	return resp
}

func toQnaList(qs []model.Qna) []QnaResponse {
	out := make([]QnaResponse, 0, len(qs))
	for i := range qs {
		out = append(out, toQnaResponse(&qs[i]))
	}
	return out
}

// Create godoc
// @Summary  Ask a question
// @Tags     qna
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body QnaRequest true "question"
// @Success  201 {object} QnaResponse
// @Router   /qna [post]
func (h *QnaHandler) Create(c echo.Context) error {
	var req QnaRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	q, err := h.svc.Create(c.Request().Context(), me(c).ID, req.Title, req.Question)
	if err != nil {
		return fail(c, err, "문의 등록 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusCreated, toQnaResponse(q))
}

func (h *QnaHandler) ListMine(c echo.Context) error {
	qs, err := h.svc.ListMine(c.Request().Context(), me(c).ID)
	if err != nil {
		return fail(c, err, "문의 목록 조회 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, toQnaList(qs))
}

func (h *QnaHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "해당 문의를 찾을 수 없습니다."))
	}
	q, err := h.svc.Get(c.Request().Context(), id, viewer(c))
	if err != nil {
		return fail(c, err, "문의 조회 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, toQnaResponse(q))
}

func (h *QnaHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "해당 문의를 찾을 수 없습니다."))
	}
	if err := h.svc.Delete(c.Request().Context(), id, viewer(c)); err != nil {
		return fail(c, err, "문의 삭제 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}
