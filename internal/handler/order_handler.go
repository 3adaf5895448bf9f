package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/repository"
	"github.com/re-earth/re-earth-api/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type PlaceOrderRequest struct {
	Items []struct {
		ItemID uint64 `json:"itemId"`
		Count  int64  `json:"count"`
	} `json:"items"`
}

type OrderItemResponse struct {
	ID         uint64           `json:"id"`
	ItemID     uint64           `json:"itemId"`
	Count      int64            `json:"count"`
	OrderPrice int64            `json:"orderPrice"`
	Item       *OrderedItemInfo `json:"Item"`
}

type OrderedItemInfo struct {
	ID         uint64              `json:"id"`
	ItemNm     string              `json:"itemNm"`
	Price      int64               `json:"price"`
	ItemImages []ItemImageResponse `json:"ItemImages"`
}

type OrderResponse struct {
	ID          uint64              `json:"id"`
	OrderDate   string              `json:"orderDate"`
	TotalPrice  int64               `json:"totalPrice"`
	OrderStatus string              `json:"orderStatus"`
	PointID     uint64              `json:"pointId"`
	OrderItems  []OrderItemResponse `json:"OrderItems"`
}

type OrderListResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
	Total   int64           `json:"total"`
	Orders  []OrderResponse `json:"orders"`
}

func toOrderResponse(o *model.PointOrder) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		OrderDate:   o.OrderDate.Format(time.RFC3339),
		TotalPrice:  o.TotalPrice,
		OrderStatus: string(o.OrderStatus),
		PointID:     o.PointID,
		OrderItems:  make([]OrderItemResponse, 0, len(o.Items)),
	}
	for _, oi := range o.Items {
		r := OrderItemResponse{ID: oi.ID, ItemID: oi.ItemID, Count: oi.Count, OrderPrice: oi.OrderPrice}
		if oi.Item != nil {
			r.Item = &OrderedItemInfo{
				ID:         oi.Item.ID,
				ItemNm:     oi.Item.Name,
				Price:      oi.Item.Price,
				ItemImages: toItemImages(oi.Item.Images),
			}
		}
		resp.OrderItems = append(resp.OrderItems, r)
	}
	return resp
}

// Place godoc
// @Summary  Place a point order
// @Tags     pointOrder
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body PlaceOrderRequest true "lines"
// @Success  201 {object} map[string]interface{}
// @Failure  400 {object} ErrorResponse
// @Router   /pointOrder [post]
func (h *OrderHandler) Place(c echo.Context) error {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "잘못된 요청 형식입니다.")
	}
	lines := make([]repository.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, repository.OrderLine{ItemID: it.ItemID, Count: it.Count})
	}
	order, err := h.svc.Place(c.Request().Context(), me(c).ID, lines)
	if err != nil {
		return fail(c, err, "주문 처리 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "주문 생성 성공",
		"orderId": order.ID,
	})
}

// List godoc
// @Summary  List my orders
// @Tags     pointOrder
// @Produce  json
// @Security BearerAuth
// @Param    startDate query string false "YYYY-MM-DD"
// @Param    endDate query string false "YYYY-MM-DD"
// @Param    page query int false "page"
// @Param    size query int false "size (max 100)"
// @Success  200 {object} OrderListResponse
// @Router   /pointOrder/list [get]
func (h *OrderHandler) List(c echo.Context) error {
	page, err := h.svc.List(c.Request().Context(), me(c).ID, service.OrderListInput{
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
		Page:      queryInt(c, "page"),
		Size:      queryInt(c, "size"),
	})
	if err != nil {
		return fail(c, err, "주문내역을 불러오는 중 오류가 발생했습니다.")
	}
	resp := OrderListResponse{
		Success: true,
		Message: "주문 목록 조회 성공",
		Page:    page.Page,
		Size:    page.Size,
		Total:   page.Total,
		Orders:  make([]OrderResponse, 0, len(page.Orders)),
	}
	for i := range page.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&page.Orders[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "주문내역이 존재하지 않습니다."))
	}
	if err := h.svc.Cancel(c.Request().Context(), me(c).ID, id); err != nil {
		return fail(c, err, "주문 취소 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "주문이 성공적으로 취소되었습니다."})
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "주문내역이 존재하지 않습니다."))
	}
	if err := h.svc.Delete(c.Request().Context(), me(c).ID, id); err != nil {
		return fail(c, err, "주문 삭제 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "주문내역이 성공적으로 삭제되었습니다."})
}
