package handler

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/model"
	"github.com/re-earth/re-earth-api/internal/service"
)

type ItemHandler struct {
	svc service.ItemService
}

func NewItemHandler(svc service.ItemService) *ItemHandler {
	return &ItemHandler{svc: svc}
}

type ItemImageResponse struct {
	ID         uint64 `json:"id"`
	OriImgName string `json:"oriImgName"`
	ImgURL     string `json:"imgUrl"`
	RepImgYn   string `json:"repImgYn"`
}

type ItemResponse struct {
	ID             uint64              `json:"id"`
	ItemNm         string              `json:"itemNm"`
	Price          int64               `json:"price"`
	ItemDetail     string              `json:"itemDetail"`
	ItemSellStatus string              `json:"itemSellStatus"`
	StockNumber    int64               `json:"stockNumber"`
	ItemSummary    string              `json:"itemSummary"`
	BrandName      string              `json:"brandName"`
	VendorName     string              `json:"vendorName"`
	ItemImages     []ItemImageResponse `json:"ItemImages"`
	CreatedAt      string              `json:"createdAt"`
	UpdatedAt      string              `json:"updatedAt"`
}

func toItemImages(images []model.ItemImage) []ItemImageResponse {
	out := make([]ItemImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, ItemImageResponse{ID: img.ID, OriImgName: img.OriginalName, ImgURL: img.ImgURL, RepImgYn: img.RepImgYn})
	}
	return out
}

func toItemResponse(item *model.Item) ItemResponse {
	return ItemResponse{
		ID:             item.ID,
		ItemNm:         item.Name,
		Price:          item.Price,
		ItemDetail:     item.Detail,
		ItemSellStatus: string(item.SellStatus),
		StockNumber:    item.StockNumber,
		ItemSummary:    item.Summary,
		BrandName:      item.BrandName,
		VendorName:     item.VendorName,
		ItemImages:     toItemImages(item.Images),
		CreatedAt:      item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.Format(time.RFC3339),
	}
}

// itemForm reads the multipart fields and the "img" files.
func itemForm(c echo.Context) (service.ItemInput, []*multipart.FileHeader, error) {
	price, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("price")), 10, 64)
	if err != nil {
		return service.ItemInput{}, nil, err
	}
	stock, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("stockNumber")), 10, 64)
	if err != nil {
		return service.ItemInput{}, nil, err
	}
	in := service.ItemInput{
		Name:        c.FormValue("itemNm"),
		Price:       price,
		Detail:      c.FormValue("itemDetail"),
		SellStatus:  strings.ToUpper(strings.TrimSpace(c.FormValue("itemSellStatus"))),
		StockNumber: stock,
		Summary:     c.FormValue("itemSummary"),
		BrandName:   c.FormValue("brandName"),
		VendorName:  c.FormValue("vendorName"),
	}
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["img"]
	}
	return in, files, nil
}

// Create godoc
// @Summary  Register an item (admin)
// @Tags     item
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    itemNm formData string true "name"
// @Param    price formData int true "price in points"
// @Param    stockNumber formData int true "stock"
// @Param    img formData file false "images, first is representative"
// @Success  201 {object} map[string]interface{}
// @Router   /item [post]
func (h *ItemHandler) Create(c echo.Context) error {
	in, files, err := itemForm(c)
	if err != nil {
		return badRequest(c, "price 와 stockNumber 는 숫자여야 합니다.")
	}
	item, err := h.svc.Create(c.Request().Context(), in, files)
	if err != nil {
		return fail(c, err, "상품 등록 중 오류가 발생했습니다.")
	}
	resp := toItemResponse(item)
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "상품이 성공적으로 등록되었습니다.",
		"item":    resp,
		"images":  resp.ItemImages,
	})
}

// List godoc
// @Summary  List items
// @Tags     item
// @Produce  json
// @Security BearerAuth
// @Param    sellCategory query string false "SELL or SOLD_OUT"
// @Success  200 {object} map[string]interface{}
// @Router   /item [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("sellCategory"))
	if err != nil {
		return fail(c, err, "전체 상품리스트 불러오는 중 오류가 발생")
	}
	resp := make([]ItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toItemResponse(&items[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "상품 목록 조회 성공", "items": resp})
}

func (h *ItemHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "해당 상품을 찾을 수 없습니다"))
	}
	item, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err, "상품을 불러오는 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "상품 조회 성공", "item": toItemResponse(item)})
}

func (h *ItemHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "해당상품을 찾을 수 없습니다."))
	}
	in, files, err := itemForm(c)
	if err != nil {
		return badRequest(c, "price 와 stockNumber 는 숫자여야 합니다.")
	}
	item, err := h.svc.Update(c.Request().Context(), id, in, files)
	if err != nil {
		return fail(c, err, "상품 수정 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "상품이 성공적으로 수정되었습니다.",
		"item":    toItemResponse(item),
	})
}

func (h *ItemHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "해당 상품을 찾을 수 없습니다"))
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err, "상품 삭제 중 오류가 발생했습니다.")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "message": "상품이 삭제되었습니다."})
}
