package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/logging"
	"github.com/re-earth/re-earth-api/internal/middleware"
	"github.com/re-earth/re-earth-api/internal/service"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message, Error: code}
}

// fail writes err in the common error shape. Unknown errors become a 500 with fallback as message.
func fail(c echo.Context, err error, fallback string) error {
	var se *service.Error
	if errors.As(err, &se) {
		return c.JSON(se.Status, NewErrorResponse(se.Code, se.Message))
	}
	logging.FromContext(c.Request().Context()).WithError(err).Error(fallback)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", fallback))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", msg))
}

func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(c echo.Context, name string) int {
	n, _ := strconv.Atoi(c.QueryParam(name))
	return n
}

func me(c echo.Context) *middleware.Identity {
	return middleware.CurrentUser(c)
}

func viewer(c echo.Context) service.Viewer {
	u := me(c)
	if u == nil {
		return service.Viewer{}
	}
	return service.Viewer{ID: u.ID, Admin: u.IsAdmin()}
}

func totalPages(total int64, size int) int64 {
	if size <= 0 {
		return 1
	}
	n := (total + int64(size) - 1) / int64(size)
	if n < 1 {
		return 1
	}
	return n
}

// ErrorHandler renders framework errors (unknown routes, bind failures, panics) in the common shape.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	code := "internal_error"
	msg := "서버 오류가 발생했습니다."

	var he *echo.HTTPError
	var se *service.Error
	switch {
	case errors.As(err, &se):
		status, code, msg = se.Status, se.Code, se.Message
	case errors.As(err, &he):
		status = he.Code
		code = http.StatusText(status)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
		if status == http.StatusNotFound {
			req := c.Request()
			code = "not_found"
			msg = fmt.Sprintf("%s %s 라우터가 없습니다.", req.Method, req.URL.Path)
		}
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).WithError(err).Error("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, NewErrorResponse(code, msg))
}
