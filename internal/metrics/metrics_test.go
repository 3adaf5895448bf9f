package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(pointsPosted.WithLabelValues("SPEND_ORDER"))
	RecordPoints("SPEND_ORDER", -300)
	assert.Equal(t, before+300, testutil.ToFloat64(pointsPosted.WithLabelValues("SPEND_ORDER")))

	beforeOrder := testutil.ToFloat64(ordersPlaced.WithLabelValues("ok"))
	RecordOrder("ok")
	assert.Equal(t, beforeOrder+1, testutil.ToFloat64(ordersPlaced.WithLabelValues("ok")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	e := echo.New()
	e.Use(Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", echo.WrapHandler(Handler()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `reearth_http_requests_total{method="GET",path="/ping",status="200"}`))
}
