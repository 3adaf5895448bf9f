package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitPerIP limits each client IP to perMinute requests with a small burst.
func RateLimitPerIP(perMinute float64) echo.MiddlewareFunc {
	if perMinute <= 0 {
		perMinute = 5
	}
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(perMinute / 60),
		Burst: burst,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return deny(c, http.StatusForbidden, "forbidden", "요청자를 식별할 수 없습니다.")
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return deny(c, http.StatusTooManyRequests, "too_many_requests", "요청이 너무 많습니다. 잠시 후 다시 시도하세요.")
		},
	})
}
