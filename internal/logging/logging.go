// Package logging configures logrus and the per-request access log.
package logging

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/re-earth/re-earth-api/internal/reqctx"
	"github.com/sirupsen/logrus"
)

// Setup applies level and formatter to the standard logrus logger.
func Setup(level string, production bool) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stdout)
	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// FromContext returns an entry tagged with the request id and user id carried by ctx.
func FromContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if rid := reqctx.RID(ctx); rid != "" {
		fields["rid"] = rid
	}
	if uid := reqctx.UserID(ctx); uid != 0 {
		fields["uid"] = uid
	}
	return logrus.WithFields(fields)
}

// RequestLogger assigns a request id and writes one access log line per request.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)
			c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			entry := FromContext(c.Request().Context()).WithFields(logrus.Fields{
				"method":  req.Method,
				"uri":     req.RequestURI,
				"status":  c.Response().Status,
				"latency": time.Since(start).String(),
				"ip":      c.RealIP(),
			})
			switch status := c.Response().Status; {
			case status >= 500:
				entry.Error("request")
			case status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
			return nil
		}
	}
}
