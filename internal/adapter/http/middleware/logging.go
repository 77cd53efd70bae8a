package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/bookmarket/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// RequestLogger logs every request and records latency and error counts by
// route pattern. m may be nil.
func RequestLogger(log *logger.Logger, m *metrics.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)

			if m != nil {
				m.HTTPRequestLatency.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())
				if status >= http.StatusBadRequest {
					m.HTTPErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
				}
			}

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
				zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			}
			if uid := UserIDFromContext(r.Context()); uid != "" {
				fields = append(fields, zap.String("user_id", uid))
			}
			switch {
			case status >= http.StatusInternalServerError:
				log.Error("HTTP request failed", fields...)
			default:
				log.Debug("HTTP request", fields...)
			}
		})
	}
}
