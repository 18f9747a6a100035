package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/safetradehq/safetrade-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID tags every request with a correlation id and echoes it back in
// the response header, so a client can quote the id when reporting a
// failed transition.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := correlationID(r)
			w.Header().Set(requestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// correlationID takes the caller's X-Request-Id when it is a well-formed
// uuid and mints a fresh one otherwise. Arbitrary caller strings would end
// up quoted in log queries, so they are not trusted.
func correlationID(r *http.Request) string {
	supplied := r.Header.Get(requestIDHeader)
	if _, err := uuid.Parse(supplied); err == nil {
		return supplied
	}
	return uuid.NewString()
}
