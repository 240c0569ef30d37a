// Package requesttime pins a single "now" per HTTP request so every timestamp
// written by one approval (approvedAt, processedAt, updatedAt) is identical.
package requesttime

import (
	"net/http"
	"time"

	"escena/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
