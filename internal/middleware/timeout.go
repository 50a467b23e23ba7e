package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds each request with a context deadline, so a hung upstream
// call (generation, search, persistence) fails the request and the client
// gets an error response instead of a dropped connection. Non-positive
// durations disable the deadline.
func Timeout(d time.Duration) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if d <= 0 {
				next(w, r)
				return
			}
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next(w, r.WithContext(ctx))
		}
	}
}
