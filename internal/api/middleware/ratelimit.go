package middleware

import (
	"net/http"

	"bondmarket/pkg/ratelimit"
)

// RateLimit - middleware ограничения частоты запросов
//
// Token bucket на весь API: защита от залпового спама сабмишенами.
// Превышение лимита отвечает 429 без ожидания - клиент сам решает,
// когда повторить.
func RateLimit(limiter *ratelimit.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
