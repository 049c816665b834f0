package middleware

import (
	"net/http"

	"bondmarket/pkg/crypto"
)

// APIKeyAuth - middleware аутентификации по API ключу
//
// Назначение:
// Защищает торговые endpoints от неавторизованного доступа. Клиент
// передает ключ в заголовке X-API-Key; сервер хранит только bcrypt
// хеш ключа (конфигурация Security.APIKeyHash).
//
// Если хеш не сконфигурирован, аутентификация выключена - локальное
// развертывание с одним пользователем работает без ключа.
func APIKeyAuth(apiKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKeyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, "Unauthorized: missing X-API-Key", http.StatusUnauthorized)
				return
			}

			if err := crypto.VerifyAPIKey(key, apiKeyHash); err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
