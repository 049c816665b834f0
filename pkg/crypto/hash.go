package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// hash.go - хеширование API ключей
//
// Назначение:
// Сервер никогда не хранит API ключ в открытом виде - только bcrypt
// хеш в конфигурации. Middleware аутентификации сверяет предъявленный
// ключ с хешем.

// Ошибки хеширования
var (
	ErrEmptyKey    = errors.New("api key cannot be empty")
	ErrKeyMismatch = errors.New("api key does not match hash")
	ErrKeyTooLong  = errors.New("api key exceeds maximum length of 72 bytes")
)

// DefaultCost - стоимость хеширования по умолчанию
const DefaultCost = 12

// MaxKeyLength - максимальная длина ключа для bcrypt (72 байта)
const MaxKeyLength = 72

// HashAPIKey хеширует API ключ с использованием bcrypt
//
// Автоматически генерирует криптографически стойкий salt. Результат
// кладется в переменную окружения API_KEY_HASH.
func HashAPIKey(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	// bcrypt ограничен 72 байтами
	if len(key) > MaxKeyLength {
		return "", ErrKeyTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyAPIKey сверяет предъявленный ключ с bcrypt хешем
//
// Возвращает nil при совпадении, ErrKeyMismatch при несовпадении.
func VerifyAPIKey(key, hash string) error {
	if key == "" {
		return ErrEmptyKey
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrKeyMismatch
		}
		return err
	}

	return nil
}
