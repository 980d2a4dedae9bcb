package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
)

// APIKeyAuth guards the inventory API with the X-API-Key header.
//
// With RequireAPIKey off every request passes and audit entries carry no key.
// With it on, a request must present one of cfg.APIKeys; an empty key list
// rejects everything. Accepted requests are tagged with the key's
// fingerprint so audit entries show which integration made a change.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				slog.Warn("auth: missing API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				deny(w, http.StatusUnauthorized, "AUTH_MISSING_KEY",
					"An API key is required for the inventory API.",
					"Send the key in the X-API-Key header.")
				return
			}

			if !isValidAPIKey(apiKey, cfg.APIKeys) {
				slog.Warn("auth: rejected API key",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"key", KeyFingerprint(apiKey),
				)
				deny(w, http.StatusForbidden, "AUTH_INVALID_KEY",
					"The API key is not recognized.",
					"Ask an administrator for a current key.")
				return
			}

			client := core.ClientFromContext(r.Context())
			client.APIKey = KeyFingerprint(apiKey)
			next.ServeHTTP(w, r.WithContext(core.WithClient(r.Context(), client)))
		})
	}
}

// KeyFingerprint is a short, stable label for an API key that is safe to
// log and store.
func KeyFingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}

// deny writes the same JSON error shape as the API handlers.
func deny(w http.ResponseWriter, status int, code, msg, action string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   msg,
		"message": msg,
		"action":  action,
		"code":    code,
	})
}

// isValidAPIKey reports whether key matches a configured key. All keys are
// compared in constant time.
func isValidAPIKey(key string, validKeys []string) bool {
	valid := 0
	for _, validKey := range validKeys {
		valid |= subtle.ConstantTimeCompare([]byte(key), []byte(validKey))
	}
	return valid == 1
}
