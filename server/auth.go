package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for API key hashes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 2
	argonKeyLen  = 32
	argonSaltLen = 16
)

// hashArgon returns $argon2id$v=19$m=...,t=...,p=...$<salt_b64>$<hash_b64>.
func hashArgon(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// verifyArgonHash checks secret against an encoded argon2id hash.
func verifyArgonHash(secret, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) < 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("bad encoded hash format")
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("bad hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	derived := argon2.IDKey([]byte(secret), salt, time, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

type apiKeyIndexKey struct{}

// apiKeyAuth checks requests against configured key hashes. With no hashes
// configured and RequireAPIKey unset, every request passes.
type apiKeyAuth struct {
	hashes  []string
	require bool
}

func newAPIKeyAuth(cfg SecurityConfig) *apiKeyAuth {
	return &apiKeyAuth{hashes: cfg.APIKeyHashes, require: cfg.RequireAPIKey}
}

func (a *apiKeyAuth) enabled() bool {
	return a.require || len(a.hashes) > 0
}

// requestKey reads "Authorization: Bearer <key>" or "X-API-Key".
func requestKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		const prefix = "bearer "
		if len(h) > len(prefix) && strings.ToLower(h[:len(prefix)]) == prefix {
			return strings.TrimSpace(h[len(prefix):])
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// verify returns the index of the matching hash, or -1.
func (a *apiKeyAuth) verify(key string) int {
	if key == "" {
		return -1
	}
	for i, h := range a.hashes {
		ok, err := verifyArgonHash(key, h)
		if err != nil {
			logWarn("Skipping malformed API key hash", "index", i, "error", err)
			continue
		}
		if ok {
			return i
		}
	}
	return -1
}

// Middleware wraps handlers requiring authentication.
func (a *apiKeyAuth) Middleware(next http.HandlerFunc) http.HandlerFunc {
	if !a.enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		idx := a.verify(requestKey(r))
		if idx < 0 {
			logDebug("Rejected API request", "path", r.URL.Path, "remote", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="printfleet"`)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing API key"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), apiKeyIndexKey{}, idx)))
	}
}

// Actor labels history entries made through the API. Keys are identified by
// their position in the config so secrets never reach the database.
func (a *apiKeyAuth) Actor(r *http.Request) string {
	if idx, ok := r.Context().Value(apiKeyIndexKey{}).(int); ok {
		return fmt.Sprintf("api-key-%d", idx+1)
	}
	return "api"
}
