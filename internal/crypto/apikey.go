package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// APIKeyPrefix marks every generated key so it can be recognised in logs and scanners.
	APIKeyPrefix = "kv_"

	apiKeyEntropyBytes = 32
	visiblePrefixChars = 8
	maskSuffix         = "••••••••"
)

// GenerateAPIKey returns a new random API key secret: "kv_" followed by
// 32 random bytes in unpadded base64url.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return APIKeyPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

// MaskAPIKey keeps the first few characters of a secret for identification and masks the rest.
func MaskAPIKey(secret string) string {
	if len(secret) <= visiblePrefixChars {
		return strings.Repeat("•", len(secret))
	}
	return secret[:visiblePrefixChars] + maskSuffix
}
