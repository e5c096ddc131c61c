package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateID mints an id for a fresh anonymous session. 32 random
// bytes keeps ids unguessable alongside the ones the login service
// issues in the same collection.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
