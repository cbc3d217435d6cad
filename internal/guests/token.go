package guests

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns an unguessable bearer token for a personalized
// invitation link. Uniqueness is enforced by the storage constraint, not
// pre-checked.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b)[:43], nil
}
