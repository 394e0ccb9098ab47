package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/aurelia-labs/docq/internal/domain"
)

// TokenValidator maps a bearer token to an owner id.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// StaticTokenValidator validates bearer tokens against a fixed set loaded
// from configuration. Tokens are compared by digest so lookup time does not
// depend on the token contents.
type StaticTokenValidator struct {
	owners map[[sha256.Size]byte]string
}

// NewStaticTokenValidator builds a validator from token to owner-id pairs.
func NewStaticTokenValidator(tokens map[string]string) *StaticTokenValidator {
	owners := make(map[[sha256.Size]byte]string, len(tokens))
	for token, ownerID := range tokens {
		token = strings.TrimSpace(token)
		if token == "" || ownerID == "" {
			continue
		}
		owners[sha256.Sum256([]byte(token))] = ownerID
	}
	return &StaticTokenValidator{owners: owners}
}

// Validate returns the owner id for a token, or an unauthorized error.
func (v *StaticTokenValidator) Validate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	digest := sha256.Sum256([]byte(token))
	for stored, ownerID := range v.owners {
		if subtle.ConstantTimeCompare(stored[:], digest[:]) == 1 {
			return ownerID, nil
		}
	}
	return "", domain.ErrInvalidToken
}
