package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurelia-labs/docq/internal/domain"
)

func TestStaticTokenValidator_Validate(t *testing.T) {
	v := NewStaticTokenValidator(map[string]string{
		"tok-alpha": "owner-a",
		"tok-beta":  "owner-b",
	})

	ownerID, err := v.Validate("tok-alpha")
	require.NoError(t, err)
	assert.Equal(t, "owner-a", ownerID)

	ownerID, err = v.Validate("tok-beta")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", ownerID)
}

func TestStaticTokenValidator_InvalidToken(t *testing.T) {
	v := NewStaticTokenValidator(map[string]string{"tok-alpha": "owner-a"})

	ownerID, err := v.Validate("tok-unknown")

	assert.Empty(t, ownerID)
	assert.Equal(t, domain.ErrInvalidToken, err)
}

func TestStaticTokenValidator_EmptyToken(t *testing.T) {
	v := NewStaticTokenValidator(map[string]string{"tok-alpha": "owner-a"})

	_, err := v.Validate("")
	assert.Equal(t, domain.ErrInvalidToken, err)

	_, err = v.Validate("   ")
	assert.Equal(t, domain.ErrInvalidToken, err)
}

func TestStaticTokenValidator_SkipsBlankEntries(t *testing.T) {
	v := NewStaticTokenValidator(map[string]string{
		"":        "owner-a",
		"tok-ok":  "owner-b",
		"tok-bad": "",
	})

	_, err := v.Validate("tok-bad")
	assert.Equal(t, domain.ErrInvalidToken, err)

	ownerID, err := v.Validate("tok-ok")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", ownerID)
}
