package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aurelia-labs/docq/internal/domain"
)

type staticValidator struct {
	owners map[string]string
}

func (v *staticValidator) Validate(token string) (string, error) {
	if ownerID, ok := v.owners[token]; ok {
		return ownerID, nil
	}
	return "", domain.ErrInvalidToken
}

func newAuthedHandler() (http.Handler, *string) {
	var seenOwner string
	validator := &staticValidator{owners: map[string]string{"good-token": "owner-1"}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOwner = GetOwnerID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return BearerAuth(validator)(next), &seenOwner
}

func TestBearerAuth_ValidToken(t *testing.T) {
	handler, seenOwner := newAuthedHandler()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner-1", *seenOwner)
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	handler, _ := newAuthedHandler()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing authorization header")
}

func TestBearerAuth_WrongScheme(t *testing.T) {
	handler, _ := newAuthedHandler()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid authorization format")
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	handler, _ := newAuthedHandler()

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid api token")
}

func TestGetOwnerID_Unset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", GetOwnerID(req.Context()))
}
