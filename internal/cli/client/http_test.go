package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_SendsBearerToken(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{"id": "doc-1"}})
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("tok-a", srv.URL)

	resp, err := api.Get("/documents/doc-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-a", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"id":"doc-1"}`, string(resp.Data))
}

func TestAPIClient_PostMarshalsBody(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]string{}})
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("tok-a", srv.URL)

	_, err := api.Post("/documents", map[string]string{"title": "notes"})
	require.NoError(t, err)
	assert.Equal(t, "notes", gotBody["title"])
}

func TestAPIClient_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "document not found", "code": "NOT_FOUND"})
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("tok-a", srv.URL)

	_, err := api.Get("/documents/missing")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "document not found", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "NOT_FOUND")
}

func TestAPIClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("tok-a", srv.URL)

	_, err := api.Get("/documents")
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestAPIClient_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	api := NewAPIClientWithConfig("tok-a", srv.URL)

	resp, err := api.Delete("/documents/doc-1")
	require.NoError(t, err)
	assert.Empty(t, resp.Data)
}

func TestNewAPIClientWithCmd_MissingToken(t *testing.T) {
	t.Setenv(envAPIToken, "")
	t.Setenv(envAPIURL, "")

	_, err := NewAPIClientWithCmd(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), envAPIToken)
}

func TestNewAPIClientWithCmd_EnvFallback(t *testing.T) {
	t.Setenv(envAPIToken, "tok-env")
	t.Setenv(envAPIURL, "http://example.test:9999")

	api, err := NewAPIClientWithCmd(nil)
	require.NoError(t, err)
	assert.Equal(t, "tok-env", api.token)
	assert.Equal(t, "http://example.test:9999", api.baseURL)
}
