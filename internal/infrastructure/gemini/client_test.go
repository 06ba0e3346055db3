package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/safescan/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content": map[string]interface{}{
					"parts": []interface{}{map[string]interface{}{"text": text}},
				},
			},
		},
	}
}

func requireResolutionError(t *testing.T, err error) *domain.ResolutionError {
	t.Helper()
	require.Error(t, err)
	resErr, ok := err.(*domain.ResolutionError)
	require.True(t, ok, "expected *domain.ResolutionError, got %T", err)
	return resErr
}

func TestNewClient(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.False(t, client.debug)

	client = NewClient("http://localhost:9999")
	assert.Equal(t, "http://localhost:9999", client.baseURL)

	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestGenerateContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash-lite:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Equal(t, "list ingredients", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(textResponse("sugar, cocoa"))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.GenerateContent(context.Background(), "gemini-2.5-flash-lite", "secret", "list ingredients")

	require.NoError(t, err)
	assert.Equal(t, "sugar, cocoa", text)
}

func TestGenerateContent_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GenerateContent(context.Background(), "m1", "secret", "p")

	resErr := requireResolutionError(t, err)
	assert.Equal(t, domain.KindUpstreamRateLimited, resErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, resErr.StatusCode)
	assert.Equal(t, "Resource has been exhausted", resErr.Message)
	assert.Equal(t, "m1", resErr.Candidate)
	assert.ErrorIs(t, err, domain.ErrUpstreamRateLimited)
}

func TestGenerateContent_UpstreamErrorMessage(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "json error body",
			status:      http.StatusBadRequest,
			body:        `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`,
			wantMessage: "API key not valid. Please pass a valid API key.",
		},
		{
			name:        "raw text body",
			status:      http.StatusServiceUnavailable,
			body:        "upstream connect error",
			wantMessage: "upstream connect error",
		},
		{
			name:        "json without error message",
			status:      http.StatusInternalServerError,
			body:        `{"detail":"boom"}`,
			wantMessage: `{"detail":"boom"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.GenerateContent(context.Background(), "m1", "secret", "p")

			resErr := requireResolutionError(t, err)
			assert.Equal(t, domain.KindUpstreamUnavailable, resErr.Kind)
			assert.Equal(t, tt.status, resErr.StatusCode)
			assert.Equal(t, tt.wantMessage, resErr.Message)
		})
	}
}

func TestGenerateContent_EmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"no parts", `{"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`},
		{"blank text", `{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`},
		{"not json", `<html>ok</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.GenerateContent(context.Background(), "m1", "secret", "p")

			resErr := requireResolutionError(t, err)
			assert.Equal(t, domain.KindUpstreamEmptyResponse, resErr.Kind)
			assert.NotEmpty(t, resErr.Message)
		})
	}
}

func TestGenerateContent_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateContent(ctx, "m1", "secret", "p")

	resErr := requireResolutionError(t, err)
	assert.Equal(t, domain.KindTimeout, resErr.Kind)
}

func TestGenerateContent_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url)
	_, err := client.GenerateContent(context.Background(), "m1", "super-secret-key", "p")

	resErr := requireResolutionError(t, err)
	assert.Equal(t, domain.KindNetworkError, resErr.Kind)
	assert.NotContains(t, resErr.Message, "super-secret-key")
}

func TestExtractText(t *testing.T) {
	body, _ := json.Marshal(textResponse("hello"))
	assert.Equal(t, "hello", ExtractText(body))
	assert.Equal(t, "", ExtractText([]byte(`{}`)))
	assert.Equal(t, "", ExtractText([]byte(`nope`)))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", ExtractErrorMessage([]byte(`{"error":{"message":"bad"}}`)))
	assert.Equal(t, "plain", ExtractErrorMessage([]byte("plain")))
}
