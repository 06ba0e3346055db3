package openfoodfacts

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

func TestNewClient(t *testing.T) {
	client := NewClient("", 0, 0)

	assert.NotNil(t, client)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, 10*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestGetProduct_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/3017620422003.json", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "SafeScan")

		response := domain.OFFProductResponse{
			Code:   "3017620422003",
			Status: 1,
			Product: &domain.OFFProduct{
				ProductName:     "Nutella",
				Brands:          "Ferrero",
				IngredientsText: "Sugar, palm oil, hazelnuts 13%, skimmed milk powder 8.7%",
				AllergensTags:   []string{"en:milk", "en:nuts"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "3017620422003")

	require.NoError(t, err)
	assert.Equal(t, "3017620422003", product.Barcode)
	assert.Equal(t, "Nutella", product.Name)
	assert.Equal(t, "Ferrero", product.Brand)
	assert.Equal(t, "Sugar, palm oil, hazelnuts 13%, skimmed milk powder 8.7%", product.Ingredients)
	assert.Equal(t, []string{"milk", "nuts"}, product.Allergens)
}

func TestGetProduct_StatusZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"12345678","status":0,"status_verbose":"product not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "12345678")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_NotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "12345678")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetProduct_InvalidBarcode(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	_, err := client.GetProduct(context.Background(), "abc")

	assert.ErrorIs(t, err, domain.ErrInvalidBarcode)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.False(t, called)
}

func TestGetProduct_ServerError_Retries(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":1,"product":{"product_name":"Recovered"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "12345678")

	require.NoError(t, err)
	assert.Equal(t, "Recovered", product.Name)
	assert.Equal(t, 3, attempts)
}

func TestGetProduct_ClientError_NoRetry(t *testing.T) {
	attempts := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "12345678")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrProductAPIFailure)
	assert.Equal(t, 1, attempts)
}

func TestGetProduct_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, 600)
	product, err := client.GetProduct(context.Background(), "12345678")

	assert.Nil(t, product)
	assert.ErrorIs(t, err, domain.ErrProductAPIFailure)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestGetProduct_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, 600)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	product, err := client.GetProduct(ctx, "12345678")

	assert.Nil(t, product)
	assert.Error(t, err)
}
