package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/safescan/backend/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Open Food Facts instance
const DefaultBaseURL = "https://world.openfoodfacts.org"

const maxAttempts = 3

// Client handles communication with the Open Food Facts product API
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new Open Food Facts client.
// requestsPerMinute <= 0 falls back to the published limit of 100 product reads per minute.
func NewClient(baseURL string, timeout time.Duration, requestsPerMinute int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 100
	}

	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug enables or disables debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retrying after the given attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Open Food Facts asks every client to identify itself
	req.Header.Set("User-Agent", "SafeScan/1.0 (barcode safety checker)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProductAPIFailure, err)
	}

	return resp, nil
}

// GetProduct fetches the product record for a barcode
func (c *Client) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	if !domain.ValidBarcode(barcode) {
		return nil, domain.ErrInvalidBarcode
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, exponentialBackoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrProductAPIFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[OpenFoodFacts] Rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[OpenFoodFacts] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: reading body: %v", domain.ErrProductAPIFailure, err)
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}

		if resp.StatusCode != http.StatusOK {
			log.Printf("[OpenFoodFacts] API error (attempt %d) - Status: %d", attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrProductAPIFailure, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		if c.debug {
			log.Printf("[OpenFoodFacts] Response for %s: %s", barcode, string(body))
		}

		var productResp domain.OFFProductResponse
		if err := json.Unmarshal(body, &productResp); err != nil {
			log.Printf("[OpenFoodFacts] JSON decode error: %v", err)
			return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrProductAPIFailure, err)
		}

		if productResp.Status != 1 || productResp.Product == nil {
			log.Printf("[OpenFoodFacts] No product for barcode %s", barcode)
			return nil, domain.ErrProductNotFound
		}

		product := MapToProduct(barcode, productResp.Product)
		log.Printf("[OpenFoodFacts] Found %q for barcode %s (ingredients: %v)", product.Name, barcode, product.Ingredients != "")
		return product, nil
	}

	log.Printf("[OpenFoodFacts] All retries failed for barcode %s", barcode)
	return nil, lastErr
}

// retryable reports whether a non-200 status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
