package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/safescan/backend/internal/domain"
)

// DefaultBaseURL is the public Generative Language API host
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// maxErrorBody caps how much of a failed response body is read into the error message
const maxErrorBody = 64 << 10

// Client issues generateContent calls against the Gemini REST API.
// One call per GenerateContent; fallback across models is the caller's job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	debug      bool
}

// NewClient creates a new Gemini API client
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		// Per-call deadlines come from the context
		httpClient: &http.Client{},
		baseURL:    baseURL,
	}
}

// SetDebug enables logging of raw upstream bodies
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// GenerateContent sends prompt to model and returns the first candidate's text.
func (c *Client) GenerateContent(ctx context.Context, model, credential, prompt string) (string, error) {
	payload, err := json.Marshal(newGenerateRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	params := url.Values{}
	params.Add("key", credential)
	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SafeScan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(ctx, model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil && ctx.Err() != nil {
			return "", classifyTransportError(ctx, model, readErr)
		}
		if c.debug {
			log.Printf("[Gemini] %s returned status %d, body: %s", model, resp.StatusCode, string(body))
		}
		kind := domain.KindUpstreamUnavailable
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.KindUpstreamRateLimited
		}
		return "", &domain.ResolutionError{
			Kind:       kind,
			Candidate:  model,
			StatusCode: resp.StatusCode,
			Message:    ExtractErrorMessage(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(ctx, model, err)
	}
	if c.debug {
		log.Printf("[Gemini] %s response body: %s", model, string(body))
	}

	text := ExtractText(body)
	if text == "" {
		return "", &domain.ResolutionError{
			Kind:       domain.KindUpstreamEmptyResponse,
			Candidate:  model,
			StatusCode: resp.StatusCode,
			Message:    emptyReason(body),
		}
	}

	return text, nil
}

// classifyTransportError maps a failed round trip onto timeout or network_error
func classifyTransportError(ctx context.Context, model string, err error) error {
	kind := domain.KindNetworkError
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err) {
		kind = domain.KindTimeout
	}
	// url.Error carries the request URL, which includes the API key
	message := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		message = urlErr.Err.Error()
	}
	return &domain.ResolutionError{
		Kind:      kind,
		Candidate: model,
		Message:   message,
	}
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
