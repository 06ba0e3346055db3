package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/safescan/backend/internal/domain"
)

// DefaultPerRequestTimeout bounds a single candidate call
const DefaultPerRequestTimeout = 8 * time.Second

// ResolverConfig holds configuration for the request resolver
type ResolverConfig struct {
	Credential string
	Models     []string

	// PerRequestTimeout bounds each candidate call (DefaultPerRequestTimeout when zero).
	PerRequestTimeout time.Duration

	// TotalTimeout bounds a whole Resolve call across all candidates.
	// Zero leaves only the per-candidate bound.
	TotalTimeout time.Duration
}

// Resolver turns a prompt into text by trying model candidates in order.
// Each candidate gets exactly one call; the first non-empty text wins.
type Resolver struct {
	client            domain.CompletionClient
	credential        atomic.Pointer[string]
	candidates        atomic.Pointer[[]domain.Candidate]
	perRequestTimeout time.Duration
	totalTimeout      time.Duration
}

// NewResolver creates a resolver over client
func NewResolver(client domain.CompletionClient, config ResolverConfig) (*Resolver, error) {
	perRequest := config.PerRequestTimeout
	if perRequest <= 0 {
		perRequest = DefaultPerRequestTimeout
	}

	r := &Resolver{
		client:            client,
		perRequestTimeout: perRequest,
		totalTimeout:      config.TotalTimeout,
	}
	r.SetCredential(config.Credential)
	if err := r.SetCandidates(config.Models); err != nil {
		return nil, err
	}
	return r, nil
}

// SetCandidates replaces the fallback order. Calls already in flight keep
// the list they started with.
func (r *Resolver) SetCandidates(models []string) error {
	candidates := domain.CandidatesFromModels(models)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: at least one model candidate is required", domain.ErrInvalidRequest)
	}
	r.candidates.Store(&candidates)
	return nil
}

// SetCredential replaces the API credential used for subsequent calls
func (r *Resolver) SetCredential(credential string) {
	credential = strings.TrimSpace(credential)
	r.credential.Store(&credential)
}

// Candidates returns the current fallback order
func (r *Resolver) Candidates() []domain.Candidate {
	candidates := *r.candidates.Load()
	out := make([]domain.Candidate, len(candidates))
	copy(out, candidates)
	return out
}

// Resolve returns the first non-empty text produced by a candidate, or the
// last candidate's failure as a *domain.ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (string, error) {
	credential := *r.credential.Load()
	if credential == "" {
		log.Printf("[Resolver] No model credential configured, skipping upstream call")
		return "", domain.NewResolutionError(domain.KindConfigurationMissing, "model API key is not configured")
	}

	candidates := *r.candidates.Load()

	if r.totalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.totalTimeout)
		defer cancel()
	}

	var lastErr *domain.ResolutionError
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			log.Printf("[Resolver] Stopping before candidate %d/%d (%s): %v", i+1, len(candidates), candidate.Model, err)
			if lastErr == nil {
				lastErr = contextFailure(err)
			}
			break
		}

		text, err := r.attempt(ctx, candidate, credential, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		return "", domain.NewResolutionError(domain.KindConfigurationMissing, "no model candidates configured")
	}
	return "", lastErr
}

// attempt makes one call to candidate and records the outcome
func (r *Resolver) attempt(ctx context.Context, candidate domain.Candidate, credential, prompt string) (string, *domain.ResolutionError) {
	callCtx, cancel := context.WithTimeout(ctx, r.perRequestTimeout)
	defer cancel()

	start := time.Now()
	text, err := r.client.GenerateContent(callCtx, candidate.Model, credential, prompt)
	latency := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.NewResolutionError(domain.KindUpstreamEmptyResponse, "model returned no text")
	}

	if err != nil {
		resErr := classifyFailure(callCtx, candidate, err)
		log.Printf("[Resolver] candidate=%s kind=%s status=%d latency=%s: %s",
			candidate.Model, resErr.Kind, resErr.StatusCode, latency.Round(time.Millisecond), resErr.Message)
		return "", resErr
	}

	log.Printf("[Resolver] candidate=%s kind=success status=200 latency=%s", candidate.Model, latency.Round(time.Millisecond))
	return text, nil
}

// classifyFailure normalizes any client error into a ResolutionError for candidate
func classifyFailure(callCtx context.Context, candidate domain.Candidate, err error) *domain.ResolutionError {
	deadlineHit := errors.Is(callCtx.Err(), context.DeadlineExceeded)

	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) {
		classified := *resErr
		if classified.Candidate == "" {
			classified.Candidate = candidate.Model
		}
		if deadlineHit && classified.Kind == domain.KindNetworkError {
			classified.Kind = domain.KindTimeout
		}
		return &classified
	}

	kind := domain.KindNetworkError
	if deadlineHit || errors.Is(err, context.DeadlineExceeded) {
		kind = domain.KindTimeout
	}
	return &domain.ResolutionError{
		Kind:      kind,
		Candidate: candidate.Model,
		Message:   err.Error(),
	}
}

func contextFailure(err error) *domain.ResolutionError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewResolutionError(domain.KindTimeout, "request deadline exceeded before a model answered")
	}
	return domain.NewResolutionError(domain.KindNetworkError, "request cancelled before a model answered")
}
