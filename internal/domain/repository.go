package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ProductClient defines the interface for the barcode product database
type ProductClient interface {
	GetProduct(ctx context.Context, barcode string) (*Product, error)
}

// PromptResolver turns a prompt into model text
type PromptResolver interface {
	Resolve(ctx context.Context, prompt string) (string, error)
}

// CompletionClient issues a single text-completion request against one model.
// Failures are returned as *ResolutionError.
type CompletionClient interface {
	GenerateContent(ctx context.Context, model, credential, prompt string) (string, error)
}
