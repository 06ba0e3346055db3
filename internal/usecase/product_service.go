package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/safescan/backend/internal/domain"
)

// ProductServiceConfig holds configuration for the product service
type ProductServiceConfig struct {
	CacheTTL time.Duration
}

// ProductService resolves a scanned barcode into a product name and ingredient text
type ProductService struct {
	cache    domain.CacheRepository
	products domain.ProductClient
	analyzer *SafetyAnalyzer
	cacheTTL time.Duration
}

// NewProductService creates a new product service with dependencies
func NewProductService(
	cache domain.CacheRepository,
	products domain.ProductClient,
	analyzer *SafetyAnalyzer,
	config ProductServiceConfig,
) *ProductService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ProductService{
		cache:    cache,
		products: products,
		analyzer: analyzer,
		cacheTTL: cacheTTL,
	}
}

// GetProduct returns the database record for barcode, from cache when possible.
func (s *ProductService) GetProduct(ctx context.Context, barcode string) (*domain.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if !domain.ValidBarcode(barcode) {
		return nil, domain.ErrInvalidBarcode
	}

	cacheKey := productCacheKey(barcode)
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	product, err := s.products.GetProduct(ctx, barcode)
	if err != nil {
		return nil, err
	}

	if err := s.setInCache(ctx, cacheKey, product); err != nil {
		log.Printf("[Products] Failed to cache product %s: %v", barcode, err)
	}

	return product, nil
}

// Scan looks up a barcode and works out where the wizard goes next.
// Flow: database -> ingredients from record -> model lookup when the record has none.
// When the product is missing or the database fails, the partial result is
// returned together with the error so callers can still route to manual entry.
func (s *ProductService) Scan(ctx context.Context, barcode string) (*domain.ScanResult, error) {
	barcode = strings.TrimSpace(barcode)
	if !domain.ValidBarcode(barcode) {
		return nil, domain.ErrInvalidBarcode
	}

	result := &domain.ScanResult{
		Barcode:  barcode,
		Source:   domain.SourceNone,
		NextStep: domain.StepScan,
	}

	product, err := s.GetProduct(ctx, barcode)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			advance(result, domain.EventProductNotFound)
			result.Warning = "Product not found - enter the product name manually"
		} else {
			log.Printf("[Products] Database lookup for %s failed: %v", barcode, err)
			advance(result, domain.EventLookupFailed)
			result.Warning = "Product database unavailable - enter the product name manually"
		}
		return result, err
	}

	result.Found = true
	result.Product = product
	result.ProductName = product.Name

	if product.Ingredients != "" {
		result.Ingredients = product.Ingredients
		result.Source = domain.SourceDatabase
		advance(result, domain.EventProductFound)
		return result, nil
	}

	if product.Name == domain.UnknownProductName {
		advance(result, domain.EventLookupFailed)
		result.Warning = "Product has no name or ingredients - enter them manually"
		return result, nil
	}

	lookup, err := s.analyzer.LookupIngredients(ctx, product.Name, "")
	if err != nil {
		log.Printf("[Products] Ingredient lookup for %q failed: %v", product.Name, err)
		advance(result, domain.EventLookupFailed)
		result.Warning = "Could not find ingredients - enter them manually"
		return result, nil
	}

	if lookup.Found {
		result.Ingredients = lookup.Ingredients
		result.Source = domain.SourceAI
	} else {
		result.Warning = "Ingredients unknown - please type them in"
	}
	advance(result, domain.EventIngredientsResolved)
	return result, nil
}

// advance moves result.NextStep along event; transitions from StepScan used here are all defined
func advance(result *domain.ScanResult, event domain.Event) {
	next, err := domain.Transition(result.NextStep, event)
	if err != nil {
		log.Printf("[Products] %v", err)
		return
	}
	result.NextStep = next
}

// productCacheKey creates the cache key for a barcode.
// Format: "product:{barcode}"
func productCacheKey(barcode string) string {
	return "product:" + barcode
}

// getFromCache retrieves a product from cache
func (s *ProductService) getFromCache(ctx context.Context, key string) (*domain.Product, error) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &product, nil
}

// setInCache stores a product in cache
func (s *ProductService) setInCache(ctx context.Context, key string, product *domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
