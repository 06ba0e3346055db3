package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/safescan/backend/internal/domain"
)

// IngredientAnalyzer is the model-backed part of the wizard
type IngredientAnalyzer interface {
	LookupIngredients(ctx context.Context, name, variant string) (*domain.IngredientLookup, error)
	AnalyzeSafety(ctx context.Context, profile domain.Profile, productName, ingredients string) (*domain.VerdictRecord, error)
}

// ProductScanner looks products up by barcode
type ProductScanner interface {
	GetProduct(ctx context.Context, barcode string) (*domain.Product, error)
	Scan(ctx context.Context, barcode string) (*domain.ScanResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	resolver domain.PromptResolver
	analyzer IngredientAnalyzer
	products ProductScanner
}

// NewHandler creates a new HTTP handler
func NewHandler(resolver domain.PromptResolver, analyzer IngredientAnalyzer, products ProductScanner) *Handler {
	return &Handler{
		resolver: resolver,
		analyzer: analyzer,
		products: products,
	}
}

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	Prompt string `json:"prompt"`
}

// IngredientLookupRequest is the body of POST /api/v1/ingredients/lookup
type IngredientLookupRequest struct {
	ProductName string `json:"productName"`
	Variant     string `json:"variant"`
}

// SafetyCheckRequest is the body of POST /api/v1/safety/check
type SafetyCheckRequest struct {
	Profile     string `json:"profile"`
	ProductName string `json:"productName"`
	Ingredients string `json:"ingredients"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "safescan-backend",
		"version": "1.0.0",
	})
}

// Analyze forwards a raw prompt to the model candidates and returns the text
func (h *Handler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	text, err := h.resolver.Resolve(c.Request.Context(), req.Prompt)
	if err != nil {
		respondResolutionError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": text})
}

// GetProductLegacy proxies a raw product database lookup: GET /api/product?code=
func (h *Handler) GetProductLegacy(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), code)
	if err != nil {
		respondProductError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProfiles returns the selectable dietary profiles
func (h *Handler) ListProfiles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"profiles": domain.KnownProfiles})
}

// ScanProduct resolves a barcode to a product and its ingredients
func (h *Handler) ScanProduct(c *gin.Context) {
	result, err := h.products.Scan(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		step := domain.StepScan
		if result != nil {
			step = result.NextStep
		}
		respondProductError(c, err, step)
		return
	}

	c.JSON(http.StatusOK, result)
}

// LookupIngredients asks the model for the ingredients of a named product
func (h *Handler) LookupIngredients(c *gin.Context) {
	var req IngredientLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ProductName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productName is required", "step": domain.StepManual})
		return
	}

	lookup, err := h.analyzer.LookupIngredients(c.Request.Context(), req.ProductName, req.Variant)
	if err != nil {
		step, _ := domain.Transition(domain.StepManual, domain.EventLookupFailed)
		respondResolutionError(c, err, step)
		return
	}

	// An unknown product still moves on to confirm with empty ingredients for the user to fill in
	step, _ := domain.Transition(domain.StepManual, domain.EventIngredientsResolved)

	c.JSON(http.StatusOK, gin.H{
		"productName": lookup.ProductName,
		"ingredients": lookup.Ingredients,
		"found":       lookup.Found,
		"step":        step,
	})
}

// CheckSafety judges an ingredient list against a profile.
// It always answers with a verdict; failures carry the cautious fallback and a warning.
func (h *Handler) CheckSafety(c *gin.Context) {
	var req SafetyCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "step": domain.StepConfirm})
		return
	}

	profile := domain.Profile(req.Profile).Normalize()
	if profile == "" || strings.TrimSpace(req.Ingredients) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile and ingredients are required", "step": domain.StepConfirm})
		return
	}

	step, _ := domain.Transition(domain.StepConfirm, domain.EventAnalysisCompleted)

	record, err := h.analyzer.AnalyzeSafety(c.Request.Context(), profile, req.ProductName, req.Ingredients)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"data":    record,
			"step":    step,
			"warning": "Analysis failed: " + failureMessage(err),
			"kind":    domain.KindOf(err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record, "step": step})
}

// NotFound answers unknown routes
func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

// MethodNotAllowed answers known routes called with the wrong method
func (h *Handler) MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
}

// statusForKind maps a resolution failure kind to the HTTP status returned to clients
func statusForKind(kind domain.FailureKind) int {
	switch kind {
	case domain.KindConfigurationMissing:
		return http.StatusServiceUnavailable
	case domain.KindUpstreamRateLimited:
		return http.StatusTooManyRequests
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindNetworkError, domain.KindUpstreamUnavailable, domain.KindUpstreamEmptyResponse, domain.KindParseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondResolutionError(c *gin.Context, err error, step domain.Step) {
	status := http.StatusBadRequest
	body := gin.H{"error": err.Error()}
	if !errors.Is(err, domain.ErrInvalidRequest) {
		kind := domain.KindOf(err)
		status = statusForKind(kind)
		body = gin.H{"error": failureMessage(err), "kind": kind}
	}
	if step != "" {
		body["step"] = step
	}
	c.JSON(status, body)
}

func respondProductError(c *gin.Context, err error, step domain.Step) {
	body := gin.H{"error": err.Error()}
	if step != "" {
		body["step"] = step
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, body)
	default:
		c.JSON(http.StatusBadGateway, body)
	}
}

// failureMessage gives the upstream message of a resolution failure without the kind prefix
func failureMessage(err error) string {
	var resErr *domain.ResolutionError
	if errors.As(err, &resErr) && resErr.Message != "" {
		return resErr.Message
	}
	return err.Error()
}
