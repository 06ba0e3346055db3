package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/safescan/backend/internal/domain"
)

// notFoundToken is what the model answers when it does not know a product
const notFoundToken = "NOT_FOUND"

var (
	codeFenceRegex  = regexp.MustCompile("```(?:json|JSON)?")
	jsonObjectRegex = regexp.MustCompile(`(?s)\{.*\}`)
)

// SafetyAnalyzer builds ingredient and safety prompts, sends them through a
// resolver and parses the replies.
type SafetyAnalyzer struct {
	resolver domain.PromptResolver
}

// NewSafetyAnalyzer creates a safety analyzer on top of resolver
func NewSafetyAnalyzer(resolver domain.PromptResolver) *SafetyAnalyzer {
	return &SafetyAnalyzer{resolver: resolver}
}

// IngredientPrompt asks for a comma-separated ingredient list or NOT_FOUND
func IngredientPrompt(name, variant string) string {
	return fmt.Sprintf(`Return comma-separated ingredients for "%s". If unknown, return "%s".`,
		fullProductName(name, variant), notFoundToken)
}

// SafetyPrompt asks for a JSON verdict on ingredients for profile
func SafetyPrompt(profile domain.Profile, productName, ingredients string) string {
	tracesRule := `IGNORE "may contain" / "may contain traces" statements; judge only actual ingredients.`
	if profile.IsAllergy() {
		tracesRule = `Treat "may contain" / "may contain traces" statements as relevant, because the profile is an allergy.`
	}

	var b strings.Builder
	b.WriteString("Act as a strict clinical nutritionist.\n")
	fmt.Fprintf(&b, "User Profile: %s\n", profile)
	fmt.Fprintf(&b, "Product: %s\n", productName)
	fmt.Fprintf(&b, "Ingredients: %s\n\n", ingredients)
	b.WriteString("Task: Analyze strict safety.\n")
	fmt.Fprintf(&b, "1. %s\n", tracesRule)
	b.WriteString("2. If UNSAFE or CAUTION, identify the specific ingredient causing it.\n\n")
	b.WriteString("Respond with ONLY this JSON object and nothing else:\n")
	b.WriteString(`{
  "verdict": "SAFE" or "UNSAFE" or "CAUTION",
  "risk_level": "Low" or "Medium" or "High",
  "key_ingredient": "Name of the bad ingredient (or 'None' if safe)",
  "explanation": "One simple sentence explaining why."
}`)
	return b.String()
}

// LookupIngredients asks the model for a product's ingredients. A reply
// containing NOT_FOUND yields Found=false with no ingredient text.
func (a *SafetyAnalyzer) LookupIngredients(ctx context.Context, name, variant string) (*domain.IngredientLookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: product name is required", domain.ErrInvalidRequest)
	}

	fullName := fullProductName(name, variant)
	text, err := a.resolver.Resolve(ctx, IngredientPrompt(name, variant))
	if err != nil {
		return nil, err
	}

	if strings.Contains(text, notFoundToken) {
		log.Printf("[Analyzer] Model does not know ingredients for %q", fullName)
		return &domain.IngredientLookup{ProductName: fullName}, nil
	}

	return &domain.IngredientLookup{
		ProductName: fullName,
		Ingredients: strings.TrimSpace(text),
		Found:       true,
	}, nil
}

// JudgeSafety asks the model for a verdict. Resolver failures are returned
// as is; replies without a usable JSON object fail with parse_error.
func (a *SafetyAnalyzer) JudgeSafety(ctx context.Context, profile domain.Profile, productName, ingredients string) (*domain.VerdictRecord, error) {
	text, err := a.resolver.Resolve(ctx, SafetyPrompt(profile, productName, ingredients))
	if err != nil {
		return nil, err
	}
	return ParseVerdict(text)
}

// AnalyzeSafety is JudgeSafety with the fallback policy applied: it always
// returns a record, and on any failure that record is the CAUTION fallback
// together with the cause.
func (a *SafetyAnalyzer) AnalyzeSafety(ctx context.Context, profile domain.Profile, productName, ingredients string) (*domain.VerdictRecord, error) {
	record, err := a.JudgeSafety(ctx, profile, productName, ingredients)
	if err != nil {
		log.Printf("[Analyzer] Analysis for %q (%s) failed, using fallback verdict: %v", productName, profile, err)
		return domain.FallbackVerdict(), err
	}
	return record, nil
}

type rawVerdict struct {
	Verdict       *string `json:"verdict"`
	RiskLevel     *string `json:"risk_level"`
	KeyIngredient *string `json:"key_ingredient"`
	Explanation   *string `json:"explanation"`
}

// ParseVerdict extracts a VerdictRecord from model text, tolerating code
// fences and prose around the JSON object.
func ParseVerdict(text string) (*domain.VerdictRecord, error) {
	cleaned := strings.TrimSpace(codeFenceRegex.ReplaceAllString(text, ""))

	span := jsonObjectRegex.FindString(cleaned)
	if span == "" {
		return nil, parseError("no JSON object in model response")
	}

	var raw rawVerdict
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, parseError(fmt.Sprintf("invalid JSON in model response: %v", err))
	}

	if raw.Verdict == nil || raw.RiskLevel == nil || raw.Explanation == nil {
		return nil, parseError("model response is missing verdict, risk_level or explanation")
	}

	verdict, ok := domain.ParseVerdict(*raw.Verdict)
	if !ok {
		return nil, parseError(fmt.Sprintf("unknown verdict %q", *raw.Verdict))
	}

	riskLevel, ok := domain.ParseRiskLevel(*raw.RiskLevel)
	if !ok {
		return nil, parseError(fmt.Sprintf("unknown risk level %q", *raw.RiskLevel))
	}

	keyIngredient := domain.NoKeyIngredient
	if raw.KeyIngredient != nil && strings.TrimSpace(*raw.KeyIngredient) != "" {
		keyIngredient = strings.TrimSpace(*raw.KeyIngredient)
	}

	return &domain.VerdictRecord{
		Verdict:       verdict,
		RiskLevel:     riskLevel,
		KeyIngredient: keyIngredient,
		Explanation:   strings.TrimSpace(*raw.Explanation),
	}, nil
}

func parseError(message string) error {
	return domain.NewResolutionError(domain.KindParseError, message)
}

func fullProductName(name, variant string) string {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if variant == "" {
		return name
	}
	return name + " " + variant
}
