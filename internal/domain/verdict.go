package domain

import "strings"

// Verdict is the overall safety judgment for a product
type Verdict string

const (
	VerdictSafe    Verdict = "SAFE"
	VerdictUnsafe  Verdict = "UNSAFE"
	VerdictCaution Verdict = "CAUTION"
)

// RiskLevel grades how severe a verdict is
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// NoKeyIngredient is what the model answers when nothing is offending
const NoKeyIngredient = "None"

// VerdictRecord is the structured safety judgment parsed from a model reply
type VerdictRecord struct {
	Verdict       Verdict   `json:"verdict"`
	RiskLevel     RiskLevel `json:"risk_level"`
	KeyIngredient string    `json:"key_ingredient"`
	Explanation   string    `json:"explanation"`
}

// HasKeyIngredient reports whether KeyIngredient names a real offending ingredient.
func (r *VerdictRecord) HasKeyIngredient() bool {
	if r.Verdict == VerdictSafe {
		return false
	}
	key := strings.TrimSpace(r.KeyIngredient)
	return key != "" && key != NoKeyIngredient
}

// FallbackVerdict is shown when analysis could not complete. It is never SAFE.
func FallbackVerdict() *VerdictRecord {
	return &VerdictRecord{
		Verdict:       VerdictCaution,
		RiskLevel:     RiskLow,
		KeyIngredient: "Unknown",
		Explanation:   "Could not finish analysis. Please verify ingredients manually.",
	}
}

// ParseVerdict normalizes s to upper case and matches it against the known verdicts.
func ParseVerdict(s string) (Verdict, bool) {
	switch v := Verdict(strings.ToUpper(strings.TrimSpace(s))); v {
	case VerdictSafe, VerdictUnsafe, VerdictCaution:
		return v, true
	}
	return "", false
}

// ParseRiskLevel matches s case-insensitively and returns the canonical level.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	s = strings.TrimSpace(s)
	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		if strings.EqualFold(s, string(level)) {
			return level, true
		}
	}
	return "", false
}
