package domain

import "strings"

// Profile is a user-selected dietary profile such as "Vegan" or "Peanut Allergy"
type Profile string

// ProfileInfo describes a selectable profile
type ProfileInfo struct {
	Value       Profile `json:"value"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// KnownProfiles are the profiles offered on the profile step
var KnownProfiles = []ProfileInfo{
	{Value: "Diabetic", Label: "Diabetic", Description: "Blood sugar monitoring"},
	{Value: "Vegan", Label: "Vegan", Description: "Plant-based diet"},
	{Value: "Peanut Allergy", Label: "Peanut Allergy", Description: "Severe allergen"},
	{Value: "Gluten Free", Label: "Gluten Free", Description: "Celiac safe"},
	{Value: "Lactose Intolerant", Label: "Lactose Intolerant", Description: "Dairy restriction"},
}

// IsAllergy reports whether trace warnings ("may contain") matter for this profile.
func (p Profile) IsAllergy() bool {
	lower := strings.ToLower(string(p))
	return strings.Contains(lower, "allergy") || strings.Contains(lower, "allergic")
}

// Normalize trims p and maps it onto the canonical spelling of a known profile.
// Unknown profiles are returned trimmed but otherwise unchanged.
func (p Profile) Normalize() Profile {
	trimmed := strings.TrimSpace(string(p))
	for _, known := range KnownProfiles {
		if strings.EqualFold(trimmed, string(known.Value)) {
			return known.Value
		}
	}
	return Profile(trimmed)
}
