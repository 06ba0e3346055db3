package openfoodfacts

import (
	"strings"

	"github.com/safescan/backend/internal/domain"
)

// MapToProduct converts an Open Food Facts record to our domain Product
func MapToProduct(barcode string, off *domain.OFFProduct) *domain.Product {
	name := strings.TrimSpace(off.ProductName)
	if name == "" {
		name = domain.UnknownProductName
	}

	return &domain.Product{
		Barcode:     barcode,
		Name:        name,
		Brand:       strings.TrimSpace(off.Brands),
		Ingredients: ExtractIngredients(off),
		Allergens:   cleanAllergenTags(off.AllergensTags),
		ImageURL:    off.ImageFrontURL,
	}
}

// ExtractIngredients returns the first non-blank ingredient text, trying the
// generic field, then language variants, then the parsed ingredient list.
func ExtractIngredients(off *domain.OFFProduct) string {
	for _, text := range []string{
		off.IngredientsText,
		off.IngredientsTextEN,
		off.IngredientsTextWithAllergens,
		off.IngredientsTextHI,
		off.IngredientsTextFR,
	} {
		if strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}

	names := make([]string, 0, len(off.Ingredients))
	for _, ingredient := range off.Ingredients {
		if name := ingredientName(ingredient); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func ingredientName(i domain.OFFIngredient) string {
	for _, s := range []string{i.Text, i.TextEN, i.ID, i.Label} {
		if s != "" {
			return s
		}
	}
	return ""
}

// cleanAllergenTags turns "en:peanuts" into "peanuts"
func cleanAllergenTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if idx := strings.Index(tag, ":"); idx >= 0 {
			tag = tag[idx+1:]
		}
		if tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
