package domain

import "regexp"

var barcodePattern = regexp.MustCompile(`^\d{8,13}$`)

// ValidBarcode reports whether code looks like an EAN-8, UPC-A or EAN-13 barcode
func ValidBarcode(code string) bool {
	return barcodePattern.MatchString(code)
}

// UnknownProductName is used when the database has a record without a name
const UnknownProductName = "Unknown Product"

// Product is a product record from the food database, reduced to what safety analysis needs
type Product struct {
	Barcode     string   `json:"barcode"`
	Name        string   `json:"productName"`
	Brand       string   `json:"brand,omitempty"`
	Ingredients string   `json:"ingredients"`
	Allergens   []string `json:"allergens,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// OFFProductResponse is the Open Food Facts v0 product endpoint response
type OFFProductResponse struct {
	Code          string      `json:"code"`
	Status        int         `json:"status"`
	StatusVerbose string      `json:"status_verbose,omitempty"`
	Product       *OFFProduct `json:"product,omitempty"`
}

// OFFProduct holds the Open Food Facts product fields we read
type OFFProduct struct {
	ProductName                  string          `json:"product_name"`
	Brands                       string          `json:"brands,omitempty"`
	IngredientsText              string          `json:"ingredients_text,omitempty"`
	IngredientsTextEN            string          `json:"ingredients_text_en,omitempty"`
	IngredientsTextWithAllergens string          `json:"ingredients_text_with_allergens,omitempty"`
	IngredientsTextHI            string          `json:"ingredients_text_hi,omitempty"`
	IngredientsTextFR            string          `json:"ingredients_text_fr,omitempty"`
	Ingredients                  []OFFIngredient `json:"ingredients,omitempty"`
	AllergensTags                []string        `json:"allergens_tags,omitempty"`
	ImageFrontURL                string          `json:"image_front_url,omitempty"`
}

// OFFIngredient is a single parsed ingredient from Open Food Facts
type OFFIngredient struct {
	ID     string `json:"id,omitempty"`
	Text   string `json:"text,omitempty"`
	TextEN string `json:"text_en,omitempty"`
	Label  string `json:"label,omitempty"`
}

// IngredientSource says where a ScanResult's ingredient text came from
type IngredientSource string

const (
	SourceDatabase IngredientSource = "database"
	SourceAI       IngredientSource = "ai"
	SourceNone     IngredientSource = "none"
)

// ScanResult is the outcome of looking up a scanned barcode
type ScanResult struct {
	Barcode     string           `json:"barcode"`
	Found       bool             `json:"found"`
	ProductName string           `json:"productName,omitempty"`
	Ingredients string           `json:"ingredients"`
	Source      IngredientSource `json:"source"`
	Product     *Product         `json:"product,omitempty"`
	NextStep    Step             `json:"step"`
	Warning     string           `json:"warning,omitempty"`
}

// IngredientLookup is the outcome of asking the model for a product's ingredients
type IngredientLookup struct {
	ProductName string `json:"productName"`
	Ingredients string `json:"ingredients"`
	Found       bool   `json:"found"`
}
