package mapping

import (
	"strings"
	"testing"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// validValues returns a resolved value set that satisfies every Required
// attribute of the catalog
func validValues() map[string]any {
	return map[string]any{
		feedspec.AttrID:          "ext-1",
		feedspec.AttrTitle:       "Linen Shirt",
		feedspec.AttrDescription: "A soft linen shirt.",
		feedspec.AttrLink:        "https://shop.example.com/p/1",
		"image_link":             "https://cdn.example.com/1.jpg",
		"condition":              "new",
		"availability":           "in_stock",
		feedspec.AttrPrice:       "19.99 USD",
		"brand":                  "Acme",
		"external_seller_id":     "seller-1",
	}
}

func resolvedForTest(values map[string]any) *ResolvedRecord {
	return &ResolvedRecord{
		RecordID:   uuid.New(),
		TenantID:   uuid.New(),
		ExternalID: "ext-1",
		Values:     values,
	}
}

func errorCodes(errs []FieldError) map[string]FieldErrorCode {
	out := make(map[string]FieldErrorCode, len(errs))
	for _, e := range errs {
		out[e.AttributeID] = e.Code
	}
	return out
}

func TestValidateAcceptsCompleteRecord(t *testing.T) {
	v := NewValidator(DefaultLimits())
	rec := resolvedForTest(validValues())

	v.Validate(rec)

	assert.True(t, rec.Valid)
	assert.Empty(t, rec.Errors)
}

func TestValidateMissingRequiredField(t *testing.T) {
	v := NewValidator(DefaultLimits())
	values := validValues()
	delete(values, "brand")
	rec := resolvedForTest(values)

	v.Validate(rec)

	assert.False(t, rec.Valid)
	assert.Equal(t, ErrCodeMissingRequired, errorCodes(rec.Errors)["brand"])
}

func TestValidateTitleLengthBoundary(t *testing.T) {
	v := NewValidator(DefaultLimits())

	// Exactly 150 characters is within bounds
	values := validValues()
	values[feedspec.AttrTitle] = strings.Repeat("a", 150)
	rec := resolvedForTest(values)
	v.Validate(rec)
	assert.True(t, rec.Valid)

	// 151 characters fails
	values = validValues()
	values[feedspec.AttrTitle] = strings.Repeat("a", 151)
	rec = resolvedForTest(values)
	v.Validate(rec)
	assert.False(t, rec.Valid)
	assert.Equal(t, ErrCodeTooLong, errorCodes(rec.Errors)[feedspec.AttrTitle])
}

func TestValidateDescriptionLength(t *testing.T) {
	v := NewValidator(DefaultLimits())
	values := validValues()
	values[feedspec.AttrDescription] = strings.Repeat("d", 5001)
	rec := resolvedForTest(values)

	v.Validate(rec)

	assert.False(t, rec.Valid)
	assert.Equal(t, ErrCodeTooLong, errorCodes(rec.Errors)[feedspec.AttrDescription])
}

func TestValidateCheckoutConditional(t *testing.T) {
	v := NewValidator(DefaultLimits())

	// Checkout enabled without seller policy pages fails
	values := validValues()
	values[feedspec.AttrCheckoutEnabled] = true
	rec := resolvedForTest(values)
	v.Validate(rec)
	assert.False(t, rec.Valid)
	codes := errorCodes(rec.Errors)
	assert.Equal(t, ErrCodeMissingConditional, codes[feedspec.AttrSellerPrivacyPolicy])
	assert.Equal(t, ErrCodeMissingConditional, codes[feedspec.AttrSellerTOS])

	// The same record with checkout disabled passes
	values = validValues()
	values[feedspec.AttrCheckoutEnabled] = false
	rec = resolvedForTest(values)
	v.Validate(rec)
	assert.True(t, rec.Valid)

	// Checkout enabled with both pages present passes
	values = validValues()
	values[feedspec.AttrCheckoutEnabled] = true
	values[feedspec.AttrSellerPrivacyPolicy] = "https://shop.example.com/privacy"
	values[feedspec.AttrSellerTOS] = "https://shop.example.com/terms"
	rec = resolvedForTest(values)
	v.Validate(rec)
	assert.True(t, rec.Valid)
}

func TestValidateVariantRequiresItemGroup(t *testing.T) {
	v := NewValidator(DefaultLimits())
	rec := resolvedForTest(validValues())
	rec.IsVariant = true

	v.Validate(rec)
	assert.False(t, rec.Valid)
	assert.Equal(t, ErrCodeMissingConditional, errorCodes(rec.Errors)[feedspec.AttrItemGroupID])

	rec.Values[feedspec.AttrItemGroupID] = "parent-1"
	v.Validate(rec)
	assert.True(t, rec.Valid)
}

func TestValidateRecommendedGapsAreWarningsOnly(t *testing.T) {
	v := NewValidator(DefaultLimits())
	rec := resolvedForTest(validValues())

	v.Validate(rec)

	assert.True(t, rec.Valid)
	// gtin, shipping weight etc. are recommended and absent here
	assert.NotEmpty(t, rec.Warnings)
	for _, w := range rec.Warnings {
		assert.Equal(t, ErrCodeMissingRecommended, w.Code)
	}
}

func TestValidateIsRepeatable(t *testing.T) {
	v := NewValidator(DefaultLimits())
	values := validValues()
	delete(values, "brand")
	rec := resolvedForTest(values)

	v.Validate(rec)
	firstErrors := len(rec.Errors)

	// Re-running must not accumulate duplicate findings
	v.Validate(rec)
	assert.Len(t, rec.Errors, firstErrors)
}
