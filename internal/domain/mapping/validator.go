package mapping

import (
	"fmt"

	"github.com/feedbridge/backend/internal/domain/feedspec"
)

// Limits holds the channel's structural bounds on string attributes
type Limits struct {
	TitleMax       int
	DescriptionMax int
}

// DefaultLimits returns the channel spec's published limits
func DefaultLimits() Limits {
	return Limits{
		TitleMax:       150,
		DescriptionMax: 5000,
	}
}

// Validator runs the structural feed-spec rules over a resolved record.
// Validation is pure, rerun on every pass, and never mutates its input
// record's values.
type Validator struct {
	limits Limits
	specs  []feedspec.FieldSpec
}

// NewValidator creates a validator over the static feed catalog
func NewValidator(limits Limits) *Validator {
	return &Validator{
		limits: limits,
		specs:  feedspec.Catalog(),
	}
}

// Validate fills in the record's error list, warnings and validity verdict.
// Rules are evaluated independently per field and then aggregated: the
// record is valid iff no Required or Conditional rule failed. Recommended
// gaps become warnings and never affect validity.
func (v *Validator) Validate(record *ResolvedRecord) {
	record.Errors = record.Errors[:0]
	record.Warnings = record.Warnings[:0]

	checkoutEnabled := record.BoolValue(feedspec.AttrCheckoutEnabled)

	for _, spec := range v.specs {
		value := record.Value(spec.ID)
		present := !isEmpty(value)

		switch spec.Requirement {
		case feedspec.RequirementRequired:
			if !present {
				record.Errors = append(record.Errors, FieldError{
					AttributeID: spec.ID,
					Code:        ErrCodeMissingRequired,
					Message:     fmt.Sprintf("required attribute %q has no value", spec.ID),
				})
			}
		case feedspec.RequirementRecommended:
			if !present {
				record.Warnings = append(record.Warnings, FieldError{
					AttributeID: spec.ID,
					Code:        ErrCodeMissingRecommended,
					Message:     fmt.Sprintf("recommended attribute %q has no value", spec.ID),
				})
			}
		}

		if present {
			v.checkLength(record, spec.ID, value)
		}
	}

	// Variants must reference their parent group
	if record.IsVariant && isEmpty(record.Value(feedspec.AttrItemGroupID)) {
		record.Errors = append(record.Errors, FieldError{
			AttributeID: feedspec.AttrItemGroupID,
			Code:        ErrCodeMissingConditional,
			Message:     "variant records must carry an item group id",
		})
	}

	// Channel-hosted checkout makes the seller policy pages mandatory even
	// though they are optional at the tenant level
	if checkoutEnabled {
		for _, attr := range []string{feedspec.AttrSellerPrivacyPolicy, feedspec.AttrSellerTOS} {
			if isEmpty(record.Value(attr)) {
				record.Errors = append(record.Errors, FieldError{
					AttributeID: attr,
					Code:        ErrCodeMissingConditional,
					Message:     fmt.Sprintf("%q is required when checkout is enabled", attr),
				})
			}
		}
	}

	record.Valid = len(record.Errors) == 0
}

// checkLength flags (never clips) values exceeding the channel's bounds
func (v *Validator) checkLength(record *ResolvedRecord, attributeID string, value any) {
	s, ok := value.(string)
	if !ok {
		return
	}

	var limit int
	switch attributeID {
	case feedspec.AttrTitle:
		limit = v.limits.TitleMax
	case feedspec.AttrDescription:
		limit = v.limits.DescriptionMax
	default:
		return
	}

	if len([]rune(s)) > limit {
		record.Errors = append(record.Errors, FieldError{
			AttributeID: attributeID,
			Code:        ErrCodeTooLong,
			Message:     fmt.Sprintf("%q exceeds the %d character limit", attributeID, limit),
		})
	}
}

// isEmpty reports whether a resolved value counts as absent
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
