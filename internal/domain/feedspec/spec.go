// Package feedspec defines the static catalog of channel feed attributes.
//
// The catalog is versioned and loaded once at process start. Each attribute
// carries a requirement level, a declared data type, an optional transform
// binding and a lock policy governing whether tenants or individual records
// may override its source mapping.
package feedspec

import (
	"fmt"
	"strconv"
	"strings"
)

// Requirement is the requirement level of a feed attribute
type Requirement string

const (
	RequirementRequired    Requirement = "REQUIRED"
	RequirementRecommended Requirement = "RECOMMENDED"
	RequirementOptional    Requirement = "OPTIONAL"
	// RequirementConditional marks attributes that become mandatory only
	// when another resolved attribute enables them (e.g. checkout)
	RequirementConditional Requirement = "CONDITIONAL"
)

// IsValid returns true if the requirement level is known
func (r Requirement) IsValid() bool {
	switch r {
	case RequirementRequired, RequirementRecommended, RequirementOptional, RequirementConditional:
		return true
	default:
		return false
	}
}

// DataType is the declared type of a resolved attribute value
type DataType string

const (
	TypeString DataType = "STRING"
	TypeInt    DataType = "INT"
	TypeFloat  DataType = "FLOAT"
	TypeBool   DataType = "BOOL"
	TypeURL    DataType = "URL"
	TypeList   DataType = "LIST"
)

// LockPolicy governs whether a field's source mapping may be overridden
type LockPolicy string

const (
	// LockNone allows both mapping and static overrides
	LockNone LockPolicy = "UNLOCKED"
	// LockFull forbids any override; the locked mapping always wins
	LockFull LockPolicy = "LOCKED"
	// LockStaticAllowed forbids mapping overrides but permits static values
	LockStaticAllowed LockPolicy = "LOCKED_STATIC_ALLOWED"
)

// AllowsMappingOverride returns true if a custom source path may replace
// the field's mapping
func (p LockPolicy) AllowsMappingOverride() bool {
	return p == LockNone
}

// AllowsStaticOverride returns true if a static literal may replace the
// field's resolved value
func (p LockPolicy) AllowsStaticOverride() bool {
	return p == LockNone || p == LockStaticAllowed
}

// FieldSpec describes a single attribute of the channel feed specification
type FieldSpec struct {
	// ID is the attribute identifier, unique within the catalog
	ID string
	// Category is the human-facing grouping shown in the mapping UI
	Category string
	// Requirement is the requirement level
	Requirement Requirement
	// DataType is the declared type of the resolved value
	DataType DataType
	// TransformKey names the bound transform; empty means identity
	TransformKey string
	// LockPolicy governs override behaviour for this field
	LockPolicy LockPolicy
	// LockedPath is the source path used when the lock policy is not LockNone
	LockedPath string
}

// IsLocked returns true if the field resolves through its locked path
func (s FieldSpec) IsLocked() bool {
	return s.LockPolicy != LockNone
}

// CheckType reports whether v conforms to the declared data type.
// String inputs are accepted for numeric and boolean types when they parse,
// matching how static overrides arrive from the catalog UI.
func (s FieldSpec) CheckType(v any) bool {
	if v == nil {
		return false
	}
	switch s.DataType {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeURL:
		str, ok := v.(string)
		if !ok {
			return false
		}
		return strings.HasPrefix(str, "http://") || strings.HasPrefix(str, "https://")
	case TypeInt:
		switch n := v.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == float64(int64(n))
		case string:
			_, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
			return err == nil
		default:
			return false
		}
	case TypeFloat:
		switch n := v.(type) {
		case int, int32, int64, float32, float64:
			return true
		case string:
			_, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
			return err == nil
		default:
			return false
		}
	case TypeBool:
		switch b := v.(type) {
		case bool:
			return true
		case string:
			_, err := strconv.ParseBool(strings.TrimSpace(b))
			return err == nil
		default:
			return false
		}
	case TypeList:
		switch v.(type) {
		case []any, []string:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// byID is built once from the catalog at package init
var byID map[string]FieldSpec

func init() {
	specs := Catalog()
	byID = make(map[string]FieldSpec, len(specs))
	for _, s := range specs {
		if _, dup := byID[s.ID]; dup {
			panic(fmt.Sprintf("feedspec: duplicate attribute id %q in catalog", s.ID))
		}
		if !s.Requirement.IsValid() {
			panic(fmt.Sprintf("feedspec: attribute %q has invalid requirement %q", s.ID, s.Requirement))
		}
		if s.IsLocked() && s.LockedPath == "" {
			panic(fmt.Sprintf("feedspec: locked attribute %q has no locked path", s.ID))
		}
		byID[s.ID] = s
	}
}

// ByID returns the spec for an attribute id
func ByID(id string) (FieldSpec, bool) {
	s, ok := byID[id]
	return s, ok
}

// MustByID returns the spec for an attribute id, panicking if unknown.
// Intended for static references to well-known attributes.
func MustByID(id string) FieldSpec {
	s, ok := byID[id]
	if !ok {
		panic(fmt.Sprintf("feedspec: unknown attribute id %q", id))
	}
	return s
}
