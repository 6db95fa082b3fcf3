package mapping

import (
	"fmt"
	"math"
	"strings"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/source"
	"github.com/shopspring/decimal"
)

// TransformFunc converts an extracted value into its feed representation.
// Transforms are total and pure: they never panic, block or perform I/O,
// and identical inputs always produce identical output. A nil result means
// "no value" and is distinct from a typed zero.
type TransformFunc func(value any, record *source.Record, tenant *merchant.TenantConfig) any

// identity passes the extracted value through untouched
func identity(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	return value
}

// registry binds transform keys to implementations. Unbound keys fall back
// to identity, matching fields with no declared transform.
var registry = map[string]TransformFunc{
	feedspec.TransformCategoryPath: categoryPath,
	feedspec.TransformPrice:        price,
	feedspec.TransformDimLength:    dimension("length"),
	feedspec.TransformDimWidth:     dimension("width"),
	feedspec.TransformDimHeight:    dimension("height"),
	feedspec.TransformWeight:       weight,
	feedspec.TransformVariantTitle: variantTitle,
	feedspec.TransformGTIN:         gtin,
	feedspec.TransformPopularity:   popularity,
	feedspec.TransformCondition:    condition,
	feedspec.TransformAvailability: availability,
	feedspec.TransformBool:         boolean,
	feedspec.TransformStringList:   stringList,
	feedspec.TransformText:         text,
}

// TransformFor returns the transform bound to key, or identity when the key
// is empty or unknown
func TransformFor(key string) TransformFunc {
	if fn, ok := registry[key]; ok {
		return fn
	}
	return identity
}

// categoryDepthCap bounds the upward walk so cyclic or malformed parent
// links cannot loop forever
const categoryDepthCap = 10

// categoryPathSeparator joins category labels in the feed representation
const categoryPathSeparator = " > "

// categoryPath builds the longest root-to-leaf label path from a set of
// category nodes {id, name, parent_id}. Empty input yields "".
func categoryPath(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	nodes, ok := value.([]any)
	if !ok || len(nodes) == 0 {
		return ""
	}

	type catNode struct {
		name   string
		parent string
	}
	index := make(map[string]catNode, len(nodes))
	order := make([]string, 0, len(nodes))
	for _, n := range nodes {
		entry, ok := n.(map[string]any)
		if !ok {
			continue
		}
		id := asIDString(entry["id"])
		name, _ := entry["name"].(string)
		if id == "" || name == "" {
			continue
		}
		if _, dup := index[id]; !dup {
			order = append(order, id)
		}
		index[id] = catNode{name: name, parent: asIDString(entry["parent_id"])}
	}

	best := ""
	bestDepth := 0
	for _, id := range order {
		labels := make([]string, 0, categoryDepthCap)
		for cur := id; cur != "" && cur != "0" && len(labels) < categoryDepthCap; {
			node, ok := index[cur]
			if !ok {
				break
			}
			labels = append([]string{node.name}, labels...)
			cur = node.parent
		}
		if len(labels) > bestDepth {
			bestDepth = len(labels)
			best = strings.Join(labels, categoryPathSeparator)
		}
	}
	return best
}

// price coerces numeric input to a two-decimal string, appending the
// tenant's currency code when one is configured. Invalid input yields nil,
// never zero.
func price(value any, _ *source.Record, tenant *merchant.TenantConfig) any {
	d, ok := toDecimal(value)
	if !ok {
		return nil
	}
	formatted := d.StringFixed(2)
	if tenant != nil && tenant.CurrencyCode != "" {
		return formatted + " " + tenant.CurrencyCode
	}
	return formatted
}

// dimension returns the transform for one spatial dimension. Partial
// dimension sets are unreliable: unless all of length, width and height are
// present on the record, every dimension field resolves to nil.
func dimension(axis string) TransformFunc {
	return func(value any, record *source.Record, tenant *merchant.TenantConfig) any {
		if record == nil {
			return nil
		}
		dims := make(map[string]decimal.Decimal, 3)
		for _, a := range []string{"length", "width", "height"} {
			if d, ok := toDecimal(record.Payload[a]); ok {
				dims[a] = d
			}
		}
		if len(dims) != 3 {
			return nil
		}
		d := dims[axis]
		if value != nil {
			// The nominal extracted value wins over the sibling read when a
			// custom mapping redirected this axis
			if v, ok := toDecimal(value); ok {
				d = v
			}
		}
		formatted := trimDecimal(d)
		if tenant != nil && tenant.DimensionUnit != "" {
			return formatted + " " + tenant.DimensionUnit
		}
		return formatted
	}
}

// weight formats a weight value, appending the tenant unit only when both a
// value and a configured unit exist
func weight(value any, _ *source.Record, tenant *merchant.TenantConfig) any {
	d, ok := toDecimal(value)
	if !ok {
		return nil
	}
	formatted := trimDecimal(d)
	if tenant != nil && tenant.WeightUnit != "" {
		return formatted + " " + tenant.WeightUnit
	}
	return formatted
}

// variantTitle strips a redundant leading repetition of the parent name
// from a hyphen-segmented variant title: "X - X - Red, M" becomes
// "X - Red, M". Applies only to variant records; anything else passes
// through unchanged.
func variantTitle(value any, record *source.Record, _ *merchant.TenantConfig) any {
	title, ok := value.(string)
	if !ok {
		return value
	}
	if record == nil || !record.IsVariant() {
		return title
	}
	segments := strings.Split(title, " - ")
	if len(segments) < 3 {
		return title
	}
	if segments[0] != segments[1] {
		return title
	}
	return strings.Join(segments[1:], " - ")
}

// gtinAliases are the metafield keys merchants commonly file identifier
// codes under
var gtinAliases = []string{"gtin", "barcode", "upc", "ean", "isbn"}

// gtin accepts a direct non-empty scalar, otherwise scans a metafield-shaped
// list for known alias keys. It never validates checksum formats and never
// guesses: nothing matching yields nil.
func gtin(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	switch v := value.(type) {
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
		return nil
	case float64, int, int64:
		return asIDString(v)
	case []any:
		for _, alias := range gtinAliases {
			if found := matchKeyed(v, alias); found != nil {
				if s, ok := found.(string); ok {
					if trimmed := strings.TrimSpace(s); trimmed != "" {
						return trimmed
					}
					continue
				}
				return asIDString(found)
			}
		}
		return nil
	default:
		return nil
	}
}

// popularity compresses a raw engagement count onto a bounded 0-5 scale
// with one decimal of precision. Zero or absent counts yield nil so the
// feed can distinguish "unknown" from "measured zero".
func popularity(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	d, ok := toDecimal(value)
	if !ok {
		return nil
	}
	count, _ := d.Float64()
	if count <= 0 {
		return nil
	}
	score := math.Min(5, math.Log10(count+1))
	return math.Round(score*10) / 10
}

// knownConditions are the condition values the channel accepts
var knownConditions = map[string]bool{"new": true, "refurbished": true, "used": true}

// condition normalizes the item condition, defaulting to "new" for absent
// or unrecognized input
func condition(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	if s, ok := value.(string); ok {
		normalized := strings.ToLower(strings.TrimSpace(s))
		if knownConditions[normalized] {
			return normalized
		}
	}
	return "new"
}

// availability maps stock signals onto the channel's availability keywords
func availability(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	switch v := value.(type) {
	case bool:
		if v {
			return "in_stock"
		}
		return "out_of_stock"
	case string:
		normalized := strings.ToLower(strings.TrimSpace(v))
		switch normalized {
		case "in_stock", "out_of_stock", "preorder", "backorder":
			return normalized
		}
	}
	if d, ok := toDecimal(value); ok {
		if d.IsPositive() {
			return "in_stock"
		}
		return "out_of_stock"
	}
	return "out_of_stock"
}

// boolean coerces common truthy representations to a bool, nil otherwise
func boolean(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		return nil
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return nil
	}
}

// stringList coerces input to a list of strings; comma-separated scalars
// are split, scalars become single-element lists
func stringList(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}

// text strips markup tags and collapses whitespace. Length violations are
// the validator's concern; text never truncates.
func text(value any, _ *source.Record, _ *merchant.TenantConfig) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteRune(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	collapsed := strings.Join(strings.Fields(b.String()), " ")
	if collapsed == "" {
		return nil
	}
	return collapsed
}

// toDecimal coerces string and numeric input to a decimal. Invalid input
// reports false rather than zero so callers can distinguish "no value".
func toDecimal(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// trimDecimal renders a decimal without trailing zeros but with at least
// one integer digit
func trimDecimal(d decimal.Decimal) string {
	return d.Truncate(2).String()
}

// asIDString renders numeric or string node ids uniformly
func asIDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return decimal.NewFromFloat(id).String()
	case int:
		return fmt.Sprintf("%d", id)
	case int64:
		return fmt.Sprintf("%d", id)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", id)
	}
}
