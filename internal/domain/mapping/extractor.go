package mapping

import (
	"strings"

	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/source"
)

// tenantNamespace is the reserved first segment addressing tenant-scoped
// fields instead of the record payload
const tenantNamespace = "tenant"

// Extract resolves a dotted source path against a record's raw payload and
// the tenant configuration. Missing segments resolve to nil; extraction
// never panics and performs no I/O.
//
// Grammar: segment(.segment)*. A segment addresses a direct payload field,
// or a keyed entry inside a list of objects (matched case-sensitively
// against the entry's "key" or "name", first match wins). Paths prefixed
// with "tenant." address tenant configuration fields.
func Extract(record *source.Record, tenant *merchant.TenantConfig, path string) any {
	if record == nil || path == "" {
		return nil
	}

	segments := strings.Split(path, ".")

	if segments[0] == tenantNamespace {
		if tenant == nil || len(segments) != 2 {
			return nil
		}
		return normalize(tenant.Field(segments[1]))
	}

	var current any
	switch segments[0] {
	// Normalized scalars live on the record itself, not in the payload
	case "id":
		current = record.ExternalID
	case "parent_id":
		current = record.ParentGroupID
	default:
		current = lookup(record.Payload, segments[0])
	}

	for _, seg := range segments[1:] {
		if current == nil {
			return nil
		}
		switch node := current.(type) {
		case map[string]any:
			current = lookup(node, seg)
		case source.Payload:
			current = lookup(node, seg)
		case []any:
			current = matchKeyed(node, seg)
		default:
			// Scalar reached with segments left over
			return nil
		}
	}

	return normalize(current)
}

func lookup(m map[string]any, key string) any {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return v
}

// matchKeyed scans a list of keyed objects for the first entry whose "key"
// or "name" equals key. Metadata-shaped entries yield their "value";
// named-attribute entries with an array of "values" yield the first one.
func matchKeyed(list []any, key string) any {
	for _, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if k, ok := entry["key"].(string); ok && k == key {
			return entry["value"]
		}
		if n, ok := entry["name"].(string); ok && n == key {
			if values, ok := entry["values"].([]any); ok {
				if len(values) == 0 {
					return nil
				}
				return values[0]
			}
			return entry["value"]
		}
	}
	return nil
}

// normalize collapses typed zero values the engine treats as absent
func normalize(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}
