// This file implements textual reference classification. Classification is
// pure string parsing; only numeric legacy IDs need a storage lookup, and
// those are resolved in one batched query per scan, never per field.
package relations

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

// canonicalUUIDPattern matches the 8-4-4-4-12 hex form. uuid.Parse accepts
// additional forms (braced, urn-prefixed, undashed); references are only
// recognized in the canonical form.
var canonicalUUIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Resolver classifies scalar values as references or literals. Precedence,
// first match wins: canonical UUID, URL with a trailing UUID path segment,
// purely numeric string within the legacy ID bounds, otherwise literal.
type Resolver struct {
	legacyIDMin int64
	legacyIDMax int64
}

// NewResolver creates a Resolver with the legacy ID bounds from config.
func NewResolver(cfg types.BatchConfig) *Resolver {
	return &Resolver{
		legacyIDMin: cfg.LegacyIDMin,
		legacyIDMax: cfg.LegacyIDMax,
	}
}

// IsReference reports whether the value classifies as any reference kind.
func (r *Resolver) IsReference(value string) bool {
	return r.Resolve(value).Kind != types.RefKindUnresolved
}

// Resolve classifies a value and extracts its canonical UUID where the
// form carries one. Numeric ID references come back without a UUID; the
// caller resolves them through the legacy mapping in one batched query.
// Resolution is best-effort: failures classify as unresolved, never error.
func (r *Resolver) Resolve(value string) types.ObjectReference {
	ref := types.ObjectReference{Raw: value, Kind: types.RefKindUnresolved}

	if canonicalUUIDPattern.MatchString(value) {
		ref.Kind = types.RefKindUUID
		ref.UUID = normalizeUUID(value)
		return ref
	}

	if id, ok := r.trailingURLUUID(value); ok {
		ref.Kind = types.RefKindURL
		ref.UUID = id
		return ref
	}

	if r.isLegacyID(value) {
		ref.Kind = types.RefKindNumericID
		return ref
	}

	return ref
}

// LegacyID returns the parsed numeric value of a numeric_id reference.
// Only meaningful when Resolve classified the value as a numeric ID.
func (r *Resolver) LegacyID(value string) (int64, bool) {
	if !r.isLegacyID(value) {
		return 0, false
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// trailingURLUUID reports whether the value is a URL whose last path
// segment is a canonical UUID, and extracts that UUID.
func (r *Resolver) trailingURLUUID(value string) (string, bool) {
	if !strings.Contains(value, "://") {
		return "", false
	}
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}

	path := strings.TrimRight(u.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", false
	}
	segment := path[idx+1:]
	if !canonicalUUIDPattern.MatchString(segment) {
		return "", false
	}
	return normalizeUUID(segment), true
}

// isLegacyID reports whether the value is a purely numeric string within
// the configured legacy ID bounds. Leading zeros are not canonical legacy
// IDs and classify as literals.
func (r *Resolver) isLegacyID(value string) bool {
	if value == "" || (len(value) > 1 && value[0] == '0') {
		return false
	}
	for _, c := range value {
		if c < '0' || c > '9' {
			return false
		}
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false
	}
	return id >= r.legacyIDMin && id <= r.legacyIDMax
}

// normalizeUUID lowercases a canonical UUID through round-trip parsing.
func normalizeUUID(value string) string {
	u, err := uuid.Parse(value)
	if err != nil {
		return strings.ToLower(value)
	}
	return u.String()
}
