// This file implements the batch-scoped display name cache. The cache
// lives for one batch only, so names can never go stale across requests.
package relations

import "context"

// NameLookup resolves a referenced object's display name.
type NameLookup interface {
	LookupName(ctx context.Context, uuid string) (string, error)
}

// NameCache caches display name lookups for the duration of one batch.
// Misses are cached with an explicit not-found sentinel so a bad ID is
// looked up at most once per batch.
type NameCache struct {
	lookup  NameLookup
	entries map[string]nameEntry
}

type nameEntry struct {
	name  string
	found bool
}

// NewNameCache creates an empty batch-scoped cache over the given lookup.
func NewNameCache(lookup NameLookup) *NameCache {
	return &NameCache{
		lookup:  lookup,
		entries: make(map[string]nameEntry),
	}
}

// GetName returns the display name for the UUID. On a cache miss it
// performs exactly one lookup and caches either the name or the not-found
// result. The second return value is false when no name is resolvable.
func (n *NameCache) GetName(ctx context.Context, uuid string) (string, bool) {
	if entry, ok := n.entries[uuid]; ok {
		return entry.name, entry.found
	}

	name, err := n.lookup.LookupName(ctx, uuid)
	if err != nil {
		// Lookup failures cache as not-found too; retrying within the
		// same batch would just repeat the failure.
		n.entries[uuid] = nameEntry{found: false}
		return "", false
	}

	n.entries[uuid] = nameEntry{name: name, found: true}
	return name, true
}

// FallbackName produces a deterministic placeholder when no display name
// is resolvable. Total: never empty for any input. The property title is
// preferred over the metadata type; both missing falls back to "Object".
func FallbackName(uuid, metadataType, propertyTitle string) string {
	label := propertyTitle
	if label == "" {
		label = metadataType
	}
	if label == "" {
		label = "Object"
	}
	if uuid == "" {
		uuid = "unknown"
	}
	return label + " " + uuid
}
