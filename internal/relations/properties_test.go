// Property-based tests for the engine's invariants: resolver determinism,
// scan order stability and cycle safety, write-back idempotence, and
// fallback name totality.
package relations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

func TestResolverDeterminism(t *testing.T) {
	r := newTestResolver()

	rapid.Check(t, func(rt *rapid.T) {
		value := rapid.String().Draw(rt, "value")

		first := r.Resolve(value)
		second := r.Resolve(value)
		require.Equal(rt, first, second)
		require.Equal(rt, first.Kind != types.RefKindUnresolved, r.IsReference(value))
	})
}

func TestScanOrderStabilityProperty(t *testing.T) {
	scanner := newTestScanner()
	analysis := analyzeForTest(t, petSchema())

	valueGen := rapid.OneOf(
		rapid.String().AsAny(),
		rapid.SampledFrom([]any{uuidA, uuidB, uuidC, "42", true, float64(7)}),
	)

	rapid.Check(t, func(rt *rapid.T) {
		data := map[string]any{}
		keys := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-z]{1,8}`), 0, 6, rapid.ID).Draw(rt, "keys")
		for _, key := range keys {
			if rapid.Bool().Draw(rt, "nest") {
				data[key] = map[string]any{
					"inner": valueGen.Draw(rt, "inner"),
				}
			} else {
				data[key] = valueGen.Draw(rt, "value")
			}
		}

		first := scanner.Scan("obj-1", data, analysis)
		second := scanner.Scan("obj-1", data, analysis)
		require.Equal(rt, first, second)
	})
}

func TestScanDepthSafetyProperty(t *testing.T) {
	cfg := types.DefaultBatchConfig()
	cfg.MaxScanDepth = 10
	scanner := NewScanner(newTestResolver(), cfg)
	analysis := analyzeForTest(t, petSchema())

	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(1, 50).Draw(rt, "depth")

		// Build a chain of nested containers with a reference at the end,
		// then close it into a cycle.
		leaf := map[string]any{"ref": uuidA}
		current := leaf
		for range depth {
			current = map[string]any{"next": current}
		}
		leaf["back"] = current

		// Must terminate; the reference is visible only within the bound.
		candidates := scanner.Scan("obj-1", current, analysis)
		if depth+1 <= cfg.MaxScanDepth {
			require.Len(rt, candidates, 1)
		}
	})
}

func TestWriteBackIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := newFakeStore()
		store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
		writer := newTestWriter(store)

		parents := rapid.SliceOfNDistinct(rapid.StringMatching(`parent-[a-z0-9]{1,6}`), 1, 8, rapid.ID).Draw(rt, "parents")
		set := make(WriteBackSet)
		for _, p := range parents {
			set.Add(uuidA, p, "pets")
		}

		writer.ApplyWriteBack(context.Background(), set)
		once := store.inverseList(uuidA, "pets")

		writer.ApplyWriteBack(context.Background(), set)
		twice := store.inverseList(uuidA, "pets")

		require.Equal(rt, once, twice)
		require.ElementsMatch(rt, parents, once)
	})
}

func TestFallbackNameTotalityProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		uuid := rapid.String().Draw(rt, "uuid")
		metadataType := rapid.String().Draw(rt, "metadataType")
		propertyTitle := rapid.String().Draw(rt, "propertyTitle")

		require.NotEmpty(rt, FallbackName(uuid, metadataType, propertyTitle))
	})
}
