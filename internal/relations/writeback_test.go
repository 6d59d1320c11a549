package relations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

func newTestWriter(store *fakeStore) *InverseWriter {
	cfg := types.DefaultBatchConfig()
	return NewInverseWriter(store, NewResolver(cfg), NewNameCache(store), cfg)
}

func petObjects(analysisStore *fakeStore) map[string]*SchemaAnalysis {
	analyzer := NewAnalyzer(analysisStore)
	analysis, err := analyzer.Analyze(context.Background(), petSchema())
	if err != nil {
		panic(err)
	}
	return map[string]*SchemaAnalysis{"schema-pet": analysis}
}

func TestCollectPreCommitGroupsByTarget(t *testing.T) {
	store := newFakeStore()
	writer := newTestWriter(store)
	analyses := petObjects(store)

	objects := []*types.RegisterObject{
		{ObjectID: "pet-a", SchemaID: "schema-pet", Data: map[string]any{"owner": uuidA}},
		{ObjectID: "pet-b", SchemaID: "schema-pet", Data: map[string]any{"owner": uuidA}},
		{ObjectID: "", SchemaID: "schema-pet", Data: map[string]any{"owner": uuidB}},
	}

	set := writer.CollectPreCommit(objects, analyses)

	require.Contains(t, set, uuidA)
	assert.Len(t, set[uuidA].Refs, 2)
	assert.NotContains(t, set, uuidB, "objects without an id wait for the post-commit pass")
}

func TestCollectPostCommitMergesAndResolvesLegacy(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidB, LegacyID: 42})
	writer := newTestWriter(store)
	analyses := petObjects(store)

	pre := make(WriteBackSet)
	pre.Add(uuidA, "pet-a", "pets")

	saved := []*types.RegisterObject{
		{ObjectID: "pet-b", SchemaID: "schema-pet", Data: map[string]any{"owner": "42"}},
	}

	merged := writer.CollectPostCommit(context.Background(), saved, analyses, pre)

	require.Contains(t, merged, uuidA, "pre-commit entries survive the merge")
	require.Contains(t, merged, uuidB, "legacy reference resolved to its uuid")
	assert.Contains(t, merged[uuidB].Refs, types.InverseRef{ParentUUID: "pet-b", Property: "pets"})
	assert.Equal(t, 1, store.legacyCalls)
}

func TestApplyWriteBackUnionsOnce(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Name: "Alice", Data: map[string]any{}})
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")
	set.Add(uuidA, "pet-b", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Equal(t, 1, summary.Updated)
	assert.Empty(t, summary.Failed)
	assert.ElementsMatch(t, []string{"pet-a", "pet-b"}, store.inverseList(uuidA, "pets"))
	assert.Equal(t, 1, store.updateCalls, "one persist per target, never one per edge")
}

func TestApplyWriteBackIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")
	set.Add(uuidA, "pet-b", "pets")

	first := writer.ApplyWriteBack(context.Background(), set)
	afterFirst := store.inverseList(uuidA, "pets")

	second := writer.ApplyWriteBack(context.Background(), set)
	afterSecond := store.inverseList(uuidA, "pets")

	assert.Equal(t, first.Updated, second.Updated)
	assert.Equal(t, afterFirst, afterSecond, "re-running the same operation set changes nothing")
}

func TestApplyWriteBackPreservesExistingEntries(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{
		ObjectID: uuidA,
		Data:     map[string]any{"pets": []any{"pet-old"}},
	})
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-new", "pets")

	writer.ApplyWriteBack(context.Background(), set)

	assert.Equal(t, []string{"pet-old", "pet-new"}, store.inverseList(uuidA, "pets"))
}

func TestApplyWriteBackOrderIndependent(t *testing.T) {
	// Two parents referencing the same target must produce the same final
	// set regardless of the order the refs were recorded in.
	run := func(parents []string) []string {
		store := newFakeStore()
		store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
		writer := newTestWriter(store)

		set := make(WriteBackSet)
		for _, p := range parents {
			set.Add(uuidA, p, "pets")
		}
		writer.ApplyWriteBack(context.Background(), set)
		return store.inverseList(uuidA, "pets")
	}

	forward := run([]string{"pet-a", "pet-b"})
	backward := run([]string{"pet-b", "pet-a"})

	assert.Equal(t, forward, backward)
	assert.ElementsMatch(t, []string{"pet-a", "pet-b"}, forward)
}

func TestApplyWriteBackRetriesConflicts(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
	store.conflictsRemaining[uuidA] = 2
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Equal(t, 1, summary.Updated, "conflicts within the retry bound succeed on a fresh read")
	assert.Empty(t, summary.Failed)
	assert.Equal(t, []string{"pet-a"}, store.inverseList(uuidA, "pets"))
}

// racingStore lands a competing write on the target immediately after
// the writer's read returns, modeling a concurrent batch touching the
// same target between read and update.
type racingStore struct {
	*fakeStore
	target string
	fired  bool
}

func (r *racingStore) FindByUUIDOrLegacyID(ctx context.Context, value string) (*types.RegisterObject, error) {
	snapshot, err := r.fakeStore.FindByUUIDOrLegacyID(ctx, value)
	if err != nil || value != r.target || r.fired {
		return snapshot, err
	}
	r.fired = true
	current, err := r.fakeStore.FindByUUIDOrLegacyID(ctx, r.target)
	if err != nil {
		return nil, err
	}
	err = r.fakeStore.UpdateProperty(ctx, r.target, "pets", []any{"pet-rival"}, current.ObjectVersion)
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func TestApplyWriteBackDetectsInterposedWrite(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
	racing := &racingStore{fakeStore: store, target: uuidA}
	cfg := types.DefaultBatchConfig()
	writer := NewInverseWriter(racing, NewResolver(cfg), NewNameCache(racing), cfg)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Equal(t, 1, summary.Updated)
	assert.Empty(t, summary.Failed)
	assert.ElementsMatch(t, []string{"pet-rival", "pet-a"}, store.inverseList(uuidA, "pets"),
		"the competing write survives and the new back-reference still lands")
	assert.Equal(t, 3, store.updateCalls, "stale write conflicts once, fresh read succeeds")
}

func TestApplyWriteBackReportsExhaustedRetries(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Data: map[string]any{}})
	store.conflictsRemaining[uuidA] = 100
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Zero(t, summary.Updated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, uuidA, summary.Failed[0].TargetUUID)
}

func TestApplyWriteBackIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	store.addObject(&types.RegisterObject{ObjectID: uuidA, Name: "Alice", Data: map[string]any{}})
	store.addObject(&types.RegisterObject{ObjectID: uuidB, Data: map[string]any{}})
	store.updateErr[uuidA] = errors.New("disk full")
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidA, "pet-a", "pets")
	set.Add(uuidB, "pet-a", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Equal(t, 1, summary.Updated, "the healthy target still updates")
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, uuidA, summary.Failed[0].TargetUUID)
	assert.Equal(t, "Alice", summary.Failed[0].TargetName)
	assert.Contains(t, summary.Failed[0].Reason, "disk full")
}

func TestApplyWriteBackMissingTarget(t *testing.T) {
	store := newFakeStore()
	writer := newTestWriter(store)

	set := make(WriteBackSet)
	set.Add(uuidC, "pet-a", "pets")

	summary := writer.ApplyWriteBack(context.Background(), set)

	assert.Zero(t, summary.Updated)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, uuidC, summary.Failed[0].TargetUUID)
	assert.Equal(t, FallbackName(uuidC, "", ""), summary.Failed[0].TargetName,
		"a missing target still gets a readable label")
}

func TestUnionValuesHandlesScalarExisting(t *testing.T) {
	merged, changed := unionValues("pet-old", []string{"pet-new"})
	assert.True(t, changed)
	assert.Equal(t, []any{"pet-old", "pet-new"}, merged)

	merged, changed = unionValues(nil, []string{"pet-a"})
	assert.True(t, changed)
	assert.Equal(t, []any{"pet-a"}, merged)

	_, changed = unionValues([]any{"pet-a"}, []string{"pet-a"})
	assert.False(t, changed, "no persist when nothing new")
}
