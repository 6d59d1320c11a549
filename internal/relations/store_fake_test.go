// In-memory schema provider and storage mapper used across the engine
// tests. Supports injected concurrency conflicts and failure modes.
package relations

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ConductionNL/openregister-sub015/pkg/types"
)

type fakeStore struct {
	mu sync.Mutex

	schemas map[string]*types.Schema
	objects map[string]*types.RegisterObject
	legacy  map[int64]string

	// Injected failures.
	conflictsRemaining map[string]int   // target UUID -> conflicts to raise before success
	updateErr          map[string]error // target UUID -> permanent update error
	saveErr            map[string]error // schema ID -> save error

	// Call accounting.
	legacyCalls int
	lookupCalls map[string]int
	updateCalls int
	savedOrder  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		schemas:            make(map[string]*types.Schema),
		objects:            make(map[string]*types.RegisterObject),
		legacy:             make(map[int64]string),
		conflictsRemaining: make(map[string]int),
		updateErr:          make(map[string]error),
		saveErr:            make(map[string]error),
		lookupCalls:        make(map[string]int),
	}
}

func (f *fakeStore) addSchema(s *types.Schema) {
	f.schemas[s.SchemaID] = s
}

func (f *fakeStore) addObject(o *types.RegisterObject) {
	if o.Data == nil {
		o.Data = make(map[string]any)
	}
	f.objects[o.ObjectID] = o
	if o.LegacyID != 0 {
		f.legacy[o.LegacyID] = o.ObjectID
	}
}

func (f *fakeStore) GetSchema(ctx context.Context, id string) (*types.Schema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schemas[id]
	if !ok {
		return nil, types.ErrSchemaNotFound
	}
	return s, nil
}

// FindByUUIDOrLegacyID returns a snapshot copy, like a real backend: a
// later write to the stored object must not show through the read.
func (f *fakeStore) FindByUUIDOrLegacyID(ctx context.Context, value string) (*types.RegisterObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.objects[value]; ok {
		return snapshotObject(o), nil
	}
	return nil, types.ErrNotFound
}

func snapshotObject(o *types.RegisterObject) *types.RegisterObject {
	copied := *o
	copied.Data = make(map[string]any, len(o.Data))
	for k, v := range o.Data {
		copied.Data[k] = v
	}
	return &copied
}

func (f *fakeStore) ResolveLegacyIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.legacyCalls++
	out := make(map[int64]string)
	for _, id := range ids {
		if u, ok := f.legacy[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeStore) LookupName(ctx context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls[id]++
	o, ok := f.objects[id]
	if !ok || o.Name == "" {
		return "", types.ErrNotFound
	}
	return o.Name, nil
}

func (f *fakeStore) UpdateProperty(ctx context.Context, id string, property string, value any, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if err, ok := f.updateErr[id]; ok {
		return err
	}
	if f.conflictsRemaining[id] > 0 {
		f.conflictsRemaining[id]--
		return types.ErrConcurrencyConflict
	}
	o, ok := f.objects[id]
	if !ok {
		return types.ErrNotFound
	}
	if o.ObjectVersion != expectedVersion {
		return types.ErrConcurrencyConflict
	}
	o.Data[property] = value
	o.ObjectVersion++
	return nil
}

func (f *fakeStore) Save(ctx context.Context, object *types.RegisterObject) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.saveErr[object.SchemaID]; ok {
		return "", err
	}
	if object.ObjectID == "" {
		object.ObjectID = uuid.NewString()
	}
	if object.Data == nil {
		object.Data = make(map[string]any)
	}
	f.objects[object.ObjectID] = object
	f.savedOrder = append(f.savedOrder, object.ObjectID)
	return object.ObjectID, nil
}

// inverseList returns the string entries of an object's inverse property,
// for assertions.
func (f *fakeStore) inverseList(id, property string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.objects[id]
	if !ok {
		return nil
	}
	raw, ok := o.Data[property].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, elem := range raw {
		out = append(out, fmt.Sprint(elem))
	}
	return out
}
