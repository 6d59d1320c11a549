package types

// ObjectFailure records one object that could not be processed, with the
// reason it failed.
type ObjectFailure struct {
	ObjectID string `json:"object_id"`
	Reason   string `json:"reason"`
}

// WriteBackFailure records one target whose inverse-property update could
// not be persisted.
type WriteBackFailure struct {
	TargetUUID string `json:"target_uuid"`
	TargetName string `json:"target_name,omitempty"`
	Reason     string `json:"reason"`
}

// WriteBackSummary reports post-commit bookkeeping separately from object
// outcomes so relationship-graph inconsistencies are diagnosable.
type WriteBackSummary struct {
	Updated int                `json:"updated"`
	Failed  []WriteBackFailure `json:"failed,omitempty"`
}

// BatchResult is the user-visible outcome of one bulk save. Object-level
// failures are collected here rather than raised; only batch-fatal
// configuration errors propagate as errors.
type BatchResult struct {
	Succeeded []string         `json:"succeeded"`
	Failed    []ObjectFailure  `json:"failed,omitempty"`
	Relations []RelationEdge   `json:"relations,omitempty"`
	WriteBack WriteBackSummary `json:"write_back"`
}

// AddSuccess records a committed object ID.
func (r *BatchResult) AddSuccess(objectID string) {
	r.Succeeded = append(r.Succeeded, objectID)
}

// AddFailure records a failed object with its reason.
func (r *BatchResult) AddFailure(objectID string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	r.Failed = append(r.Failed, ObjectFailure{ObjectID: objectID, Reason: reason})
}
