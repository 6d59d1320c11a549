package types

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// Batch configuration defaults.
const (
	DefaultMaxScanDepth        = 10
	DefaultMaxWriteBackRetries = 3
	DefaultLegacyIDMin         = 1
	DefaultLegacyIDMax         = 1<<31 - 1
)

// BatchConfig holds the named, defaulted knobs for one bulk-save batch.
// Construct with DefaultBatchConfig and override individual fields.
type BatchConfig struct {
	// MaxScanDepth bounds the heuristic relation scan over nested
	// containers not covered by the schema.
	MaxScanDepth int

	// MaxWriteBackRetries bounds fresh read-modify-write attempts after a
	// concurrency conflict before the target is reported as failed.
	MaxWriteBackRetries int

	// Cascade enables pre-validation creation of inline child objects on
	// inversedBy relation properties.
	Cascade bool

	// LegacyIDMin and LegacyIDMax bound the numeric strings that are
	// treated as legacy object IDs.
	LegacyIDMin int64
	LegacyIDMax int64
}

// DefaultBatchConfig returns a BatchConfig with every field set to its
// default value.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxScanDepth:        DefaultMaxScanDepth,
		MaxWriteBackRetries: DefaultMaxWriteBackRetries,
		Cascade:             true,
		LegacyIDMin:         DefaultLegacyIDMin,
		LegacyIDMax:         DefaultLegacyIDMax,
	}
}

// Validate checks that the BatchConfig is well-formed.
func (c BatchConfig) Validate() error {
	if c.MaxScanDepth <= 0 {
		return ErrScanDepthInvalid
	}
	if c.MaxWriteBackRetries <= 0 {
		return ErrRetryBoundInvalid
	}
	if c.LegacyIDMin <= 0 || c.LegacyIDMax < c.LegacyIDMin {
		return ErrLegacyBoundsInvalid
	}
	return nil
}
