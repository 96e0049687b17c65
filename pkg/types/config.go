package types

import "errors"

// Config holds backend selection and parameters for opening a store.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	Seed      string `json:"seed" yaml:"seed"`
	QueueSize int    `json:"queue_size" yaml:"queue_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultQueueSize is the router queue depth used when QueueSize is zero.
const DefaultQueueSize = 256

// Config validation errors.
var (
	ErrBackendEmpty      = errors.New("backend must not be empty")
	ErrBackendUnknown    = errors.New("unknown backend")
	ErrQueueSizeNegative = errors.New("queue size must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.QueueSize < 0 {
		return ErrQueueSizeNegative
	}
	return nil
}

// GetQueueSize returns QueueSize, or DefaultQueueSize when unset.
func (c Config) GetQueueSize() int {
	if c.QueueSize == 0 {
		return DefaultQueueSize
	}
	return c.QueueSize
}
