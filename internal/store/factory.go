package store

import "fmt"

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// New creates a Store for the named backend. An empty name selects memory.
func New(backend string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendSQLite:
		s, err := NewSQLiteStore()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
