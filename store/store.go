package store

// Store defines the operations key-value stores must implement.
type Store interface {
	// Get returns the value associated with key, and whether it exists.
	Get(key string) (string, bool)
	// Set associates value with key, replacing any previous value.
	Set(key, value string)
	// Len returns the number of keys.
	Len() int
	// Snapshot returns a copy of all key-value pairs.
	Snapshot() map[string]string
}
