package storage

// Store persists the watched coin id list across process restarts.
type Store interface {
	// Load returns the persisted id list. An absent or unreadable backing
	// record loads as an empty list, not an error.
	Load() ([]string, error)
	// Save replaces the persisted id list.
	Save(ids []string) error
}
