package session

import "sync"

// Storage persists the session record between process runs. The Store
// treats it as best-effort: a failing Save never surfaces to callers.
type Storage interface {
	// Load returns the persisted session. The second return value is
	// false when nothing has been persisted yet.
	Load() (Session, bool, error)
	Save(session Session) error
}

// MemoryStorage keeps the record in memory only. Used by tests and by
// processes that should not leave credentials on disk.
type MemoryStorage struct {
	mu      sync.Mutex
	session Session
	saved   bool
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load implements Storage.Load.
func (m *MemoryStorage) Load() (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session, m.saved, nil
}

// Save implements Storage.Save.
func (m *MemoryStorage) Save(session Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = session
	m.saved = true

	return nil
}
