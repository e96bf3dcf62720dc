package mdplug

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage keeps plugin definitions in process memory. Contents are
// lost on Close. Used by tests, examples and the "memory" driver.
type MemoryStorage struct {
	mu      sync.RWMutex
	history map[string][]*StoredPlugin // oldest first
	closed  bool
}

// MemoryStorageDriver opens an empty MemoryStorage for every Open call.
type MemoryStorageDriver struct{}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, &MemoryStorageDriver{})
}

// Open ignores the connection string.
func (d *MemoryStorageDriver) Open(string) (PluginStorage, error) {
	return NewMemoryStorage(), nil
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{history: map[string][]*StoredPlugin{}}
}

// usable reports why an operation cannot proceed. Callers hold s.mu.
func (s *MemoryStorage) usable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return NewStorageClosedError()
	}
	return nil
}

func (s *MemoryStorage) latest(name string) *StoredPlugin {
	versions := s.history[name]
	if len(versions) == 0 {
		return nil
	}
	return versions[len(versions)-1]
}

func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredPlugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return nil, err
	}

	head := s.latest(name)
	if head == nil {
		return nil, NewStoredPluginNotFoundError(name)
	}
	c := *head
	return &c, nil
}

// Save appends a new revision and fills plugin's ID, Version and timestamps.
func (s *MemoryStorage) Save(ctx context.Context, plugin *StoredPlugin) error {
	if plugin.Name == "" {
		return &StorageError{Message: ErrMsgInvalidStoredPluginName}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return err
	}

	version := 1
	if head := s.latest(plugin.Name); head != nil {
		version = head.Version + 1
	}
	now := time.Now()

	plugin.ID = generatePluginID()
	plugin.Version = version
	plugin.CreatedAt = now
	plugin.UpdatedAt = now

	rev := *plugin
	s.history[plugin.Name] = append(s.history[plugin.Name], &rev)
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usable(ctx); err != nil {
		return err
	}

	if s.latest(name) == nil {
		return NewStoredPluginNotFoundError(name)
	}
	delete(s.history, name)
	return nil
}

// List returns copies of the newest revision per name, by Priority then Name.
func (s *MemoryStorage) List(ctx context.Context) ([]*StoredPlugin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return nil, err
	}

	out := make([]*StoredPlugin, 0, len(s.history))
	for name := range s.history {
		if head := s.latest(name); head != nil {
			c := *head
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.usable(ctx); err != nil {
		return false, err
	}
	return s.latest(name) != nil, nil
}

// Close drops all stored revisions. Closing twice is a no-op.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.history = nil
	return nil
}
