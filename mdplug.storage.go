package mdplug

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PluginID is a unique identifier for one stored plugin version.
// Uses a prefixed random format (e.g., "plug_6ByTSYmGzT2c").
type PluginID string

// StoredPlugin is a plugin definition kept by a storage backend.
type StoredPlugin struct {
	ID     PluginID `json:"id"`
	Name   string   `json:"name"`
	Format Format   `json:"format"` // encoding of Source
	Source string   `json:"source"`

	// Priority orders plugins when a manager is loaded from storage.
	// Lower values run first.
	Priority int `json:"priority"`

	// Version starts at 1 and grows by one on every Save of Name.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PluginStorage persists versioned plugin definitions. Every Save of a
// name adds a revision; reads see only the newest one. Missing names yield
// errors matching ErrStoredPluginNotFound. Safe for concurrent use.
type PluginStorage interface {
	Get(ctx context.Context, name string) (*StoredPlugin, error)
	// Save assigns ID, Version, CreatedAt and UpdatedAt on plugin.
	Save(ctx context.Context, plugin *StoredPlugin) error
	// Delete drops every revision of name.
	Delete(ctx context.Context, name string) error
	// List returns the newest revision of each name ordered by Priority,
	// then Name. This is the order LoadFromStorage installs plugins in.
	List(ctx context.Context) ([]*StoredPlugin, error)
	Exists(ctx context.Context, name string) (bool, error)
	Close() error
}

// StorageDriver builds a PluginStorage from a driver specific DSN.
type StorageDriver interface {
	Open(connectionString string) (PluginStorage, error)
}

// Storage driver names
const (
	StorageDriverNameMemory   = "memory"
	StorageDriverNamePostgres = "postgres"
)

// Storage error message constants
const (
	ErrMsgNilStorageDriver        = "storage driver is nil"
	ErrMsgDriverAlreadyRegistered = "storage driver already registered"
	ErrMsgStorageDriverNotFound   = "storage driver not found"
	ErrMsgStorageClosed           = "storage is closed"
	ErrMsgStoredPluginNotFound    = "stored plugin not found"
	ErrMsgInvalidStoredPluginName = "stored plugin name is required"
	ErrMsgStoredPluginDecode      = "stored plugin could not be decoded"
)

// ErrStoredPluginNotFound is wrapped by not-found storage errors.
var ErrStoredPluginNotFound = errors.New(ErrMsgStoredPluginNotFound)

var drivers = struct {
	sync.RWMutex
	byName map[string]StorageDriver
}{byName: map[string]StorageDriver{}}

// RegisterStorageDriver makes driver available to OpenStorage under name.
// It panics on a nil driver or a duplicate name, so call it from init.
func RegisterStorageDriver(name string, driver StorageDriver) {
	if driver == nil {
		panic(ErrMsgNilStorageDriver)
	}
	drivers.Lock()
	defer drivers.Unlock()
	if _, dup := drivers.byName[name]; dup {
		panic(fmt.Sprintf("%s: %s", ErrMsgDriverAlreadyRegistered, name))
	}
	drivers.byName[name] = driver
}

// OpenStorage opens a backend by registered driver name.
//
//	storage, err := mdplug.OpenStorage("memory", "")
//	storage, err := mdplug.OpenStorage("postgres", "postgres://localhost/mdplug?sslmode=disable")
func OpenStorage(driverName, connectionString string) (PluginStorage, error) {
	drivers.RLock()
	driver, ok := drivers.byName[driverName]
	drivers.RUnlock()
	if !ok {
		return nil, &StorageError{Message: ErrMsgStorageDriverNotFound, Name: driverName}
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns registered driver names in sorted order.
func ListStorageDrivers() []string {
	drivers.RLock()
	defer drivers.RUnlock()
	names := make([]string, 0, len(drivers.byName))
	for name := range drivers.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StorageError reports a backend failure. Name and Version identify the
// stored definition involved, when there is one.
type StorageError struct {
	Message string
	Name    string
	Version int
	Cause   error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Name != "" {
		b.WriteString(": ")
		b.WriteString(e.Name)
		if e.Version > 0 {
			fmt.Fprintf(&b, " v%d", e.Version)
		}
	}
	// the sentinel only repeats Message
	if e.Cause != nil && !errors.Is(e.Cause, ErrStoredPluginNotFound) {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStoredPluginNotFoundError returns a StorageError wrapping ErrStoredPluginNotFound.
func NewStoredPluginNotFoundError(name string) error {
	return &StorageError{Message: ErrMsgStoredPluginNotFound, Name: name, Cause: ErrStoredPluginNotFound}
}

func NewStorageClosedError() error {
	return &StorageError{Message: ErrMsgStorageClosed}
}

func generatePluginID() PluginID {
	b := make([]byte, 12)
	_, _ = rand.Read(b)
	return PluginID("plug_" + base64.RawURLEncoding.EncodeToString(b))
}

// LoadFromStorage decodes the latest version of every stored plugin and
// replaces the manager's plugins with them, in storage order. Nothing is
// swapped when any definition fails to decode or any plugin is rejected.
func (m *Manager) LoadFromStorage(ctx context.Context, storage PluginStorage) ([]*LoadReport, error) {
	stored, err := storage.List(ctx)
	if err != nil {
		m.metrics.observeReload(false)
		return nil, err
	}

	plugins := make([]*Plugin, 0, len(stored))
	var errs ErrorList
	for _, sp := range stored {
		p, err := DecodePlugin([]byte(sp.Source), sp.Format)
		if err != nil {
			errs = appendError(errs, &StorageError{
				Message: ErrMsgStoredPluginDecode,
				Name:    sp.Name,
				Version: sp.Version,
				Cause:   err,
			})
			continue
		}
		m.logger.Debug(LogMsgStorageLoadedEntry,
			zap.String(LogFieldPlugin, sp.Name),
			zap.Int(LogFieldVersion, sp.Version))
		plugins = append(plugins, p)
	}
	if len(errs) > 0 {
		m.metrics.observeReload(false)
		return nil, errs
	}
	return m.ReplacePlugins(plugins)
}
