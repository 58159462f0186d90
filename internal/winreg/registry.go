package winreg

import "errors"

var (
	// ErrNotExist is returned when a key or value does not exist.
	ErrNotExist = errors.New("registry key or value does not exist")
	// ErrAccessDenied is returned when the caller lacks rights for the operation.
	ErrAccessDenied = errors.New("registry access denied")
	// ErrUnexpectedType is returned when a value is not of the requested type.
	ErrUnexpectedType = errors.New("unexpected registry value type")
	// ErrUnsupported is returned by every operation on platforms without a registry.
	ErrUnsupported = errors.New("registry is only supported on Windows")
)

// Access selects the rights requested when opening a key.
type Access int

const (
	// Read allows enumerating subkeys and querying values.
	Read Access = iota
	// ReadWrite additionally allows setting values and deleting subkeys.
	ReadWrite
)

// Registry opens keys below one of the predefined hives.
type Registry interface {
	// OpenKey opens an existing key. path is relative to h and may be empty
	// to open the root itself.
	OpenKey(h Hive, path string, access Access) (Key, error)
	// CreateKey opens a key for writing, creating it and any missing
	// ancestors.
	CreateKey(h Hive, path string) (Key, error)
}

// Key is an open registry key. Callers must Close it.
type Key interface {
	// Name returns the fully-qualified path of the key.
	Name() string
	SubKeyNames() ([]string, error)
	ValueNames() ([]string, error)
	GetValue(name string) (Value, error)
	// GetString reads a REG_SZ or REG_EXPAND_SZ value without expanding it.
	GetString(name string) (string, error)
	SetValue(v Value) error
	// DeleteSubKeyTree deletes the named subkey and everything below it.
	DeleteSubKeyTree(name string) error
	Close() error
}
