//go:build !windows

package winreg

type systemRegistry struct{}

// NewSystem returns a registry whose every operation fails with
// ErrUnsupported.
func NewSystem() Registry {
	return systemRegistry{}
}

func (systemRegistry) OpenKey(h Hive, path string, access Access) (Key, error) {
	return nil, ErrUnsupported
}

func (systemRegistry) CreateKey(h Hive, path string) (Key, error) {
	return nil, ErrUnsupported
}
