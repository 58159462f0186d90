//go:build windows

package winreg

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

type systemRegistry struct{}

// NewSystem returns the registry of the running Windows machine.
func NewSystem() Registry {
	return systemRegistry{}
}

func (systemRegistry) OpenKey(h Hive, path string, access Access) (Key, error) {
	root, err := rootKey(h)
	if err != nil {
		return nil, err
	}

	k, err := registry.OpenKey(root, path, accessMask(access))
	if err != nil {
		return nil, translateErr(err)
	}
	return &systemKey{key: k, name: JoinKeyPath(h, path)}, nil
}

func (systemRegistry) CreateKey(h Hive, path string) (Key, error) {
	root, err := rootKey(h)
	if err != nil {
		return nil, err
	}

	k, _, err := registry.CreateKey(root, path, registry.ALL_ACCESS)
	if err != nil {
		return nil, translateErr(err)
	}
	return &systemKey{key: k, name: JoinKeyPath(h, path)}, nil
}

func rootKey(h Hive) (registry.Key, error) {
	switch h {
	case CurrentUser:
		return registry.CURRENT_USER, nil
	case LocalMachine:
		return registry.LOCAL_MACHINE, nil
	case ClassesRoot:
		return registry.CLASSES_ROOT, nil
	case Users:
		return registry.USERS, nil
	case CurrentConfig:
		return registry.CURRENT_CONFIG, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownHive, int(h))
	}
}

func accessMask(a Access) uint32 {
	if a == ReadWrite {
		return registry.READ | registry.WRITE
	}
	return registry.READ
}

func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, registry.ErrNotExist), errors.Is(err, windows.ERROR_PATH_NOT_FOUND):
		return ErrNotExist
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	case errors.Is(err, registry.ErrUnexpectedType):
		return ErrUnexpectedType
	default:
		return err
	}
}

type systemKey struct {
	key  registry.Key
	name string
}

func (k *systemKey) Name() string { return k.name }

func (k *systemKey) SubKeyNames() ([]string, error) {
	names, err := k.key.ReadSubKeyNames(-1)
	return names, translateErr(err)
}

func (k *systemKey) ValueNames() ([]string, error) {
	names, err := k.key.ReadValueNames(-1)
	return names, translateErr(err)
}

func (k *systemKey) GetValue(name string) (Value, error) {
	n, typ, err := k.key.GetValue(name, nil)
	if err != nil {
		return Value{}, translateErr(err)
	}

	buf := make([]byte, n)
	if n > 0 {
		n, typ, err = k.key.GetValue(name, buf)
		if err != nil {
			return Value{}, translateErr(err)
		}
	}
	return Value{Name: name, Type: ValueType(typ), Data: buf[:n]}, nil
}

func (k *systemKey) GetString(name string) (string, error) {
	s, _, err := k.key.GetStringValue(name)
	return s, translateErr(err)
}

func (k *systemKey) SetValue(v Value) error {
	var err error
	switch v.Type {
	case TypeString:
		err = k.key.SetStringValue(v.Name, DecodeUTF16(v.Data))
	case TypeExpandString:
		err = k.key.SetExpandStringValue(v.Name, DecodeUTF16(v.Data))
	case TypeMultiString:
		var ss []string
		ss, err = v.Strings()
		if err == nil {
			err = k.key.SetStringsValue(v.Name, ss)
		}
	case TypeDWord:
		var d uint32
		d, err = v.Uint32()
		if err == nil {
			err = k.key.SetDWordValue(v.Name, d)
		}
	case TypeQWord:
		var q uint64
		q, err = v.Uint64()
		if err == nil {
			err = k.key.SetQWordValue(v.Name, q)
		}
	case TypeBinary:
		err = k.key.SetBinaryValue(v.Name, v.Data)
	default:
		return fmt.Errorf("%w: cannot write %s value %q", ErrUnexpectedType, v.Type, v.Name)
	}
	return translateErr(err)
}

func (k *systemKey) DeleteSubKeyTree(name string) error {
	return translateErr(deleteTree(k.key, name))
}

// deleteTree removes children depth-first because RegDeleteKey refuses keys
// that still have subkeys.
func deleteTree(parent registry.Key, name string) error {
	child, err := registry.OpenKey(parent, name, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return err
	}

	names, err := child.ReadSubKeyNames(-1)
	if err == nil {
		for _, n := range names {
			if err = deleteTree(child, n); err != nil {
				break
			}
		}
	}
	child.Close()
	if err != nil {
		return err
	}

	return registry.DeleteKey(parent, name)
}

func (k *systemKey) Close() error {
	return k.key.Close()
}
