package snapshots

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/regprune/internal/regfile"
	"github.com/blackwell-systems/regprune/internal/winreg"
)

// Backup exports the key at keyPath, with everything below it, to
// <snapshot dir>/<fileName>.reg and returns the file's path.
func (m *Manager) Backup(keyPath, fileName string) (string, error) {
	return m.backupTo(m.snapshotDir, keyPath, fileName)
}

func (m *Manager) backupTo(dir, keyPath, fileName string) (string, error) {
	kp, err := winreg.ParseKeyPath(keyPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSkipped, err)
	}

	blocks, err := Export(m.reg, kp.Hive, kp.Path())
	if errors.Is(err, winreg.ErrNotExist) {
		return "", fmt.Errorf("%w: %s does not exist", ErrSkipped, keyPath)
	}
	if err != nil {
		return "", fmt.Errorf("failed to export %s: %w", keyPath, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, fileName+".reg")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	if err := regfile.Encode(f, blocks); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close backup file: %w", err)
	}

	return path, nil
}

// Export reads the key at path below h and every key beneath it, parents
// before children.
func Export(reg winreg.Registry, h winreg.Hive, path string) ([]*regfile.KeyBlock, error) {
	var blocks []*regfile.KeyBlock
	if err := exportKey(reg, h, path, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

func exportKey(reg winreg.Registry, h winreg.Hive, path string, blocks *[]*regfile.KeyBlock) error {
	k, err := reg.OpenKey(h, path, winreg.Read)
	if err != nil {
		return err
	}
	defer k.Close()

	block := &regfile.KeyBlock{Path: winreg.JoinKeyPath(h, path)}

	names, err := k.ValueNames()
	if err != nil {
		return fmt.Errorf("failed to list values of %s: %w", block.Path, err)
	}
	for _, name := range names {
		v, err := k.GetValue(name)
		if err != nil {
			return fmt.Errorf("failed to read value %q of %s: %w", name, block.Path, err)
		}
		block.Values = append(block.Values, v)
	}
	*blocks = append(*blocks, block)

	children, err := k.SubKeyNames()
	if err != nil {
		return fmt.Errorf("failed to list subkeys of %s: %w", block.Path, err)
	}
	for _, child := range children {
		if err := exportKey(reg, h, path+winreg.Separator+child, blocks); err != nil {
			return err
		}
	}
	return nil
}

// sanitizeFileName replaces characters Windows does not allow in file names.
func sanitizeFileName(name string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, name)
	clean = strings.Trim(clean, " .")
	if clean == "" {
		return "key"
	}
	return clean
}
