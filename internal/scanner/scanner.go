package scanner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/blackwell-systems/regprune/internal/winreg"
)

// Scanner enumerates uninstall entries under a fixed list of sources.
type Scanner struct {
	reg     winreg.Registry
	matcher Matcher
	sources []Source
	logger  *zap.Logger
}

// New creates a Scanner. Sources are scanned in the order given.
func New(reg winreg.Registry, matcher Matcher, sources []Source, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{reg: reg, matcher: matcher, sources: sources, logger: logger}
}

// Sources returns the configured sources in scan order.
func (s *Scanner) Sources() []Source {
	return s.sources
}

// ScanAll scans every configured source and returns one list per source, in
// source order. Sources that cannot be read are logged and yield an empty
// list.
func (s *Scanner) ScanAll() [][]*Entry {
	lists := make([][]*Entry, 0, len(s.sources))
	for _, src := range s.sources {
		entries, err := s.Scan(src)
		if err != nil {
			s.logger.Warn("skipping uninstall source",
				zap.String("source", src.String()),
				zap.Error(err))
			entries = []*Entry{}
		}
		lists = append(lists, entries)
	}
	return lists
}

// Scan returns the matching entries directly below src. A missing base key
// is an empty result, not an error.
func (s *Scanner) Scan(src Source) ([]*Entry, error) {
	entries := []*Entry{}

	// Write access on the base key, although only reads follow.
	base, err := s.reg.OpenKey(src.Hive, src.Path, winreg.ReadWrite)
	if errors.Is(err, winreg.ErrNotExist) {
		s.logger.Debug("uninstall source not present", zap.String("source", src.String()))
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer base.Close()

	names, err := base.SubKeyNames()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", src, err)
	}

	for _, name := range names {
		entry, ok := s.readEntry(src, name)
		if ok {
			entries = append(entries, entry)
		}
	}

	s.logger.Debug("scanned uninstall source",
		zap.String("source", src.String()),
		zap.Int("subkeys", len(names)),
		zap.Int("matched", len(entries)))
	return entries, nil
}

func (s *Scanner) readEntry(src Source, name string) (*Entry, bool) {
	keyPath := winreg.JoinKeyPath(src.Hive, src.Path, name)

	sub, err := s.reg.OpenKey(src.Hive, src.Path+winreg.Separator+name, winreg.Read)
	if err != nil {
		s.logger.Debug("skipping unreadable subkey", zap.String("key", keyPath), zap.Error(err))
		return nil, false
	}
	defer sub.Close()

	uninstall := readString(sub, ValueUninstallString)
	if !s.matcher.Match(uninstall) {
		return nil, false
	}

	entry := &Entry{
		DisplayName:      readString(sub, ValueDisplayName),
		Vendor:           readString(sub, ValuePublisher),
		InstallLocation:  readString(sub, ValueInstallLocation),
		UninstallCommand: uninstall,
		KeyPath:          keyPath,
		Source:           src,
	}
	if entry.DisplayName == "" && entry.KeyPath == "" {
		return nil, false
	}
	return entry, true
}

// readString returns "" for values that are absent or not strings.
func readString(k winreg.Key, name string) string {
	s, err := k.GetString(name)
	if err != nil {
		return ""
	}
	return s
}
