package scanner

import "github.com/blackwell-systems/regprune/internal/winreg"

// Registry value names read from every uninstall subkey.
const (
	ValueDisplayName     = "DisplayName"
	ValuePublisher       = "Publisher"
	ValueInstallLocation = "InstallLocation"
	ValueUninstallString = "UninstallString"
)

// Entry is one matched uninstall entry.
type Entry struct {
	DisplayName      string
	Vendor           string
	InstallLocation  string
	UninstallCommand string
	// KeyPath is the fully-qualified path of the uninstall subkey, used to
	// delete or back it up later.
	KeyPath string
	Source  Source
}

// Source is one hive and base uninstall path to enumerate.
type Source struct {
	Hive winreg.Hive
	Path string
}

func (s Source) String() string {
	return winreg.JoinKeyPath(s.Hive, s.Path)
}
