// Package winreg puts the Windows registry behind two small interfaces,
// Registry and Key, so the scanner, remover and snapshot code can run against
// the real registry on Windows and against an in-memory registry everywhere
// else.
package winreg

import "strings"

// Hive identifies one of the predefined registry root keys.
type Hive int

const (
	CurrentUser Hive = iota + 1
	LocalMachine
	ClassesRoot
	Users
	CurrentConfig
)

// Long and short root tokens, as they appear in .reg files and in the Name
// of an open key.
const (
	HKEYCurrentUser        = "HKEY_CURRENT_USER"
	HKEYCurrentUserShort   = "HKCU"
	HKEYLocalMachine       = "HKEY_LOCAL_MACHINE"
	HKEYLocalMachineShort  = "HKLM"
	HKEYClassesRoot        = "HKEY_CLASSES_ROOT"
	HKEYClassesRootShort   = "HKCR"
	HKEYUsers              = "HKEY_USERS"
	HKEYUsersShort         = "HKU"
	HKEYCurrentConfig      = "HKEY_CURRENT_CONFIG"
	HKEYCurrentConfigShort = "HKCC"
)

// Separator joins key path segments.
const Separator = `\`

var hiveTokens = map[Hive][2]string{
	CurrentUser:   {HKEYCurrentUser, HKEYCurrentUserShort},
	LocalMachine:  {HKEYLocalMachine, HKEYLocalMachineShort},
	ClassesRoot:   {HKEYClassesRoot, HKEYClassesRootShort},
	Users:         {HKEYUsers, HKEYUsersShort},
	CurrentConfig: {HKEYCurrentConfig, HKEYCurrentConfigShort},
}

// Hives lists every known root in declaration order.
var Hives = []Hive{CurrentUser, LocalMachine, ClassesRoot, Users, CurrentConfig}

// String returns the long root token, e.g. HKEY_CURRENT_USER.
func (h Hive) String() string {
	if t, ok := hiveTokens[h]; ok {
		return t[0]
	}
	return "HKEY_UNKNOWN"
}

// Short returns the abbreviated root token, e.g. HKCU.
func (h Hive) Short() string {
	if t, ok := hiveTokens[h]; ok {
		return t[1]
	}
	return "HK?"
}

// Valid reports whether h is one of the five predefined roots.
func (h Hive) Valid() bool {
	_, ok := hiveTokens[h]
	return ok
}

// ParseHive maps a root token to a Hive. Long and short forms are accepted
// without regard to case.
func ParseHive(token string) (Hive, bool) {
	token = strings.TrimSpace(token)
	for _, h := range Hives {
		t := hiveTokens[h]
		if strings.EqualFold(token, t[0]) || strings.EqualFold(token, t[1]) {
			return h, true
		}
	}
	return 0, false
}
