package winreg

import (
	"errors"
	"fmt"
	"strings"
)

// Reasons a key path can fail to parse. A *ParseError wraps exactly one.
var (
	ErrEmptyPath   = errors.New("empty key path")
	ErrNoSeparator = errors.New("key path has no separator after the root")
	ErrUnknownHive = errors.New("unknown root hive")
	ErrNoParent    = errors.New("key has no parent below the root")
	ErrEmptyLeaf   = errors.New("key path ends with a separator")
)

// ParseError reports why a fully-qualified key path could not be split.
type ParseError struct {
	Path   string
	Reason error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse key path %q: %v", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Reason }

// KeyPath is a parsed, fully-qualified key path: the subkey Leaf lives
// under Parent, which is relative to Hive.
type KeyPath struct {
	Hive   Hive
	Parent string
	Leaf   string
}

// Path returns the key's path relative to its hive.
func (k KeyPath) Path() string {
	return k.Parent + Separator + k.Leaf
}

// String returns the fully-qualified path.
func (k KeyPath) String() string {
	return k.Hive.String() + Separator + k.Path()
}

// ParseKeyPath splits "<ROOT>\<parent...>\<leaf>". The root token ends at
// the first separator and the leaf starts after the last one. Malformed input
// yields a *ParseError.
func ParseKeyPath(path string) (KeyPath, error) {
	hive, rest, err := SplitHive(path)
	if err != nil {
		return KeyPath{}, err
	}

	i := strings.LastIndex(rest, Separator)
	if i < 0 {
		return KeyPath{}, &ParseError{Path: path, Reason: ErrNoParent}
	}
	parent, leaf := rest[:i], rest[i+1:]
	if leaf == "" {
		return KeyPath{}, &ParseError{Path: path, Reason: ErrEmptyLeaf}
	}
	if strings.Trim(parent, Separator) == "" {
		return KeyPath{}, &ParseError{Path: path, Reason: ErrNoParent}
	}

	return KeyPath{Hive: hive, Parent: parent, Leaf: leaf}, nil
}

// SplitHive separates the root token from the rest of a fully-qualified
// path. Unlike ParseKeyPath it accepts direct children of the root.
func SplitHive(path string) (Hive, string, error) {
	if strings.TrimSpace(path) == "" {
		return 0, "", &ParseError{Path: path, Reason: ErrEmptyPath}
	}

	token, rest, found := strings.Cut(path, Separator)
	if !found {
		if _, ok := ParseHive(token); !ok {
			return 0, "", &ParseError{Path: path, Reason: ErrUnknownHive}
		}
		return 0, "", &ParseError{Path: path, Reason: ErrNoSeparator}
	}

	hive, ok := ParseHive(token)
	if !ok {
		return 0, "", &ParseError{Path: path, Reason: ErrUnknownHive}
	}
	if rest == "" {
		return 0, "", &ParseError{Path: path, Reason: ErrNoSeparator}
	}

	return hive, rest, nil
}

// JoinKeyPath builds a fully-qualified path from a hive and path segments.
// Empty segments are dropped.
func JoinKeyPath(h Hive, parts ...string) string {
	segs := make([]string, 0, len(parts)+1)
	segs = append(segs, h.String())
	for _, p := range parts {
		p = strings.Trim(p, Separator)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, Separator)
}
