package winreg

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Registry. Key and value names are matched without
// regard to case and keep the case they were created with, as on Windows.
type Memory struct {
	mu        sync.Mutex
	roots     map[Hive]*memNode
	denied    map[string]bool
	mutations int
}

type memNode struct {
	name     string
	children map[string]*memNode
	values   []Value
	deleted  bool
}

// NewMemory returns an empty in-memory registry with all five hives present.
func NewMemory() *Memory {
	m := &Memory{
		roots:  make(map[Hive]*memNode),
		denied: make(map[string]bool),
	}
	for _, h := range Hives {
		m.roots[h] = newMemNode(h.String())
	}
	return m
}

func newMemNode(name string) *memNode {
	return &memNode{name: name, children: make(map[string]*memNode)}
}

// Set creates the key at the fully-qualified path if needed and stores the
// given values on it. It is meant for building fixtures and does not count
// as a mutation.
func (m *Memory) Set(fullPath string, values ...Value) error {
	h, rest, err := SplitHive(fullPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.roots[h]
	for _, seg := range splitSegments(rest) {
		n = n.child(seg, true)
	}
	for _, v := range values {
		n.setValue(v)
	}
	return nil
}

// Deny makes the key at the fully-qualified path refuse write access and
// deletion with ErrAccessDenied.
func (m *Memory) Deny(fullPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[strings.ToLower(fullPath)] = true
}

// Exists reports whether the fully-qualified key path exists.
func (m *Memory) Exists(fullPath string) bool {
	h, rest, err := SplitHive(fullPath)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(h, rest) != nil
}

// Mutations returns how many write operations (SetValue, CreateKey,
// DeleteSubKeyTree) have succeeded through the Registry interface.
func (m *Memory) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

func (m *Memory) OpenKey(h Hive, path string, access Access) (Key, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHive, int(h))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.lookup(h, path)
	if n == nil {
		return nil, ErrNotExist
	}
	full := JoinKeyPath(h, path)
	if access == ReadWrite && m.denied[strings.ToLower(full)] {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, full)
	}
	return &memKey{reg: m, node: n, name: full, access: access}, nil
}

func (m *Memory) CreateKey(h Hive, path string) (Key, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHive, int(h))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	full := JoinKeyPath(h, path)
	if m.denied[strings.ToLower(full)] {
		return nil, fmt.Errorf("%w: %s", ErrAccessDenied, full)
	}

	n := m.roots[h]
	for _, seg := range splitSegments(path) {
		n = n.child(seg, true)
	}
	m.mutations++
	return &memKey{reg: m, node: n, name: full, access: ReadWrite}, nil
}

func (m *Memory) lookup(h Hive, path string) *memNode {
	n, ok := m.roots[h]
	if !ok {
		return nil
	}
	for _, seg := range splitSegments(path) {
		if n = n.child(seg, false); n == nil {
			return nil
		}
	}
	return n
}

func splitSegments(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, Separator) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func (n *memNode) child(name string, create bool) *memNode {
	lower := strings.ToLower(name)
	if c, ok := n.children[lower]; ok {
		return c
	}
	if !create {
		return nil
	}
	c := newMemNode(name)
	n.children[lower] = c
	return c
}

func (n *memNode) setValue(v Value) {
	v.Data = append([]byte(nil), v.Data...)
	for i, existing := range n.values {
		if strings.EqualFold(existing.Name, v.Name) {
			v.Name = existing.Name
			n.values[i] = v
			return
		}
	}
	n.values = append(n.values, v)
}

func (n *memNode) markDeleted() {
	n.deleted = true
	for _, c := range n.children {
		c.markDeleted()
	}
}

type memKey struct {
	reg    *Memory
	node   *memNode
	name   string
	access Access
	closed bool
}

func (k *memKey) Name() string { return k.name }

func (k *memKey) usable() error {
	if k.closed {
		return fmt.Errorf("registry key %s is closed", k.name)
	}
	if k.node.deleted {
		return ErrNotExist
	}
	return nil
}

func (k *memKey) SubKeyNames() ([]string, error) {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	if err := k.usable(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(k.node.children))
	for _, c := range k.node.children {
		names = append(names, c.name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

func (k *memKey) ValueNames() ([]string, error) {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	if err := k.usable(); err != nil {
		return nil, err
	}

	names := make([]string, len(k.node.values))
	for i, v := range k.node.values {
		names[i] = v.Name
	}
	return names, nil
}

func (k *memKey) GetValue(name string) (Value, error) {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	if err := k.usable(); err != nil {
		return Value{}, err
	}

	for _, v := range k.node.values {
		if strings.EqualFold(v.Name, name) {
			v.Data = append([]byte(nil), v.Data...)
			return v, nil
		}
	}
	return Value{}, ErrNotExist
}

func (k *memKey) GetString(name string) (string, error) {
	v, err := k.GetValue(name)
	if err != nil {
		return "", err
	}
	return v.String()
}

func (k *memKey) SetValue(v Value) error {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	if err := k.usable(); err != nil {
		return err
	}
	if k.access != ReadWrite {
		return fmt.Errorf("%w: %s opened read-only", ErrAccessDenied, k.name)
	}

	k.node.setValue(v)
	k.reg.mutations++
	return nil
}

func (k *memKey) DeleteSubKeyTree(name string) error {
	k.reg.mu.Lock()
	defer k.reg.mu.Unlock()
	if err := k.usable(); err != nil {
		return err
	}
	if k.access != ReadWrite {
		return fmt.Errorf("%w: %s opened read-only", ErrAccessDenied, k.name)
	}

	c := k.node.child(name, false)
	if c == nil {
		return ErrNotExist
	}
	full := k.name + Separator + c.name
	if k.reg.denied[strings.ToLower(full)] {
		return fmt.Errorf("%w: %s", ErrAccessDenied, full)
	}

	delete(k.node.children, strings.ToLower(name))
	c.markDeleted()
	k.reg.mutations++
	return nil
}

func (k *memKey) Close() error {
	k.closed = true
	return nil
}
