package connection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TestPrefix is prepended to a connection name to find its test counterpart
const TestPrefix = "test_"

// Provider resolves connection names to open connections
type Provider interface {
	Get(ctx context.Context, name string) (*Connection, error)
}

// Manager owns the configured connections of an application. Connections
// are opened lazily on first use. Aliases redirect one name to another.
type Manager struct {
	configs map[string]Config
	conns   map[string]*Connection
	aliases map[string]string
	mu      sync.RWMutex
}

// NewManager creates an empty connection manager
func NewManager() *Manager {
	return &Manager{
		configs: make(map[string]Config),
		conns:   make(map[string]*Connection),
		aliases: make(map[string]string),
	}
}

// Configure registers the configuration of a named connection
func (m *Manager) Configure(name string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("connection %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, open := m.conns[name]; open {
		return fmt.Errorf("connection %s is already open", name)
	}
	m.configs[name] = cfg
	return nil
}

// Add registers an already open connection under its name
func (m *Manager) Add(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conns[conn.Name()] = conn
}

// Alias makes alias resolve to target. The target must be configured.
func (m *Manager) Alias(target, alias string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.knownLocked(target) {
		return &NotFoundError{Name: target}
	}
	m.aliases[alias] = target
	return nil
}

// DropAlias removes an alias. Dropping an unknown alias is a no-op.
func (m *Manager) DropAlias(alias string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.aliases, alias)
}

// Aliases returns a copy of the alias table
func (m *Manager) Aliases() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(m.aliases))
	for alias, target := range m.aliases {
		out[alias] = target
	}
	return out
}

// AddTestAliases aliases every connection to its test counterpart:
// "default" to "test" and any other name to "test_<name>" when configured.
func (m *Manager) AddTestAliases() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range m.namesLocked() {
		if name == "test" || strings.HasPrefix(name, TestPrefix) {
			continue
		}
		target := TestPrefix + name
		if name == "default" {
			target = "test"
		}
		if m.knownLocked(target) {
			m.aliases[name] = target
		}
	}
}

// Names returns the configured connection names sorted alphabetically
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.namesLocked()
}

// Resolve follows aliases and returns the connection name that will be used
func (m *Manager) Resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.resolveLocked(name)
}

// Get returns the named connection, opening it on first use
func (m *Manager) Get(ctx context.Context, name string) (*Connection, error) {
	m.mu.RLock()
	resolved := m.resolveLocked(name)
	conn, open := m.conns[resolved]
	m.mu.RUnlock()
	if open {
		return conn, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if conn, open := m.conns[resolved]; open {
		return conn, nil
	}
	cfg, exists := m.configs[resolved]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}

	conn, err := Open(ctx, resolved, cfg)
	if err != nil {
		return nil, err
	}
	m.conns[resolved] = conn
	return conn, nil
}

// Close closes every open connection
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, conn := range m.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	m.conns = make(map[string]*Connection)
	return errors.Join(errs...)
}

func (m *Manager) resolveLocked(name string) string {
	if target, ok := m.aliases[name]; ok {
		return target
	}
	return name
}

func (m *Manager) knownLocked(name string) bool {
	if _, ok := m.configs[name]; ok {
		return true
	}
	_, ok := m.conns[name]
	return ok
}

func (m *Manager) namesLocked() []string {
	seen := make(map[string]bool)
	var names []string
	for name := range m.configs {
		seen[name] = true
		names = append(names, name)
	}
	for name := range m.conns {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
