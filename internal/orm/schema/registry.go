package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrTableExists is returned when registering a table name twice
var ErrTableExists = errors.New("table already registered")

// Registry is the shared table locator. Fixtures register the schema of the
// table they populate and look up schemas of other tables by name.
type Registry struct {
	tables map[string]*Table
	mu     sync.RWMutex
}

// NewRegistry creates a new table registry
func NewRegistry() *Registry {
	return &Registry{
		tables: make(map[string]*Table),
	}
}

// Register registers a table schema
func (r *Registry) Register(table *Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("schema validation failed for %s: %w", table.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[table.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTableExists, table.Name)
	}
	r.tables[table.Name] = table
	return nil
}

// Locate returns the registered table, building and registering it with
// build when absent. The boolean reports whether the table was added.
func (r *Registry) Locate(name string, build func() (*Table, error)) (*Table, bool, error) {
	if table, exists := r.Get(name); exists {
		return table, false, nil
	}

	// build runs unlocked so it may consult the registry itself
	table, err := build()
	if err != nil {
		return nil, false, err
	}
	if table.Name != name {
		return nil, false, fmt.Errorf("table builder for %s returned table %s", name, table.Name)
	}
	if err := table.Validate(); err != nil {
		return nil, false, fmt.Errorf("schema validation failed for %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, exists := r.tables[name]; exists {
		return existing, false, nil
	}
	r.tables[name] = table
	return table, true, nil
}

// Get retrieves a table schema by name
func (r *Registry) Get(name string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	table, exists := r.tables[name]
	return table, exists
}

// Exists checks if a table schema exists
func (r *Registry) Exists(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tables[name]
	return exists
}

// Remove unregisters a table. Removing an unknown table is a no-op.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tables, name)
}

// Names returns the registered table names sorted alphabetically
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered tables
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tables)
}

// Clear removes all registered tables (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tables = make(map[string]*Table)
}
