package fixture

import "iter"

// Map holds loaded fixtures keyed by type name in first insertion order
type Map struct {
	names []string
	items map[string]Fixture
}

// NewMap creates an empty fixture map
func NewMap() *Map {
	return &Map{items: make(map[string]Fixture)}
}

// Set stores a fixture. Replacing an existing type keeps its position.
func (m *Map) Set(typeName string, f Fixture) {
	if _, exists := m.items[typeName]; !exists {
		m.names = append(m.names, typeName)
	}
	m.items[typeName] = f
}

// Get returns the fixture loaded for a type name
func (m *Map) Get(typeName string) (Fixture, bool) {
	f, ok := m.items[typeName]
	return f, ok
}

// Len returns the number of fixtures
func (m *Map) Len() int {
	return len(m.names)
}

// TypeNames returns the type names in order
func (m *Map) TypeNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Fixtures returns the fixtures in order
func (m *Map) Fixtures() []Fixture {
	out := make([]Fixture, len(m.names))
	for i, name := range m.names {
		out[i] = m.items[name]
	}
	return out
}

// All iterates over type names and fixtures in order
func (m *Map) All() iter.Seq2[string, Fixture] {
	return func(yield func(string, Fixture) bool) {
		for _, name := range m.names {
			if !yield(name, m.items[name]) {
				return
			}
		}
	}
}
