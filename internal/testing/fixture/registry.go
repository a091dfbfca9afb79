package fixture

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/conduit-lang/framework/internal/orm/schema"
)

// Identifier scopes
const (
	ScopeCore   = "core"
	ScopeApp    = "app"
	ScopePlugin = "plugin"
)

// DefaultCoreNamespace is the namespace of the framework's own fixtures
const DefaultCoreNamespace = "conduit"

// Factory builds a fresh fixture instance. Schemas the fixture needs are
// registered with tables.
type Factory func(tables *schema.Registry) (Fixture, error)

// Namespaces maps identifier scopes to fixture type namespaces
type Namespaces struct {
	Core    string
	App     string
	Plugins map[string]string // plugin path -> namespace
}

// Registry maps fixture type names to factories
type Registry struct {
	factories  map[string]Factory
	namespaces Namespaces
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry. An empty core namespace defaults
// to DefaultCoreNamespace.
func NewRegistry(ns Namespaces) *Registry {
	if ns.Core == "" {
		ns.Core = DefaultCoreNamespace
	}
	plugins := make(map[string]string, len(ns.Plugins))
	for plugin, namespace := range ns.Plugins {
		plugins[plugin] = namespace
	}
	ns.Plugins = plugins

	return &Registry{
		factories:  make(map[string]Factory),
		namespaces: ns,
	}
}

// TypeName builds the fully qualified type name of a fixture. name may
// contain / separated sub namespaces.
func TypeName(namespace, name string) string {
	return path.Join(namespace, "fixture", name)
}

// Register registers a factory under a fully qualified type name
func (r *Registry) Register(typeName string, factory Factory) error {
	if typeName == "" {
		return fmt.Errorf("fixture type name is required")
	}
	if factory == nil {
		return fmt.Errorf("fixture %s: factory is nil", typeName)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("fixture %s is already registered", typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// RegisterCore registers a framework fixture, resolved by core.<name>
func (r *Registry) RegisterCore(name string, factory Factory) error {
	return r.Register(TypeName(r.namespaces.Core, name), factory)
}

// RegisterApp registers an application fixture, resolved by app.<name>
func (r *Registry) RegisterApp(name string, factory Factory) error {
	if r.namespaces.App == "" {
		return fmt.Errorf("fixture %s: application namespace is not configured", name)
	}
	return r.Register(TypeName(r.namespaces.App, name), factory)
}

// RegisterPlugin registers a plugin fixture, resolved by plugin.<plugin>.<name>
func (r *Registry) RegisterPlugin(plugin, name string, factory Factory) error {
	return r.Register(TypeName(r.pluginNamespace(plugin), name), factory)
}

// Lookup returns the factory registered for a type name
func (r *Registry) Lookup(typeName string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[typeName]
	return factory, exists
}

// TypeNames returns the registered type names sorted alphabetically
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve converts a fixture identifier to a type name.
//
// core.Name, app.Name and plugin.Path.Name are resolved against the
// configured namespaces; for plugins the last '.' separates the plugin path
// from the fixture name. Anything else is taken as a full type name.
func (r *Registry) Resolve(identifier string) (string, error) {
	scope, rest, found := strings.Cut(identifier, ".")
	if !found {
		return identifier, nil
	}

	switch scope {
	case ScopeCore:
		return TypeName(r.namespaces.Core, rest), nil
	case ScopeApp:
		if r.namespaces.App == "" {
			return "", &MissingFixtureError{Identifier: identifier, Err: fmt.Errorf("application namespace is not configured")}
		}
		return TypeName(r.namespaces.App, rest), nil
	case ScopePlugin:
		idx := strings.LastIndex(rest, ".")
		if idx <= 0 || idx == len(rest)-1 {
			return "", &MissingFixtureError{Identifier: identifier, Err: fmt.Errorf("plugin fixtures are named plugin.<Plugin>.<Name>")}
		}
		return TypeName(r.pluginNamespace(rest[:idx]), rest[idx+1:]), nil
	default:
		return identifier, nil
	}
}

// New resolves an identifier and builds a fixture from its factory
func (r *Registry) New(identifier string, tables *schema.Registry) (string, Fixture, error) {
	typeName, err := r.Resolve(identifier)
	if err != nil {
		return "", nil, err
	}

	factory, ok := r.Lookup(typeName)
	if !ok {
		return "", nil, &MissingFixtureError{Identifier: identifier, TypeName: typeName}
	}

	f, err := factory(tables)
	if err != nil {
		return "", nil, &MissingFixtureError{Identifier: identifier, TypeName: typeName, Err: err}
	}
	if f == nil {
		return "", nil, &MissingFixtureError{Identifier: identifier, TypeName: typeName}
	}
	return typeName, f, nil
}

func (r *Registry) pluginNamespace(plugin string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if namespace, ok := r.namespaces.Plugins[plugin]; ok {
		return namespace
	}
	return plugin
}
