package fixture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/orm/schema"
)

// ConnectionFunc is called once per connection group by RunPerConnection
type ConnectionFunc func(ctx context.Context, conn *connection.Connection, fixtures []Fixture) error

// SortFunc orders the fixtures of one connection so that referenced tables
// come first. acyclic is false when no such order exists.
type SortFunc func(ctx context.Context, conn *connection.Connection, fixtures []Fixture) (sorted []Fixture, acyclic bool, err error)

// Options configures a Helper
type Options struct {
	// Registry resolves fixture identifiers. Required for LoadFixtures.
	Registry *Registry

	// Connections provides the connection of each fixture group.
	Connections connection.Provider

	// Tables is the shared table registry factories register schemas with.
	Tables *schema.Registry

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// Sorter replaces SortByConstraint when set.
	Sorter SortFunc
}

// Helper loads fixtures and runs their lifecycle against the database
type Helper struct {
	registry    *Registry
	connections connection.Provider
	tables      *schema.Registry
	logger      *zap.Logger
	sorter      SortFunc
}

// NewHelper creates a fixture helper
func NewHelper(opts Options) *Helper {
	h := &Helper{
		registry:    opts.Registry,
		connections: opts.Connections,
		tables:      opts.Tables,
		logger:      opts.Logger,
		sorter:      opts.Sorter,
	}
	if h.registry == nil {
		h.registry = NewRegistry(Namespaces{})
	}
	if h.tables == nil {
		h.tables = schema.NewRegistry()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.sorter == nil {
		h.sorter = h.SortByConstraint
	}
	return h
}

// Tables returns the table registry fixtures register their schemas with
func (h *Helper) Tables() *schema.Registry {
	return h.tables
}

// LoadFixtures resolves identifiers to fresh fixture instances.
//
// A repeated identifier fails with *DuplicateFixtureError and an
// unresolvable one with *MissingFixtureError; no partial result is returned.
// Identifiers resolving to the same type collapse into one entry, the later
// instance winning. Tables registered by factories during the call are
// removed from the table registry before it returns.
func (h *Helper) LoadFixtures(identifiers ...string) (*Map, error) {
	before := make(map[string]bool)
	for _, name := range h.tables.Names() {
		before[name] = true
	}
	defer func() {
		for _, name := range h.tables.Names() {
			if !before[name] {
				h.tables.Remove(name)
			}
		}
	}()

	seen := make(map[string]bool, len(identifiers))
	fixtures := NewMap()

	for _, identifier := range identifiers {
		if seen[identifier] {
			return nil, &DuplicateFixtureError{Identifier: identifier}
		}
		seen[identifier] = true

		typeName, f, err := h.registry.New(identifier, h.tables)
		if err != nil {
			return nil, err
		}
		fixtures.Set(typeName, f)
	}

	h.logger.Debug("loaded fixtures", zap.Strings("types", fixtures.TypeNames()))
	return fixtures, nil
}

// RunPerConnection groups fixtures by connection name, in first seen order,
// and calls fn once per name with the connection that name resolves to.
// Names aliased to the same connection still get one call each. Groups run
// sequentially and the first error stops the remaining groups.
func (h *Helper) RunPerConnection(ctx context.Context, fn ConnectionFunc, fixtures []Fixture) error {
	var order []string
	groups := make(map[string][]Fixture)

	for _, f := range fixtures {
		name := f.ConnectionName()
		if _, exists := groups[name]; !exists {
			order = append(order, name)
		}
		groups[name] = append(groups[name], f)
	}

	for _, name := range order {
		if h.connections == nil {
			return &connection.NotFoundError{Name: name}
		}
		conn, err := h.connections.Get(ctx, name)
		if err != nil {
			return err
		}
		if err := fn(ctx, conn, groups[name]); err != nil {
			return err
		}
	}
	return nil
}

// Insert inserts the seed rows of every fixture. Within a connection the
// fixtures are inserted in foreign key order inside one transaction; when
// the tables reference each other in a cycle they are inserted in the given
// order with constraints disabled. The first failure aborts and rolls back
// its connection group and is returned as *InsertError.
func (h *Helper) Insert(ctx context.Context, fixtures []Fixture) error {
	return h.RunPerConnection(ctx, func(ctx context.Context, conn *connection.Connection, group []Fixture) error {
		sorted, acyclic, err := h.sorter(ctx, conn, group)
		if err != nil {
			return fmt.Errorf("sort fixtures on %s: %w", conn.Name(), err)
		}

		h.logger.Debug("inserting fixtures",
			zap.String("connection", conn.Name()),
			zap.Int("fixtures", len(group)),
			zap.Bool("constraints", acyclic))

		run := conn.Transactional
		order := sorted
		if !acyclic {
			run = conn.WithoutConstraints
			order = group
		}

		return run(ctx, func(q connection.Querier) error {
			return h.insertAll(ctx, conn, q, order)
		})
	}, fixtures)
}

func (h *Helper) insertAll(ctx context.Context, conn *connection.Connection, q connection.Querier, fixtures []Fixture) error {
	for _, f := range fixtures {
		if err := f.Insert(ctx, conn.Dialect(), q); err != nil {
			h.logger.Error("fixture insert failed",
				zap.String("connection", conn.Name()),
				zap.String("table", f.TableName()),
				zap.Error(err))
			return &InsertError{Table: f.TableName(), Err: err}
		}
	}
	return nil
}

// Truncate empties the table of every fixture. When the dialect can
// truncate with constraints enforced and the tables form no cycle,
// dependents are truncated before the tables they reference inside one
// transaction; otherwise the given order is used with constraints
// disabled. The first failure is returned as *TruncateError.
func (h *Helper) Truncate(ctx context.Context, fixtures []Fixture) error {
	return h.RunPerConnection(ctx, func(ctx context.Context, conn *connection.Connection, group []Fixture) error {
		run := conn.WithoutConstraints
		order := group

		if conn.Dialect().SupportsTruncateWithConstraints() {
			sorted, acyclic, err := h.sorter(ctx, conn, group)
			if err != nil {
				return fmt.Errorf("sort fixtures on %s: %w", conn.Name(), err)
			}
			if acyclic {
				run = conn.Transactional
				order = reversed(sorted)
			}
		}

		h.logger.Debug("truncating fixtures",
			zap.String("connection", conn.Name()),
			zap.Int("fixtures", len(group)))

		return run(ctx, func(q connection.Querier) error {
			for _, f := range order {
				if err := f.Truncate(ctx, conn.Dialect(), q); err != nil {
					err = conn.Dialect().ConvertError(err)
					h.logger.Error("fixture truncate failed",
						zap.String("connection", conn.Name()),
						zap.String("table", f.TableName()),
						zap.Error(err))
					return &TruncateError{Table: f.TableName(), Err: err}
				}
			}
			return nil
		})
	}, fixtures)
}

// Setup empties the fixture tables and inserts fresh seed rows
func (h *Helper) Setup(ctx context.Context, fixtures []Fixture) error {
	if err := h.Truncate(ctx, fixtures); err != nil {
		return err
	}
	return h.Insert(ctx, fixtures)
}

// SortByConstraint orders the fixtures of one connection so that tables
// referenced by foreign keys come before the tables referencing them. Only
// foreign keys between the given fixtures' tables are considered. Unrelated
// fixtures keep their given order. When the tables reference each other in a
// cycle, the returned order breaks the cycle at the earliest given fixture
// and acyclic is false.
func (h *Helper) SortByConstraint(ctx context.Context, conn *connection.Connection, fixtures []Fixture) ([]Fixture, bool, error) {
	tables := tableNames(fixtures)

	fks, err := conn.Dialect().ForeignKeys(ctx, conn.DB(), tables)
	if err != nil {
		return nil, false, err
	}

	graph := schema.NewGraph(tables...)
	for _, table := range tables {
		for _, fk := range fks[table] {
			graph.AddEdge(table, fk.ReferencedTable)
		}
	}

	order, acyclic := graph.Sort()
	return orderByTable(fixtures, order), acyclic, nil
}

// CreateTables creates the tables of fixtures that carry a schema, in
// foreign key order. Existing tables are left untouched.
func (h *Helper) CreateTables(ctx context.Context, fixtures []Fixture) error {
	return h.RunPerConnection(ctx, func(ctx context.Context, conn *connection.Connection, group []Fixture) error {
		ordered := h.schemaOrder(group)

		return conn.Transactional(ctx, func(q connection.Querier) error {
			for _, f := range ordered {
				if _, err := q.ExecContext(ctx, conn.Dialect().CreateTableSQL(f.Schema())); err != nil {
					return fmt.Errorf("create table %s: %w", f.TableName(), conn.Dialect().ConvertError(err))
				}
			}
			return nil
		})
	}, fixtures)
}

// DropTables drops the tables of fixtures that carry a schema, dependents
// first.
func (h *Helper) DropTables(ctx context.Context, fixtures []Fixture) error {
	return h.RunPerConnection(ctx, func(ctx context.Context, conn *connection.Connection, group []Fixture) error {
		ordered := reversed(h.schemaOrder(group))

		return conn.WithoutConstraints(ctx, func(q connection.Querier) error {
			for _, f := range ordered {
				if _, err := q.ExecContext(ctx, conn.Dialect().DropTableSQL(f.TableName())); err != nil {
					return fmt.Errorf("drop table %s: %w", f.TableName(), conn.Dialect().ConvertError(err))
				}
			}
			return nil
		})
	}, fixtures)
}

// schemaOrder sorts the fixtures with a schema by their declared foreign keys
func (h *Helper) schemaOrder(fixtures []Fixture) []Fixture {
	var withSchema []Fixture
	var tables []*schema.Table
	for _, f := range fixtures {
		if f.Schema() == nil {
			continue
		}
		withSchema = append(withSchema, f)
		tables = append(tables, f.Schema())
	}

	order, _ := schema.NewTableGraph(tables).Sort()
	return orderByTable(withSchema, order)
}

func tableNames(fixtures []Fixture) []string {
	seen := make(map[string]bool, len(fixtures))
	var tables []string
	for _, f := range fixtures {
		if !seen[f.TableName()] {
			seen[f.TableName()] = true
			tables = append(tables, f.TableName())
		}
	}
	return tables
}

// orderByTable arranges fixtures by table order. Fixtures sharing a table
// keep their relative order.
func orderByTable(fixtures []Fixture, order []string) []Fixture {
	byTable := make(map[string][]Fixture, len(order))
	for _, f := range fixtures {
		byTable[f.TableName()] = append(byTable[f.TableName()], f)
	}

	sorted := make([]Fixture, 0, len(fixtures))
	for _, table := range order {
		sorted = append(sorted, byTable[table]...)
	}
	return sorted
}

func reversed(fixtures []Fixture) []Fixture {
	out := make([]Fixture, len(fixtures))
	for i, f := range fixtures {
		out[len(fixtures)-1-i] = f
	}
	return out
}
