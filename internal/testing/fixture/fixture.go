// Package fixture loads test fixtures by identifier and manages their
// lifecycle against the database: creating tables, inserting seed rows in
// foreign key order and truncating afterwards.
//
// Identifiers take the form scope.Name, where scope is core, app or
// plugin.<PluginPath>, and Name may contain / separated sub namespaces:
//
//	core.Articles
//	app.Admin/Users
//	plugin.Company/Blog.Comments
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"

	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/orm/schema"
)

// DefaultConnection is the connection fixtures use unless they name another
const DefaultConnection = "test"

// Fixture is a table schema plus the seed rows inserted before a test
type Fixture interface {
	// TableName returns the table the fixture populates.
	TableName() string

	// ConnectionName returns the name of the connection the table lives on.
	ConnectionName() string

	// Schema returns the table schema, or nil when the table is managed elsewhere.
	Schema() *schema.Table

	// Records returns the seed rows.
	Records() []map[string]any

	// Insert writes the seed rows.
	Insert(ctx context.Context, d connection.Dialect, q connection.Querier) error

	// Truncate removes every row from the table.
	Truncate(ctx context.Context, d connection.Dialect, q connection.Querier) error
}

// Config declares a TestFixture
type Config struct {
	Table      string
	Connection string
	Schema     *schema.Table
	Records    []map[string]any
}

// TestFixture is the standard Fixture implementation. Custom fixtures embed
// it and override the methods they need.
type TestFixture struct {
	table      string
	connection string
	schema     *schema.Table
	records    []map[string]any
}

// NewTestFixture builds a fixture and registers its schema with the table
// registry. When cfg has no schema the registered one is used, if any.
func NewTestFixture(tables *schema.Registry, cfg Config) (*TestFixture, error) {
	table := cfg.Table
	if table == "" && cfg.Schema != nil {
		table = cfg.Schema.Name
	}
	if table == "" {
		return nil, fmt.Errorf("fixture table name is required")
	}

	conn := cfg.Connection
	if conn == "" {
		conn = DefaultConnection
	}

	f := &TestFixture{
		table:      table,
		connection: conn,
		records:    cfg.Records,
	}

	switch {
	case cfg.Schema != nil:
		if cfg.Schema.Name != table {
			return nil, fmt.Errorf("fixture table %s does not match schema %s", table, cfg.Schema.Name)
		}
		registered, _, err := tables.Locate(table, func() (*schema.Table, error) {
			return cfg.Schema, nil
		})
		if err != nil {
			return nil, err
		}
		f.schema = registered
	default:
		if registered, ok := tables.Get(table); ok {
			f.schema = registered
		}
	}

	return f, nil
}

func (f *TestFixture) TableName() string         { return f.table }
func (f *TestFixture) ConnectionName() string    { return f.connection }
func (f *TestFixture) Schema() *schema.Table     { return f.schema }
func (f *TestFixture) Records() []map[string]any { return f.records }

// Insert writes each record with a single row INSERT. Missing uuid primary
// keys are generated.
func (f *TestFixture) Insert(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	for i, record := range f.records {
		columns, values, err := f.row(record)
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if len(columns) == 0 {
			continue
		}
		if _, err := q.ExecContext(ctx, connection.InsertSQL(d, f.table, columns), values...); err != nil {
			return d.ConvertError(err)
		}
	}
	return nil
}

// Truncate empties the table using the dialect's truncate statement
func (f *TestFixture) Truncate(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	return d.TruncateTable(ctx, q, f.table)
}

// row orders the record's columns by the schema and appends any remaining
// keys alphabetically.
func (f *TestFixture) row(record map[string]any) ([]string, []any, error) {
	used := make(map[string]bool, len(record))
	var columns []string
	var values []any

	if f.schema != nil {
		for _, col := range f.schema.Columns {
			value, ok := record[col.Name]
			if !ok {
				if col.Primary && col.Type == schema.TypeUUID {
					columns = append(columns, col.Name)
					values = append(values, uuid.NewString())
				}
				continue
			}
			used[col.Name] = true
			converted, err := columnValue(value)
			if err != nil {
				return nil, nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
			columns = append(columns, col.Name)
			values = append(values, converted)
		}
	}

	var extra []string
	for name := range record {
		if !used[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		converted, err := columnValue(record[name])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", name, err)
		}
		columns = append(columns, name)
		values = append(values, converted)
	}

	return columns, values, nil
}

// columnValue encodes maps and non byte slices as JSON so they can be bound
// to json columns.
func columnValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if _, ok := value.([]byte); ok {
		return value, nil
	}

	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return value, nil
	}
}
