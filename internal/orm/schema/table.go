package schema

import (
	"fmt"
)

// Column describes a single table column
type Column struct {
	Name          string        `yaml:"name"`
	Type          PrimitiveType `yaml:"type"`
	Primary       bool          `yaml:"primary"`
	Null          bool          `yaml:"null"`
	AutoIncrement bool          `yaml:"auto_increment"`
	Length        int           `yaml:"length"`
	Default       any           `yaml:"default"`
}

// ForeignKey describes a foreign key constraint from one table to another
type ForeignKey struct {
	Name              string        `yaml:"name"`
	Columns           []string      `yaml:"columns"`
	ReferencedTable   string        `yaml:"references"`
	ReferencedColumns []string      `yaml:"referenced_columns"`
	OnDelete          CascadeAction `yaml:"on_delete"`
	OnUpdate          CascadeAction `yaml:"on_update"`
}

// Table is the schema of one database table
type Table struct {
	Name        string
	Columns     []*Column
	ForeignKeys []*ForeignKey
}

// NewTable creates an empty table schema
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumn appends a column, replacing an existing column of the same name
func (t *Table) AddColumn(col *Column) *Table {
	for i, existing := range t.Columns {
		if existing.Name == col.Name {
			t.Columns[i] = col
			return t
		}
	}
	t.Columns = append(t.Columns, col)
	return t
}

// AddForeignKey appends a foreign key constraint
func (t *Table) AddForeignKey(fk *ForeignKey) *Table {
	t.ForeignKeys = append(t.ForeignKeys, fk)
	return t
}

// Column returns the named column
func (t *Table) Column(name string) (*Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return nil, false
}

// HasColumn reports whether the table defines the named column
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// ColumnNames returns column names in declaration order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// PrimaryKey returns the primary key column names in declaration order
func (t *Table) PrimaryKey() []string {
	var keys []string
	for _, col := range t.Columns {
		if col.Primary {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

// References returns the distinct tables referenced by foreign keys, in
// declaration order. Self references are excluded.
func (t *Table) References() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == t.Name || seen[fk.ReferencedTable] {
			continue
		}
		seen[fk.ReferencedTable] = true
		refs = append(refs, fk.ReferencedTable)
	}
	return refs
}

// Validate checks the table is structurally usable for DDL and inserts
func (t *Table) Validate() error {
	if t.Name == "" {
		return &ValidationError{Message: "table name is required"}
	}
	if len(t.Columns) == 0 {
		return &ValidationError{Table: t.Name, Message: "at least one column is required"}
	}

	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if col.Name == "" {
			return &ValidationError{Table: t.Name, Message: "column name is required"}
		}
		if seen[col.Name] {
			return &ValidationError{Table: t.Name, Column: col.Name, Message: "duplicate column"}
		}
		seen[col.Name] = true
	}

	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable == "" {
			return &ValidationError{Table: t.Name, Message: "foreign key must reference a table"}
		}
		if len(fk.Columns) == 0 {
			return &ValidationError{Table: t.Name, Message: fmt.Sprintf("foreign key to %s has no columns", fk.ReferencedTable)}
		}
		if len(fk.ReferencedColumns) > 0 && len(fk.ReferencedColumns) != len(fk.Columns) {
			return &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("foreign key to %s has %d columns but references %d", fk.ReferencedTable, len(fk.Columns), len(fk.ReferencedColumns)),
			}
		}
		for _, name := range fk.Columns {
			if !seen[name] {
				return &ValidationError{
					Table:   t.Name,
					Column:  name,
					Message: fmt.Sprintf("foreign key to %s uses unknown column", fk.ReferencedTable),
				}
			}
		}
	}

	return nil
}

// ValidationError reports a structural problem in a table schema
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	switch {
	case e.Table != "" && e.Column != "":
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	case e.Table != "":
		return fmt.Sprintf("%s: %s", e.Table, e.Message)
	default:
		return e.Message
	}
}
