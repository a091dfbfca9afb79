package connection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-lang/framework/internal/orm/schema"
)

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect abstracts the database specific SQL used to manage fixture tables.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// ColumnType maps a schema column to the database DDL type.
	ColumnType(col *schema.Column) string

	// CreateTableSQL returns the CREATE TABLE IF NOT EXISTS statement for a table.
	CreateTableSQL(table *schema.Table) string

	// DropTableSQL returns the DROP TABLE IF EXISTS statement for a table.
	DropTableSQL(table string) string

	// TruncateTable removes every row of a table and resets its identity.
	TruncateTable(ctx context.Context, q Querier, table string) error

	// DisableConstraintsSQL returns the statements that suspend foreign key checks.
	DisableConstraintsSQL() []string

	// EnableConstraintsSQL returns the statements that restore foreign key checks.
	EnableConstraintsSQL() []string

	// ConstraintsScopedToTransaction reports whether the constraint toggles
	// must run inside the transaction rather than around it.
	ConstraintsScopedToTransaction() bool

	// SupportsTruncateWithConstraints reports whether tables can be emptied
	// in dependency order while foreign keys stay enforced.
	SupportsTruncateWithConstraints() bool

	// ForeignKeys returns the foreign keys declared on the given tables,
	// keyed by table name. Tables that do not exist are absent.
	ForeignKeys(ctx context.Context, q Querier, tables []string) (map[string][]*schema.ForeignKey, error)

	// ConvertError maps a driver error to the package sentinels.
	ConvertError(err error) error
}

// NewDialect creates a Dialect for the given driver name
func NewDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return &SQLiteDialect{}, nil
	case "postgres", "postgresql", "pgx":
		return &PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}

// InsertSQL builds a single row INSERT statement for the given columns
func InsertSQL(d Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = d.QuoteIdentifier(col)
		placeholders[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "))
}

// createTableSQL renders the shared CREATE TABLE layout. For a single column
// primary key, inlinePK may return a clause to append to the column
// definition instead of a trailing PRIMARY KEY constraint.
func createTableSQL(d Dialect, table *schema.Table, inlinePK func(col *schema.Column) string) string {
	var defs []string
	pk := table.PrimaryKey()
	inline := false

	for _, col := range table.Columns {
		def := d.QuoteIdentifier(col.Name) + " " + d.ColumnType(col)
		if col.Primary && len(pk) == 1 {
			if clause := inlinePK(col); clause != "" {
				inline = true
				defs = append(defs, def+" "+clause)
				continue
			}
		}
		if !col.Null && !col.Primary {
			def += " NOT NULL"
		}
		if col.Default != nil {
			def += " DEFAULT " + literal(col.Default)
		}
		defs = append(defs, def)
	}

	if len(pk) > 0 && !inline {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(d, pk)))
	}

	for _, fk := range table.ForeignKeys {
		def := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s", quoteList(d, fk.Columns), d.QuoteIdentifier(fk.ReferencedTable))
		if len(fk.ReferencedColumns) > 0 {
			def += fmt.Sprintf(" (%s)", quoteList(d, fk.ReferencedColumns))
		}
		def += " ON DELETE " + fk.OnDelete.SQL() + " ON UPDATE " + fk.OnUpdate.SQL()
		defs = append(defs, def)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", d.QuoteIdentifier(table.Name), strings.Join(defs, ",\n  "))
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = d.QuoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}

func literal(value any) string {
	switch v := value.(type) {
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprint(v)
	}
}

// fkRow is one column of a foreign key as reported by the catalog
type fkRow struct {
	table      string
	constraint string
	column     string
	refTable   string
	refColumn  string
	onUpdate   string
	onDelete   string
}

// groupForeignKeys collapses one row per column into one ForeignKey per
// constraint, keeping the order in which constraints were first seen.
func groupForeignKeys(rows []fkRow) map[string][]*schema.ForeignKey {
	result := make(map[string][]*schema.ForeignKey)
	index := make(map[string]*schema.ForeignKey)

	for _, row := range rows {
		key := row.table + "\x00" + row.constraint
		fk, exists := index[key]
		if !exists {
			onUpdate, _ := schema.ParseCascadeAction(row.onUpdate)
			onDelete, _ := schema.ParseCascadeAction(row.onDelete)
			fk = &schema.ForeignKey{
				Name:            row.constraint,
				ReferencedTable: row.refTable,
				OnUpdate:        onUpdate,
				OnDelete:        onDelete,
			}
			index[key] = fk
			result[row.table] = append(result[row.table], fk)
		}
		if row.column != "" && !contains(fk.Columns, row.column) {
			fk.Columns = append(fk.Columns, row.column)
		}
		if row.refColumn != "" && !contains(fk.ReferencedColumns, row.refColumn) {
			fk.ReferencedColumns = append(fk.ReferencedColumns, row.refColumn)
		}
	}

	return result
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
