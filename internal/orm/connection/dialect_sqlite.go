package connection

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/conduit-lang/framework/internal/orm/schema"
)

// SQLiteDialect implements Dialect for SQLite via mattn/go-sqlite3.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite3" }

func (d *SQLiteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *SQLiteDialect) Placeholder(int) string { return "?" }

func (d *SQLiteDialect) ColumnType(col *schema.Column) string {
	switch col.Type {
	case schema.TypeInt, schema.TypeBigInt, schema.TypeBool:
		return "INTEGER"
	case schema.TypeFloat:
		return "REAL"
	case schema.TypeDecimal:
		return "NUMERIC"
	case schema.TypeBinary:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *SQLiteDialect) CreateTableSQL(table *schema.Table) string {
	return createTableSQL(d, table, func(col *schema.Column) string {
		// only an INTEGER PRIMARY KEY aliases the rowid
		if col.AutoIncrement && d.ColumnType(col) == "INTEGER" {
			return "PRIMARY KEY AUTOINCREMENT"
		}
		return ""
	})
}

func (d *SQLiteDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdentifier(table)
}

// TruncateTable deletes all rows and resets the AUTOINCREMENT counter.
// SQLite has no TRUNCATE statement.
func (d *SQLiteDialect) TruncateTable(ctx context.Context, q Querier, table string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM "+d.QuoteIdentifier(table)); err != nil {
		return err
	}

	var sequences int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='sqlite_sequence'",
	).Scan(&sequences)
	if err != nil {
		return err
	}
	if sequences == 0 {
		return nil
	}

	_, err = q.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
	return err
}

func (d *SQLiteDialect) DisableConstraintsSQL() []string {
	return []string{"PRAGMA foreign_keys = OFF"}
}

func (d *SQLiteDialect) EnableConstraintsSQL() []string {
	return []string{"PRAGMA foreign_keys = ON"}
}

// ConstraintsScopedToTransaction is false: PRAGMA foreign_keys is a no-op
// inside a transaction.
func (d *SQLiteDialect) ConstraintsScopedToTransaction() bool { return false }

func (d *SQLiteDialect) SupportsTruncateWithConstraints() bool { return true }

func (d *SQLiteDialect) ForeignKeys(ctx context.Context, q Querier, tables []string) (map[string][]*schema.ForeignKey, error) {
	var all []fkRow

	for _, table := range tables {
		rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", d.QuoteIdentifier(table)))
		if err != nil {
			return nil, fmt.Errorf("list foreign keys of %s: %w", table, err)
		}

		for rows.Next() {
			var (
				id, seq                      int
				refTable, from               string
				to                           sql.NullString
				onUpdate, onDelete, matching string
			)
			if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matching); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan foreign key of %s: %w", table, err)
			}
			all = append(all, fkRow{
				table:      table,
				constraint: fmt.Sprintf("%s_fk_%d", table, id),
				column:     from,
				refTable:   refTable,
				refColumn:  to.String,
				onUpdate:   onUpdate,
				onDelete:   onDelete,
			})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}

	return groupForeignKeys(all), nil
}

func (d *SQLiteDialect) ConvertError(err error) error {
	return ConvertError(err)
}
