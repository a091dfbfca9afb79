package connection

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/lib/pq"

	"github.com/conduit-lang/framework/internal/orm/schema"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) ColumnType(col *schema.Column) string {
	switch col.Type {
	case schema.TypeString:
		if col.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", col.Length)
		}
		return "VARCHAR(255)"
	case schema.TypeText:
		return "TEXT"
	case schema.TypeInt:
		if col.AutoIncrement {
			return "SERIAL"
		}
		return "INTEGER"
	case schema.TypeBigInt:
		if col.AutoIncrement {
			return "BIGSERIAL"
		}
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeDecimal:
		return "NUMERIC"
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeTimestamp:
		return "TIMESTAMP WITH TIME ZONE"
	case schema.TypeDate:
		return "DATE"
	case schema.TypeTime:
		return "TIME"
	case schema.TypeUUID:
		return "UUID"
	case schema.TypeJSON:
		return "JSONB"
	case schema.TypeBinary:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *PostgresDialect) CreateTableSQL(table *schema.Table) string {
	return createTableSQL(d, table, func(*schema.Column) string { return "" })
}

func (d *PostgresDialect) DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + d.QuoteIdentifier(table) + " CASCADE"
}

func (d *PostgresDialect) TruncateTable(ctx context.Context, q Querier, table string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", d.QuoteIdentifier(table)))
	return err
}

// DisableConstraintsSQL defers deferrable constraints to commit
func (d *PostgresDialect) DisableConstraintsSQL() []string {
	return []string{"SET CONSTRAINTS ALL DEFERRED"}
}

// EnableConstraintsSQL is empty: SET CONSTRAINTS lasts until the transaction ends.
func (d *PostgresDialect) EnableConstraintsSQL() []string { return nil }

func (d *PostgresDialect) ConstraintsScopedToTransaction() bool { return true }

func (d *PostgresDialect) SupportsTruncateWithConstraints() bool { return true }

const postgresForeignKeysSQL = `SELECT
	tc.table_name,
	tc.constraint_name,
	kcu.column_name,
	ccu.table_name AS referenced_table,
	ccu.column_name AS referenced_column,
	rc.update_rule,
	rc.delete_rule
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
	ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
JOIN information_schema.referential_constraints rc
	ON rc.constraint_name = tc.constraint_name AND rc.constraint_schema = tc.table_schema
JOIN information_schema.constraint_column_usage ccu
	ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.table_schema
WHERE tc.constraint_type = 'FOREIGN KEY'
	AND tc.table_schema = current_schema()
	AND tc.table_name = ANY($1)
ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`

func (d *PostgresDialect) ForeignKeys(ctx context.Context, q Querier, tables []string) (map[string][]*schema.ForeignKey, error) {
	if len(tables) == 0 {
		return map[string][]*schema.ForeignKey{}, nil
	}

	rows, err := q.QueryContext(ctx, postgresForeignKeysSQL, pq.Array(tables))
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer rows.Close()

	var all []fkRow
	for rows.Next() {
		var row fkRow
		if err := rows.Scan(&row.table, &row.constraint, &row.column, &row.refTable, &row.refColumn, &row.onUpdate, &row.onDelete); err != nil {
			return nil, fmt.Errorf("scan foreign key: %w", err)
		}
		all = append(all, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return groupForeignKeys(all), nil
}

func (d *PostgresDialect) ConvertError(err error) error {
	return ConvertError(err)
}
