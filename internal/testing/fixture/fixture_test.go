package fixture

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/orm/schema"
)

// execRecorder captures statements instead of running them
type execRecorder struct {
	queries []string
	args    [][]any
}

func (r *execRecorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	return nil, nil
}

func (r *execRecorder) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

func (r *execRecorder) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func sqliteDialect(t *testing.T) connection.Dialect {
	t.Helper()

	d, err := connection.NewDialect("sqlite")
	require.NoError(t, err)
	return d
}

func TestNewTestFixture(t *testing.T) {
	tables := schema.NewRegistry()

	f, err := NewTestFixture(tables, Config{Schema: articlesTable(), Records: seedRecords["articles"]})
	require.NoError(t, err)

	assert.Equal(t, "articles", f.TableName())
	assert.Equal(t, DefaultConnection, f.ConnectionName())
	assert.Len(t, f.Records(), 3)
	require.NotNil(t, f.Schema())
	assert.True(t, tables.Exists("articles"))

	registered, _ := tables.Get("articles")
	assert.Same(t, registered, f.Schema())
}

func TestNewTestFixture_ReusesRegisteredSchema(t *testing.T) {
	tables := schema.NewRegistry()
	existing := authorsTable()
	require.NoError(t, tables.Register(existing))

	withSchema, err := NewTestFixture(tables, Config{Schema: authorsTable()})
	require.NoError(t, err)
	assert.Same(t, existing, withSchema.Schema())

	withoutSchema, err := NewTestFixture(tables, Config{Table: "authors", Connection: "legacy"})
	require.NoError(t, err)
	assert.Same(t, existing, withoutSchema.Schema())
	assert.Equal(t, "legacy", withoutSchema.ConnectionName())
}

func TestNewTestFixture_NoSchema(t *testing.T) {
	f, err := NewTestFixture(schema.NewRegistry(), Config{Table: "logs"})
	require.NoError(t, err)
	assert.Nil(t, f.Schema())
}

func TestNewTestFixture_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no table", Config{}},
		{"table mismatch", Config{Table: "posts", Schema: articlesTable()}},
		{"invalid schema", Config{Schema: schema.NewTable("empty")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTestFixture(schema.NewRegistry(), tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestTestFixture_InsertColumnOrder(t *testing.T) {
	f, err := NewTestFixture(schema.NewRegistry(), Config{
		Schema: articlesTable(),
		Records: []map[string]any{
			{"title": "Hello", "id": 1, "author_id": 2, "zz_extra": "z", "aa_extra": "a"},
		},
	})
	require.NoError(t, err)

	rec := &execRecorder{}
	require.NoError(t, f.Insert(context.Background(), sqliteDialect(t), rec))

	require.Len(t, rec.queries, 1)
	assert.Equal(t,
		`INSERT INTO "articles" ("id", "author_id", "title", "aa_extra", "zz_extra") VALUES (?, ?, ?, ?, ?)`,
		rec.queries[0])
	assert.Equal(t, []any{1, 2, "Hello", "a", "z"}, rec.args[0])
}

func TestTestFixture_InsertGeneratesUUID(t *testing.T) {
	table := schema.NewTable("tokens").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeUUID, Primary: true}).
		AddColumn(&schema.Column{Name: "value", Type: schema.TypeString})

	f, err := NewTestFixture(schema.NewRegistry(), Config{
		Schema:  table,
		Records: []map[string]any{{"value": "a"}, {"id": "fixed", "value": "b"}},
	})
	require.NoError(t, err)

	rec := &execRecorder{}
	require.NoError(t, f.Insert(context.Background(), sqliteDialect(t), rec))

	require.Len(t, rec.args, 2)
	generated, ok := rec.args[0][0].(string)
	require.True(t, ok)
	_, err = uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, "fixed", rec.args[1][0])
}

func TestTestFixture_InsertEncodesJSON(t *testing.T) {
	table := schema.NewTable("settings").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeInt, Primary: true}).
		AddColumn(&schema.Column{Name: "data", Type: schema.TypeJSON}).
		AddColumn(&schema.Column{Name: "raw", Type: schema.TypeBinary, Null: true})

	f, err := NewTestFixture(schema.NewRegistry(), Config{
		Schema: table,
		Records: []map[string]any{
			{"id": 1, "data": map[string]any{"theme": "dark"}, "raw": []byte("x")},
			{"id": 2, "data": []string{"a", "b"}, "raw": nil},
		},
	})
	require.NoError(t, err)

	rec := &execRecorder{}
	require.NoError(t, f.Insert(context.Background(), sqliteDialect(t), rec))

	assert.Equal(t, []any{1, `{"theme":"dark"}`, []byte("x")}, rec.args[0])
	assert.Equal(t, []any{2, `["a","b"]`, nil}, rec.args[1])
}

func TestTestFixture_InsertSkipsEmptyRecords(t *testing.T) {
	f, err := NewTestFixture(schema.NewRegistry(), Config{
		Schema:  authorsTable(),
		Records: []map[string]any{{}},
	})
	require.NoError(t, err)

	rec := &execRecorder{}
	require.NoError(t, f.Insert(context.Background(), sqliteDialect(t), rec))
	assert.Empty(t, rec.queries)
}

func TestTestFixture_InsertAndTruncateLive(t *testing.T) {
	env := newTestEnv(t)
	fixtures := env.load(t, "core.Authors")
	conn := env.conn(t, "test")

	require.NoError(t, fixtures[0].Insert(env.ctx, conn.Dialect(), conn.DB()))
	assert.Equal(t, 2, env.count(t, "test", "authors"))

	err := fixtures[0].Insert(env.ctx, conn.Dialect(), conn.DB())
	assert.ErrorIs(t, err, connection.ErrUniqueViolation)

	require.NoError(t, fixtures[0].Truncate(env.ctx, conn.Dialect(), conn.DB()))
	assert.Equal(t, 0, env.count(t, "test", "authors"))
}
