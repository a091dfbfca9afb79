package fixture

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/framework/internal/orm/connection"
	"github.com/conduit-lang/framework/internal/orm/schema"
)

// Test fixtures shared by the package tests. authors <- articles <- comments
// live on the test connection, tags on test2.

func authorsTable() *schema.Table {
	return schema.NewTable("authors").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeInt, Primary: true}).
		AddColumn(&schema.Column{Name: "name", Type: schema.TypeString})
}

func articlesTable() *schema.Table {
	return schema.NewTable("articles").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeInt, Primary: true}).
		AddColumn(&schema.Column{Name: "author_id", Type: schema.TypeInt}).
		AddColumn(&schema.Column{Name: "title", Type: schema.TypeString}).
		AddColumn(&schema.Column{Name: "published", Type: schema.TypeBool, Null: true}).
		AddForeignKey(&schema.ForeignKey{Columns: []string{"author_id"}, ReferencedTable: "authors", ReferencedColumns: []string{"id"}})
}

func commentsTable() *schema.Table {
	return schema.NewTable("comments").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeInt, Primary: true}).
		AddColumn(&schema.Column{Name: "article_id", Type: schema.TypeInt}).
		AddColumn(&schema.Column{Name: "comment", Type: schema.TypeText}).
		AddForeignKey(&schema.ForeignKey{Columns: []string{"article_id"}, ReferencedTable: "articles", ReferencedColumns: []string{"id"}})
}

func tagsTable() *schema.Table {
	return schema.NewTable("tags").
		AddColumn(&schema.Column{Name: "id", Type: schema.TypeInt, Primary: true}).
		AddColumn(&schema.Column{Name: "name", Type: schema.TypeString})
}

var seedRecords = map[string][]map[string]any{
	"authors": {
		{"id": 1, "name": "mariano"},
		{"id": 2, "name": "larry"},
	},
	"articles": {
		{"id": 1, "author_id": 1, "title": "First Article", "published": true},
		{"id": 2, "author_id": 2, "title": "Second Article", "published": true},
		{"id": 3, "author_id": 1, "title": "Third Article", "published": false},
	},
	"comments": {
		{"id": 1, "article_id": 1, "comment": "First Comment for First Article"},
		{"id": 2, "article_id": 1, "comment": "Second Comment for First Article"},
	},
	"tags": {
		{"id": 1, "name": "tag1"},
		{"id": 2, "name": "tag2"},
	},
}

func factoryFor(table func() *schema.Table, conn string) Factory {
	return func(tables *schema.Registry) (Fixture, error) {
		t := table()
		return NewTestFixture(tables, Config{
			Connection: conn,
			Schema:     t,
			Records:    seedRecords[t.Name],
		})
	}
}

type testEnv struct {
	ctx         context.Context
	helper      *Helper
	registry    *Registry
	tables      *schema.Registry
	connections *connection.Manager
}

func newTestEnv(t *testing.T, opts ...func(*Options)) *testEnv {
	t.Helper()

	manager := connection.NewManager()
	for _, name := range []string{"test", "test2"} {
		require.NoError(t, manager.Configure(name, connection.Config{Driver: "sqlite", DSN: ":memory:"}))
	}
	t.Cleanup(func() { manager.Close() })

	registry := NewRegistry(Namespaces{App: "blog_app"})
	require.NoError(t, registry.RegisterCore("Authors", factoryFor(authorsTable, "")))
	require.NoError(t, registry.RegisterCore("Articles", factoryFor(articlesTable, "")))
	require.NoError(t, registry.RegisterCore("Comments", factoryFor(commentsTable, "")))
	require.NoError(t, registry.RegisterCore("Tags", factoryFor(tagsTable, "test2")))

	tables := schema.NewRegistry()
	options := Options{
		Registry:    registry,
		Connections: manager,
		Tables:      tables,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &testEnv{
		ctx:         context.Background(),
		helper:      NewHelper(options),
		registry:    registry,
		tables:      tables,
		connections: manager,
	}
}

// load loads fixtures and creates their tables
func (e *testEnv) load(t *testing.T, identifiers ...string) []Fixture {
	t.Helper()

	fixtures, err := e.helper.LoadFixtures(identifiers...)
	require.NoError(t, err)
	require.NoError(t, e.helper.CreateTables(e.ctx, fixtures.Fixtures()))
	return fixtures.Fixtures()
}

func (e *testEnv) conn(t *testing.T, name string) *connection.Connection {
	t.Helper()

	conn, err := e.connections.Get(e.ctx, name)
	require.NoError(t, err)
	return conn
}

func (e *testEnv) count(t *testing.T, connName, table string) int {
	t.Helper()

	var n int
	err := e.conn(t, connName).DB().QueryRowContext(e.ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}

// recordingFixture logs every insert and truncate before delegating
type recordingFixture struct {
	*TestFixture
	log *[]string
}

func (f *recordingFixture) Insert(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	*f.log = append(*f.log, "insert "+f.TableName())
	return f.TestFixture.Insert(ctx, d, q)
}

func (f *recordingFixture) Truncate(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	*f.log = append(*f.log, "truncate "+f.TableName())
	return f.TestFixture.Truncate(ctx, d, q)
}

// failingFixture fails whichever operations have an error configured
type failingFixture struct {
	*TestFixture
	insertErr   error
	truncateErr error
}

func (f *failingFixture) Insert(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	return f.TestFixture.Insert(ctx, d, q)
}

func (f *failingFixture) Truncate(ctx context.Context, d connection.Dialect, q connection.Querier) error {
	if f.truncateErr != nil {
		return f.truncateErr
	}
	return f.TestFixture.Truncate(ctx, d, q)
}

func recording(t *testing.T, f Fixture, log *[]string) Fixture {
	t.Helper()

	base, ok := f.(*TestFixture)
	require.True(t, ok, "expected *TestFixture, got %T", f)
	return &recordingFixture{TestFixture: base, log: log}
}
