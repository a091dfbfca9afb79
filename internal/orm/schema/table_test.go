package schema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	table := NewTable("articles").
		AddColumn(&Column{Name: "id", Type: TypeInt, Primary: true}).
		AddColumn(&Column{Name: "author_id", Type: TypeInt, Null: true}).
		AddColumn(&Column{Name: "title", Type: TypeString}).
		AddForeignKey(&ForeignKey{Columns: []string{"author_id"}, ReferencedTable: "authors"}).
		AddForeignKey(&ForeignKey{Columns: []string{"author_id"}, ReferencedTable: "authors"}).
		AddForeignKey(&ForeignKey{Columns: []string{"id"}, ReferencedTable: "articles"})

	if !reflect.DeepEqual(table.ColumnNames(), []string{"id", "author_id", "title"}) {
		t.Errorf("unexpected columns %v", table.ColumnNames())
	}
	if !reflect.DeepEqual(table.PrimaryKey(), []string{"id"}) {
		t.Errorf("unexpected primary key %v", table.PrimaryKey())
	}
	if !reflect.DeepEqual(table.References(), []string{"authors"}) {
		t.Errorf("unexpected references %v", table.References())
	}
	if !table.HasColumn("title") || table.HasColumn("body") {
		t.Error("HasColumn returned wrong result")
	}

	table.AddColumn(&Column{Name: "title", Type: TypeText})
	col, _ := table.Column("title")
	if col.Type != TypeText || len(table.Columns) != 3 {
		t.Errorf("expected title column to be replaced in place")
	}
}

func TestTable_Validate(t *testing.T) {
	tests := []struct {
		name    string
		table   *Table
		wantErr string
	}{
		{
			name:  "valid",
			table: NewTable("authors").AddColumn(&Column{Name: "id", Primary: true}),
		},
		{
			name:    "missing name",
			table:   NewTable("").AddColumn(&Column{Name: "id"}),
			wantErr: "table name is required",
		},
		{
			name:    "no columns",
			table:   NewTable("authors"),
			wantErr: "authors: at least one column is required",
		},
		{
			name: "duplicate column",
			table: &Table{Name: "authors", Columns: []*Column{
				{Name: "id"}, {Name: "id"},
			}},
			wantErr: "authors.id: duplicate column",
		},
		{
			name: "unknown fk column",
			table: NewTable("articles").
				AddColumn(&Column{Name: "id"}).
				AddForeignKey(&ForeignKey{Columns: []string{"author_id"}, ReferencedTable: "authors"}),
			wantErr: "articles.author_id: foreign key to authors uses unknown column",
		},
		{
			name: "column count mismatch",
			table: NewTable("articles").
				AddColumn(&Column{Name: "author_id"}).
				AddForeignKey(&ForeignKey{Columns: []string{"author_id"}, ReferencedTable: "authors", ReferencedColumns: []string{"id", "site_id"}}),
			wantErr: "has 1 columns but references 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q in %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestParsePrimitiveType(t *testing.T) {
	tests := []struct {
		input string
		want  PrimitiveType
	}{
		{"string", TypeString},
		{"integer", TypeInt},
		{"INT", TypeInt},
		{"boolean", TypeBool},
		{"datetime", TypeTimestamp},
		{"uuid", TypeUUID},
		{"jsonb", TypeJSON},
		{"blob", TypeBinary},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrimitiveType(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := ParsePrimitiveType("money"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParseCascadeAction(t *testing.T) {
	tests := []struct {
		input string
		want  CascadeAction
		sql   string
	}{
		{"", CascadeNoAction, "NO ACTION"},
		{"cascade", CascadeCascade, "CASCADE"},
		{"set null", CascadeSetNull, "SET NULL"},
		{"RESTRICT", CascadeRestrict, "RESTRICT"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCascadeAction(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || got.SQL() != tt.sql {
				t.Errorf("got %s (%s), want %s (%s)", got, got.SQL(), tt.want, tt.sql)
			}
		})
	}
}
