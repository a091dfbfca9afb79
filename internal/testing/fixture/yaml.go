package fixture

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/framework/internal/orm/schema"
	stringutil "github.com/conduit-lang/framework/internal/util/strings"
)

// File is a fixture declared in YAML
type File struct {
	Name        string               `yaml:"name"`
	Table       string               `yaml:"table"`
	Connection  string               `yaml:"connection"`
	Columns     []*schema.Column     `yaml:"columns"`
	ForeignKeys []*schema.ForeignKey `yaml:"foreign_keys"`
	Records     []map[string]any     `yaml:"records"`
}

// ParseFile decodes a YAML fixture. name is used when the document does not
// declare one, and the table defaults to the snake cased name.
func ParseFile(data []byte, name string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", name, err)
	}

	if f.Name == "" {
		f.Name = name
	}
	if f.Name == "" {
		return nil, fmt.Errorf("fixture name is required")
	}
	if f.Table == "" {
		f.Table = stringutil.TableName(f.Name)
	}

	if len(f.Columns) > 0 {
		if err := f.Schema().Validate(); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", f.Name, err)
		}
	}

	return &f, nil
}

// Schema builds the table schema declared by the file, or nil when the file
// declares no columns.
func (f *File) Schema() *schema.Table {
	if len(f.Columns) == 0 {
		return nil
	}

	table := schema.NewTable(f.Table)
	for _, col := range f.Columns {
		c := *col
		table.AddColumn(&c)
	}
	for _, fk := range f.ForeignKeys {
		k := *fk
		table.AddForeignKey(&k)
	}
	return table
}

// Factory returns a factory building a TestFixture from the file
func (f *File) Factory() Factory {
	return func(tables *schema.Registry) (Fixture, error) {
		records := make([]map[string]any, len(f.Records))
		for i, record := range f.Records {
			records[i] = make(map[string]any, len(record))
			for k, v := range record {
				records[i][k] = v
			}
		}

		return NewTestFixture(tables, Config{
			Table:      f.Table,
			Connection: f.Connection,
			Schema:     f.Schema(),
			Records:    records,
		})
	}
}

// LoadDir registers every .yml and .yaml file below dir under namespace.
// Sub directories become sub namespaces and file names are camel cased, so
// blog/article_tags.yml in namespace app is app/fixture/Blog/ArticleTags.
// It returns the registered type names.
func LoadDir(r *Registry, dir, namespace string) ([]string, error) {
	var typeNames []string

	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yml" && ext != ".yaml" {
			return nil
		}

		rel, err := filepath.Rel(dir, strings.TrimSuffix(p, ext))
		if err != nil {
			return err
		}
		segments := strings.Split(filepath.ToSlash(rel), "/")
		for i, segment := range segments {
			segments[i] = stringutil.ToCamelCase(segment)
		}
		name := path.Join(segments...)

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read fixture %s: %w", p, err)
		}
		file, err := ParseFile(data, segments[len(segments)-1])
		if err != nil {
			return err
		}

		typeName := TypeName(namespace, name)
		if err := r.Register(typeName, file.Factory()); err != nil {
			return err
		}
		typeNames = append(typeNames, typeName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return typeNames, nil
}
