package fixture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	m := NewMap()
	articles := &TestFixture{table: "articles"}
	authors := &TestFixture{table: "authors"}
	replacement := &TestFixture{table: "articles"}

	m.Set("conduit/fixture/Articles", articles)
	m.Set("conduit/fixture/Authors", authors)
	m.Set("conduit/fixture/Articles", replacement)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"conduit/fixture/Articles", "conduit/fixture/Authors"}, m.TypeNames())
	assert.Equal(t, []Fixture{replacement, authors}, m.Fixtures())

	got, ok := m.Get("conduit/fixture/Articles")
	assert.True(t, ok)
	assert.Same(t, replacement, got)

	_, ok = m.Get("conduit/fixture/Tags")
	assert.False(t, ok)
}

func TestMap_All(t *testing.T) {
	m := NewMap()
	m.Set("a", &TestFixture{table: "a"})
	m.Set("b", &TestFixture{table: "b"})
	m.Set("c", &TestFixture{table: "c"})

	var names []string
	for name, f := range m.All() {
		names = append(names, name+":"+f.TableName())
		if name == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a:a", "b:b"}, names)
}

func TestMap_Empty(t *testing.T) {
	m := NewMap()

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.TypeNames())
	assert.Empty(t, m.Fixtures())
}
