package fixture

import (
	"context"
	"testing"
)

// Strategy prepares fixtures before a test and cleans up after it
type Strategy interface {
	SetupTest(ctx context.Context, identifiers []string) (*Map, error)
	TeardownTest(ctx context.Context) error
}

// TruncateStrategy inserts fixtures before each test and truncates their
// tables afterwards.
type TruncateStrategy struct {
	helper       *Helper
	createTables bool
	fixtures     *Map
}

// NewTruncateStrategy creates a truncate strategy. When createTables is set
// the fixture tables are created before inserting.
func NewTruncateStrategy(helper *Helper, createTables bool) *TruncateStrategy {
	return &TruncateStrategy{helper: helper, createTables: createTables}
}

// SetupTest loads and inserts the named fixtures
func (s *TruncateStrategy) SetupTest(ctx context.Context, identifiers []string) (*Map, error) {
	s.fixtures = nil
	if len(identifiers) == 0 {
		return NewMap(), nil
	}

	fixtures, err := s.helper.LoadFixtures(identifiers...)
	if err != nil {
		return nil, err
	}
	if s.createTables {
		if err := s.helper.CreateTables(ctx, fixtures.Fixtures()); err != nil {
			return nil, err
		}
	}
	if err := s.helper.Insert(ctx, fixtures.Fixtures()); err != nil {
		return nil, err
	}

	s.fixtures = fixtures
	return fixtures, nil
}

// TeardownTest truncates the tables of the fixtures inserted by SetupTest
func (s *TruncateStrategy) TeardownTest(ctx context.Context) error {
	if s.fixtures == nil {
		return nil
	}
	fixtures := s.fixtures
	s.fixtures = nil
	return s.helper.Truncate(ctx, fixtures.Fixtures())
}

// Use sets up fixtures for a test with the strategy and registers the
// teardown as a test cleanup. Setup failures fail the test immediately.
func Use(t testing.TB, s Strategy, identifiers ...string) *Map {
	t.Helper()

	ctx := context.Background()
	fixtures, err := s.SetupTest(ctx, identifiers)
	if err != nil {
		t.Fatalf("fixture setup failed: %v", err)
	}

	t.Cleanup(func() {
		if err := s.TeardownTest(context.Background()); err != nil {
			t.Errorf("fixture teardown failed: %v", err)
		}
	})

	return fixtures
}
