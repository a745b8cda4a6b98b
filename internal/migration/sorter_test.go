package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aqasim81/supamigrate/internal/migration"
)

func makeMigrations(t *testing.T, names ...string) []migration.Migration {
	t.Helper()

	ms := make([]migration.Migration, len(names))
	for i, n := range names {
		ms[i] = migration.Migration{Name: n, Prefix: prefixOf(n)}
	}

	return ms
}

func prefixOf(name string) string {
	for i, r := range name {
		if r < '0' || r > '9' {
			return name[:i]
		}
	}

	return name
}

func names(t *testing.T, ms []migration.Migration) []string {
	t.Helper()

	ns := make([]string, len(ms))
	for i, m := range ms {
		ns[i] = m.Name
	}

	return ns
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "numeric order beats lexical order",
			input:    []string{"10_y.sql", "2_x.sql"},
			expected: []string{"2_x.sql", "10_y.sql"},
		},
		{
			name:     "zero-padded prefixes",
			input:    []string{"003_c.sql", "001_a.sql", "002_b.sql"},
			expected: []string{"001_a.sql", "002_b.sql", "003_c.sql"},
		},
		{
			name:     "mixed padding compares by value",
			input:    []string{"010_b.sql", "9_a.sql"},
			expected: []string{"9_a.sql", "010_b.sql"},
		},
		{
			name:     "no prefix sorts as zero",
			input:    []string{"1_a.sql", "seed.sql"},
			expected: []string{"seed.sql", "1_a.sql"},
		},
		{
			name:     "ties keep input order",
			input:    []string{"001_z.sql", "1_a.sql", "001_m.sql"},
			expected: []string{"001_z.sql", "1_a.sql", "001_m.sql"},
		},
		{
			name:     "no-prefix files tie with explicit zero",
			input:    []string{"0_b.sql", "seed.sql"},
			expected: []string{"0_b.sql", "seed.sql"},
		},
		{
			name:     "timestamps longer than int64 still order",
			input:    []string{"202401011200000000001_b.sql", "99_a.sql"},
			expected: []string{"99_a.sql", "202401011200000000001_b.sql"},
		},
		{
			name:     "empty slice returns empty",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := migration.Sort(makeMigrations(t, tt.input...))

			assert.Equal(t, tt.expected, names(t, result))
		})
	}
}

func TestSort_doesNotMutateOriginal(t *testing.T) {
	t.Parallel()

	input := makeMigrations(t, "3_c.sql", "1_a.sql", "2_b.sql")
	original := names(t, input)

	migration.Sort(input)

	assert.Equal(t, original, names(t, input), "original slice should not be mutated")
}
