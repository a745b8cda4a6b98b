package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const sqlExt = ".sql"

// LoadFromDir reads every migration file directly under dir, in directory
// listing order. Subdirectories are not descended into.
func LoadFromDir(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory %s: %w", dir, err)
	}

	var migrations []Migration

	for _, entry := range entries {
		if entry.IsDir() || !IsMigrationFile(entry.Name()) {
			continue
		}

		m, err := readMigration(dir, entry.Name())
		if err != nil {
			return nil, err
		}

		migrations = append(migrations, m)
	}

	return migrations, nil
}

// IsMigrationFile reports whether name looks like a migration: a .sql file
// that is not a README.
func IsMigrationFile(name string) bool {
	return strings.HasSuffix(name, sqlExt) && !strings.Contains(strings.ToLower(name), "readme")
}

func readMigration(dir, name string) (Migration, error) {
	path := filepath.Join(dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return Migration{}, fmt.Errorf("reading migration file %s: %w", path, err)
	}

	sql := string(data)

	return Migration{
		Name:     name,
		Prefix:   leadingDigits(name),
		SQL:      sql,
		Checksum: ComputeChecksum(sql),
		FilePath: path,
	}, nil
}

func leadingDigits(name string) string {
	end := strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		return name
	}

	return name[:end]
}
