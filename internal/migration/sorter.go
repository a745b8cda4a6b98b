package migration

import (
	"sort"
	"strings"
)

// Sort returns a new slice of migrations ordered by the integer value of their
// leading digits. Names without leading digits count as 0. The sort is stable,
// so equal prefixes keep their input order.
func Sort(migrations []Migration) []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)

	sort.SliceStable(sorted, func(i, j int) bool {
		return comparePrefix(sorted[i].Prefix, sorted[j].Prefix) < 0
	})

	return sorted
}

// comparePrefix compares two digit strings numerically without parsing them,
// so arbitrarily long timestamp prefixes cannot overflow.
func comparePrefix(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}

		return 1
	}

	return strings.Compare(a, b)
}
