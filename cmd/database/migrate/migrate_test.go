package migration

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readSQL(t *testing.T, name string) string {
	t.Helper()
	raw, err := fs.ReadFile(sqlFiles, "sql/"+name)
	require.NoError(t, err)
	return string(raw)
}

func TestMigrations_ArePaired(t *testing.T) {
	entries, err := fs.ReadDir(sqlFiles, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	for name := range names {
		if strings.HasSuffix(name, ".up.sql") {
			assert.True(t, names[strings.TrimSuffix(name, ".up.sql")+".down.sql"], "missing down for %s", name)
		}
	}
}

// float columns read into float64 fields must be double precision, or values
// like 1.1 come back as 1.100000023841858.
func TestInitSchema_QuantityIsDoublePrecision(t *testing.T) {
	up := readSQL(t, "000001_init.up.sql")

	quantity := regexp.MustCompile(`(?m)^\s*quantity\s+(\w+(?: PRECISION)?)`).FindStringSubmatch(up)
	require.Len(t, quantity, 2)
	assert.Equal(t, "DOUBLE PRECISION", quantity[1])
}
