package database

import (
	"strings"
	"testing"

	"storefront-service/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBUser:     "shop",
		DBPassword: "pw",
		DBHost:     "db",
		DBPort:     "3307",
		DBName:     "storefront",
	}

	dsn := DSN(cfg)

	assert.True(t, strings.HasPrefix(dsn, "shop:pw@tcp(db:3307)/storefront?"))
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "multiStatements=true")
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_init.up.sql")
	assert.Contains(t, names, "000001_init.down.sql")
	assert.Contains(t, names, "000002_catalog.up.sql")
	assert.Contains(t, names, "000002_catalog.down.sql")
}
