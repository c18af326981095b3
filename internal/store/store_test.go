package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/query"
)

func TestOpenSQLite(t *testing.T) {
	engine, err := Open(context.Background(), config.StoreConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "askdb.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	require.NoError(t, engine.HealthCheck(context.Background()))
	result, err := engine.Execute(context.Background(), query.Request{SQL: "SELECT 1 AS one"})
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, result.Columns)

	tables, err := engine.ListTables(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestOpenObjectStoreOptional(t *testing.T) {
	objects, err := OpenObjectStore(config.ObjectStoreConfig{})
	require.NoError(t, err)
	assert.Nil(t, objects)

	objects, err = OpenObjectStore(config.ObjectStoreConfig{Endpoint: "localhost:9000", Bucket: "askdb"})
	require.NoError(t, err)
	assert.NotNil(t, objects)
}
