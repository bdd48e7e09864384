package database

import (
	"context"
	"testing"

	"github.com/AzielCF/az-crm/core/config"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testPool(t *testing.T) *Pool {
	t.Helper()
	pool := NewPool(config.DatabaseConfig{
		Driver:            "sqlite",
		TenantURLTemplate: "file:{db_name}?mode=memory&cache=shared",
	})
	t.Cleanup(pool.CloseAll)
	return pool
}

func TestPool_RejectsUnsafeNames(t *testing.T) {
	pool := testPool(t)

	for _, name := range []string{"", "bad-name", "a b", "x;drop", "tenant/../x"} {
		_, err := pool.Get(context.Background(), name)
		require.Error(t, err, "name %q must be rejected", name)
		assert.IsType(t, pkgError.ValidationError(""), err)
	}
	assert.Equal(t, 0, pool.Count())
}

func TestPool_ReusesLiveConnection(t *testing.T) {
	pool := testPool(t)

	opens := 0
	inner := pool.openFn
	pool.openFn = func(driver, dsn string) (*gorm.DB, error) {
		opens++
		return inner(driver, dsn)
	}

	first, err := pool.Get(context.Background(), "tenant_a")
	require.NoError(t, err)
	second, err := pool.Get(context.Background(), "tenant_a")
	require.NoError(t, err)

	assert.Same(t, first, second, "cached handle must be shared")
	assert.Equal(t, 1, opens, "no duplicate physical connection")
	assert.Equal(t, 1, pool.Count())
}

func TestPool_RecreatesDeadConnection(t *testing.T) {
	pool := testPool(t)

	first, err := pool.Get(context.Background(), "tenant_b")
	require.NoError(t, err)

	// Simulate a dead handle by closing the underlying sql.DB.
	sqlDB, err := first.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	second, err := pool.Get(context.Background(), "tenant_b")
	require.NoError(t, err)
	assert.NotSame(t, first, second, "dead connection must be replaced")

	sqlDB2, err := second.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB2.Ping())
}

func TestPool_RemoveAndObservability(t *testing.T) {
	pool := testPool(t)

	_, err := pool.Get(context.Background(), "tenant_c")
	require.NoError(t, err)
	_, err = pool.Get(context.Background(), "tenant_d")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tenant_c", "tenant_d"}, pool.ActiveDatabases())
	assert.Equal(t, 2, pool.Count())

	pool.Remove("tenant_c")
	assert.ElementsMatch(t, []string{"tenant_d"}, pool.ActiveDatabases())
	assert.Equal(t, 1, pool.Count())
}
