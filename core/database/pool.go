package database

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/AzielCF/az-crm/core/config"
	pkgError "github.com/AzielCF/az-crm/pkg/error"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// validDatabaseName blocks injection into the connection string template.
var validDatabaseName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Pool caches one live gorm handle per tenant logical database. Handles are
// shared: the underlying sql.DB is itself a connection pool, so callers must
// not assume exclusive ownership.
//
// There is no eviction; the cache grows with the number of distinct tenants
// seen during the process lifetime.
type Pool struct {
	mu    sync.RWMutex
	conns map[string]*gorm.DB
	cfg   config.DatabaseConfig

	// openFn is swappable for tests.
	openFn func(driver, dsn string) (*gorm.DB, error)
}

// NewPool creates an empty tenant connection pool.
func NewPool(cfg config.DatabaseConfig) *Pool {
	return &Pool{
		conns:  make(map[string]*gorm.DB),
		cfg:    cfg,
		openFn: Open,
	}
}

// Get returns a live connection for the tenant's logical database, reusing a
// cached handle when it still responds to a ping and reconnecting otherwise.
func (p *Pool) Get(ctx context.Context, databaseName string) (*gorm.DB, error) {
	if !validDatabaseName.MatchString(databaseName) {
		return nil, pkgError.ValidationError("invalid database name format")
	}

	p.mu.RLock()
	cached, ok := p.conns[databaseName]
	p.mu.RUnlock()

	if ok {
		if p.isAlive(ctx, cached) {
			logrus.Debugf("[POOL] Reusing existing connection for database: %s", databaseName)
			return cached, nil
		}
		logrus.Warnf("[POOL] Connection to database %s is dead, will create a new one", databaseName)
	}

	logrus.Infof("[POOL] Creating new connection for database: %s", databaseName)
	dsn := strings.ReplaceAll(p.cfg.TenantURLTemplate, "{db_name}", databaseName)

	conn, err := p.openFn(p.cfg.Driver, dsn)
	if err != nil {
		logrus.WithError(err).Errorf("[POOL] Failed to connect to database %s", databaseName)
		return nil, pkgError.StorageError("failed to connect to tenant database: " + err.Error())
	}

	p.mu.Lock()
	p.conns[databaseName] = conn
	p.mu.Unlock()

	logrus.Infof("[POOL] Cached connection for database: %s", databaseName)
	return conn, nil
}

func (p *Pool) isAlive(ctx context.Context, db *gorm.DB) bool {
	sqlDB, err := db.DB()
	if err != nil {
		return false
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logrus.Debugf("[POOL] Connection ping failed: %v", err)
		return false
	}
	return true
}

// CloseAll closes every cached connection. Used on graceful shutdown.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, conn := range p.conns {
		logrus.Infof("[POOL] Closing connection to database: %s", name)
		if sqlDB, err := conn.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.Errorf("[POOL] Error closing connection to %s: %v", name, err)
			}
		}
		delete(p.conns, name)
	}
}

// Remove evicts a known-bad entry from the cache.
func (p *Pool) Remove(databaseName string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.conns[databaseName]; ok {
		delete(p.conns, databaseName)
		logrus.Infof("[POOL] Removed cached connection for database: %s", databaseName)
	}
}

// Count returns the number of cached connections.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.conns)
}

// ActiveDatabases lists the cached logical database names for monitoring.
func (p *Pool) ActiveDatabases() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, 0, len(p.conns))
	for name := range p.conns {
		names = append(names, name)
	}
	return names
}
