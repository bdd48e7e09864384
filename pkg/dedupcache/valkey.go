package dedupcache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

// ValkeyConfig holds the connection settings for the Valkey-backed cache.
type ValkeyConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// ValkeyCache shares the seen-id set across instances behind one Valkey.
type ValkeyCache struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewValkeyCache connects and pings the server before returning.
func NewValkeyCache(cfg ValkeyConfig) (*ValkeyCache, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &ValkeyCache{inner: inner, keyPrefix: prefix}, nil
}

func (c *ValkeyCache) Seen(ctx context.Context, key string) bool {
	n, err := c.inner.Do(ctx, c.inner.B().Exists().Key(c.keyPrefix+"dedup:"+key).Build()).AsInt64()
	if err != nil {
		logrus.Debugf("[DEDUP_CACHE] Valkey EXISTS failed: %v", err)
		return false
	}
	return n > 0
}

func (c *ValkeyCache) Mark(ctx context.Context, key string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	cmd := c.inner.B().Set().Key(c.keyPrefix + "dedup:" + key).Value("1").Ex(ttl).Build()
	if err := c.inner.Do(ctx, cmd).Error(); err != nil {
		logrus.Debugf("[DEDUP_CACHE] Valkey SET failed: %v", err)
	}
}

func (c *ValkeyCache) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}
