package health

import (
	"context"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type DBChecker struct {
	db *gorm.DB
}

func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "db", Healthy: true}
	if c.db == nil {
		res.Healthy = false
		res.Error = "db not configured"
		return res
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

type RedisChecker struct {
	client redis.UniversalClient
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &RedisChecker{client: client}
}

func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "redis", Healthy: true}
	if c.client == nil {
		res.Healthy = false
		res.Error = "redis not configured"
		return res
	}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// LocalStorageChecker verifies the upload root is present and writable,
// since local registration uploads land there.
type LocalStorageChecker struct {
	root string
}

func NewLocalStorageChecker(root string) Checker {
	if root == "" {
		return nil
	}
	return &LocalStorageChecker{root: root}
}

func (c *LocalStorageChecker) Check(_ context.Context) CheckResult {
	res := CheckResult{Name: "local_storage", Healthy: true}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	probe, err := os.CreateTemp(c.root, ".healthcheck-*")
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(filepath.Clean(name))
	return res
}
