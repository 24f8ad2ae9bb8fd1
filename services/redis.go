package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/shared"
	"github.com/redis/go-redis/v9"
)

var errRedisNotInitialized = errors.New("redis client not initialized")

type RedisService struct {
	appContext.DefaultService
	redis *redis.Client
}

const REDIS_SVC = "redis_svc"

func (svc RedisService) Id() string {
	return REDIS_SVC
}

func (svc *RedisService) Configure(ctx *appContext.Context) error {
	svc.initRedisClient()
	return svc.DefaultService.Configure(ctx)
}

func (svc *RedisService) Start() error {
	if svc.redis != nil {
		ctx := context.Background()
		_, err := svc.redis.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}
	return nil
}

func (svc *RedisService) Shutdown() {
	if svc.redis != nil {
		_ = svc.redis.Close()
	}
}

// NewRedisService wraps an existing client. Used by the CLI and tests.
func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{redis: client}
}

func (svc *RedisService) initRedisClient() {
	svc.redis = NewRedisClientFromEnv()
}

// NewRedisClientFromEnv builds a client from REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
func NewRedisClientFromEnv() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")

	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			redisDB = db
		}
	}

	return redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
}

func (svc *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = shared.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	return svc.redis.Set(ctx, key, data, expiration).Err()
}

func (svc *RedisService) Get(ctx context.Context, key string) (string, error) {
	if svc.redis == nil {
		return "", errRedisNotInitialized
	}

	result, err := svc.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (svc *RedisService) Delete(ctx context.Context, keys ...string) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	return svc.redis.Del(ctx, keys...).Err()
}

// Exists reports whether any of keys is present.
func (svc *RedisService) Exists(ctx context.Context, keys ...string) (bool, error) {
	if svc.redis == nil {
		return false, errRedisNotInitialized
	}

	result, err := svc.redis.Exists(ctx, keys...).Result()
	return result > 0, err
}

// GetDel reads and removes a key in one round trip. Missing keys return "".
func (svc *RedisService) GetDel(ctx context.Context, key string) (string, error) {
	if svc.redis == nil {
		return "", errRedisNotInitialized
	}

	result, err := svc.redis.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return result, err
}

func (svc *RedisService) PFAdd(ctx context.Context, key string, els ...interface{}) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	return svc.redis.PFAdd(ctx, key, els...).Err()
}

func (svc *RedisService) PFCount(ctx context.Context, keys ...string) (int64, error) {
	if svc.redis == nil {
		return 0, errRedisNotInitialized
	}

	return svc.redis.PFCount(ctx, keys...).Result()
}

// RunScript executes a Lua script, loading it on first use (EVALSHA with EVAL fallback).
func (svc *RedisService) RunScript(ctx context.Context, script *redis.Script, keys []string, args ...interface{}) (interface{}, error) {
	if svc.redis == nil {
		return nil, errRedisNotInitialized
	}

	return script.Run(ctx, svc.redis, keys, args...).Result()
}

func (svc *RedisService) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) error {
	if svc.redis == nil {
		return errRedisNotInitialized
	}

	_, err := svc.redis.TxPipelined(ctx, fn)
	return err
}

func (svc *RedisService) Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if svc.redis == nil {
		return nil, errRedisNotInitialized
	}

	return svc.redis.Pipelined(ctx, fn)
}

// ScanKeys walks the keyspace with SCAN rather than blocking the server with KEYS.
func (svc *RedisService) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	if svc.redis == nil {
		return nil, errRedisNotInitialized
	}

	var keys []string
	iter := svc.redis.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}
