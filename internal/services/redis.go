package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/campuslink/buspass-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

const (
	routesCacheKey    = "directory:routes"
	busesCacheKey     = "directory:buses"
	directoryCacheTTL = 5 * time.Minute
)

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		RedisClient = nil
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheRoutes stores the route directory listing. No-op without a client;
// the directory endpoints fall back to the database.
func CacheRoutes(ctx context.Context, routes []models.Route) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(routes)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, routesCacheKey, data, directoryCacheTTL).Err()
}

// CachedRoutes retrieves the cached route listing. The second return value
// reports a cache hit.
func CachedRoutes(ctx context.Context) ([]models.Route, bool) {
	if RedisClient == nil {
		return nil, false
	}
	data, err := RedisClient.Get(ctx, routesCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var routes []models.Route
	if err := json.Unmarshal([]byte(data), &routes); err != nil {
		return nil, false
	}
	return routes, true
}

// CacheBuses stores the bus directory listing with routes preloaded.
func CacheBuses(ctx context.Context, buses []models.Bus) error {
	if RedisClient == nil {
		return nil
	}
	data, err := json.Marshal(buses)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, busesCacheKey, data, directoryCacheTTL).Err()
}

// CachedBuses retrieves the cached bus listing.
func CachedBuses(ctx context.Context) ([]models.Bus, bool) {
	if RedisClient == nil {
		return nil, false
	}
	data, err := RedisClient.Get(ctx, busesCacheKey).Result()
	if err != nil {
		return nil, false
	}
	var buses []models.Bus
	if err := json.Unmarshal([]byte(data), &buses); err != nil {
		return nil, false
	}
	return buses, true
}

// InvalidateDirectory drops both directory caches after a route or bus write.
func InvalidateDirectory(ctx context.Context) {
	if RedisClient == nil {
		return
	}
	RedisClient.Del(ctx, routesCacheKey, busesCacheKey)
}
