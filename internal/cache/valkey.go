package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ValkeyClient caches two things: auth lookups for the Basic auth
// middleware, and short-lived availability snapshots per event. Both are
// best-effort; every caller falls back to Postgres on a miss.
type ValkeyClient struct {
	client       *redis.Client
	usersHashKey string
}

type Config struct {
	Addr         string
	Password     string
	UsersHashKey string
}

const availabilityTTL = 5 * time.Second

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	if cfg.UsersHashKey == "" {
		cfg.UsersHashKey = "users:auth"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyClient{
		client:       rdb,
		usersHashKey: cfg.UsersHashKey,
	}, nil
}

func (v *ValkeyClient) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	userIDStr, err := v.client.HGet(ctx, v.usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

func availabilityKey(eventID uuid.UUID) string {
	return "availability:" + eventID.String()
}

// GetAvailabilityRaw returns the cached availability payload as raw JSON
// so handlers can write it straight to the response.
func (v *ValkeyClient) GetAvailabilityRaw(ctx context.Context, eventID uuid.UUID) ([]byte, error) {
	return v.client.Get(ctx, availabilityKey(eventID)).Bytes()
}

func (v *ValkeyClient) SetAvailability(ctx context.Context, eventID uuid.UUID, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal availability: %w", err)
	}
	return v.client.Set(ctx, availabilityKey(eventID), data, availabilityTTL).Err()
}

// InvalidateAvailability drops the snapshot after a reservation, release
// or check-in changed the unit states for this event.
func (v *ValkeyClient) InvalidateAvailability(ctx context.Context, eventID uuid.UUID) error {
	return v.client.Del(ctx, availabilityKey(eventID)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
