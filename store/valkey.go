package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profile-viewer/config"
	"profile-viewer/models"

	"github.com/redis/go-redis/v9"
)

type StateStore interface {
	Load(ctx context.Context, sessionID string) (models.QueryState, bool, error)
	Save(ctx context.Context, sessionID string, state models.QueryState) error
	Close() error
}

var newRedisClient = redis.NewClient

type ValkeyStore struct {
	client redis.Cmdable
	closer func() error
	prefix string
	ttl    time.Duration
}

func NewValkeyStore(cfg config.ValkeyConfig, ttl time.Duration) (*ValkeyStore, error) {
	client := newRedisClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return &ValkeyStore{client: client, closer: client.Close, prefix: cfg.Prefix, ttl: ttl}, nil
}

func (v *ValkeyStore) Load(ctx context.Context, sessionID string) (models.QueryState, bool, error) {
	raw, err := v.client.Get(ctx, v.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.QueryState{}, false, nil
	}
	if err != nil {
		return models.QueryState{}, false, err
	}

	var state models.QueryState
	if err := json.Unmarshal(raw, &state); err != nil {
		return models.QueryState{}, false, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, true, nil
}

func (v *ValkeyStore) Save(ctx context.Context, sessionID string, state models.QueryState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return v.client.Set(ctx, v.key(sessionID), raw, v.ttl).Err()
}

func (v *ValkeyStore) Close() error {
	if v.closer == nil {
		return nil
	}
	return v.closer()
}

func (v *ValkeyStore) key(sessionID string) string {
	return fmt.Sprintf("%s:%s", v.prefix, sessionID)
}
