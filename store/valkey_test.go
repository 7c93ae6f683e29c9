package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"profile-viewer/config"
	"profile-viewer/models"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ValkeyStore, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	return &ValkeyStore{client: db, closer: db.Close, prefix: "test", ttl: time.Minute}, mock
}

func TestValkeyStoreLoadMiss(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("test:abc").RedisNil()

	state, found, err := store.Load(context.Background(), "abc")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, models.QueryState{}, state)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValkeyStoreLoadHit(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("test:abc").SetVal(`{"input":"Tech_Enthusiast","loading":false,"record":{"username":"tech_enthusiast","fullName":"Alex Rodriguez","isPrivate":false},"generation":3}`)

	state, found, err := store.Load(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Tech_Enthusiast", state.Input)
	assert.Equal(t, uint64(3), state.Generation)
	require.NotNil(t, state.Record)
	assert.Equal(t, "Alex Rodriguez", state.Record.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValkeyStoreLoadErrors(t *testing.T) {
	store, mock := newTestStore(t)
	mock.ExpectGet("test:abc").SetErr(errors.New("connection refused"))
	_, _, err := store.Load(context.Background(), "abc")
	assert.Error(t, err)

	mock.ExpectGet("test:abc").SetVal("not-json")
	_, _, err = store.Load(context.Background(), "abc")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValkeyStoreSave(t *testing.T) {
	store, mock := newTestStore(t)
	state := models.QueryState{Input: "private_user", Loading: true, Generation: 1}
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectSet("test:abc", raw, time.Minute).SetVal("OK")
	assert.NoError(t, store.Save(context.Background(), "abc", state))

	mock.ExpectSet("test:abc", raw, time.Minute).SetErr(errors.New("read only replica"))
	assert.Error(t, store.Save(context.Background(), "abc", state))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewValkeyStorePing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	original := newRedisClient
	newRedisClient = func(opts *redis.Options) *redis.Client {
		assert.Equal(t, "localhost:6379", opts.Addr)
		assert.Equal(t, 1, opts.DB)
		return db
	}
	defer func() { newRedisClient = original }()

	mock.ExpectPing().SetVal("PONG")
	store, err := NewValkeyStore(config.ValkeyConfig{Addr: "localhost:6379", DB: 1, Prefix: "p"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "p:id", store.key("id"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewValkeyStorePingFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	original := newRedisClient
	newRedisClient = func(opts *redis.Options) *redis.Client { return db }
	defer func() { newRedisClient = original }()

	mock.ExpectPing().SetErr(errors.New("dial tcp: refused"))
	_, err := NewValkeyStore(config.ValkeyConfig{Addr: "localhost:6379"}, time.Minute)
	assert.Error(t, err)
}

func TestValkeyStoreCloseWithoutCloser(t *testing.T) {
	assert.NoError(t, (&ValkeyStore{}).Close())
}
