package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestKV(t *testing.T) *RedisKV {
	mr := miniredis.RunT(t)
	return NewRedisKV(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestRedisKV_SetGet(t *testing.T) {
	kv := setupTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "withings:summary:lab-a:2023-11-01:2023-11-30", `[{"id":1}]`, time.Minute))

	val, err := kv.Get(ctx, "withings:summary:lab-a:2023-11-01:2023-11-30")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, val)
}

func TestRedisKV_Miss(t *testing.T) {
	kv := setupTestKV(t)

	_, err := kv.Get(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrMiss)
}
