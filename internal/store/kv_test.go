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

func TestRedisKV_SetGet(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	kv := NewRedisKV(client)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k1", "v1", time.Minute))

	val, err := kv.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", val)
}

func TestRedisKV_GetMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	kv := NewRedisKV(client)

	_, err := kv.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRealtimeKey(t *testing.T) {
	assert.Equal(t, "vitals:device:device-1:realtime", RealtimeKey("device-1"))
}
