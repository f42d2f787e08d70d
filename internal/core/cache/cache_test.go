package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// 指向不可达地址：所有 redis 调用失败，验证回源路径
func unreachable() *Cache {
	return NewWithOptions(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestGetOrLoadJSON_FallsBackWhenRedisDown(t *testing.T) {
	c := unreachable()
	defer c.Close()

	calls := 0
	got, err := GetOrLoadJSON(c, context.Background(), "user:1", time.Minute, func(ctx context.Context) (*item, error) {
		calls++
		return &item{ID: "1", Name: "A"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, &item{ID: "1", Name: "A"}, got)
	assert.Equal(t, 1, calls)
}

func TestGetOrLoadJSON_PropagatesLoadError(t *testing.T) {
	c := unreachable()
	defer c.Close()

	boom := errors.New("boom")
	_, err := GetOrLoadJSON(c, context.Background(), "user:2", time.Minute, func(ctx context.Context) (*item, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGetOrLoadJSON_NilValue(t *testing.T) {
	c := unreachable()
	defer c.Close()

	got, err := GetOrLoadJSON(c, context.Background(), "user:3", time.Minute, func(ctx context.Context) (*item, error) {
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDel(t *testing.T) {
	c := unreachable()
	defer c.Close()

	assert.NoError(t, c.Del(context.Background()))
	assert.Error(t, c.Del(context.Background(), "user:1"))
}
