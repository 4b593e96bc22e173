package infra_test

import (
	"context"
	"testing"

	"consigna/internal/infra"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	rdb, err := infra.NewRedis(ctx, "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NotNil(t, rdb)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Set(ctx, "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	disabled, err := infra.NewRedis(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, disabled)

	_, err = infra.NewRedis(ctx, "http://no-es-redis")
	assert.Error(t, err)

	addr := mr.Addr()
	mr.Close()
	_, err = infra.NewRedis(ctx, "redis://"+addr)
	assert.Error(t, err)
}
