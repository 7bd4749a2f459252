package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-identity-server/exchange"
	"github.com/jrsteele09/go-identity-server/exchange/redisstore"
)

func newTestStore(t *testing.T) (*redisstore.Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return redisstore.New(rdb), mr
}

func TestPutAndTake(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := exchange.Record{Verifier: "verifier-1", Nonce: "nonce-1", Redirect: "/dashboard"}
	require.NoError(t, store.Put(ctx, "state-1", record, time.Minute))

	got, err := store.Take(ctx, "state-1")
	require.NoError(t, err)
	require.Equal(t, &record, got)
}

func TestTakeConsumesRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "state-1", exchange.Record{Verifier: "v"}, time.Minute))

	_, err := store.Take(ctx, "state-1")
	require.NoError(t, err)

	_, err = store.Take(ctx, "state-1")
	require.ErrorIs(t, err, exchange.ErrStateNotFound)
}

func TestTakeUnknownState(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Take(context.Background(), "never-issued")
	require.ErrorIs(t, err, exchange.ErrStateNotFound)
}

func TestRecordExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "state-1", exchange.Record{Verifier: "v"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Take(ctx, "state-1")
	require.ErrorIs(t, err, exchange.ErrStateNotFound)
}
