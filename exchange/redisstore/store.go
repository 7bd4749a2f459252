// Package redisstore implements exchange.Store on Redis. GETDEL gives the
// atomic take and SET's expiry gives the TTL, so abandoned handshakes clean
// themselves up without a sweeper.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/jrsteele09/go-identity-server/exchange"
)

const keyPrefix = "oauth:state:"

var _ exchange.Store = (*Store)(nil)

type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Put(ctx context.Context, state string, record exchange.Record, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return pkgerrors.Wrap(err, "[Store.Put] marshal record")
	}
	if err := s.rdb.Set(ctx, keyPrefix+state, payload, ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, "[Store.Put] redis SET")
	}
	return nil
}

func (s *Store) Take(ctx context.Context, state string) (*exchange.Record, error) {
	payload, err := s.rdb.GetDel(ctx, keyPrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, exchange.ErrStateNotFound
		}
		return nil, pkgerrors.Wrap(err, "[Store.Take] redis GETDEL")
	}
	record := &exchange.Record{}
	if err := json.Unmarshal(payload, record); err != nil {
		// A corrupt record gets the same answer as a missing one.
		return nil, exchange.ErrStateNotFound
	}
	return record, nil
}
