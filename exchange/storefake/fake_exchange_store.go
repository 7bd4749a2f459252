package exchangestorefake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-identity-server/exchange"
)

var _ exchange.Store = (*FakeExchangeStore)(nil)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type entry struct {
	record    exchange.Record
	expiresAt time.Time
}

type FakeExchangeStore struct {
	entries map[string]entry
	lock    sync.Mutex
}

func NewFakeExchangeStore() *FakeExchangeStore {
	return &FakeExchangeStore{
		entries: make(map[string]entry),
	}
}

func (s *FakeExchangeStore) Put(_ context.Context, state string, record exchange.Record, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries[state] = entry{record: record, expiresAt: NowTimeFunc().Add(ttl)}
	return nil
}

func (s *FakeExchangeStore) Take(_ context.Context, state string) (*exchange.Record, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return nil, exchange.ErrStateNotFound
	}
	delete(s.entries, state)
	if NowTimeFunc().After(e.expiresAt) {
		return nil, exchange.ErrStateNotFound
	}
	record := e.record
	return &record, nil
}
