package refreshrepofake

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/go-identity-server/token/refresh"
)

var _ refresh.Repo = (*FakeRefreshTokenRepo)(nil)

type FakeRefreshTokenRepo struct {
	tokens map[string]*refresh.StoredRefreshToken // keyed by token hash
	lock   sync.Mutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		tokens: make(map[string]*refresh.StoredRefreshToken),
	}
}

func (tr *FakeRefreshTokenRepo) Insert(_ context.Context, record *refresh.StoredRefreshToken) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	c := *record
	tr.tokens[record.TokenHash] = &c
	return nil
}

// TakeByHash deletes and returns the record under a single lock acquisition,
// mirroring the single-statement semantics of the postgres implementation.
func (tr *FakeRefreshTokenRepo) TakeByHash(_ context.Context, tokenHash string) (*refresh.StoredRefreshToken, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	record, ok := tr.tokens[tokenHash]
	if !ok {
		return nil, refresh.ErrTokenNotFound
	}
	delete(tr.tokens, tokenHash)
	return record, nil
}

func (tr *FakeRefreshTokenRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if _, ok := tr.tokens[tokenHash]; !ok {
		return refresh.ErrTokenNotFound
	}
	delete(tr.tokens, tokenHash)
	return nil
}

func (tr *FakeRefreshTokenRepo) DeleteByUserID(_ context.Context, userID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	for hash, record := range tr.tokens {
		if record.UserID == userID {
			delete(tr.tokens, hash)
		}
	}
	return nil
}

func (tr *FakeRefreshTokenRepo) ListByUserID(_ context.Context, userID string) ([]*refresh.StoredRefreshToken, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	records := make([]*refresh.StoredRefreshToken, 0)
	for _, record := range tr.tokens {
		if record.UserID == userID {
			c := *record
			records = append(records, &c)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	return records, nil
}

// Count reports the number of stored records, used by tests.
func (tr *FakeRefreshTokenRepo) Count() int {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	return len(tr.tokens)
}
