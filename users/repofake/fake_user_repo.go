package fakeuserrepo

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-identity-server/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type providerKey struct {
	provider string
	subject  string
}

type FakeUserRepo struct {
	users       map[string]*users.User
	emailIds    map[string]string // email to user id
	providerIds map[providerKey]string
	lock        sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:       make(map[string]*users.User),
		emailIds:    make(map[string]string),
		providerIds: make(map[providerKey]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.Email != "" {
		if _, ok := ur.emailIds[user.Email]; ok {
			return users.ErrEmailTaken
		}
	}
	ur.users[user.ID] = copyUser(user)
	if user.Email != "" {
		ur.emailIds[user.Email] = user.ID
	}
	for _, p := range user.Providers {
		ur.providerIds[providerKey{p.Provider, p.Subject}] = user.ID
	}
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return users.ErrNotFound
	}
	delete(ur.emailIds, existing.Email)
	ur.users[user.ID] = copyUser(user)
	if user.Email != "" {
		ur.emailIds[user.Email] = user.ID
	}
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	user, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(user), nil
}

func (ur *FakeUserRepo) GetByProvider(_ context.Context, providerName, subject string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.providerIds[providerKey{providerName, subject}]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyUser(ur.users[id]), nil
}

func (ur *FakeUserRepo) LinkProvider(_ context.Context, userID string, identity users.ProviderIdentity) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.users[userID]
	if !ok {
		return users.ErrNotFound
	}
	user.Providers = append(user.Providers, identity)
	ur.providerIds[providerKey{identity.Provider, identity.Subject}] = userID
	return nil
}

// copyUser prevents callers from mutating the stored record through the
// returned pointer.
func copyUser(u *users.User) *users.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]users.RoleType(nil), u.Roles...)
	c.Providers = append([]users.ProviderIdentity(nil), u.Providers...)
	return &c
}
