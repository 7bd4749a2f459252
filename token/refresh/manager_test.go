package refresh_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-identity-server/internal/config"
	"github.com/jrsteele09/go-identity-server/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-identity-server/token/refresh/repofake"
)

type testAuthConfig struct {
	config.Auth
	rolling time.Duration
	ceiling time.Duration
}

func (c testAuthConfig) GetRefreshTokenRollingExpiry() time.Duration { return c.rolling }
func (c testAuthConfig) GetRefreshTokenChainCeiling() time.Duration  { return c.ceiling }

func newTestManager(rolling, ceiling time.Duration) (*refresh.Manager, *refreshrepofake.FakeRefreshTokenRepo) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	manager := refresh.NewManager(repo, testAuthConfig{rolling: rolling, ceiling: ceiling})
	return manager, repo
}

func TestIssueAndRedeem(t *testing.T) {
	manager, repo := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	plaintext, record, err := manager.Issue(ctx, "user-1", "laptop", time.Time{}, now)
	require.NoError(t, err)
	require.Len(t, plaintext, 64) // 32 random bytes, hex encoded
	require.Equal(t, refresh.HashToken(plaintext), record.TokenHash)
	require.NotContains(t, record.TokenHash, plaintext)

	redeemed, err := manager.Redeem(ctx, plaintext, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, "user-1", redeemed.UserID)
	require.Equal(t, "laptop", redeemed.Device)
	require.Equal(t, 0, repo.Count())
}

func TestRedeemIsSingleUse(t *testing.T) {
	manager, _ := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	plaintext, _, err := manager.Issue(ctx, "user-1", "", time.Time{}, now)
	require.NoError(t, err)

	_, err = manager.Redeem(ctx, plaintext, now)
	require.NoError(t, err)

	_, err = manager.Redeem(ctx, plaintext, now)
	require.ErrorIs(t, err, refresh.ErrTokenInvalid)
}

func TestRedeemConcurrentReplay(t *testing.T) {
	manager, _ := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	plaintext, _, err := manager.Issue(ctx, "user-1", "", time.Time{}, now)
	require.NoError(t, err)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Redeem(ctx, plaintext, now)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, refresh.ErrTokenInvalid)
		}
	}
	require.Equal(t, 1, successes)
}

func TestRedeemUnknownToken(t *testing.T) {
	manager, _ := newTestManager(7*24*time.Hour, 180*24*time.Hour)

	_, err := manager.Redeem(context.Background(), "never-issued", time.Now())
	require.ErrorIs(t, err, refresh.ErrTokenInvalid)
}

func TestRollingExpiry(t *testing.T) {
	manager, repo := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	plaintext, _, err := manager.Issue(ctx, "user-1", "", time.Time{}, now)
	require.NoError(t, err)

	_, err = manager.Redeem(ctx, plaintext, now.Add(7*24*time.Hour+time.Second))
	require.ErrorIs(t, err, refresh.ErrTokenInvalid)

	// The expired record is gone: a stolen token can't be probed again.
	require.Equal(t, 0, repo.Count())
}

func TestChainCeiling(t *testing.T) {
	// Rolling window of 7 days, hard ceiling of 10 days from the first login.
	manager, _ := newTestManager(7*24*time.Hour, 10*24*time.Hour)
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	plaintext, record, err := manager.Issue(ctx, "user-1", "", time.Time{}, start)
	require.NoError(t, err)

	// Rotate every 6 days, always inside the rolling window.
	now := start
	for i := 0; i < 2; i++ {
		now = now.Add(6 * 24 * time.Hour)
		redeemed, err := manager.Redeem(ctx, plaintext, now)
		if i == 0 {
			require.NoError(t, err)
			require.Equal(t, record.ChainExpiresAt, redeemed.ChainExpiresAt)
			plaintext, _, err = manager.Issue(ctx, redeemed.UserID, redeemed.Device, redeemed.ChainExpiresAt, now)
			require.NoError(t, err)
			continue
		}
		// Second rotation lands at day 12, past the 10 day ceiling.
		require.ErrorIs(t, err, refresh.ErrTokenInvalid)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	manager, _ := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()

	plaintext, _, err := manager.Issue(ctx, "user-1", "", time.Time{}, time.Now())
	require.NoError(t, err)

	require.NoError(t, manager.Revoke(ctx, plaintext))
	require.NoError(t, manager.Revoke(ctx, plaintext))
	require.NoError(t, manager.Revoke(ctx, "never-issued"))
}

func TestRevokeAll(t *testing.T) {
	manager, repo := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Now()

	_, _, err := manager.Issue(ctx, "user-1", "laptop", time.Time{}, now)
	require.NoError(t, err)
	_, _, err = manager.Issue(ctx, "user-1", "phone", time.Time{}, now)
	require.NoError(t, err)
	otherToken, _, err := manager.Issue(ctx, "user-2", "", time.Time{}, now)
	require.NoError(t, err)

	require.NoError(t, manager.RevokeAll(ctx, "user-1"))
	require.Equal(t, 1, repo.Count())

	_, err = manager.Redeem(ctx, otherToken, now)
	require.NoError(t, err)
}

func TestSessionsListsMetadataOnly(t *testing.T) {
	manager, _ := newTestManager(7*24*time.Hour, 180*24*time.Hour)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, _, err := manager.Issue(ctx, "user-1", "laptop", time.Time{}, now)
	require.NoError(t, err)
	_, _, err = manager.Issue(ctx, "user-1", "phone", time.Time{}, now.Add(time.Hour))
	require.NoError(t, err)

	sessions, err := manager.Sessions(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, "laptop", sessions[0].Device)
	require.Equal(t, "phone", sessions[1].Device)
	require.Equal(t, now.Add(7*24*time.Hour), sessions[0].ExpiresAt)
}
