package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticCredential(t *testing.T) {
	cred := NewStaticCredential("tok")
	assert.True(t, cred.IsValid())
	assert.Equal(t, "tok", cred.AccessToken())

	empty := NewStaticCredential("")
	assert.False(t, empty.IsValid())
}

func TestTokenCredentialRefresh(t *testing.T) {
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		return "fresh", time.Hour, nil
	})

	assert.False(t, cred.IsValid())
	assert.Empty(t, cred.AccessToken())

	require.NoError(t, cred.Refresh(context.Background()))
	assert.True(t, cred.IsValid())
	assert.Equal(t, "fresh", cred.AccessToken())
}

func TestTokenCredentialExpiry(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		return "fresh", time.Minute, nil
	})
	cred.now = func() time.Time { return now }

	require.NoError(t, cred.Refresh(context.Background()))
	assert.True(t, cred.IsValid())

	now = now.Add(2 * time.Minute)
	assert.False(t, cred.IsValid())
	// The expired token is still readable until refreshed or invalidated.
	assert.Equal(t, "fresh", cred.AccessToken())
}

func TestTokenCredentialInvalidate(t *testing.T) {
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		return "fresh", 0, nil
	})
	require.NoError(t, cred.Refresh(context.Background()))
	require.True(t, cred.IsValid())

	cred.Invalidate()
	assert.False(t, cred.IsValid())
	assert.Empty(t, cred.AccessToken())
}

func TestTokenCredentialRefreshFailure(t *testing.T) {
	refreshErr := errors.New("token endpoint down")
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		return "", 0, refreshErr
	})

	assert.ErrorIs(t, cred.Refresh(context.Background()), refreshErr)
	assert.False(t, cred.IsValid())
}

func TestTokenCredentialEmptyTokenIsError(t *testing.T) {
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		return "", 0, nil
	})
	assert.ErrorIs(t, cred.Refresh(context.Background()), ErrNoToken)
}

func TestTokenCredentialConcurrentRefreshRunsOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	cred := NewTokenCredential(func(context.Context) (string, time.Duration, error) {
		calls.Add(1)
		<-release
		return "fresh", time.Hour, nil
	})

	const workers = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			_ = cred.Refresh(context.Background())
		}()
	}
	for i := 0; i < workers; i++ {
		<-started
	}
	// All workers are in flight; let the single refresh complete.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	assert.Equal(t, "fresh", cred.AccessToken())
}
