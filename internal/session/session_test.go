package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/futuresbot/internal/models"
	"github.com/songzhibin97/futuresbot/internal/trading"
)

func TestStore_Lifecycle(t *testing.T) {
	store := NewStore(time.Minute)

	sess, err := store.Start()
	require.NoError(t, err)
	require.Len(t, sess.ID, 32)
	assert.False(t, sess.Initialized())

	got, ok := store.Get(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)

	creds := models.Credentials{APIKey: "key", APISecret: "secret", Testnet: true}
	sess.Attach(creds, trading.NewBot(nil, nil))
	assert.True(t, sess.Initialized())
	assert.Equal(t, creds, sess.Credentials())

	store.End(sess.ID)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)
	assert.False(t, sess.Initialized())
	assert.Empty(t, sess.Credentials().APISecret)
	assert.Nil(t, sess.Bot())
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	store := NewStore(0)

	a, err := store.Start()
	require.NoError(t, err)
	b, err := store.Start()
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	a.Attach(models.Credentials{APIKey: "a", APISecret: "a"}, trading.NewBot(nil, nil))
	assert.True(t, a.Initialized())
	assert.False(t, b.Initialized())
	assert.Equal(t, 2, store.Len())
}

func TestStore_IdleExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewStore(30 * time.Minute)
	store.now = func() time.Time { return now }

	sess, err := store.Start()
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, ok := store.Get(sess.ID)
	require.True(t, ok)

	now = now.Add(20 * time.Minute)
	_, ok = store.Get(sess.ID)
	assert.True(t, ok, "access refreshes the idle timer")

	now = now.Add(31 * time.Minute)
	_, ok = store.Get(sess.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestStore_UnknownID(t *testing.T) {
	store := NewStore(time.Minute)
	_, ok := store.Get("missing")
	assert.False(t, ok)
	store.End("missing")
}

func TestSession_ConcurrentAccess(t *testing.T) {
	store := NewStore(time.Minute)
	sess, err := store.Start()
	require.NoError(t, err)

	creds := models.Credentials{APIKey: "key", APISecret: "secret", Testnet: true}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			sess.Attach(creds, trading.NewBot(nil, nil))
		}()
		go func() {
			defer wg.Done()
			got, bot := sess.State()
			if bot != nil {
				assert.Equal(t, creds, got)
			}
		}()
		go func() {
			defer wg.Done()
			store.Get(sess.ID)
		}()
	}
	wg.Wait()
	assert.True(t, sess.Initialized())

	store.End(sess.ID)
	got, bot := sess.State()
	assert.Nil(t, bot)
	assert.Equal(t, models.Credentials{}, got)
}
