package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/payments-ledger/internal/payment-service/ledger"
)

func newCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client, time.Minute, nil), mr
}

type source struct {
	calls int
	list  []ledger.Iban
	err   error
}

func (s *source) load(context.Context) ([]ledger.Iban, error) {
	s.calls++
	return s.list, s.err
}

func TestActiveCachesUntilInvalidated(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	src := &source{list: []ledger.Iban{{ID: "i1", BankName: "Ziraat", AccountHolder: "Garbet", IBANNumber: "TR330006100519786457841326", IsActive: true}}}

	got, err := c.Active(ctx, src.load)
	require.NoError(t, err)
	assert.Equal(t, src.list, got)
	assert.True(t, mr.Exists(activeIbansKey))

	got, err = c.Active(ctx, src.load)
	require.NoError(t, err)
	assert.Equal(t, "Ziraat", got[0].BankName)
	assert.Equal(t, 1, src.calls)

	require.NoError(t, c.Invalidate(ctx))
	_, err = c.Active(ctx, src.load)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestActiveExpiresWithTTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	src := &source{}

	_, err := c.Active(ctx, src.load)
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = c.Active(ctx, src.load)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestActiveFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	src := &source{list: []ledger.Iban{{ID: "i1"}}}

	got, err := c.Active(context.Background(), src.load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestActivePropagatesLoadError(t *testing.T) {
	c, mr := newCache(t)
	src := &source{err: errors.New("pg down")}

	_, err := c.Active(context.Background(), src.load)
	assert.Error(t, err)
	assert.False(t, mr.Exists(activeIbansKey))
}

func TestActiveDiscardsCorruptEntry(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set(activeIbansKey, "{not json"))
	src := &source{list: []ledger.Iban{{ID: "i1"}}}

	got, err := c.Active(context.Background(), src.load)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, src.calls)
}
