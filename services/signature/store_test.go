package signature

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/types"
)

var (
	digest  = common.HexToHash("0x6b2c1bfcbcb8c77e6f3f1f3e9a6a1a0fbd1b1b2c1e5f5c5d4f3e2d1c0b0a0908")
	ownerLo = common.HexToAddress("0x1111111111111111111111111111111111111111")
	ownerHi = common.HexToAddress("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
)

func sig(owner common.Address, b byte) types.SafeSignature {
	data := make([]byte, 65)
	data[0] = b
	data[64] = 27
	return types.SafeSignature{Signer: owner, Data: data}
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "", ttl), mr
}

func newBadgerStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := OpenBadgerStore("", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t, 0)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
		"badger": newBadgerStore(t),
	}
}

func TestStore_Lifecycle(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := store.IsExecutable(ctx, digest, 2)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Add(ctx, digest, sig(ownerHi, 0xbb)))
			ok, err = store.IsExecutable(ctx, digest, 2)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 0xaa)))
			count, err := store.Count(ctx, digest)
			require.NoError(t, err)
			assert.Equal(t, 2, count)

			ok, err = store.IsExecutable(ctx, digest, 2)
			require.NoError(t, err)
			assert.True(t, ok)

			collected, err := store.Collected(ctx, digest)
			require.NoError(t, err)
			require.Len(t, collected, 2)
			assert.Equal(t, ownerLo, collected[0].Signer)
			assert.Equal(t, byte(0xaa), collected[0].Data[0])
			assert.Equal(t, ownerHi, collected[1].Signer)

			require.NoError(t, store.Discard(ctx, digest))
			count, err = store.Count(ctx, digest)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestStore_DuplicateSignature(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 1)))

			err := store.Add(ctx, digest, sig(ownerLo, 2))
			assert.ErrorIs(t, err, types.ErrDuplicateSignature)

			// 第一次写入的签名保持不变
			collected, err := store.Collected(ctx, digest)
			require.NoError(t, err)
			require.Len(t, collected, 1)
			assert.Equal(t, byte(1), collected[0].Data[0])

			// 不同摘要互不影响
			require.NoError(t, store.Add(ctx, common.HexToHash("0x01"), sig(ownerLo, 3)))
		})
	}
}

func TestStore_ConcurrentDuplicates(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var (
				wg        sync.WaitGroup
				successes atomic.Int32
			)
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := store.Add(context.Background(), digest, sig(ownerHi, byte(i))); err == nil {
						successes.Add(1)
					} else {
						assert.ErrorIs(t, err, types.ErrDuplicateSignature)
					}
				}(i)
			}
			wg.Wait()
			assert.Equal(t, int32(1), successes.Load())
		})
	}
}

func TestStore_RejectsMalformed(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.ErrorIs(t, store.Add(ctx, digest, types.SafeSignature{Signer: ownerLo}), types.ErrInvalidSignature)
			assert.ErrorIs(t, store.Add(ctx, digest, sig(common.Address{}, 1)), types.ErrReservedAddress)

			count, err := store.Count(ctx, digest)
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestStore_IsExecutableThreshold(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 0xaa)))

			tests := []struct {
				threshold uint64
				want      bool
			}{
				{0, true},
				{1, true},
				{2, false},
			}
			for _, tt := range tests {
				ok, err := store.IsExecutable(ctx, digest, tt.threshold)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ok, "threshold %d", tt.threshold)
			}

			// 没有任何签名时门限 0 同样满足
			empty := common.HexToHash("0x01")
			ok, err := store.IsExecutable(ctx, empty, 0)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := NewMemoryStore(WithMemoryTTL(time.Minute))
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 1)))
	now = now.Add(30 * time.Second)
	count, err := store.Count(ctx, digest)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	now = now.Add(time.Minute)
	count, err = store.Count(ctx, digest)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 过期后同一 owner 可以重新签名
	assert.NoError(t, store.Add(ctx, digest, sig(ownerLo, 2)))
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 1)))
	assert.Equal(t, time.Hour, mr.TTL(DefaultRedisPrefix+digest.Hex()))

	mr.FastForward(2 * time.Hour)
	count, err := store.Count(ctx, digest)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestBadgerStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := OpenBadgerStore(dir, time.Hour, nil)
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, digest, sig(ownerLo, 7)))
	require.NoError(t, store.Close())

	store, err = OpenBadgerStore(dir, time.Hour, nil)
	require.NoError(t, err)
	defer store.Close()

	collected, err := store.Collected(ctx, digest)
	require.NoError(t, err)
	require.Len(t, collected, 1)
	assert.Equal(t, ownerLo, collected[0].Signer)
	assert.ErrorIs(t, store.Add(ctx, digest, sig(ownerLo, 8)), types.ErrDuplicateSignature)
}
