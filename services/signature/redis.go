package signature

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"

	"github.com/safekit/safe-client-sdk-go/types"
)

// DefaultRedisPrefix Redis 键前缀
const DefaultRedisPrefix = "safe:signatures:"

// RedisStore 基于 Redis 哈希的签名存储
//
// 每个摘要对应一个哈希，字段为 owner 地址，HSETNX 保证同一 owner 只写入一次。
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore 创建 Redis 存储，ttl 为 0 时不设置过期
func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(digest common.Hash) string {
	return s.prefix + digest.Hex()
}

func (s *RedisStore) Add(ctx context.Context, digest common.Hash, sig types.SafeSignature) error {
	if err := validate(sig); err != nil {
		return err
	}

	key := s.key(digest)
	var set *redis.BoolCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		set = pipe.HSetNX(ctx, key, sig.Signer.Hex(), hexutil.Encode(sig.Data))
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis add signature: %w", err)
	}
	if !set.Val() {
		return duplicate(digest, sig.Signer)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context, digest common.Hash) (int, error) {
	n, err := s.client.HLen(ctx, s.key(digest)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count signatures: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) IsExecutable(ctx context.Context, digest common.Hash, threshold uint64) (bool, error) {
	count, err := s.Count(ctx, digest)
	if err != nil {
		return false, err
	}
	return reached(count, threshold), nil
}

func (s *RedisStore) Collected(ctx context.Context, digest common.Hash) ([]types.SafeSignature, error) {
	fields, err := s.client.HGetAll(ctx, s.key(digest)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis collect signatures: %w", err)
	}
	sigs := make([]types.SafeSignature, 0, len(fields))
	for signer, data := range fields {
		if !common.IsHexAddress(signer) {
			return nil, fmt.Errorf("redis collect signatures: bad signer field %q", signer)
		}
		raw, err := hexutil.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("redis collect signatures: signer %s: %w", signer, err)
		}
		sigs = append(sigs, types.SafeSignature{Signer: common.HexToAddress(signer), Data: raw})
	}
	sortBySigner(sigs)
	return sigs, nil
}

func (s *RedisStore) Discard(ctx context.Context, digest common.Hash) error {
	if err := s.client.Del(ctx, s.key(digest)).Err(); err != nil {
		return fmt.Errorf("redis discard signatures: %w", err)
	}
	return nil
}
