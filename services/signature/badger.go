package signature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/types"
)

// badgerConflictRetries 事务冲突时的重试次数
const badgerConflictRetries = 5

var badgerKeyPrefix = []byte("sig/")

// BadgerStore 基于 badger 的本地持久化签名存储
//
// 键为 sig/ ‖ digest ‖ signer，迭代顺序即 owner 地址升序。
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	logger *zap.Logger
}

// OpenBadgerStore 打开存储，dir 为空时使用内存模式
func OpenBadgerStore(dir string, ttl time.Duration, logger *zap.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	if dir == "" {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db, ttl: ttl, logger: logger}, nil
}

// Close 关闭数据库
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func digestPrefix(digest common.Hash) []byte {
	key := make([]byte, 0, len(badgerKeyPrefix)+common.HashLength)
	key = append(key, badgerKeyPrefix...)
	return append(key, digest.Bytes()...)
}

func signatureKey(digest common.Hash, signer common.Address) []byte {
	return append(digestPrefix(digest), signer.Bytes()...)
}

func (s *BadgerStore) Add(ctx context.Context, digest common.Hash, sig types.SafeSignature) error {
	if err := validate(sig); err != nil {
		return err
	}

	key := signatureKey(digest, sig.Signer)
	add := func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return duplicate(digest, sig.Signer)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		entry := badger.NewEntry(key, append([]byte{}, sig.Data...))
		if s.ttl > 0 {
			entry = entry.WithTTL(s.ttl)
		}
		return txn.SetEntry(entry)
	}

	var err error
	for attempt := 0; attempt <= badgerConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(add)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("badger transaction conflict, retrying",
			zap.String("digest", digest.Hex()), zap.Int("attempt", attempt+1))
	}
	if err != nil && !errors.Is(err, types.ErrDuplicateSignature) {
		return fmt.Errorf("badger add signature: %w", err)
	}
	return err
}

func (s *BadgerStore) Count(_ context.Context, digest common.Hash) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = digestPrefix(digest)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("badger count signatures: %w", err)
	}
	return count, nil
}

func (s *BadgerStore) IsExecutable(ctx context.Context, digest common.Hash, threshold uint64) (bool, error) {
	count, err := s.Count(ctx, digest)
	if err != nil {
		return false, err
	}
	return reached(count, threshold), nil
}

func (s *BadgerStore) Collected(_ context.Context, digest common.Hash) ([]types.SafeSignature, error) {
	prefix := digestPrefix(digest)
	var sigs []types.SafeSignature
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			sigs = append(sigs, types.SafeSignature{
				Signer: common.BytesToAddress(item.Key()[len(prefix):]),
				Data:   data,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger collect signatures: %w", err)
	}
	return sigs, nil
}

func (s *BadgerStore) Discard(_ context.Context, digest common.Hash) error {
	prefix := digestPrefix(digest)
	err := s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger discard signatures: %w", err)
	}
	return nil
}
