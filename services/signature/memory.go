package signature

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/safekit/safe-client-sdk-go/types"
)

// MemoryOption 内存存储选项
type MemoryOption func(*MemoryStore)

// WithMemoryTTL 摘要在最后一次写入后保留的时长，0 表示永久保留
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.ttl = ttl
	}
}

// MemoryStore 进程内签名存储
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[common.Hash]*memoryEntry
}

type memoryEntry struct {
	sigs    map[common.Address]hexutil.Bytes
	expires time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		now:     time.Now,
		entries: make(map[common.Hash]*memoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Add(_ context.Context, digest common.Hash, sig types.SafeSignature) error {
	if err := validate(sig); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookup(digest)
	if entry == nil {
		entry = &memoryEntry{sigs: make(map[common.Address]hexutil.Bytes)}
		s.entries[digest] = entry
	}
	if _, ok := entry.sigs[sig.Signer]; ok {
		return duplicate(digest, sig.Signer)
	}
	entry.sigs[sig.Signer] = append(hexutil.Bytes{}, sig.Data...)
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context, digest common.Hash) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry := s.lookup(digest); entry != nil {
		return len(entry.sigs), nil
	}
	return 0, nil
}

func (s *MemoryStore) IsExecutable(ctx context.Context, digest common.Hash, threshold uint64) (bool, error) {
	count, err := s.Count(ctx, digest)
	if err != nil {
		return false, err
	}
	return reached(count, threshold), nil
}

func (s *MemoryStore) Collected(_ context.Context, digest common.Hash) ([]types.SafeSignature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.lookup(digest)
	if entry == nil {
		return nil, nil
	}
	sigs := make([]types.SafeSignature, 0, len(entry.sigs))
	for signer, data := range entry.sigs {
		sigs = append(sigs, types.SafeSignature{Signer: signer, Data: append(hexutil.Bytes{}, data...)})
	}
	sortBySigner(sigs)
	return sigs, nil
}

func (s *MemoryStore) Discard(_ context.Context, digest common.Hash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, digest)
	return nil
}

// lookup 返回未过期的条目，过期条目顺带清理（调用方持锁）
func (s *MemoryStore) lookup(digest common.Hash) *memoryEntry {
	entry, ok := s.entries[digest]
	if !ok {
		return nil
	}
	if !entry.expires.IsZero() && !s.now().Before(entry.expires) {
		delete(s.entries, digest)
		return nil
	}
	return entry
}
