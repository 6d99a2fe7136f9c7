package safe

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/safekit/safe-client-sdk-go/monitor"
	"github.com/safekit/safe-client-sdk-go/types"
)

// State 返回交易当前状态
func (s *Safe) State(hash common.Hash) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return 0, unknown(hash)
	}
	return p.state, nil
}

// Result 已提交交易的链上回执，未提交时为 nil
func (s *Safe) Result(hash common.Hash) (*types.TransactionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return nil, unknown(hash)
	}
	return p.result, nil
}

// IsExecutable 签名是否已达到当前链上门限
func (s *Safe) IsExecutable(ctx context.Context, hash common.Hash) (bool, error) {
	state, err := s.State(hash)
	if err != nil {
		return false, err
	}
	if state.Terminal() {
		return false, nil
	}
	state, err = s.refresh(ctx, hash)
	if err != nil {
		return false, err
	}
	return state == StateExecutable, nil
}

// ExecuteTransaction 提交已达门限的交易
//
// **流程**：
// 1. 确认交易处于非终态且没有其他执行在进行
// 2. 按当前门限重新确认签名数，不足时返回 ErrThresholdNotReached
// 3. 按 owner 升序拼接签名并调用 execTransaction
// 4. 回执成功 → Executed 并丢弃签名；回执失败 → Reverted 并返回 ErrExecutionReverted
//
// 提交前失败（估算 gas 回滚、网络错误）不改变状态，可以重试。
func (s *Safe) ExecuteTransaction(ctx context.Context, hash common.Hash, opts *types.TransactionOptions) (*types.TransactionResult, error) {
	p, err := s.beginExecution(hash)
	if err != nil {
		return nil, err
	}
	defer s.endExecution(p)

	state, err := s.refresh(ctx, hash)
	if err != nil {
		return nil, err
	}
	if state.Terminal() {
		return nil, invalidTransition(state, StateExecuted)
	}
	if state != StateExecutable {
		return nil, types.ErrThresholdNotReached.WithDetail("transaction %s is %s", hash.Hex(), state)
	}

	sigs, err := s.store.Collected(ctx, hash)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.contract.ExecTransaction(ctx, p.tx, types.EncodeSignatures(sigs), opts)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		if s.finish(p, StateExecuted, result) {
			s.metrics.Executed(monitor.OutcomeExecuted, elapsed)
		}
		if derr := s.store.Discard(ctx, hash); derr != nil {
			s.logger.Warn("discard signatures failed", zap.String("hash", hash.Hex()), zap.Error(derr))
		}
		s.logger.Info("transaction executed", zap.String("hash", hash.Hex()), zap.String("tx", result.Hash.Hex()))
		return result, nil
	case result != nil && errors.Is(err, types.ErrExecutionReverted):
		if s.finish(p, StateReverted, result) {
			s.metrics.Executed(monitor.OutcomeReverted, elapsed)
		}
		s.logger.Warn("transaction reverted", zap.String("hash", hash.Hex()), zap.String("tx", result.Hash.Hex()))
		return result, err
	default:
		s.metrics.Executed(monitor.OutcomeFailed, elapsed)
		s.logger.Warn("transaction submission failed", zap.String("hash", hash.Hex()), zap.Error(err))
		return nil, err
	}
}

// Abandon 放弃非终态交易并丢弃其签名
//
// 不会取消正在进行的链上调用。
func (s *Safe) Abandon(ctx context.Context, hash common.Hash) error {
	s.mu.Lock()
	p, ok := s.pending[hash]
	if !ok {
		s.mu.Unlock()
		return unknown(hash)
	}
	if p.state.Terminal() {
		s.mu.Unlock()
		return invalidTransition(p.state, StateAbandoned)
	}
	p.state = StateAbandoned
	s.mu.Unlock()

	s.metrics.Abandoned()
	s.logger.Info("transaction abandoned", zap.String("hash", hash.Hex()))
	return s.store.Discard(ctx, hash)
}

// activeState 返回非终态交易的状态，终态时报告非法转换
func (s *Safe) activeState(hash common.Hash, to State) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return 0, unknown(hash)
	}
	if p.state.Terminal() {
		return p.state, invalidTransition(p.state, to)
	}
	return p.state, nil
}

// refresh 按签名数与链上门限更新签名阶段状态
func (s *Safe) refresh(ctx context.Context, hash common.Hash) (State, error) {
	threshold, err := s.contract.GetThreshold(ctx)
	if err != nil {
		return 0, err
	}
	count, err := s.store.Count(ctx, hash)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return 0, unknown(hash)
	}
	if !p.state.Terminal() {
		p.state = signedState(count, threshold)
	}
	return p.state, nil
}

func (s *Safe) beginExecution(hash common.Hash) (*pendingTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[hash]
	if !ok {
		return nil, unknown(hash)
	}
	if p.state.Terminal() {
		return nil, invalidTransition(p.state, StateExecuted)
	}
	if p.executing {
		return nil, types.ErrInvalidState.WithDetail("transaction %s is already being executed", hash.Hex())
	}
	p.executing = true
	return p, nil
}

func (s *Safe) endExecution(p *pendingTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.executing = false
}

// finish 记录执行结果；执行期间被放弃的交易保持 Abandoned
func (s *Safe) finish(p *pendingTx, state State, result *types.TransactionResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.result = result
	if p.state == StateAbandoned {
		s.logger.Warn("abandoned transaction was mined", zap.String("hash", p.tx.Hash().Hex()), zap.Stringer("outcome", state))
		return false
	}
	p.state = state
	return true
}
