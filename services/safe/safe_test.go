package safe

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/adapter/adaptertest"
	"github.com/safekit/safe-client-sdk-go/adapter/factory"
	"github.com/safekit/safe-client-sdk-go/monitor"
	"github.com/safekit/safe-client-sdk-go/services/signature"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

var (
	safeAddr = common.HexToAddress("0xf9A2FAa4E3b140ad42AAE8Cac4958cFf38Ab08fD")
	moduleX  = "0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb"
	moduleY  = "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0"
)

type fixture struct {
	node     *adaptertest.Node
	owners   []wallet.Wallet
	adapters []adapter.EthAdapter
	store    *signature.MemoryStore
	metrics  *monitor.Metrics
	sdk      *Safe // owner 0 的门面
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	node := adaptertest.NewNode(t, 97)
	node.DeployDefaults(types.SafeVersion130)

	f := &fixture{
		node:    node,
		store:   signature.NewMemoryStore(),
		metrics: monitor.NewMetrics(prometheus.NewRegistry()),
	}
	for i, lib := range []string{"geth", "jsonrpc", "jsonrpc"} {
		w, err := wallet.NewWallet()
		require.NoError(t, err)
		a, err := factory.NewAdapter(context.Background(), factory.Config{
			Library:      lib,
			RPCURL:       node.URL(),
			Signer:       w,
			PollInterval: 10 * time.Millisecond,
		})
		require.NoError(t, err, "adapter %d", i)
		t.Cleanup(func() { _ = a.Close() })
		f.owners = append(f.owners, w)
		f.adapters = append(f.adapters, a)
	}

	// 第三个钱包不是 owner
	node.DeploySafe(safeAddr, adaptertest.SafeState{
		Owners:    []common.Address{f.owners[0].Address(), f.owners[1].Address()},
		Threshold: 2,
	})
	f.sdk = f.connect(t, 0)
	return f
}

func (f *fixture) connect(t *testing.T, i int) *Safe {
	t.Helper()
	sdk, err := Create(context.Background(), Config{
		Adapter:     f.adapters[i],
		SafeAddress: safeAddr.Hex(),
		Store:       f.store,
		Metrics:     f.metrics,
	})
	require.NoError(t, err)
	return sdk
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, safeAddr, f.sdk.GetAddress())
	assert.Equal(t, types.SafeVersion130, f.sdk.GetVersion())
	assert.Equal(t, int64(97), f.sdk.GetChainID())

	owners, err := f.sdk.GetOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 2)

	threshold, err := f.sdk.GetThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), threshold)

	isOwner, err := f.sdk.IsOwner(ctx, f.owners[1].Address().Hex())
	require.NoError(t, err)
	assert.True(t, isOwner)

	_, err = f.sdk.IsModuleEnabled(ctx, "0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb")
	assert.ErrorIs(t, err, types.ErrChecksumMismatch)

	f.node.SetBalance(safeAddr, big.NewInt(12345))
	balance, err := f.sdk.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), balance)
}

func TestCreate_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := Create(ctx, Config{Adapter: f.adapters[0], SafeAddress: "0xf9a2faa4e3b140ad42aae8cac4958cff38ab08fd"})
	assert.ErrorIs(t, err, types.ErrChecksumMismatch)

	_, err = Create(ctx, Config{Adapter: f.adapters[0], SafeAddress: safeAddr.Hex(), Version: "9.9.9"})
	assert.ErrorIs(t, err, types.ErrUnsupportedVersion)

	_, err = Create(ctx, Config{SafeAddress: safeAddr.Hex()})
	assert.Error(t, err)
}

// TestTwoOwnerThreshold 2/2 钱包：一个签名不可执行，两个签名后执行成功
func TestTwoOwnerThreshold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sdkB := f.connect(t, 1)

	tx, err := f.sdk.CreateEnableModuleTx(ctx, moduleX, nil)
	require.NoError(t, err)
	hash := tx.Hash()

	state, err := f.sdk.State(hash)
	require.NoError(t, err)
	assert.Equal(t, StateBuilt, state)

	state, err = f.sdk.SignTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, StatePartiallySigned, state)

	ok, err := f.sdk.IsExecutable(ctx, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.sdk.ExecuteTransaction(ctx, hash, nil)
	assert.ErrorIs(t, err, types.ErrThresholdNotReached)

	// 重复签名被拒绝，状态不变
	_, err = f.sdk.SignTransaction(ctx, tx)
	assert.ErrorIs(t, err, types.ErrDuplicateSignature)
	state, _ = f.sdk.State(hash)
	assert.Equal(t, StatePartiallySigned, state)

	sigB, err := sdkB.SignTypedData(ctx, tx)
	require.NoError(t, err)
	state, err = f.sdk.AddSignature(ctx, hash, sigB)
	require.NoError(t, err)
	assert.Equal(t, StateExecutable, state)

	result, err := f.sdk.ExecuteTransaction(ctx, hash, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	state, _ = f.sdk.State(hash)
	assert.Equal(t, StateExecuted, state)
	enabled, err := f.sdk.IsModuleEnabled(ctx, moduleX)
	require.NoError(t, err)
	assert.True(t, enabled)

	count, err := f.store.Count(ctx, hash)
	require.NoError(t, err)
	assert.Zero(t, count, "signatures are discarded after execution")

	_, err = f.sdk.ExecuteTransaction(ctx, hash, nil)
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.ErrorIs(t, f.sdk.Abandon(ctx, hash), types.ErrInvalidState)

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.SignaturesAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SignaturesRejected.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Executions.WithLabelValues(monitor.OutcomeExecuted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TransactionsBuilt.WithLabelValues("enable_module")))
}

func TestExecute_Reverted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sdkB := f.connect(t, 1)

	tx, err := f.sdk.CreateEnableModuleTx(ctx, moduleX, nil)
	require.NoError(t, err)
	_, err = f.sdk.SignTransaction(ctx, tx)
	require.NoError(t, err)
	sigB, err := sdkB.SignTypedData(ctx, tx)
	require.NoError(t, err)
	_, err = f.sdk.AddSignature(ctx, tx.Hash(), sigB)
	require.NoError(t, err)

	f.node.SetRevertExecutions(true)

	// 估算阶段回滚：未上链，状态不变
	result, err := f.sdk.ExecuteTransaction(ctx, tx.Hash(), nil)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, types.ErrExecutionReverted)
	state, _ := f.sdk.State(tx.Hash())
	assert.Equal(t, StateExecutable, state)

	// 固定 gas 上链后回执失败
	result, err = f.sdk.ExecuteTransaction(ctx, tx.Hash(), &types.TransactionOptions{GasLimit: 300_000})
	assert.ErrorIs(t, err, types.ErrExecutionReverted)
	require.NotNil(t, result)
	assert.False(t, result.Success)

	state, _ = f.sdk.State(tx.Hash())
	assert.Equal(t, StateReverted, state)
	stored, err := f.sdk.Result(tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, result.Hash, stored.Hash)

	_, err = f.sdk.ExecuteTransaction(ctx, tx.Hash(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidState)
}

func TestAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.sdk.CreateChangeThresholdTx(ctx, 1, nil)
	require.NoError(t, err)
	_, err = f.sdk.SignTransaction(ctx, tx)
	require.NoError(t, err)

	require.NoError(t, f.sdk.Abandon(ctx, tx.Hash()))
	state, _ := f.sdk.State(tx.Hash())
	assert.Equal(t, StateAbandoned, state)

	count, err := f.store.Count(ctx, tx.Hash())
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = f.sdk.SignTransaction(ctx, tx)
	assert.ErrorIs(t, err, types.ErrInvalidState)
	assert.ErrorIs(t, f.sdk.Abandon(ctx, tx.Hash()), types.ErrInvalidState)
	_, err = f.sdk.ExecuteTransaction(ctx, tx.Hash(), nil)
	assert.ErrorIs(t, err, types.ErrInvalidState)

	ok, err := f.sdk.IsExecutable(ctx, tx.Hash())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sdkB := f.connect(t, 1)

	enableX, err := f.sdk.GetContract().Encode("enableModule", common.HexToAddress(moduleX))
	require.NoError(t, err)
	enableY, err := f.sdk.GetContract().Encode("enableModule", common.HexToAddress(moduleY))
	require.NoError(t, err)

	tx, err := f.sdk.CreateTransaction(ctx, []types.MetaTransactionData{
		{To: safeAddr, Data: enableX},
		{To: safeAddr, Data: enableY},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, types.DelegateCall, tx.Data().Operation)

	// 同一交易在另一个门面上构建得到相同摘要
	txB, err := sdkB.CreateTransaction(ctx, []types.MetaTransactionData{
		{To: safeAddr, Data: enableX},
		{To: safeAddr, Data: enableY},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), txB.Hash())

	_, err = f.sdk.SignTransaction(ctx, tx)
	require.NoError(t, err)
	state, err := sdkB.SignTransaction(ctx, txB)
	require.NoError(t, err)
	assert.Equal(t, StateExecutable, state, "store is shared between both facades")

	_, err = sdkB.ExecuteTransaction(ctx, txB.Hash(), nil)
	require.NoError(t, err)

	modules, err := f.sdk.GetModules(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{common.HexToAddress(moduleX), common.HexToAddress(moduleY)}, modules)

	nonce, err := f.sdk.GetNonce(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)
}

func TestSignTransactionHash_EthSign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.sdk.CreateRejectionTransaction(ctx, 0)
	require.NoError(t, err)

	hash, err := f.sdk.GetTransactionHash(tx)
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), hash)

	sig, err := f.sdk.SignTransactionHash(ctx, hash)
	require.NoError(t, err)
	assert.Contains(t, []byte{31, 32}, sig.Data[64])

	raw := append([]byte{}, sig.Data...)
	raw[64] -= 4
	signer, err := wallet.RecoverMessageSigner(hash.Bytes(), raw)
	require.NoError(t, err)
	assert.Equal(t, f.owners[0].Address(), signer)

	typed, err := f.sdk.SignTypedData(ctx, tx)
	require.NoError(t, err)
	signer, err = wallet.RecoverHashSigner(hash.Bytes(), typed.Data)
	require.NoError(t, err)
	assert.Equal(t, f.owners[0].Address(), signer)
}

func TestApproveTransactionHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tx, err := f.sdk.CreateEnableModuleTx(ctx, moduleY, nil)
	require.NoError(t, err)

	state, err := f.sdk.ApproveTransactionHash(ctx, tx.Hash(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatePartiallySigned, state)
	assert.True(t, f.node.IsApproved(safeAddr, tx.Hash(), f.owners[0].Address()))

	sigs, err := f.store.Collected(ctx, tx.Hash())
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, byte(1), sigs[0].Data[64])
	assert.Equal(t, f.owners[0].Address(), common.BytesToAddress(sigs[0].Data[:32]))
}
