package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/adapter/adaptertest"
	"github.com/safekit/safe-client-sdk-go/adapter/factory"
	"github.com/safekit/safe-client-sdk-go/types"
)

// TestBuild_ReadFailureReturnsNothing 链上读取失败时不返回任何描述符
func TestBuild_ReadFailureReturnsNothing(t *testing.T) {
	node := adaptertest.NewNode(t, 97)
	node.DeployDefaults(types.SafeVersion130)

	a, err := factory.NewAdapter(context.Background(), factory.Config{
		Library:      "jsonrpc",
		RPCURL:       node.URL(),
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer a.Close()

	missing := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	safe, err := a.GetSafeContract(context.Background(), adapter.ContractOptions{
		Version: types.SafeVersion130, ChainID: 97, Address: &missing,
	})
	require.NoError(t, err)

	b := NewBuilder(safe, 97, types.SafeVersion130)
	tx, err := b.Build(context.Background(), AddOwnerIntent{Owner: ownerC.Hex()}, nil)
	assert.Nil(t, tx)
	assert.ErrorIs(t, err, types.ErrContractNotDeployed)
}

func TestBuild_CanceledContext(t *testing.T) {
	f := newFixture(t, defaultState())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tx, err := f.builder.Build(ctx, EnableModuleIntent{Module: moduleY.Hex()}, nil)
	assert.Nil(t, tx)
	assert.Error(t, err)
}

func TestBuild_MultiSendNotConfigured(t *testing.T) {
	f := newFixture(t, defaultState())
	b := NewBuilder(f.builder.contract, 97, types.SafeVersion130)

	_, err := b.Build(context.Background(), MultiSendIntent{Transactions: []types.MetaTransactionData{{To: ownerA}, {To: ownerB}}}, nil)
	assert.Error(t, err)
}

func TestBuild_NilIntent(t *testing.T) {
	f := newFixture(t, defaultState())
	_, err := f.builder.Build(context.Background(), nil, nil)
	assert.Error(t, err)
}
