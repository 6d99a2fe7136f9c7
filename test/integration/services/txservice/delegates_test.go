package txservice

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/services/txservice"
	"github.com/safekit/safe-client-sdk-go/test/integration"
	"github.com/safekit/safe-client-sdk-go/types"
)

func TestService_Info(t *testing.T) {
	url, safeAddr := integration.RequireService(t)
	c := integration.SetupServiceClient(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), integration.DefaultTimeout)
	defer cancel()

	info, err := c.GetServiceInfo(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, info.Version)

	safeInfo, err := c.GetSafeInfo(ctx, safeAddr)
	require.NoError(t, err)
	assert.Equal(t, safeAddr, safeInfo.Address)
	assert.NotZero(t, safeInfo.Threshold)
}

// TestService_DelegateRoundTrip 第一个测试私钥必须是已索引钱包的 owner
//
// **测试步骤**：
// 1. 生成随机委托人地址并添加
// 2. 列表中出现该委托人
// 3. 移除后列表中不再出现，再次移除被服务拒绝
func TestService_DelegateRoundTrip(t *testing.T) {
	url, safeAddr := integration.RequireService(t)
	owner := integration.Owners(t, 1)[0]
	c := integration.SetupServiceClient(t, url)
	ctx, cancel := context.WithTimeout(context.Background(), integration.DefaultTimeout)
	defer cancel()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	delegate := crypto.PubkeyToAddress(key.PublicKey).Hex()

	_, err = c.AddSafeDelegate(ctx, txservice.AddDelegateConfig{
		Safe:     safeAddr,
		Delegate: delegate,
		Label:    "integration",
		Signer:   owner,
	})
	require.NoError(t, err)

	list, err := c.GetSafeDelegates(ctx, safeAddr)
	require.NoError(t, err)
	assert.True(t, containsDelegate(list, delegate), "新委托人应出现在列表中")

	remove := txservice.DeleteDelegateConfig{Safe: safeAddr, Delegate: delegate, Signer: owner}
	require.NoError(t, c.RemoveSafeDelegate(ctx, remove))

	list, err = c.GetSafeDelegates(ctx, safeAddr)
	require.NoError(t, err)
	assert.False(t, containsDelegate(list, delegate))

	err = c.RemoveSafeDelegate(ctx, remove)
	assert.ErrorIs(t, err, types.ErrServiceRejected)
}

func containsDelegate(list *txservice.DelegateListResponse, delegate string) bool {
	for _, d := range list.Results {
		if d.Delegate == delegate {
			return true
		}
	}
	return false
}
