// Package integration 针对真实节点与交易服务的集成测试辅助
//
// 需要已部署 Safe 合约的开发链（例如 anvil + safe-deployments）。
// 未设置 SAFE_IT_RPC_URL 时所有集成测试跳过。
package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/adapter/factory"
	"github.com/safekit/safe-client-sdk-go/services/txservice"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

const (
	// EnvRPCURL 节点地址
	EnvRPCURL = "SAFE_IT_RPC_URL"
	// EnvPrivateKeys 逗号分隔的已充值私钥，至少两个
	EnvPrivateKeys = "SAFE_IT_PRIVATE_KEYS"
	// EnvServiceURL 交易服务地址
	EnvServiceURL = "SAFE_IT_SERVICE_URL"
	// EnvSafeAddress 交易服务已索引的钱包地址
	EnvSafeAddress = "SAFE_IT_SAFE_ADDRESS"

	// DefaultTimeout 单个测试的超时
	DefaultTimeout = 2 * time.Minute
)

// Libraries 集成测试覆盖的以太坊库
var Libraries = []string{string(factory.LibraryGeth), string(factory.LibraryJSONRPC)}

// RequireNode 返回节点地址，未配置时跳过测试
func RequireNode(t *testing.T) string {
	t.Helper()
	url := os.Getenv(EnvRPCURL)
	if url == "" {
		t.Skipf("%s not set, skipping integration test", EnvRPCURL)
	}
	return url
}

// RequireService 返回交易服务地址与已索引的钱包，未配置时跳过测试
func RequireService(t *testing.T) (string, string) {
	t.Helper()
	url, safeAddr := os.Getenv(EnvServiceURL), os.Getenv(EnvSafeAddress)
	if url == "" || safeAddr == "" {
		t.Skipf("%s or %s not set, skipping integration test", EnvServiceURL, EnvSafeAddress)
	}
	return url, safeAddr
}

// Owners 读取测试私钥，不足 n 个时跳过测试
func Owners(t *testing.T, n int) []wallet.Wallet {
	t.Helper()
	var owners []wallet.Wallet
	for _, key := range strings.Split(os.Getenv(EnvPrivateKeys), ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		w, err := wallet.NewWalletFromPrivateKey(key)
		require.NoError(t, err, "解析测试私钥失败")
		owners = append(owners, w)
	}
	if len(owners) < n {
		t.Skipf("%s needs at least %d keys, got %d", EnvPrivateKeys, n, len(owners))
	}
	return owners
}

// SetupAdapter 用指定库与签名者连接节点，测试结束时关闭
func SetupAdapter(t *testing.T, lib string, signer wallet.Wallet) adapter.EthAdapter {
	t.Helper()
	url := RequireNode(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := factory.NewAdapter(ctx, factory.Config{Library: lib, RPCURL: url, Signer: signer})
	require.NoError(t, err, "创建适配器失败")
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Logf("关闭适配器时出现警告: %v", err)
		}
	})

	_, err = a.GetChainID(ctx)
	require.NoError(t, err, "节点未运行: %s", url)
	return a
}

// SetupServiceClient 创建交易服务客户端
func SetupServiceClient(t *testing.T, url string) *txservice.Client {
	t.Helper()
	c, err := txservice.New(url)
	require.NoError(t, err, "创建交易服务客户端失败")
	return c
}
