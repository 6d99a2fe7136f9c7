package safe

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/adapter/adaptertest"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

func TestFactory_DeploySafe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	deployer, err := NewFactory(ctx, FactoryConfig{Adapter: f.adapters[1]})
	require.NoError(t, err)

	account := SafeAccountConfig{
		Owners:    []string{f.owners[0].Address().Hex(), f.owners[1].Address().Hex(), f.owners[2].Address().Hex()},
		Threshold: 2,
	}
	salt := big.NewInt(42)

	predicted, err := deployer.PredictSafeAddress(ctx, account, salt)
	require.NoError(t, err)

	initializer, err := deployer.Initializer(account)
	require.NoError(t, err)
	want := adaptertest.ProxyAddress(
		common.HexToAddress("0xAE18fF924Dc76b70d3973181531261dEBF5142E8"),
		common.HexToAddress("0x7b92f33E30285Eb770847E366F60492397830cc9"),
		initializer, salt, f.node.ProxyCode())
	assert.Equal(t, want, predicted)

	// 不同 salt 得到不同地址
	other, err := deployer.PredictSafeAddress(ctx, account, big.NewInt(43))
	require.NoError(t, err)
	assert.NotEqual(t, predicted, other)

	address, result, err := deployer.DeploySafe(ctx, account, salt, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, predicted, address)

	sdk, err := Create(ctx, Config{Adapter: f.adapters[1], SafeAddress: address.Hex()})
	require.NoError(t, err)
	owners, err := sdk.GetOwners(ctx)
	require.NoError(t, err)
	assert.Len(t, owners, 3)
	threshold, err := sdk.GetThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), threshold)
}

func TestFactory_InvalidAccount(t *testing.T) {
	f := newFixture(t)
	deployer, err := NewFactory(context.Background(), FactoryConfig{Adapter: f.adapters[0], Version: types.SafeVersion130})
	require.NoError(t, err)

	ownerA := f.owners[0].Address().Hex()
	tests := []struct {
		name    string
		account SafeAccountConfig
		wantErr error
	}{
		{name: "no owners", account: SafeAccountConfig{Threshold: 1}, wantErr: types.ErrThresholdViolation},
		{name: "threshold zero", account: SafeAccountConfig{Owners: []string{ownerA}}, wantErr: types.ErrThresholdViolation},
		{name: "threshold above owners", account: SafeAccountConfig{Owners: []string{ownerA}, Threshold: 2}, wantErr: types.ErrThresholdViolation},
		{name: "duplicate owner", account: SafeAccountConfig{Owners: []string{ownerA, ownerA}, Threshold: 1}, wantErr: types.ErrAlreadyPresent},
		{name: "sentinel owner", account: SafeAccountConfig{Owners: []string{utils.SentinelAddress.Hex()}, Threshold: 1}, wantErr: types.ErrSentinelAddress},
		{name: "bad checksum", account: SafeAccountConfig{Owners: []string{"0xd1220a0cf47c7b9be7a2e6ba89f429762e7b9adb"}, Threshold: 1}, wantErr: types.ErrChecksumMismatch},
		{name: "bad fallback handler", account: SafeAccountConfig{Owners: []string{ownerA}, Threshold: 1, FallbackHandler: "0x12"}, wantErr: types.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.node.CallCount()
			_, err := deployer.PredictSafeAddress(context.Background(), tt.account, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, f.node.CallCount())
		})
	}
}
