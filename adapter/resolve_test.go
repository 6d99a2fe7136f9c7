package adapter

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
)

const multiSendABI = `[{"type":"function","name":"multiSend","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[],"stateMutability":"payable"}]`

func TestResolve_Precedence(t *testing.T) {
	custom := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	singleton := common.HexToAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")

	tests := []struct {
		name       string
		opts       ContractOptions
		wantAddr   common.Address
		wantSource Source
		wantErr    error
	}{
		{
			name:       "registry default",
			opts:       ContractOptions{Version: types.SafeVersion130, ChainID: 97},
			wantAddr:   common.HexToAddress("0x15AFD9d2910604a61A62ABa9FB3cC0fa2adF8A00"),
			wantSource: SourceRegistry,
		},
		{
			name: "singleton beats registry",
			opts: ContractOptions{Version: types.SafeVersion130, ChainID: 97,
				SingletonDeployment: &contracts.SingletonDeployment{Address: singleton, ABI: multiSendABI}},
			wantAddr:   singleton,
			wantSource: SourceSingleton,
		},
		{
			name: "custom beats singleton",
			opts: ContractOptions{Version: types.SafeVersion130, ChainID: 97,
				SingletonDeployment:   &contracts.SingletonDeployment{Address: singleton, ABI: multiSendABI},
				CustomContractAddress: custom, CustomContractABI: multiSendABI},
			wantAddr:   common.HexToAddress(custom),
			wantSource: SourceCustom,
		},
		{
			name: "custom ignores unsupported version and unknown chain",
			opts: ContractOptions{Version: "0.0.1", ChainID: 424242,
				CustomContractAddress: custom, CustomContractABI: multiSendABI},
			wantAddr:   common.HexToAddress(custom),
			wantSource: SourceCustom,
		},
		{
			name: "custom without abi borrows the registry abi on any chain",
			opts: ContractOptions{Version: types.SafeVersion130, ChainID: 424242,
				CustomContractAddress: custom},
			wantAddr:   common.HexToAddress(custom),
			wantSource: SourceCustom,
		},
		{
			name: "custom without abi needs a known version",
			opts: ContractOptions{Version: "0.0.1", ChainID: 97,
				CustomContractAddress: custom},
			wantErr: types.ErrUnsupportedVersion,
		},
		{
			name:    "custom with bad checksum",
			opts:    ContractOptions{CustomContractAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", CustomContractABI: multiSendABI},
			wantErr: types.ErrChecksumMismatch,
		},
		{
			name:    "unsupported version",
			opts:    ContractOptions{Version: "0.0.1", ChainID: 97},
			wantErr: types.ErrUnsupportedVersion,
		},
		{
			name:    "no deployment on chain",
			opts:    ContractOptions{Version: types.SafeVersion130, ChainID: 424242},
			wantErr: types.ErrContractNotDeployed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Resolve(contracts.RoleMultiSend, tt.opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, b.Address)
			assert.Equal(t, tt.wantSource, b.Source)
			assert.Contains(t, b.ABI.Methods, "multiSend")
		})
	}
}

func TestResolveSafe(t *testing.T) {
	proxy := common.HexToAddress("0xf9A2FAa4E3b140ad42AAE8Cac4958cFf38Ab08fD")

	b, err := ResolveSafe(ContractOptions{Version: types.SafeVersion130, ChainID: 97})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x7b92f33E30285Eb770847E366F60492397830cc9"), b.Address)

	b, err = ResolveSafe(ContractOptions{Version: types.SafeVersion130, ChainID: 97, IsL1: true})
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x772e7171476bA23734AC95F130e9211aA359A4BE"), b.Address)

	// 代理地址优先，且不要求链上有默认单例
	b, err = ResolveSafe(ContractOptions{Version: types.SafeVersion130, ChainID: 424242, Address: &proxy})
	require.NoError(t, err)
	assert.Equal(t, proxy, b.Address)
	assert.Contains(t, b.ABI.Methods, "execTransaction")

	_, err = ResolveSafe(ContractOptions{Version: "2.0.0", Address: &proxy})
	assert.ErrorIs(t, err, types.ErrUnsupportedVersion)
}
