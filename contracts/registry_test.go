package contracts

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safekit/safe-client-sdk-go/types"
)

func TestLookup(t *testing.T) {
	d, err := Lookup(RoleMultiSend, types.SafeVersion130)
	require.NoError(t, err)
	assert.Equal(t, "MultiSend", d.ContractName)
	assert.Equal(t, []int64{1, 97}, d.ChainIDs())

	_, err = Lookup(RoleMultiSendCallOnly, types.SafeVersion111)
	assert.ErrorIs(t, err, types.ErrUnsupportedVersion)

	_, err = Lookup(RoleSafe, "9.9.9")
	assert.ErrorIs(t, err, types.ErrUnsupportedVersion)
}

func TestDefaultDeployments_BSCTestnet(t *testing.T) {
	tests := []struct {
		name string
		get  func() (*SingletonDeployment, error)
		want string
	}{
		{"safe l2", func() (*SingletonDeployment, error) {
			return GetSafeContractDeployment(types.SafeVersion130, 97, false)
		}, "0x7b92f33E30285Eb770847E366F60492397830cc9"},
		{"safe l1", func() (*SingletonDeployment, error) {
			return GetSafeContractDeployment(types.SafeVersion130, 97, true)
		}, "0x772e7171476bA23734AC95F130e9211aA359A4BE"},
		{"multisend", func() (*SingletonDeployment, error) {
			return GetMultiSendContractDeployment(types.SafeVersion130, 97)
		}, "0x15AFD9d2910604a61A62ABa9FB3cC0fa2adF8A00"},
		{"multisend call only", func() (*SingletonDeployment, error) {
			return GetMultiSendCallOnlyContractDeployment(types.SafeVersion130, 97)
		}, "0x4433e5b185a03B49B2e1C0c26ABED30775bbB1Ba"},
		{"proxy factory", func() (*SingletonDeployment, error) {
			return GetSafeProxyFactoryContractDeployment(types.SafeVersion130, 97)
		}, "0xAE18fF924Dc76b70d3973181531261dEBF5142E8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.get()
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress(tt.want), d.Address)
			assert.NotEmpty(t, d.ABI)
		})
	}
}

func TestSingleton_MissingChain(t *testing.T) {
	_, err := GetMultiSendContractDeployment(types.SafeVersion130, 424242)
	assert.ErrorIs(t, err, types.ErrContractNotDeployed)
}

func TestSafeRole_LegacyVersionHasNoL2(t *testing.T) {
	assert.Equal(t, RoleSafeL2, SafeRole(types.SafeVersion130, false))
	assert.Equal(t, RoleSafe, SafeRole(types.SafeVersion130, true))
	assert.Equal(t, RoleSafe, SafeRole(types.SafeVersion111, false))
}

func TestEmbeddedABIs_Parse(t *testing.T) {
	for key, d := range deployments {
		parsed, err := abi.JSON(strings.NewReader(d.ABI))
		require.NoError(t, err, "%s %s", key.role, key.version)

		switch key.role {
		case RoleSafe, RoleSafeL2:
			for _, method := range []string{"VERSION", "getOwners", "getModulesPaginated", "nonce", "getThreshold", "execTransaction", "enableModule", "disableModule"} {
				assert.Contains(t, parsed.Methods, method)
			}
		case RoleMultiSend, RoleMultiSendCallOnly:
			assert.Contains(t, parsed.Methods, "multiSend")
		case RoleProxyFactory:
			assert.Contains(t, parsed.Methods, "createProxyWithNonce")
		}
	}
	assert.Equal(t, []types.SafeVersion{types.SafeVersion111, types.SafeVersion130}, SupportedVersions())
}
