package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ganache 默认助记词的第一个账户
const testKey = "0x4f3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d"

func TestNewWalletFromPrivateKey(t *testing.T) {
	w, err := NewWalletFromPrivateKey(testKey)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x90F8bf6A479f320ead074411a4B0e7944Ea8c9C1"), w.Address())

	_, err = NewWalletFromPrivateKey("0x1234")
	assert.Error(t, err)
	_, err = NewWalletFromPrivateKey("zz3edf983ac636a65a842ce7c78d9aa706d3b113bce9c46f30d7d21715b23b1d")
	assert.Error(t, err)
}

func TestSignMessage_Recoverable(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	msg := []byte("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0123456")
	sig, err := w.SignMessage(msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	signer, err := RecoverMessageSigner(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), signer)
}

func TestSignHash(t *testing.T) {
	w, err := NewWallet()
	require.NoError(t, err)

	hash := ethcrypto.Keccak256([]byte("safe tx"))
	sig, err := w.SignHash(hash)
	require.NoError(t, err)

	signer, err := RecoverHashSigner(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), signer)

	_, err = w.SignHash([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	w, err := NewWalletFromPrivateKey(testKey)
	require.NoError(t, err)

	chainID := big.NewInt(97)
	to := common.HexToAddress("0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0")
	tx := ethtypes.NewTx(&ethtypes.LegacyTx{Nonce: 1, To: &to, Gas: 21000, GasPrice: big.NewInt(1)})

	signed, err := w.SignTransaction(tx, chainID)
	require.NoError(t, err)

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), sender)
}
