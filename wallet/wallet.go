package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Wallet 钱包接口
type Wallet interface {
	// Address 获取钱包地址
	Address() common.Address

	// SignTransaction 使用 EIP-155 签名以太坊交易
	SignTransaction(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error)

	// SignMessage 按 EIP-191 (personal_sign) 签名消息，v ∈ {27, 28}
	SignMessage(msg []byte) ([]byte, error)

	// SignHash 直接签名 32 字节哈希，v ∈ {27, 28}
	SignHash(hash []byte) ([]byte, error)

	// PrivateKey 获取私钥（谨慎使用）
	PrivateKey() *ecdsa.PrivateKey
}

// SimpleWallet 内存私钥钱包
type SimpleWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewWallet 创建新钱包
func NewWallet() (Wallet, error) {
	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate private key: %w", err)
	}
	return FromECDSA(privateKey), nil
}

// FromECDSA 包装已有私钥
func FromECDSA(privateKey *ecdsa.PrivateKey) *SimpleWallet {
	return &SimpleWallet{
		privateKey: privateKey,
		address:    ethcrypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// NewWalletFromPrivateKey 从十六进制私钥创建钱包
func NewWalletFromPrivateKey(privateKeyHex string) (Wallet, error) {
	privateKeyHex = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"), "0X")
	if len(privateKeyHex) != 64 {
		return nil, fmt.Errorf("invalid private key length: expected 32 bytes, got %d hex chars", len(privateKeyHex))
	}

	privateKey, err := ethcrypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse secp256k1 private key failed: %w", err)
	}
	return FromECDSA(privateKey), nil
}

// Address 获取钱包地址
func (w *SimpleWallet) Address() common.Address {
	return w.address
}

// SignTransaction 签名交易
func (w *SimpleWallet) SignTransaction(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(chainID), w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// SignHash 签名哈希值
//
// 返回 r ‖ s ‖ v 共 65 字节，v 已加 27，与 Safe 合约的 ecrecover 约定一致。
func (w *SimpleWallet) SignHash(hash []byte) ([]byte, error) {
	if len(hash) != common.HashLength {
		return nil, fmt.Errorf("invalid hash length: expected %d bytes, got %d", common.HashLength, len(hash))
	}
	sig, err := ethcrypto.Sign(hash, w.privateKey)
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignMessage 签名消息
func (w *SimpleWallet) SignMessage(msg []byte) ([]byte, error) {
	return w.SignHash(accounts.TextHash(msg))
}

// PrivateKey 获取私钥
func (w *SimpleWallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}

// RecoverMessageSigner 从 EIP-191 签名恢复签名地址
func RecoverMessageSigner(msg, sig []byte) (common.Address, error) {
	return recoverSigner(accounts.TextHash(msg), sig)
}

// RecoverHashSigner 从哈希签名恢复签名地址
func RecoverHashSigner(hash, sig []byte) (common.Address, error) {
	return recoverSigner(hash, sig)
}

func recoverSigner(hash, sig []byte) (common.Address, error) {
	if len(sig) != ethcrypto.SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}
	normalized := append([]byte{}, sig...)
	if normalized[ethcrypto.RecoveryIDOffset] >= 27 {
		normalized[ethcrypto.RecoveryIDOffset] -= 27
	}
	pub, err := ethcrypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
