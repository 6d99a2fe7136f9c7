package wallet

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// KeystoreManager V3 Keystore 文件管理器
//
// 文件格式与 geth 的 keystore 目录兼容，文件名为 <checksum 地址>.json。
type KeystoreManager struct {
	keystoreDir string
	scryptN     int
	scryptP     int
}

// KeystoreOption Keystore 管理器选项
type KeystoreOption func(*KeystoreManager)

// WithLightScrypt 使用轻量 scrypt 参数（测试与开发环境）
func WithLightScrypt() KeystoreOption {
	return func(km *KeystoreManager) {
		km.scryptN = keystore.LightScryptN
		km.scryptP = keystore.LightScryptP
	}
}

// NewKeystoreManager 创建Keystore管理器
func NewKeystoreManager(keystoreDir string, opts ...KeystoreOption) (*KeystoreManager, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	km := &KeystoreManager{
		keystoreDir: keystoreDir,
		scryptN:     keystore.StandardScryptN,
		scryptP:     keystore.StandardScryptP,
	}
	for _, opt := range opts {
		opt(km)
	}
	return km, nil
}

// Path 返回地址对应的 keystore 文件路径
func (km *KeystoreManager) Path(address common.Address) string {
	return filepath.Join(km.keystoreDir, fmt.Sprintf("%s.json", address.Hex()))
}

// Save 加密保存钱包私钥
func (km *KeystoreManager) Save(w Wallet, password string) (string, error) {
	key := &keystore.Key{
		Id:         uuid.New(),
		Address:    w.Address(),
		PrivateKey: w.PrivateKey(),
	}

	data, err := keystore.EncryptKey(key, password, km.scryptN, km.scryptP)
	if err != nil {
		return "", fmt.Errorf("encrypt private key: %w", err)
	}

	keystorePath := km.Path(w.Address())
	if err := os.WriteFile(keystorePath, data, 0600); err != nil {
		return "", fmt.Errorf("write keystore file: %w", err)
	}
	return keystorePath, nil
}

// Load 解密加载钱包
func (km *KeystoreManager) Load(address common.Address, password string) (Wallet, error) {
	return LoadKeystoreFile(km.Path(address), password)
}

// LoadKeystoreFile 从任意路径加载 keystore 文件
func LoadKeystoreFile(path, password string) (Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore file: %w", err)
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt keystore %s: %w", filepath.Base(path), err)
	}
	return FromECDSA(key.PrivateKey), nil
}
