package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/adapter/factory"
	"github.com/safekit/safe-client-sdk-go/client"
	"github.com/safekit/safe-client-sdk-go/config"
	"github.com/safekit/safe-client-sdk-go/logger"
	"github.com/safekit/safe-client-sdk-go/services/safe"
	"github.com/safekit/safe-client-sdk-go/services/signature"
	"github.com/safekit/safe-client-sdk-go/services/txservice"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/wallet"
)

// session 一次命令执行期间打开的资源
type session struct {
	adapter adapter.EthAdapter
	signer  wallet.Wallet
	store   signature.Store
	closers []func() error
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("close resource", zap.Error(err))
		}
	}
}

// openSession 按配置创建签名者、适配器与签名存储
func openSession(ctx context.Context, needSigner bool) (*session, error) {
	s := &session{}

	signer, err := loadSigner(appCfg.Signer)
	if err != nil {
		return nil, err
	}
	if needSigner && signer == nil {
		return nil, types.ErrNoSigner.WithDetail("set signer.private_key or signer.keystore_path")
	}
	s.signer = signer

	a, err := factory.NewAdapter(ctx, factory.Config{
		Library:   appCfg.Eth.Lib,
		RPCURL:    appCfg.Eth.RPCURL,
		Transport: client.Protocol(appCfg.Eth.Transport),
		Timeout:   int(appCfg.Eth.Timeout.Seconds()),
		Signer:    signer,
		Logger:    logger.Named("adapter"),
	})
	if err != nil {
		return nil, err
	}
	s.adapter = a
	s.closers = append(s.closers, a.Close)

	if appCfg.Eth.ChainID != 0 {
		chainID, err := a.GetChainID(ctx)
		if err != nil {
			s.Close()
			return nil, err
		}
		if chainID != appCfg.Eth.ChainID {
			s.Close()
			return nil, fmt.Errorf("rpc endpoint serves chain %d, configured chain is %d", chainID, appCfg.Eth.ChainID)
		}
	}

	store, closer, err := openStore(appCfg.Store)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.store = store
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	return s, nil
}

// connect 连接配置中的钱包
func (s *session) connect(ctx context.Context) (*safe.Safe, error) {
	if appCfg.Safe.Address == "" {
		return nil, fmt.Errorf("safe.address is not configured")
	}
	return safe.Create(ctx, safe.Config{
		Adapter:            s.adapter,
		SafeAddress:        appCfg.Safe.Address,
		Version:            types.SafeVersion(appCfg.Safe.Version),
		ContractNetworks:   appCfg.ContractNetworks,
		Store:              s.store,
		Logger:             logger.Named("safe"),
		Metrics:            metrics,
		IsL1SafeMasterCopy: appCfg.Safe.L1,
	})
}

func loadSigner(cfg config.SignerConfig) (wallet.Wallet, error) {
	switch {
	case cfg.PrivateKey != "":
		return wallet.NewWalletFromPrivateKey(cfg.PrivateKey)
	case cfg.KeystorePath != "":
		password := cfg.Password
		if password == "" {
			var err error
			password, err = readPassword("keystore 密码: ")
			if err != nil {
				return nil, err
			}
		}
		return wallet.LoadKeystoreFile(cfg.KeystorePath, password)
	default:
		return nil, nil
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func openStore(cfg config.StoreConfig) (signature.Store, func() error, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return signature.NewMemoryStore(signature.WithMemoryTTL(cfg.TTL)), nil, nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return signature.NewRedisStore(rdb, cfg.Redis.Prefix, cfg.TTL), rdb.Close, nil
	case config.StoreBadger:
		store, err := signature.OpenBadgerStore(cfg.Badger.Path, cfg.TTL, logger.Named("badger"))
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown signature store backend %q", cfg.Backend)
	}
}

func newServiceClient() (*txservice.Client, error) {
	return txservice.New(appCfg.Service.URL,
		txservice.WithTimeout(appCfg.Service.Timeout),
		txservice.WithRateLimit(appCfg.Service.RateLimit),
		txservice.WithLogger(logger.Log),
		txservice.WithMetrics(metrics),
	)
}
