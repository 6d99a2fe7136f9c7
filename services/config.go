package services

import (
	"fmt"

	"github.com/safekit/safe-client-sdk-go/adapter"
	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// ContractNetworkConfig 单条链上的自定义合约部署
//
// 用于部署表中没有默认地址的私有链或测试网。所有字段可选，
// 未提供的角色回落到部署表默认地址；ABI 为空时使用对应版本的内置 ABI。
type ContractNetworkConfig struct {
	SafeMasterCopyAddress string `mapstructure:"safe_master_copy_address" json:"safeMasterCopyAddress"`
	SafeMasterCopyABI     string `mapstructure:"safe_master_copy_abi" json:"safeMasterCopyAbi,omitempty"`

	MultiSendAddress string `mapstructure:"multi_send_address" json:"multiSendAddress"`
	MultiSendABI     string `mapstructure:"multi_send_abi" json:"multiSendAbi,omitempty"`

	MultiSendCallOnlyAddress string `mapstructure:"multi_send_call_only_address" json:"multiSendCallOnlyAddress"`
	MultiSendCallOnlyABI     string `mapstructure:"multi_send_call_only_abi" json:"multiSendCallOnlyAbi,omitempty"`

	SafeProxyFactoryAddress string `mapstructure:"safe_proxy_factory_address" json:"safeProxyFactoryAddress"`
	SafeProxyFactoryABI     string `mapstructure:"safe_proxy_factory_abi" json:"safeProxyFactoryAbi,omitempty"`
}

// ContractNetworksConfig 链 ID → 自定义部署
type ContractNetworksConfig map[int64]ContractNetworkConfig

// Validate 校验所有自定义地址
func (c ContractNetworksConfig) Validate() error {
	for chainID, network := range c {
		for name, addr := range map[string]string{
			"safeMasterCopyAddress":    network.SafeMasterCopyAddress,
			"multiSendAddress":         network.MultiSendAddress,
			"multiSendCallOnlyAddress": network.MultiSendCallOnlyAddress,
			"safeProxyFactoryAddress":  network.SafeProxyFactoryAddress,
		} {
			if addr == "" {
				continue
			}
			if err := utils.ValidateAddress(addr); err != nil {
				return fmt.Errorf("contract networks: chain %d %s: %w", chainID, name, err)
			}
		}
	}
	return nil
}

// ContractOptions 生成某个角色的合约解析参数
func (c ContractNetworksConfig) ContractOptions(role contracts.Role, chainID int64, version types.SafeVersion, isL1 bool) adapter.ContractOptions {
	opts := adapter.ContractOptions{Version: version, ChainID: chainID, IsL1: isL1}
	network, ok := c[chainID]
	if !ok {
		return opts
	}

	switch role {
	case contracts.RoleSafe, contracts.RoleSafeL2:
		opts.CustomContractAddress, opts.CustomContractABI = network.SafeMasterCopyAddress, network.SafeMasterCopyABI
	case contracts.RoleMultiSend:
		opts.CustomContractAddress, opts.CustomContractABI = network.MultiSendAddress, network.MultiSendABI
	case contracts.RoleMultiSendCallOnly:
		opts.CustomContractAddress, opts.CustomContractABI = network.MultiSendCallOnlyAddress, network.MultiSendCallOnlyABI
	case contracts.RoleProxyFactory:
		opts.CustomContractAddress, opts.CustomContractABI = network.SafeProxyFactoryAddress, network.SafeProxyFactoryABI
	}
	if opts.CustomContractAddress == "" {
		opts.CustomContractABI = ""
	}
	return opts
}
