package adapter

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

// Source 部署地址来源
type Source string

const (
	SourceCustom    Source = "custom"
	SourceSingleton Source = "singleton"
	SourceRegistry  Source = "registry"
)

// Binding 解析结果
type Binding struct {
	Address common.Address
	ABI     abi.ABI
	Source  Source
}

// Resolve 按优先级解析合约地址与 ABI
//
//  1. 自定义地址：直接绑定，不查询部署表（未提供 ABI 时才读取部署表 ABI）
//  2. SingletonDeployment：使用调用方的地址与 ABI
//  3. 部署表 (role, version) 的链默认地址
func Resolve(role contracts.Role, opts ContractOptions) (*Binding, error) {
	if opts.CustomContractAddress != "" {
		addr, err := utils.ParseAddress(opts.CustomContractAddress)
		if err != nil {
			return nil, err
		}
		abiJSON := opts.CustomContractABI
		if abiJSON == "" {
			d, err := contracts.Lookup(role, versionOrDefault(opts.Version))
			if err != nil {
				return nil, err
			}
			abiJSON = d.ABI
		}
		parsed, err := parseABI(abiJSON)
		if err != nil {
			return nil, err
		}
		return &Binding{Address: addr, ABI: parsed, Source: SourceCustom}, nil
	}

	if sd := opts.SingletonDeployment; sd != nil {
		parsed, err := parseABI(sd.ABI)
		if err != nil {
			return nil, err
		}
		return &Binding{Address: sd.Address, ABI: parsed, Source: SourceSingleton}, nil
	}

	version := versionOrDefault(opts.Version)
	d, err := contracts.Lookup(role, version)
	if err != nil {
		return nil, err
	}
	addr, ok := d.DefaultAddress(opts.ChainID)
	if !ok {
		return nil, types.ErrContractNotDeployed.WithDetail("%s %s has no default deployment on chain %d", d.ContractName, version, opts.ChainID)
	}
	parsed, err := parseABI(d.ABI)
	if err != nil {
		return nil, err
	}
	return &Binding{Address: addr, ABI: parsed, Source: SourceRegistry}, nil
}

// ResolveSafe 解析钱包合约
//
// ABI 按 Resolve 的优先级确定；给出代理地址时句柄绑定到代理地址。
// 代理地址存在时不要求该链有默认单例部署。
func ResolveSafe(opts ContractOptions) (*Binding, error) {
	role := contracts.SafeRole(versionOrDefault(opts.Version), opts.IsL1)
	if opts.Address == nil {
		return Resolve(role, opts)
	}

	if opts.CustomContractAddress != "" || opts.SingletonDeployment != nil {
		b, err := Resolve(role, opts)
		if err != nil {
			return nil, err
		}
		b.Address = *opts.Address
		return b, nil
	}

	d, err := contracts.Lookup(role, versionOrDefault(opts.Version))
	if err != nil {
		return nil, err
	}
	parsed, err := parseABI(d.ABI)
	if err != nil {
		return nil, err
	}
	return &Binding{Address: *opts.Address, ABI: parsed, Source: SourceRegistry}, nil
}

func versionOrDefault(v types.SafeVersion) types.SafeVersion {
	if v == "" {
		return types.DefaultSafeVersion
	}
	return v
}

func parseABI(abiJSON string) (abi.ABI, error) {
	if strings.TrimSpace(abiJSON) == "" {
		return abi.ABI{}, fmt.Errorf("empty contract ABI")
	}
	return utils.ParseABI(abiJSON)
}
