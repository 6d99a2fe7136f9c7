// Package contracts 维护 Safe 合约的版本化部署表
//
// 每一行由 (角色, 版本) 唯一确定，携带 ABI 与各链的默认部署地址。
// 新增版本只需要在 deployments 中补充数据行。
package contracts

import (
	"embed"
	"fmt"
	"path"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/safekit/safe-client-sdk-go/types"
)

//go:embed abi
var abiFS embed.FS

// Role 合约角色
type Role string

const (
	RoleSafe              Role = "safe"
	RoleSafeL2            Role = "safe_l2"
	RoleMultiSend         Role = "multi_send"
	RoleMultiSendCallOnly Role = "multi_send_call_only"
	RoleProxyFactory      Role = "proxy_factory"
)

// Deployment 部署表中的一行
type Deployment struct {
	Role         Role
	Version      types.SafeVersion
	ContractName string
	ABI          string
	Addresses    map[int64]common.Address
}

// DefaultAddress 返回指定链上的默认部署地址
func (d *Deployment) DefaultAddress(chainID int64) (common.Address, bool) {
	addr, ok := d.Addresses[chainID]
	return addr, ok
}

// ChainIDs 返回有默认部署的链，升序
func (d *Deployment) ChainIDs() []int64 {
	ids := make([]int64, 0, len(d.Addresses))
	for id := range d.Addresses {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SingletonDeployment 调用方提供的部署描述（地址 + ABI）
type SingletonDeployment struct {
	Address common.Address
	ABI     string
}

type registryKey struct {
	role    Role
	version types.SafeVersion
}

const (
	chainMainnet    int64 = 1
	chainBSCTestnet int64 = 97
)

var deployments = map[registryKey]*Deployment{}

func init() {
	rows := []struct {
		role      Role
		version   types.SafeVersion
		name      string
		abiFile   string
		addresses map[int64]string
	}{
		{RoleSafe, types.SafeVersion130, "GnosisSafe", "gnosis_safe.json", map[int64]string{
			chainMainnet:    "0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552",
			chainBSCTestnet: "0x772e7171476bA23734AC95F130e9211aA359A4BE",
		}},
		{RoleSafeL2, types.SafeVersion130, "GnosisSafeL2", "gnosis_safe.json", map[int64]string{
			chainMainnet:    "0x3E5c63644E683549055b9Be8653de26E0B4CD36E",
			chainBSCTestnet: "0x7b92f33E30285Eb770847E366F60492397830cc9",
		}},
		{RoleMultiSend, types.SafeVersion130, "MultiSend", "multi_send.json", map[int64]string{
			chainMainnet:    "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761",
			chainBSCTestnet: "0x15AFD9d2910604a61A62ABa9FB3cC0fa2adF8A00",
		}},
		{RoleMultiSendCallOnly, types.SafeVersion130, "MultiSendCallOnly", "multi_send_call_only.json", map[int64]string{
			chainMainnet:    "0x40A2aCCbd92BCA938b02010E17A5b8929b49130D",
			chainBSCTestnet: "0x4433e5b185a03B49B2e1C0c26ABED30775bbB1Ba",
		}},
		{RoleProxyFactory, types.SafeVersion130, "GnosisSafeProxyFactory", "proxy_factory.json", map[int64]string{
			chainMainnet:    "0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2",
			chainBSCTestnet: "0xAE18fF924Dc76b70d3973181531261dEBF5142E8",
		}},
		{RoleSafe, types.SafeVersion111, "GnosisSafe", "gnosis_safe.json", map[int64]string{
			chainMainnet: "0x34CfAC646f301356fAa8B21e94227e3583Fe3F5F",
		}},
		{RoleMultiSend, types.SafeVersion111, "MultiSend", "multi_send.json", map[int64]string{
			chainMainnet: "0x8D29bE29923b68abfDD21e541b9374737B49cdAD",
		}},
		{RoleProxyFactory, types.SafeVersion111, "ProxyFactory", "proxy_factory.json", map[int64]string{
			chainMainnet: "0x76E2cFc1F5Fa8F6a5b3fC4c8F4788F0116861F9B",
		}},
	}

	for _, row := range rows {
		raw, err := abiFS.ReadFile(path.Join("abi", "v"+string(row.version), row.abiFile))
		if err != nil {
			panic(fmt.Sprintf("contracts: missing embedded ABI for %s %s: %v", row.role, row.version, err))
		}
		addrs := make(map[int64]common.Address, len(row.addresses))
		for chainID, addr := range row.addresses {
			addrs[chainID] = common.HexToAddress(addr)
		}
		deployments[registryKey{row.role, row.version}] = &Deployment{
			Role:         row.role,
			Version:      row.version,
			ContractName: row.name,
			ABI:          string(raw),
			Addresses:    addrs,
		}
	}
}

// Lookup 查询 (角色, 版本) 对应的部署行
func Lookup(role Role, version types.SafeVersion) (*Deployment, error) {
	d, ok := deployments[registryKey{role, version}]
	if !ok {
		return nil, types.ErrUnsupportedVersion.WithDetail("no %s deployment for version %s", role, version)
	}
	return d, nil
}

// SupportedVersions 返回注册过的全部版本，升序
func SupportedVersions() []types.SafeVersion {
	seen := map[types.SafeVersion]bool{}
	var versions []types.SafeVersion
	for key := range deployments {
		if !seen[key.version] {
			seen[key.version] = true
			versions = append(versions, key.version)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Compare(versions[j]) < 0 })
	return versions
}

// SafeRole 选择钱包单例角色：默认 L2，isL1 时选择 L1 主合约
//
// 没有 L2 部署的旧版本回落到 RoleSafe。
func SafeRole(version types.SafeVersion, isL1 bool) Role {
	if isL1 {
		return RoleSafe
	}
	if _, ok := deployments[registryKey{RoleSafeL2, version}]; ok {
		return RoleSafeL2
	}
	return RoleSafe
}

// GetSafeContractDeployment 返回链上钱包单例的部署描述
func GetSafeContractDeployment(version types.SafeVersion, chainID int64, isL1 bool) (*SingletonDeployment, error) {
	return singleton(SafeRole(version, isL1), version, chainID)
}

// GetMultiSendContractDeployment 返回 MultiSend 的部署描述
func GetMultiSendContractDeployment(version types.SafeVersion, chainID int64) (*SingletonDeployment, error) {
	return singleton(RoleMultiSend, version, chainID)
}

// GetMultiSendCallOnlyContractDeployment 返回 MultiSendCallOnly 的部署描述
func GetMultiSendCallOnlyContractDeployment(version types.SafeVersion, chainID int64) (*SingletonDeployment, error) {
	return singleton(RoleMultiSendCallOnly, version, chainID)
}

// GetSafeProxyFactoryContractDeployment 返回代理工厂的部署描述
func GetSafeProxyFactoryContractDeployment(version types.SafeVersion, chainID int64) (*SingletonDeployment, error) {
	return singleton(RoleProxyFactory, version, chainID)
}

func singleton(role Role, version types.SafeVersion, chainID int64) (*SingletonDeployment, error) {
	d, err := Lookup(role, version)
	if err != nil {
		return nil, err
	}
	addr, ok := d.DefaultAddress(chainID)
	if !ok {
		return nil, types.ErrContractNotDeployed.WithDetail("%s %s has no default deployment on chain %d", d.ContractName, version, chainID)
	}
	return &SingletonDeployment{Address: addr, ABI: d.ABI}, nil
}
