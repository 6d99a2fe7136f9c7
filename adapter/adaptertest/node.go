// Package adaptertest 提供进程内的以太坊节点模拟，用于适配器与钱包门面的测试
//
// Node 实现 ethclient 与 rpcadapter 用到的 JSON-RPC 方法子集，并在内存中模拟
// Safe 合约（owners/modules 链表、阈值、nonce、execTransaction 自调用）、
// MultiSend 批量调用以及代理工厂的 CREATE2 部署。
package adaptertest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/safekit/safe-client-sdk-go/contracts"
	"github.com/safekit/safe-client-sdk-go/types"
	"github.com/safekit/safe-client-sdk-go/utils"
)

const (
	defaultGasPrice = 1_000_000_000
	defaultGas      = 100_000
	blockNumber     = 16
)

// SafeState 模拟的 Safe 合约状态
type SafeState struct {
	Version   string
	Owners    []common.Address
	Modules   []common.Address
	Threshold uint64
	Nonce     uint64
	Approved  map[common.Hash]map[common.Address]bool
}

func (s *SafeState) copy() SafeState {
	out := *s
	out.Owners = append([]common.Address{}, s.Owners...)
	out.Modules = append([]common.Address{}, s.Modules...)
	return out
}

type receipt struct {
	hash    common.Hash
	from    common.Address
	to      *common.Address
	status  uint64
	gasUsed uint64
}

// Node 模拟节点
type Node struct {
	ChainID int64

	server *httptest.Server

	mu               sync.Mutex
	code             map[common.Address][]byte
	balances         map[common.Address]*big.Int
	safes            map[common.Address]*SafeState
	txCounts         map[common.Address]uint64
	receipts         map[common.Hash]*receipt
	calls            map[string]int
	total            int
	revertExecutions bool
	pendingReceipts  int

	safeABI    abi.ABI
	factoryABI abi.ABI
	multiABI   abi.ABI
	proxyCode  []byte
}

// NewNode 启动模拟节点，测试结束时自动关闭
func NewNode(t testing.TB, chainID int64) *Node {
	t.Helper()

	n := &Node{
		ChainID:   chainID,
		code:      map[common.Address][]byte{},
		balances:  map[common.Address]*big.Int{},
		safes:     map[common.Address]*SafeState{},
		txCounts:  map[common.Address]uint64{},
		receipts:  map[common.Hash]*receipt{},
		calls:     map[string]int{},
		proxyCode: hexutil.MustDecode("0x608060405234801561001057600080fd5b50"),
	}
	n.safeABI = mustABI(t, contracts.RoleSafe)
	n.factoryABI = mustABI(t, contracts.RoleProxyFactory)
	n.multiABI = mustABI(t, contracts.RoleMultiSend)

	n.server = httptest.NewServer(http.HandlerFunc(n.serveHTTP))
	t.Cleanup(n.server.Close)
	return n
}

func mustABI(t testing.TB, role contracts.Role) abi.ABI {
	d, err := contracts.Lookup(role, types.SafeVersion130)
	if err != nil {
		t.Fatalf("lookup %s: %v", role, err)
	}
	parsed, err := utils.ParseABI(d.ABI)
	if err != nil {
		t.Fatalf("parse %s ABI: %v", role, err)
	}
	return parsed
}

// URL 节点 HTTP 地址
func (n *Node) URL() string {
	return n.server.URL
}

// DeployDefaults 在部署表默认地址上放置合约代码
func (n *Node) DeployDefaults(version types.SafeVersion) {
	for _, role := range []contracts.Role{contracts.RoleSafe, contracts.RoleSafeL2, contracts.RoleMultiSend, contracts.RoleMultiSendCallOnly, contracts.RoleProxyFactory} {
		d, err := contracts.Lookup(role, version)
		if err != nil {
			continue
		}
		if addr, ok := d.DefaultAddress(n.ChainID); ok {
			n.SetCode(addr, []byte{0x60, 0x80})
		}
	}
}

// SetCode 设置地址上的合约代码
func (n *Node) SetCode(addr common.Address, code []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.code[addr] = code
}

// SetBalance 设置账户余额
func (n *Node) SetBalance(addr common.Address, wei *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balances[addr] = new(big.Int).Set(wei)
}

// DeploySafe 在地址上放置一个 Safe
func (n *Node) DeploySafe(addr common.Address, state SafeState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if state.Version == "" {
		state.Version = string(types.SafeVersion130)
	}
	s := state.copy()
	s.Approved = map[common.Hash]map[common.Address]bool{}
	n.safes[addr] = &s
	n.code[addr] = []byte{0x60, 0x80}
}

// Safe 返回 Safe 状态快照
func (n *Node) Safe(addr common.Address) (SafeState, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.safes[addr]
	if !ok {
		return SafeState{}, false
	}
	return s.copy(), true
}

// IsApproved owner 是否已链上批准摘要
func (n *Node) IsApproved(safe common.Address, hash common.Hash, owner common.Address) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.safes[safe]
	return ok && s.Approved[hash][owner]
}

// SetRevertExecutions 使 execTransaction 估算失败且上链后回执状态为 0
func (n *Node) SetRevertExecutions(revert bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.revertExecutions = revert
}

// DelayReceipts 让接下来的 count 次回执查询返回 null（模拟未打包）
func (n *Node) DelayReceipts(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pendingReceipts = count
}

// CallCount 返回收到的 JSON-RPC 请求总数
func (n *Node) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.total
}

// MethodCount 返回某个 JSON-RPC 方法的调用次数
func (n *Node) MethodCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *rpcError) Error() string { return e.Message }

func (n *Node) serveHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := n.dispatch(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if err != nil {
		rerr, ok := err.(*rpcError)
		if !ok {
			rerr = &rpcError{Code: -32000, Message: err.Error()}
		}
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) dispatch(req rpcRequest) (interface{}, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.total++
	n.calls[req.Method]++

	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeUint64(uint64(n.ChainID)), nil
	case "net_version":
		return fmt.Sprintf("%d", n.ChainID), nil
	case "eth_blockNumber":
		return hexutil.EncodeUint64(blockNumber), nil
	case "eth_gasPrice":
		return hexutil.EncodeUint64(defaultGasPrice), nil
	case "eth_maxPriorityFeePerGas":
		return hexutil.EncodeUint64(1), nil
	case "eth_getBlockByNumber":
		return n.header(), nil
	case "eth_getCode":
		var addr common.Address
		if err := param(req, 0, &addr); err != nil {
			return nil, err
		}
		return hexutil.Bytes(n.code[addr]), nil
	case "eth_getBalance":
		var addr common.Address
		if err := param(req, 0, &addr); err != nil {
			return nil, err
		}
		bal := n.balances[addr]
		if bal == nil {
			bal = new(big.Int)
		}
		return (*hexutil.Big)(bal), nil
	case "eth_getTransactionCount":
		var addr common.Address
		if err := param(req, 0, &addr); err != nil {
			return nil, err
		}
		return hexutil.EncodeUint64(n.txCounts[addr]), nil
	case "eth_call":
		var arg callArg
		if err := param(req, 0, &arg); err != nil {
			return nil, err
		}
		out, err := n.call(arg)
		if err != nil {
			return nil, err
		}
		return hexutil.Bytes(out), nil
	case "eth_estimateGas":
		var arg callArg
		if err := param(req, 0, &arg); err != nil {
			return nil, err
		}
		if n.revertExecutions && arg.To != nil && n.safes[*arg.To] != nil {
			return nil, &rpcError{Code: 3, Message: "execution reverted: GS013", Data: "0x"}
		}
		return hexutil.EncodeUint64(defaultGas), nil
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := param(req, 0, &raw); err != nil {
			return nil, err
		}
		return n.sendRawTransaction(raw)
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := param(req, 0, &hash); err != nil {
			return nil, err
		}
		if n.pendingReceipts > 0 {
			n.pendingReceipts--
			return nil, nil
		}
		rcpt, ok := n.receipts[hash]
		if !ok {
			return nil, nil
		}
		return n.receiptJSON(rcpt), nil
	default:
		return nil, &rpcError{Code: -32601, Message: fmt.Sprintf("the method %s does not exist/is not available", req.Method)}
	}
}

func param(req rpcRequest, idx int, out interface{}) error {
	if idx >= len(req.Params) {
		return &rpcError{Code: -32602, Message: fmt.Sprintf("missing value for required argument %d", idx)}
	}
	if err := json.Unmarshal(req.Params[idx], out); err != nil {
		return &rpcError{Code: -32602, Message: fmt.Sprintf("invalid argument %d: %v", idx, err)}
	}
	return nil
}

type callArg struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArg) payload() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

func (n *Node) header() map[string]interface{} {
	zeroHash := common.Hash{}.Hex()
	return map[string]interface{}{
		"parentHash":       zeroHash,
		"sha3Uncles":       ethtypes.EmptyUncleHash.Hex(),
		"miner":            common.Address{}.Hex(),
		"stateRoot":        zeroHash,
		"transactionsRoot": ethtypes.EmptyTxsHash.Hex(),
		"receiptsRoot":     ethtypes.EmptyReceiptsHash.Hex(),
		"logsBloom":        hexutil.Bytes(make([]byte, ethtypes.BloomByteLength)),
		"difficulty":       "0x0",
		"number":           hexutil.EncodeUint64(blockNumber),
		"gasLimit":         hexutil.EncodeUint64(30_000_000),
		"gasUsed":          "0x0",
		"timestamp":        hexutil.EncodeUint64(1_700_000_000),
		"extraData":        "0x",
		"mixHash":          zeroHash,
		"nonce":            "0x0000000000000000",
		"baseFeePerGas":    hexutil.EncodeUint64(defaultGasPrice),
		"hash":             crypto.Keccak256Hash([]byte("block")).Hex(),
		"transactions":     []interface{}{},
		"uncles":           []interface{}{},
	}
}

func (n *Node) receiptJSON(r *receipt) map[string]interface{} {
	out := map[string]interface{}{
		"type":              "0x0",
		"status":            hexutil.EncodeUint64(r.status),
		"cumulativeGasUsed": hexutil.EncodeUint64(r.gasUsed),
		"logsBloom":         hexutil.Bytes(make([]byte, ethtypes.BloomByteLength)),
		"logs":              []interface{}{},
		"transactionHash":   r.hash.Hex(),
		"transactionIndex":  "0x0",
		"blockHash":         crypto.Keccak256Hash([]byte("block")).Hex(),
		"blockNumber":       hexutil.EncodeUint64(blockNumber + 1),
		"gasUsed":           hexutil.EncodeUint64(r.gasUsed),
		"effectiveGasPrice": hexutil.EncodeUint64(defaultGasPrice),
		"from":              r.from.Hex(),
		"contractAddress":   nil,
	}
	if r.to != nil {
		out["to"] = r.to.Hex()
	}
	return out
}

func (n *Node) call(arg callArg) ([]byte, error) {
	if arg.To == nil {
		return nil, &rpcError{Code: -32000, Message: "contract creation is not supported"}
	}
	data := arg.payload()
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < 4 {
		return nil, revertErr("invalid selector")
	}

	if s, ok := n.safes[*arg.To]; ok {
		return n.callSafe(s, data)
	}
	if method, err := n.factoryABI.MethodById(data[:4]); err == nil && len(n.code[*arg.To]) > 0 {
		if method.Name == "proxyCreationCode" {
			return method.Outputs.Pack(n.proxyCode)
		}
	}
	if len(n.code[*arg.To]) == 0 {
		// 没有代码的地址 eth_call 返回空
		return nil, nil
	}
	return nil, revertErr("unsupported call")
}

func (n *Node) callSafe(s *SafeState, data []byte) ([]byte, error) {
	method, err := n.safeABI.MethodById(data[:4])
	if err != nil {
		return nil, revertErr("unknown selector")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, revertErr(err.Error())
	}

	switch method.Name {
	case "VERSION":
		return method.Outputs.Pack(s.Version)
	case "getOwners":
		return method.Outputs.Pack(s.Owners)
	case "getThreshold":
		return method.Outputs.Pack(new(big.Int).SetUint64(s.Threshold))
	case "nonce":
		return method.Outputs.Pack(new(big.Int).SetUint64(s.Nonce))
	case "getChainId":
		return method.Outputs.Pack(big.NewInt(n.ChainID))
	case "isOwner":
		return method.Outputs.Pack(utils.ContainsAddress(s.Owners, args[0].(common.Address)))
	case "isModuleEnabled":
		return method.Outputs.Pack(utils.ContainsAddress(s.Modules, args[0].(common.Address)))
	case "approvedHashes":
		hash := common.Hash(args[1].([32]byte))
		approved := int64(0)
		if s.Approved[hash][args[0].(common.Address)] {
			approved = 1
		}
		return method.Outputs.Pack(big.NewInt(approved))
	case "getModulesPaginated":
		page, next := paginate(s.Modules, args[0].(common.Address), int(args[1].(*big.Int).Int64()))
		return method.Outputs.Pack(page, next)
	default:
		return nil, revertErr(fmt.Sprintf("%s is not supported by the fake node", method.Name))
	}
}

// paginate 模拟 v1.3.0 的 getModulesPaginated：next 为下一页的首个模块或哨兵
func paginate(modules []common.Address, start common.Address, pageSize int) ([]common.Address, common.Address) {
	from := 0
	if start != utils.SentinelAddress {
		idx := utils.IndexOfAddress(modules, start)
		if idx < 0 {
			return []common.Address{}, utils.SentinelAddress
		}
		from = idx + 1
	}
	end := from + pageSize
	if end > len(modules) {
		end = len(modules)
	}
	page := append([]common.Address{}, modules[from:end]...)
	next := utils.SentinelAddress
	if end < len(modules) {
		next = modules[end]
	}
	return page, next
}

func revertErr(reason string) error {
	return &rpcError{Code: 3, Message: "execution reverted: " + reason, Data: "0x"}
}

func (n *Node) sendRawTransaction(raw []byte) (interface{}, error) {
	tx := new(ethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, &rpcError{Code: -32000, Message: fmt.Sprintf("rlp: %v", err)}
	}
	from, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(n.ChainID)), tx)
	if err != nil {
		return nil, &rpcError{Code: -32000, Message: fmt.Sprintf("invalid sender: %v", err)}
	}
	if tx.Nonce() != n.txCounts[from] {
		return nil, &rpcError{Code: -32000, Message: fmt.Sprintf("nonce too low: next nonce %d, tx nonce %d", n.txCounts[from], tx.Nonce())}
	}
	n.txCounts[from]++

	status := uint64(1)
	if tx.To() != nil {
		if err := n.apply(from, *tx.To(), tx.Data()); err != nil {
			status = 0
		}
	}
	n.receipts[tx.Hash()] = &receipt{hash: tx.Hash(), from: from, to: tx.To(), status: status, gasUsed: defaultGas / 2}
	return tx.Hash().Hex(), nil
}

func (n *Node) apply(from, to common.Address, data []byte) error {
	if len(data) < 4 {
		return nil
	}
	if s, ok := n.safes[to]; ok {
		return n.applySafe(s, to, from, data)
	}
	if len(n.code[to]) > 0 {
		if method, err := n.factoryABI.MethodById(data[:4]); err == nil && method.Name == "createProxyWithNonce" {
			return n.createProxy(to, method, data[4:])
		}
	}
	return nil
}

func (n *Node) applySafe(s *SafeState, safeAddr, from common.Address, data []byte) error {
	method, err := n.safeABI.MethodById(data[:4])
	if err != nil {
		return err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}

	switch method.Name {
	case "approveHash":
		if !utils.ContainsAddress(s.Owners, from) {
			return fmt.Errorf("GS030")
		}
		hash := common.Hash(args[0].([32]byte))
		if s.Approved[hash] == nil {
			s.Approved[hash] = map[common.Address]bool{}
		}
		s.Approved[hash][from] = true
		return nil
	case "execTransaction":
		if n.revertExecutions {
			return fmt.Errorf("GS013")
		}
		signatures := args[9].([]byte)
		if uint64(len(signatures)) < s.Threshold*65 {
			return fmt.Errorf("GS020")
		}
		target := args[0].(common.Address)
		inner := args[2].([]byte)
		op := types.OperationType(args[3].(uint8))

		// 失败的内部调用整体回滚
		snapshot := s.copy()
		if err := n.execInner(s, safeAddr, target, inner, op); err != nil {
			approved := s.Approved
			*s = snapshot
			s.Approved = approved
			return err
		}
		s.Nonce++
		return nil
	default:
		return fmt.Errorf("GS031: %s must be called by the Safe itself", method.Name)
	}
}

func (n *Node) execInner(s *SafeState, safeAddr, target common.Address, data []byte, op types.OperationType) error {
	if op == types.DelegateCall {
		if len(data) < 4 {
			return nil
		}
		method, err := n.multiABI.MethodById(data[:4])
		if err != nil || method.Name != "multiSend" {
			return nil
		}
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return err
		}
		txs, err := utils.DecodeMultiSendData(args[0].([]byte))
		if err != nil {
			return err
		}
		for _, tx := range txs {
			if err := n.execInner(s, safeAddr, tx.To, tx.Data, tx.Operation); err != nil {
				return err
			}
		}
		return nil
	}
	if target != safeAddr || len(data) < 4 {
		return nil
	}
	return n.applySelfCall(s, data)
}

// applySelfCall 模拟 OwnerManager / ModuleManager 的 authorized 方法
func (n *Node) applySelfCall(s *SafeState, data []byte) error {
	method, err := n.safeABI.MethodById(data[:4])
	if err != nil {
		return err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return err
	}

	switch method.Name {
	case "enableModule":
		module := args[0].(common.Address)
		if utils.IsReservedAddress(module) {
			return fmt.Errorf("GS101")
		}
		if utils.ContainsAddress(s.Modules, module) {
			return fmt.Errorf("GS102")
		}
		s.Modules = append([]common.Address{module}, s.Modules...)
	case "disableModule":
		prev, module := args[0].(common.Address), args[1].(common.Address)
		if got, ok := utils.PreviousInList(s.Modules, module); !ok || got != prev {
			return fmt.Errorf("GS103")
		}
		s.Modules = remove(s.Modules, module)
	case "addOwnerWithThreshold":
		owner := args[0].(common.Address)
		if utils.IsReservedAddress(owner) {
			return fmt.Errorf("GS203")
		}
		if utils.ContainsAddress(s.Owners, owner) {
			return fmt.Errorf("GS204")
		}
		s.Owners = append([]common.Address{owner}, s.Owners...)
		return changeThreshold(s, args[1].(*big.Int))
	case "removeOwner":
		prev, owner := args[0].(common.Address), args[1].(common.Address)
		if uint64(len(s.Owners)-1) < args[2].(*big.Int).Uint64() {
			return fmt.Errorf("GS201")
		}
		if got, ok := utils.PreviousInList(s.Owners, owner); !ok || got != prev {
			return fmt.Errorf("GS205")
		}
		s.Owners = remove(s.Owners, owner)
		return changeThreshold(s, args[2].(*big.Int))
	case "swapOwner":
		prev, oldOwner, newOwner := args[0].(common.Address), args[1].(common.Address), args[2].(common.Address)
		if utils.IsReservedAddress(newOwner) || utils.ContainsAddress(s.Owners, newOwner) {
			return fmt.Errorf("GS204")
		}
		if got, ok := utils.PreviousInList(s.Owners, oldOwner); !ok || got != prev {
			return fmt.Errorf("GS205")
		}
		s.Owners[utils.IndexOfAddress(s.Owners, oldOwner)] = newOwner
	case "changeThreshold":
		return changeThreshold(s, args[0].(*big.Int))
	}
	return nil
}

func changeThreshold(s *SafeState, threshold *big.Int) error {
	if threshold.Sign() <= 0 || threshold.Uint64() > uint64(len(s.Owners)) {
		return fmt.Errorf("GS201")
	}
	s.Threshold = threshold.Uint64()
	return nil
}

func remove(list []common.Address, addr common.Address) []common.Address {
	out := make([]common.Address, 0, len(list))
	for _, item := range list {
		if item != addr {
			out = append(out, item)
		}
	}
	return out
}

func (n *Node) createProxy(factory common.Address, method *abi.Method, data []byte) error {
	args, err := method.Inputs.Unpack(data)
	if err != nil {
		return err
	}
	singleton := args[0].(common.Address)
	initializer := args[1].([]byte)
	saltNonce := args[2].(*big.Int)

	proxy := ProxyAddress(factory, singleton, initializer, saltNonce, n.proxyCode)
	if _, exists := n.safes[proxy]; exists {
		return fmt.Errorf("Create2 call failed")
	}

	state := &SafeState{Version: string(types.SafeVersion130), Approved: map[common.Hash]map[common.Address]bool{}}
	if len(initializer) >= 4 {
		setup, err := n.safeABI.MethodById(initializer[:4])
		if err != nil || setup.Name != "setup" {
			return fmt.Errorf("unsupported initializer")
		}
		sargs, err := setup.Inputs.Unpack(initializer[4:])
		if err != nil {
			return err
		}
		state.Owners = sargs[0].([]common.Address)
		state.Threshold = sargs[1].(*big.Int).Uint64()
	}
	n.safes[proxy] = state
	n.code[proxy] = []byte{0x60, 0x80}
	return nil
}

// ProxyAddress 计算代理工厂 CREATE2 部署地址
func ProxyAddress(factory, singleton common.Address, initializer []byte, saltNonce *big.Int, proxyCode []byte) common.Address {
	salt := crypto.Keccak256(crypto.Keccak256(initializer), common.LeftPadBytes(saltNonce.Bytes(), 32))
	initCode := append(append([]byte{}, proxyCode...), common.LeftPadBytes(singleton.Bytes(), 32)...)
	return crypto.CreateAddress2(factory, common.BytesToHash(salt), crypto.Keccak256(initCode))
}

// ProxyCode 返回模拟代理工厂的 proxyCreationCode
func (n *Node) ProxyCode() []byte {
	return append([]byte{}, n.proxyCode...)
}

// HasPrefix 方法名前缀统计，便于断言某类调用是否发生
func (n *Node) HasPrefix(prefix string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for method, count := range n.calls {
		if strings.HasPrefix(method, prefix) && count > 0 {
			return true
		}
	}
	return false
}
