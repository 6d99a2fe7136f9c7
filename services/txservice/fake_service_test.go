package txservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/safekit/safe-client-sdk-go/wallet"
)

// fakeService 内存版交易服务，按真实服务的错误格式响应
type fakeService struct {
	t        testing.TB
	server   *httptest.Server
	now      func() time.Time
	requests atomic.Int64
	failing  atomic.Bool

	mu        sync.Mutex
	safes     map[common.Address]*SafeInfo
	delegates map[common.Address][]Delegate
	txs       map[common.Hash]*MultisigTransaction
}

func newFakeService(t testing.TB, now func() time.Time) *fakeService {
	t.Helper()
	f := &fakeService{
		t:         t,
		now:       now,
		safes:     make(map[common.Address]*SafeInfo),
		delegates: make(map[common.Address][]Delegate),
		txs:       make(map[common.Hash]*MultisigTransaction),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/about/{$}", f.about)
	mux.HandleFunc("GET /v1/safes/{safe}/{$}", f.safeInfo)
	mux.HandleFunc("GET /v1/safes/{safe}/delegates/{$}", f.listDelegates)
	mux.HandleFunc("POST /v1/safes/{safe}/delegates/{$}", f.addDelegate)
	mux.HandleFunc("DELETE /v1/safes/{safe}/delegates/{delegate}/{$}", f.removeDelegate)
	mux.HandleFunc("POST /v1/safes/{safe}/multisig-transactions/{$}", f.propose)
	mux.HandleFunc("GET /v1/safes/{safe}/multisig-transactions/{$}", f.listTransactions)
	mux.HandleFunc("GET /v1/multisig-transactions/{hash}/{$}", f.getTransaction)
	mux.HandleFunc("POST /v1/multisig-transactions/{hash}/confirmations/{$}", f.confirm)

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failing.Load() {
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeService) URL() string {
	return f.server.URL
}

func (f *fakeService) Requests() int64 {
	return f.requests.Load()
}

func (f *fakeService) addSafe(addr common.Address, nonce, threshold uint64, owners ...common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := &SafeInfo{Address: addr.Hex(), Nonce: nonce, Threshold: threshold, Version: "1.3.0"}
	for _, o := range owners {
		info.Owners = append(info.Owners, o.Hex())
	}
	f.safes[addr] = info
}

func (f *fakeService) isOwner(safe, addr common.Address) bool {
	for _, o := range f.safes[safe].Owners {
		if common.HexToAddress(o) == addr {
			return true
		}
	}
	return false
}

func (f *fakeService) about(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ServiceInfo{Name: "Safe Transaction Service", Version: "4.6.0", APIVersion: "v1"})
}

func (f *fakeService) safeInfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.safes[common.HexToAddress(r.PathValue("safe"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (f *fakeService) listDelegates(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	results := append([]Delegate{}, f.delegates[common.HexToAddress(r.PathValue("safe"))]...)
	writeJSON(w, http.StatusOK, DelegateListResponse{Count: len(results), Results: results})
}

// authorize 校验委托签名，成功时返回签名者
func (f *fakeService) authorize(w http.ResponseWriter, safe common.Address, req delegateRequest) (common.Address, bool) {
	if _, ok := f.safes[safe]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"safe": {fmt.Sprintf("Safe=%s does not exist or it's still not indexed", safe.Hex())},
		})
		return common.Address{}, false
	}
	msg := DelegateMessage(common.HexToAddress(req.Delegate), f.now().Unix())
	signer, err := wallet.RecoverMessageSigner(msg, req.Signature)
	if err != nil || !f.isOwner(safe, signer) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"nonFieldErrors": {"Signing owner is not an owner of the Safe"},
		})
		return common.Address{}, false
	}
	return signer, true
}

func (f *fakeService) addDelegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	safe := common.HexToAddress(r.PathValue("safe"))

	f.mu.Lock()
	defer f.mu.Unlock()
	signer, ok := f.authorize(w, safe, req)
	if !ok {
		return
	}
	d := Delegate{Safe: safe.Hex(), Delegate: req.Delegate, Delegator: signer.Hex(), Label: req.Label}
	f.delegates[safe] = append(f.delegates[safe], d)
	writeJSON(w, http.StatusCreated, d)
}

func (f *fakeService) removeDelegate(w http.ResponseWriter, r *http.Request) {
	var req delegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	safe := common.HexToAddress(r.PathValue("safe"))
	delegate := common.HexToAddress(r.PathValue("delegate"))

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authorize(w, safe, req); !ok {
		return
	}
	list := f.delegates[safe]
	for i, d := range list {
		if common.HexToAddress(d.Delegate) == delegate {
			f.delegates[safe] = append(list[:i:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (f *fakeService) propose(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	safe := common.HexToAddress(r.PathValue("safe"))
	hash := common.HexToHash(req.ContractTransactionHash)

	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.safes[safe]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if !f.isOwner(safe, common.HexToAddress(req.Sender)) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string][]string{
			"nonFieldErrors": {fmt.Sprintf("Sender=%s is not an owner or delegate", req.Sender)},
		})
		return
	}
	if _, exists := f.txs[hash]; exists {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"nonFieldErrors": {fmt.Sprintf("Tx with safe-tx-hash=%s for safe=%s was already executed", hash.Hex(), safe.Hex())},
		})
		return
	}

	data := hexutil.Bytes(req.Data)
	required := info.Threshold
	tx := &MultisigTransaction{
		Safe:                  safe.Hex(),
		To:                    req.To,
		Value:                 req.Value,
		Data:                  &data,
		Operation:             req.Operation,
		GasToken:              req.GasToken,
		GasPrice:              req.GasPrice,
		RefundReceiver:        req.RefundReceiver,
		Nonce:                 req.Nonce,
		SubmissionDate:        f.now().UTC().Format(time.RFC3339),
		SafeTxHash:            hash.Hex(),
		ConfirmationsRequired: &required,
	}
	if len(req.Signature) > 0 {
		tx.Confirmations = append(tx.Confirmations, Confirmation{Owner: req.Sender, Signature: req.Signature, SignatureType: "EOA"})
	}
	f.txs[hash] = tx
	w.WriteHeader(http.StatusCreated)
}

func (f *fakeService) getTransaction(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[common.HexToHash(r.PathValue("hash"))]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (f *fakeService) confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	hash := common.HexToHash(r.PathValue("hash"))

	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[hash]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	owner, err := wallet.RecoverHashSigner(hash.Bytes(), req.Signature)
	if err != nil || !f.isOwner(common.HexToAddress(tx.Safe), owner) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"signature": {"Signer is not an owner of the Safe"},
		})
		return
	}
	tx.Confirmations = append(tx.Confirmations, Confirmation{Owner: owner.Hex(), Signature: req.Signature, SignatureType: "EOA"})
	writeJSON(w, http.StatusCreated, SignatureResponse{Signature: req.Signature})
}

func (f *fakeService) listTransactions(w http.ResponseWriter, r *http.Request) {
	safe := common.HexToAddress(r.PathValue("safe"))
	minNonce, _ := strconv.ParseUint(r.URL.Query().Get("nonce__gte"), 10, 64)
	onlyPending := r.URL.Query().Get("executed") == "false"

	f.mu.Lock()
	defer f.mu.Unlock()
	results := []MultisigTransaction{}
	for _, tx := range f.txs {
		if common.HexToAddress(tx.Safe) != safe || tx.Nonce < minNonce {
			continue
		}
		if onlyPending && tx.IsExecuted {
			continue
		}
		results = append(results, *tx)
	}
	writeJSON(w, http.StatusOK, MultisigTransactionListResponse{Count: len(results), Results: results})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
