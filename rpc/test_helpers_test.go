package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"tokenledger/core"
	"tokenledger/core/state"
	"tokenledger/crypto"
	"tokenledger/storage"
)

var (
	ownerAddr   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	holderAddr  = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	spenderAddr = common.HexToAddress("0x00000000000000000000000000000000000000c3")
)

func bech(addr common.Address) string {
	return crypto.MustNewAddress(crypto.TKLPrefix, addr.Bytes()).String()
}

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { db.Close() })
	genesis := &core.Genesis{
		Collection: state.Collection{
			Name:      "Ledger Art",
			Symbol:    "LART",
			BaseURI:   "ipfs://base/",
			Owner:     ownerAddr,
			MaxSupply: uint256.NewInt(0),
		},
		Token: state.TokenInfo{Name: "Ledger Coin", Symbol: "LGC", Decimals: 18},
	}
	lp, err := core.NewLedgerProcessor(db, genesis)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return NewServer(lp, cfg)
}

func rpcCall(t *testing.T, srv *Server, method string, params ...interface{}) (*httptest.ResponseRecorder, RPCResponse) {
	t.Helper()
	raw := make([]json.RawMessage, 0, len(params))
	for _, param := range params {
		encoded, err := json.Marshal(param)
		if err != nil {
			t.Fatalf("marshal param: %v", err)
		}
		raw = append(raw, encoded)
	}
	body, err := json.Marshal(RPCRequest{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: 1})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httpReq)

	var resp RPCResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func mustResult(t *testing.T, rec *httptest.ResponseRecorder, resp RPCResponse) interface{} {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if resp.Error != nil {
		t.Fatalf("unexpected rpc error: %+v", resp.Error)
	}
	return resp.Result
}

func mustStringResult(t *testing.T, rec *httptest.ResponseRecorder, resp RPCResponse) string {
	t.Helper()
	result, ok := mustResult(t, rec, resp).(string)
	if !ok {
		t.Fatalf("expected string result, got %T", resp.Result)
	}
	return result
}
