package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tokenledger/core"
	"tokenledger/observability/metrics"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError        = -32700
	codeInvalidRequest    = -32600
	codeMethodNotFound    = -32601
	codeInvalidParams     = -32602
	codeUnauthorized      = -32001
	codeServerError       = -32000
	codeOperationRejected = -32010
)

// ServerConfig carries the RPC-layer policy knobs.
type ServerConfig struct {
	// RequireMintAuthority restricts nft_mint, nft_mintNext and token_mint
	// to the collection owner recorded at genesis.
	RequireMintAuthority bool
	Logger               *slog.Logger
}

type Server struct {
	ledger *core.LedgerProcessor
	log    *slog.Logger

	requireMintAuthority bool
}

func NewServer(ledger *core.LedgerProcessor, cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ledger:               ledger,
		log:                  logger,
		requireMintAuthority: cfg.RequireMintAuthority,
	}
}

// Handler returns the HTTP surface: JSON-RPC on /, Prometheus metrics on
// /metrics and a liveness probe on /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("json-rpc server listening", slog.String("addr", addr))
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeLedgerResult records a committed mutation before replying.
func writeLedgerResult(w http.ResponseWriter, req *RPCRequest, method string, result interface{}) {
	metrics.Ledger().ObserveApplied(method)
	writeResult(w, req.ID, result)
}

// writeLedgerError maps a rejected mutation onto the matching JSON-RPC error.
func writeLedgerError(w http.ResponseWriter, req *RPCRequest, method string, err error) {
	metrics.Ledger().ObserveFailed(method)
	status, code := ledgerErrorStatus(err)
	writeError(w, status, req.ID, code, err.Error(), nil)
}

func writeReadError(w http.ResponseWriter, req *RPCRequest, err error) {
	status, code := ledgerErrorStatus(err)
	writeError(w, status, req.ID, code, err.Error(), nil)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// handle is the main request handler that routes to method handlers.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	logger := s.log.With(
		slog.String("correlationId", uuid.NewString()),
		slog.String("method", req.Method),
	)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.dispatch(rec, r, req)
	if rec.status >= http.StatusBadRequest {
		logger.Warn("rpc request failed", slog.Int("status", rec.status))
		return
	}
	logger.Debug("rpc request handled", slog.Int("status", rec.status))
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	switch req.Method {
	case "ledger_info":
		s.handleLedgerInfo(w, r, req)
	case "nft_name":
		s.handleNFTName(w, r, req)
	case "nft_symbol":
		s.handleNFTSymbol(w, r, req)
	case "nft_ownerOf":
		s.handleNFTOwnerOf(w, r, req)
	case "nft_balanceOf":
		s.handleNFTBalanceOf(w, r, req)
	case "nft_mint":
		s.handleNFTMint(w, r, req)
	case "nft_mintNext":
		s.handleNFTMintNext(w, r, req)
	case "nft_transferFrom":
		s.handleNFTTransferFrom(w, r, req)
	case "nft_approve":
		s.handleNFTApprove(w, r, req)
	case "nft_getApproved":
		s.handleNFTGetApproved(w, r, req)
	case "nft_setApprovalForAll":
		s.handleNFTSetApprovalForAll(w, r, req)
	case "nft_isApprovedForAll":
		s.handleNFTIsApprovedForAll(w, r, req)
	case "nft_tokenURI":
		s.handleNFTTokenURI(w, r, req)
	case "nft_totalMinted":
		s.handleNFTTotalMinted(w, r, req)
	case "nft_maxSupply":
		s.handleNFTMaxSupply(w, r, req)
	case "nft_collectionOwner":
		s.handleNFTCollectionOwner(w, r, req)
	case "token_name":
		s.handleTokenName(w, r, req)
	case "token_symbol":
		s.handleTokenSymbol(w, r, req)
	case "token_decimals":
		s.handleTokenDecimals(w, r, req)
	case "token_totalSupply":
		s.handleTokenTotalSupply(w, r, req)
	case "token_balanceOf":
		s.handleTokenBalanceOf(w, r, req)
	case "token_allowance":
		s.handleTokenAllowance(w, r, req)
	case "token_mint":
		s.handleTokenMint(w, r, req)
	case "token_burn":
		s.handleTokenBurn(w, r, req)
	case "token_transfer":
		s.handleTokenTransfer(w, r, req)
	case "token_transferFrom":
		s.handleTokenTransferFrom(w, r, req)
	case "token_approve":
		s.handleTokenApprove(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %s", req.Method), nil)
	}
}

func (s *Server) handleLedgerInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	result := LedgerInfoResult{
		Root:    s.ledger.CurrentRoot().Hex(),
		Version: s.ledger.Version(),
	}
	writeResult(w, req.ID, result)
}
