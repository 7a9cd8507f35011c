package rpc

import (
	"encoding/json"
	"net/http"
)

type tokenMintParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Value  string `json:"value"`
}

type tokenBurnParams struct {
	Caller string `json:"caller"`
	Value  string `json:"value"`
}

type tokenTransferParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	Value  string `json:"value"`
}

type tokenTransferFromParams struct {
	Caller string `json:"caller"`
	From   string `json:"from"`
	To     string `json:"to"`
	Value  string `json:"value"`
}

type tokenApproveParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender"`
	Value   string `json:"value"`
}

type tokenBalanceOfParams struct {
	Address string `json:"address"`
}

type tokenAllowanceParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
}

func (s *Server) handleTokenName(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	name, err := s.ledger.TokenName()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, name)
}

func (s *Server) handleTokenSymbol(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	symbol, err := s.ledger.TokenSymbol()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, symbol)
}

func (s *Server) handleTokenDecimals(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	decimals, err := s.ledger.TokenDecimals()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, decimals)
}

func (s *Server) handleTokenTotalSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	supply, err := s.ledger.TokenTotalSupply()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(supply))
}

func (s *Server) handleTokenBalanceOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenBalanceOfParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.ledger.TokenBalanceOf(addr)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(balance))
}

func (s *Server) handleTokenAllowance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenAllowanceParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	allowance, err := s.ledger.TokenAllowance(owner, spender)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(allowance))
}

func (s *Server) handleTokenMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenMintParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if !s.authorizeMint(w, req, caller) {
		return
	}
	if err := s.ledger.TokenMint(to, value); err != nil {
		writeLedgerError(w, req, "token_mint", err)
		return
	}
	writeLedgerResult(w, req, "token_mint", TokenTransferResult{
		To:    params.To,
		Value: formatAmount(value),
	})
}

func (s *Server) handleTokenBurn(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenBurnParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.TokenBurn(caller, value); err != nil {
		writeLedgerError(w, req, "token_burn", err)
		return
	}
	writeLedgerResult(w, req, "token_burn", TokenTransferResult{
		From:  params.Caller,
		Value: formatAmount(value),
	})
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenTransferParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.TokenTransfer(caller, to, value); err != nil {
		writeLedgerError(w, req, "token_transfer", err)
		return
	}
	writeLedgerResult(w, req, "token_transfer", TokenTransferResult{
		From:  params.Caller,
		To:    params.To,
		Value: formatAmount(value),
	})
}

func (s *Server) handleTokenTransferFrom(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenTransferFromParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid recipient address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.TokenTransferFrom(caller, from, to, value); err != nil {
		writeLedgerError(w, req, "token_transferFrom", err)
		return
	}
	writeLedgerResult(w, req, "token_transferFrom", TokenTransferResult{
		From:  params.From,
		To:    params.To,
		Value: formatAmount(value),
	})
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params tokenApproveParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.TokenApprove(caller, spender, value); err != nil {
		writeLedgerError(w, req, "token_approve", err)
		return
	}
	writeLedgerResult(w, req, "token_approve", TokenApprovalResult{
		Owner:   params.Caller,
		Spender: params.Spender,
		Value:   formatAmount(value),
	})
}
