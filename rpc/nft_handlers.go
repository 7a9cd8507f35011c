package rpc

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type nftMintParams struct {
	Caller  string `json:"caller"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
	URI     string `json:"uri,omitempty"`
}

type nftMintNextParams struct {
	Caller string `json:"caller"`
	To     string `json:"to"`
	URI    string `json:"uri,omitempty"`
}

type nftTransferFromParams struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID string `json:"tokenId"`
}

type nftApproveParams struct {
	Caller  string `json:"caller"`
	Spender string `json:"spender,omitempty"`
	TokenID string `json:"tokenId"`
}

type nftApprovalForAllParams struct {
	Caller   string `json:"caller"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type nftTokenQueryParams struct {
	TokenID string `json:"tokenId"`
}

type nftBalanceOfParams struct {
	Address string `json:"address"`
}

type nftOperatorQueryParams struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
}

// authorizeMint enforces the optional owner-only minting policy.
func (s *Server) authorizeMint(w http.ResponseWriter, req *RPCRequest, caller common.Address) bool {
	if !s.requireMintAuthority {
		return true
	}
	owner, err := s.ledger.NFTCollectionOwner()
	if err != nil {
		writeReadError(w, req, err)
		return false
	}
	if caller != owner {
		writeError(w, http.StatusForbidden, req.ID, codeUnauthorized, "minting restricted to the collection owner", nil)
		return false
	}
	return true
}

func (s *Server) handleNFTName(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	name, err := s.ledger.NFTName()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, name)
}

func (s *Server) handleNFTSymbol(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	symbol, err := s.ledger.NFTSymbol()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, symbol)
}

func (s *Server) handleNFTOwnerOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftTokenQueryParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	owner, err := s.ledger.NFTOwnerOf(id)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, displayAddress(owner))
}

func (s *Server) handleNFTBalanceOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftBalanceOfParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	balance, err := s.ledger.NFTBalanceOf(addr)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(balance))
}

func (s *Server) handleNFTMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftMintParams
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
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if !s.authorizeMint(w, req, caller) {
		return
	}
	if err := s.ledger.NFTMint(to, id, params.URI); err != nil {
		writeLedgerError(w, req, "nft_mint", err)
		return
	}
	writeLedgerResult(w, req, "nft_mint", NFTMintResult{
		TokenID: formatAmount(id),
		Owner:   params.To,
		URI:     params.URI,
	})
}

func (s *Server) handleNFTMintNext(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftMintNextParams
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
	if !s.authorizeMint(w, req, caller) {
		return
	}
	id, err := s.ledger.NFTMintNext(to, params.URI)
	if err != nil {
		writeLedgerError(w, req, "nft_mintNext", err)
		return
	}
	writeLedgerResult(w, req, "nft_mintNext", NFTMintResult{
		TokenID: formatAmount(id),
		Owner:   params.To,
		URI:     params.URI,
	})
}

func (s *Server) handleNFTTransferFrom(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftTransferFromParams
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
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.NFTTransferFrom(caller, from, to, id); err != nil {
		writeLedgerError(w, req, "nft_transferFrom", err)
		return
	}
	writeLedgerResult(w, req, "nft_transferFrom", NFTTransferResult{
		TokenID: formatAmount(id),
		From:    params.From,
		To:      params.To,
	})
}

func (s *Server) handleNFTApprove(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftApproveParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	// An absent spender clears the approval slot.
	var spender common.Address
	if strings.TrimSpace(params.Spender) != "" {
		spender, err = decodeBech32(params.Spender)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
			return
		}
	}
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.NFTApprove(caller, spender, id); err != nil {
		writeLedgerError(w, req, "nft_approve", err)
		return
	}
	result := NFTApprovalResult{TokenID: formatAmount(id)}
	if spender != (common.Address{}) {
		result.Approved = params.Spender
	}
	writeLedgerResult(w, req, "nft_approve", result)
}

func (s *Server) handleNFTGetApproved(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftTokenQueryParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	approved, err := s.ledger.NFTGetApproved(id)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	result := ""
	if approved != nil {
		result = displayAddress(*approved)
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleNFTSetApprovalForAll(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftApprovalForAllParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	operator, err := decodeBech32(params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid operator address", err.Error())
		return
	}
	if err := s.ledger.NFTSetApprovalForAll(caller, operator, params.Approved); err != nil {
		writeLedgerError(w, req, "nft_setApprovalForAll", err)
		return
	}
	writeLedgerResult(w, req, "nft_setApprovalForAll", NFTApprovalForAllResult{
		Owner:    params.Caller,
		Operator: params.Operator,
		Approved: params.Approved,
	})
}

func (s *Server) handleNFTIsApprovedForAll(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftOperatorQueryParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	operator, err := decodeBech32(params.Operator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid operator address", err.Error())
		return
	}
	approved, err := s.ledger.NFTIsApprovedForAll(owner, operator)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, approved)
}

func (s *Server) handleNFTTokenURI(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 1 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "exactly one parameter object expected", nil)
		return
	}
	var params nftTokenQueryParams
	if err := json.Unmarshal(req.Params[0], &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameter object", err.Error())
		return
	}
	id, err := parseTokenID(params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	uri, err := s.ledger.NFTTokenURI(id)
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, uri)
}

func (s *Server) handleNFTTotalMinted(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	minted, err := s.ledger.NFTTotalMinted()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(minted))
}

func (s *Server) handleNFTMaxSupply(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	max, err := s.ledger.NFTMaxSupply()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, formatAmount(max))
}

func (s *Server) handleNFTCollectionOwner(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	if len(req.Params) != 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "no parameters expected", nil)
		return
	}
	owner, err := s.ledger.NFTCollectionOwner()
	if err != nil {
		writeReadError(w, req, err)
		return
	}
	writeResult(w, req.ID, displayAddress(owner))
}
