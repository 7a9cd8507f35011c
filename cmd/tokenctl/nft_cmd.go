package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

var nftRPCCall = callLedgerRPC

func runNFTCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, nftUsage())
		return 1
	}
	switch args[0] {
	case "mint":
		return runNFTMint(args[1:], stdout, stderr)
	case "mint-next":
		return runNFTMintNext(args[1:], stdout, stderr)
	case "transfer":
		return runNFTTransfer(args[1:], stdout, stderr)
	case "approve":
		return runNFTApprove(args[1:], stdout, stderr)
	case "set-operator":
		return runNFTSetOperator(args[1:], stdout, stderr)
	case "owner-of":
		return runNFTTokenQuery(args[1:], "nft_ownerOf", stdout, stderr)
	case "approved":
		return runNFTTokenQuery(args[1:], "nft_getApproved", stdout, stderr)
	case "token-uri":
		return runNFTTokenQuery(args[1:], "nft_tokenURI", stdout, stderr)
	case "balance-of":
		return runNFTBalanceOf(args[1:], stdout, stderr)
	case "is-operator":
		return runNFTIsOperator(args[1:], stdout, stderr)
	case "name":
		return runNFTNoParamQuery("nft_name", args[1:], stdout, stderr)
	case "symbol":
		return runNFTNoParamQuery("nft_symbol", args[1:], stdout, stderr)
	case "total-minted":
		return runNFTNoParamQuery("nft_totalMinted", args[1:], stdout, stderr)
	case "max-supply":
		return runNFTNoParamQuery("nft_maxSupply", args[1:], stdout, stderr)
	case "collection-owner":
		return runNFTNoParamQuery("nft_collectionOwner", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown nft subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, nftUsage())
		return 1
	}
}

func runNFTMint(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft mint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, to, tokenID, uri string
	fs.StringVar(&caller, "caller", "", "bech32 address submitting the mint")
	fs.StringVar(&to, "to", "", "bech32 address receiving the token")
	fs.StringVar(&tokenID, "id", "", "decimal token id to mint")
	fs.StringVar(&uri, "uri", "", "optional metadata path stored with the token")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	if strings.TrimSpace(to) == "" {
		fmt.Fprintln(stderr, "Error: --to is required")
		return 1
	}
	if strings.TrimSpace(tokenID) == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 1
	}
	param := map[string]interface{}{
		"caller":  strings.TrimSpace(caller),
		"to":      strings.TrimSpace(to),
		"tokenId": strings.TrimSpace(tokenID),
	}
	if trimmed := strings.TrimSpace(uri); trimmed != "" {
		param["uri"] = trimmed
	}
	result, rpcErr, err := nftRPCCall("nft_mint", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTMintNext(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft mint-next", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, to, uri string
	fs.StringVar(&caller, "caller", "", "bech32 address submitting the mint")
	fs.StringVar(&to, "to", "", "bech32 address receiving the token")
	fs.StringVar(&uri, "uri", "", "optional metadata path stored with the token")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	if strings.TrimSpace(to) == "" {
		fmt.Fprintln(stderr, "Error: --to is required")
		return 1
	}
	param := map[string]interface{}{
		"caller": strings.TrimSpace(caller),
		"to":     strings.TrimSpace(to),
	}
	if trimmed := strings.TrimSpace(uri); trimmed != "" {
		param["uri"] = trimmed
	}
	result, rpcErr, err := nftRPCCall("nft_mintNext", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTTransfer(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft transfer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, from, to, tokenID string
	fs.StringVar(&caller, "caller", "", "bech32 address submitting the transfer")
	fs.StringVar(&from, "from", "", "bech32 address currently owning the token")
	fs.StringVar(&to, "to", "", "bech32 address receiving the token")
	fs.StringVar(&tokenID, "id", "", "decimal token id to move")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	if strings.TrimSpace(from) == "" {
		fmt.Fprintln(stderr, "Error: --from is required")
		return 1
	}
	if strings.TrimSpace(to) == "" {
		fmt.Fprintln(stderr, "Error: --to is required")
		return 1
	}
	if strings.TrimSpace(tokenID) == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 1
	}
	param := map[string]interface{}{
		"caller":  strings.TrimSpace(caller),
		"from":    strings.TrimSpace(from),
		"to":      strings.TrimSpace(to),
		"tokenId": strings.TrimSpace(tokenID),
	}
	result, rpcErr, err := nftRPCCall("nft_transferFrom", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTApprove(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft approve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, spender, tokenID string
	fs.StringVar(&caller, "caller", "", "bech32 address granting the approval")
	fs.StringVar(&spender, "spender", "", "bech32 address allowed to move the token (omit to clear)")
	fs.StringVar(&tokenID, "id", "", "decimal token id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	if strings.TrimSpace(tokenID) == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 1
	}
	param := map[string]interface{}{
		"caller":  strings.TrimSpace(caller),
		"tokenId": strings.TrimSpace(tokenID),
	}
	if trimmed := strings.TrimSpace(spender); trimmed != "" {
		param["spender"] = trimmed
	}
	result, rpcErr, err := nftRPCCall("nft_approve", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTSetOperator(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft set-operator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, operator string
	var approved bool
	fs.StringVar(&caller, "caller", "", "bech32 address granting operator rights")
	fs.StringVar(&operator, "operator", "", "bech32 address receiving operator rights")
	fs.BoolVar(&approved, "approved", true, "grant (true) or revoke (false) the operator")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(caller) == "" {
		fmt.Fprintln(stderr, "Error: --caller is required")
		return 1
	}
	if strings.TrimSpace(operator) == "" {
		fmt.Fprintln(stderr, "Error: --operator is required")
		return 1
	}
	param := map[string]interface{}{
		"caller":   strings.TrimSpace(caller),
		"operator": strings.TrimSpace(operator),
		"approved": approved,
	}
	result, rpcErr, err := nftRPCCall("nft_setApprovalForAll", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

// runNFTTokenQuery covers the read methods keyed by a single token id.
func runNFTTokenQuery(args []string, method string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft query", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var tokenID string
	fs.StringVar(&tokenID, "id", "", "decimal token id")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(tokenID) == "" {
		fmt.Fprintln(stderr, "Error: --id is required")
		return 1
	}
	param := map[string]interface{}{"tokenId": strings.TrimSpace(tokenID)}
	result, rpcErr, err := nftRPCCall(method, []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTBalanceOf(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft balance-of", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var addr string
	fs.StringVar(&addr, "addr", "", "bech32 address to query")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(addr) == "" {
		fmt.Fprintln(stderr, "Error: --addr is required")
		return 1
	}
	param := map[string]interface{}{"address": strings.TrimSpace(addr)}
	result, rpcErr, err := nftRPCCall("nft_balanceOf", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTIsOperator(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nft is-operator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var owner, operator string
	fs.StringVar(&owner, "owner", "", "bech32 address owning the tokens")
	fs.StringVar(&operator, "operator", "", "bech32 address to check")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	if strings.TrimSpace(owner) == "" {
		fmt.Fprintln(stderr, "Error: --owner is required")
		return 1
	}
	if strings.TrimSpace(operator) == "" {
		fmt.Fprintln(stderr, "Error: --operator is required")
		return 1
	}
	param := map[string]interface{}{
		"owner":    strings.TrimSpace(owner),
		"operator": strings.TrimSpace(operator),
	}
	result, rpcErr, err := nftRPCCall("nft_isApprovedForAll", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runNFTNoParamQuery(method string, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	result, rpcErr, err := nftRPCCall(method, []interface{}{})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func nftUsage() string {
	return strings.TrimSpace(`Usage:
  tokenctl nft <command> [flags]

Commands:
  mint              Mint a specific token id (--caller --to --id [--uri])
  mint-next         Mint the next sequential token id (--caller --to [--uri])
  transfer          Move a token id between holders (--caller --from --to --id)
  approve           Set or clear the approved spender of a token (--caller --id [--spender])
  set-operator      Grant or revoke an operator (--caller --operator [--approved])
  owner-of          Look up the owner of a token id (--id)
  approved          Look up the approved spender of a token id (--id)
  token-uri         Resolve the metadata URI of a token id (--id)
  balance-of        Count the tokens held by an address (--addr)
  is-operator       Check an operator grant (--owner --operator)
  name              Print the collection name
  symbol            Print the collection symbol
  total-minted      Print the number of live tokens
  max-supply        Print the supply cap (0 means unlimited)
  collection-owner  Print the collection owner address
`)
}
