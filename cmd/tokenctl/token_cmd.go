package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

var tokenRPCCall = callLedgerRPC

func runTokenCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
	switch args[0] {
	case "mint":
		return runTokenMint(args[1:], stdout, stderr)
	case "burn":
		return runTokenBurn(args[1:], stdout, stderr)
	case "transfer":
		return runTokenTransfer(args[1:], stdout, stderr)
	case "transfer-from":
		return runTokenTransferFrom(args[1:], stdout, stderr)
	case "approve":
		return runTokenApprove(args[1:], stdout, stderr)
	case "balance-of":
		return runTokenBalanceOf(args[1:], stdout, stderr)
	case "allowance":
		return runTokenAllowance(args[1:], stdout, stderr)
	case "name":
		return runTokenNoParamQuery("token_name", args[1:], stdout, stderr)
	case "symbol":
		return runTokenNoParamQuery("token_symbol", args[1:], stdout, stderr)
	case "decimals":
		return runTokenNoParamQuery("token_decimals", args[1:], stdout, stderr)
	case "total-supply":
		return runTokenNoParamQuery("token_totalSupply", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown token subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, tokenUsage())
		return 1
	}
}

func runTokenMint(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token mint", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, to, value string
	fs.StringVar(&caller, "caller", "", "bech32 address submitting the mint")
	fs.StringVar(&to, "to", "", "bech32 address receiving the funds")
	fs.StringVar(&value, "value", "", "decimal amount in base units")
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
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(stderr, "Error: --value is required")
		return 1
	}
	param := map[string]interface{}{
		"caller": strings.TrimSpace(caller),
		"to":     strings.TrimSpace(to),
		"value":  strings.TrimSpace(value),
	}
	result, rpcErr, err := tokenRPCCall("token_mint", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenBurn(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token burn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, value string
	fs.StringVar(&caller, "caller", "", "bech32 address burning its own funds")
	fs.StringVar(&value, "value", "", "decimal amount in base units")
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
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(stderr, "Error: --value is required")
		return 1
	}
	param := map[string]interface{}{
		"caller": strings.TrimSpace(caller),
		"value":  strings.TrimSpace(value),
	}
	result, rpcErr, err := tokenRPCCall("token_burn", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenTransfer(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token transfer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, to, value string
	fs.StringVar(&caller, "caller", "", "bech32 address sending the funds")
	fs.StringVar(&to, "to", "", "bech32 address receiving the funds")
	fs.StringVar(&value, "value", "", "decimal amount in base units")
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
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(stderr, "Error: --value is required")
		return 1
	}
	param := map[string]interface{}{
		"caller": strings.TrimSpace(caller),
		"to":     strings.TrimSpace(to),
		"value":  strings.TrimSpace(value),
	}
	result, rpcErr, err := tokenRPCCall("token_transfer", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenTransferFrom(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token transfer-from", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, from, to, value string
	fs.StringVar(&caller, "caller", "", "bech32 address spending the allowance")
	fs.StringVar(&from, "from", "", "bech32 address the funds are drawn from")
	fs.StringVar(&to, "to", "", "bech32 address receiving the funds")
	fs.StringVar(&value, "value", "", "decimal amount in base units")
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
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(stderr, "Error: --value is required")
		return 1
	}
	param := map[string]interface{}{
		"caller": strings.TrimSpace(caller),
		"from":   strings.TrimSpace(from),
		"to":     strings.TrimSpace(to),
		"value":  strings.TrimSpace(value),
	}
	result, rpcErr, err := tokenRPCCall("token_transferFrom", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenApprove(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token approve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var caller, spender, value string
	fs.StringVar(&caller, "caller", "", "bech32 address granting the allowance")
	fs.StringVar(&spender, "spender", "", "bech32 address allowed to spend")
	fs.StringVar(&value, "value", "", "decimal allowance in base units (0 clears)")
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
	if strings.TrimSpace(spender) == "" {
		fmt.Fprintln(stderr, "Error: --spender is required")
		return 1
	}
	if strings.TrimSpace(value) == "" {
		fmt.Fprintln(stderr, "Error: --value is required")
		return 1
	}
	param := map[string]interface{}{
		"caller":  strings.TrimSpace(caller),
		"spender": strings.TrimSpace(spender),
		"value":   strings.TrimSpace(value),
	}
	result, rpcErr, err := tokenRPCCall("token_approve", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenBalanceOf(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token balance-of", flag.ContinueOnError)
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
	result, rpcErr, err := tokenRPCCall("token_balanceOf", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenAllowance(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token allowance", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var owner, spender string
	fs.StringVar(&owner, "owner", "", "bech32 address owning the funds")
	fs.StringVar(&spender, "spender", "", "bech32 address holding the allowance")
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
	if strings.TrimSpace(spender) == "" {
		fmt.Fprintln(stderr, "Error: --spender is required")
		return 1
	}
	param := map[string]interface{}{
		"owner":   strings.TrimSpace(owner),
		"spender": strings.TrimSpace(spender),
	}
	result, rpcErr, err := tokenRPCCall("token_allowance", []interface{}{param})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func runTokenNoParamQuery(method string, args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintln(stderr, "Error: unexpected positional arguments")
		return 1
	}
	result, rpcErr, err := tokenRPCCall(method, []interface{}{})
	if err != nil {
		return handleRPCCallError(stderr, err)
	}
	if rpcErr != nil {
		return handleRPCError(stderr, rpcErr)
	}
	writeRPCResult(stdout, result)
	return 0
}

func tokenUsage() string {
	return strings.TrimSpace(`Usage:
  tokenctl token <command> [flags]

Commands:
  mint           Mint new funds to an address (--caller --to --value)
  burn           Burn funds held by the caller (--caller --value)
  transfer       Move funds between holders (--caller --to --value)
  transfer-from  Spend a granted allowance (--caller --from --to --value)
  approve        Set an allowance for a spender (--caller --spender --value)
  balance-of     Look up the balance of an address (--addr)
  allowance      Look up a granted allowance (--owner --spender)
  name           Print the token name
  symbol         Print the token symbol
  decimals       Print the token decimals
  total-supply   Print the outstanding supply
`)
}
