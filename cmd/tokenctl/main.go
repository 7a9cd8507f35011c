package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"tokenledger/crypto"
)

var rpcEndpoint = defaultRPCEndpoint() // Defaults to localhost, can be overridden via TOKEND_RPC_URL or --rpc flag

func main() {
	args := os.Args[1:]
	var err error
	rpcEndpoint = defaultRPCEndpoint()
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "generate-key":
		path := "wallet.keystore"
		if len(args) > 1 {
			path = args[1]
		}
		generateKey(path)
	case "info":
		ledgerInfo()
	case "nft":
		code := runNFTCommand(args[1:], os.Stdout, os.Stderr)
		if code != 0 {
			os.Exit(code)
		}
		return
	case "token":
		code := runTokenCommand(args[1:], os.Stdout, os.Stderr)
		if code != 0 {
			os.Exit(code)
		}
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("TOKEND_RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

// generateKey provisions a fresh keypair in an encrypted keystore file. The
// printed bech32 address is what the node config and RPC params expect.
func generateKey(path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Error: %s already exists, refusing to overwrite.\n", path)
		return
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		panic(err)
	}
	if err := crypto.SaveToKeystore(path, key, keystorePassphrase()); err != nil {
		panic(fmt.Sprintf("Failed to save keystore to %s: %v", path, err))
	}

	fmt.Printf("Generated new key and saved to %s\n", path)
	fmt.Printf("Your address is: %s\n", key.PubKey().Address().String())
	fmt.Println("Store this file securely. Set it as the nft owner to hold mint authority.")
}

func keystorePassphrase() string {
	return os.Getenv("TOKENCTL_KEYSTORE_PASS")
}

func ledgerInfo() {
	result, rpcErr, err := callLedgerRPC("ledger_info", []interface{}{})
	if err != nil {
		fmt.Printf("Error fetching ledger info: %v\n", err)
		return
	}
	if rpcErr != nil {
		fmt.Printf("Error from node: %s\n", rpcErr.Message)
		return
	}
	printJSONResult(result)
}

// --- RPC HELPER FUNCTIONS ---

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func callLedgerRPC(method string, params []interface{}) (json.RawMessage, *rpcError, error) {
	payload := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method, "params": params}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("POST %s: %w", rpcEndpoint, err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response from node")
	}
	return rpcResp.Result, rpcResp.Error, nil
}

func handleRPCError(w io.Writer, err *rpcError) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC error %d: %s\n", err.Code, err.Message)
	return 1
}

func handleRPCCallError(w io.Writer, err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(w, "RPC call failed: %v\n", err)
	return 1
}

func writeRPCResult(w io.Writer, result json.RawMessage) {
	if len(result) == 0 {
		fmt.Fprintln(w, "null")
		return
	}
	if _, err := w.Write(result); err == nil {
		if result[len(result)-1] != '\n' {
			fmt.Fprintln(w)
		}
	}
}

func printJSONResult(result json.RawMessage) {
	if len(result) == 0 {
		fmt.Println("No result.")
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(buf.String())
}

func printUsage() {
	fmt.Println("Usage: tokenctl [--rpc <url>] <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  generate-key [path]  - Generates a new key and saves it to an encrypted keystore (default wallet.keystore)")
	fmt.Println("  info                 - Prints the current state root and version of the ledger")
	fmt.Println("  nft                  - Non-fungible ledger subcommands")
	fmt.Println("  token                - Fungible ledger subcommands")
}
