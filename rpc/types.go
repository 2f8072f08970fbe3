package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"personachain/crypto"
	"personachain/native/pairing"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// RPCRequest is a JSON-RPC 2.0 call envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// RPCResponse is a JSON-RPC 2.0 reply envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError carries a JSON-RPC error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PersonaResult is the RPC projection of a persona record.
type PersonaResult struct {
	ID                  uint64            `json:"id"`
	Name                string            `json:"name"`
	Symbol              string            `json:"symbol"`
	Creator             string            `json:"creator"`
	FeeRecipient        string            `json:"feeRecipient"`
	PairingAsset        string            `json:"pairingAsset"`
	IssuedToken         string            `json:"issuedToken"`
	AgentToken          string            `json:"agentToken,omitempty"`
	GraduationThreshold string            `json:"graduationThreshold"`
	TotalDeposited      string            `json:"totalDeposited"`
	TokensSold          string            `json:"tokensSold"`
	Graduated           bool              `json:"graduated"`
	LiquidityReceiptID  string            `json:"liquidityReceiptId,omitempty"`
	Metadata            map[string]string `json:"metadata,omitempty"`
	CreatedAt           int64             `json:"createdAt"`
}

// QuoteResult prices a prospective curve purchase.
type QuoteResult struct {
	AmountOut   string `json:"amountOut"`
	FeeTotal    string `json:"feeTotal"`
	FeeCreator  string `json:"feeCreator"`
	FeeProtocol string `json:"feeProtocol"`
}

// PurchaseResult reports a settled curve purchase.
type PurchaseResult struct {
	AmountOut string `json:"amountOut"`
}

// WithdrawResult reports released lock value.
type WithdrawResult struct {
	Amount string `json:"amount"`
}

func decodeParams(raw []json.RawMessage, out interface{}) error {
	if len(raw) != 1 {
		return fmt.Errorf("expected a single params object")
	}
	return json.Unmarshal(raw[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return decoded.Bytes(), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal integer", value)
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return crypto.MustNewAddress(crypto.PersonaPrefix, addr[:]).String()
}

// PairingResult is the RPC projection of a pairing configuration.
type PairingResult struct {
	Asset               string `json:"asset"`
	Enabled             bool   `json:"enabled"`
	MintCost            string `json:"mintCost"`
	GraduationThreshold string `json:"graduationThreshold"`
}

func pairingResult(cfg *pairing.Config) PairingResult {
	return PairingResult{
		Asset:               cfg.Asset,
		Enabled:             cfg.Enabled,
		MintCost:            formatBig(cfg.MintCost),
		GraduationThreshold: formatBig(cfg.GraduationThreshold),
	}
}

func formatBig(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
