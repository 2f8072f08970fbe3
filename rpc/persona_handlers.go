package rpc

import (
	"math/big"
	"sort"

	"personachain/native/persona"
)

func personaResult(record *persona.Persona) PersonaResult {
	result := PersonaResult{
		ID:                  record.ID,
		Name:                record.Name,
		Symbol:              record.Symbol,
		Creator:             formatAddress(record.Creator),
		FeeRecipient:        formatAddress(record.FeeRecipient),
		PairingAsset:        record.PairingAsset,
		IssuedToken:         record.IssuedToken,
		AgentToken:          record.AgentToken,
		GraduationThreshold: formatBig(record.GraduationThreshold),
		TotalDeposited:      formatBig(record.TotalDeposited),
		TokensSold:          formatBig(record.TokensSold),
		Graduated:           record.Graduated,
		LiquidityReceiptID:  record.LiquidityReceiptID,
		CreatedAt:           record.CreatedAt,
	}
	if len(record.Metadata) > 0 {
		result.Metadata = make(map[string]string, len(record.Metadata))
		for _, pair := range record.Metadata {
			result.Metadata[pair.Key] = pair.Value
		}
	}
	return result
}

type personaCreateParams struct {
	Creator      string            `json:"creator"`
	Name         string            `json:"name"`
	Symbol       string            `json:"symbol"`
	PairingAsset string            `json:"pairingAsset"`
	AgentToken   string            `json:"agentToken"`
	Metadata     map[string]string `json:"metadata"`
}

func (s *Server) handlePersonaCreate(req *RPCRequest) (interface{}, *RPCError) {
	var params personaCreateParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	creator, err := parseAddress(params.Creator)
	if err != nil {
		return nil, invalidParams(err)
	}
	keys := make([]string, 0, len(params.Metadata))
	for key := range params.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, params.Metadata[key])
	}
	record, err := s.ledger.CreatePersona(creator, params.Name, params.Symbol, params.PairingAsset, params.AgentToken, keys, values)
	if err != nil {
		return nil, invalidParams(err)
	}
	return personaResult(record), nil
}

type personaGetParams struct {
	ID uint64 `json:"id"`
}

func (s *Server) handlePersonaGet(req *RPCRequest) (interface{}, *RPCError) {
	var params personaGetParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	record, err := s.ledger.Get(params.ID)
	if err != nil {
		return nil, invalidParams(err)
	}
	return personaResult(record), nil
}

type personaQuoteParams struct {
	ID       uint64 `json:"id"`
	Buyer    string `json:"buyer"`
	AmountIn string `json:"amountIn"`
}

func (s *Server) handlePersonaQuote(req *RPCRequest) (interface{}, *RPCError) {
	var params personaQuoteParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	amountIn, err := parseAmount(params.AmountIn)
	if err != nil {
		return nil, invalidParams(err)
	}
	out, breakdown, err := s.engine.Quote(params.ID, buyer, amountIn)
	if err != nil {
		return nil, invalidParams(err)
	}
	return QuoteResult{
		AmountOut:   formatBig(out),
		FeeTotal:    formatBig(breakdown.Total),
		FeeCreator:  formatBig(breakdown.Creator),
		FeeProtocol: formatBig(breakdown.Protocol),
	}, nil
}

type personaPurchaseParams struct {
	ID           uint64 `json:"id"`
	Buyer        string `json:"buyer"`
	Recipient    string `json:"recipient"`
	AmountIn     string `json:"amountIn"`
	MinAmountOut string `json:"minAmountOut"`
	Deadline     int64  `json:"deadline"`
}

func (s *Server) handlePersonaPurchase(req *RPCRequest) (interface{}, *RPCError) {
	var params personaPurchaseParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	recipient := buyer
	if params.Recipient != "" {
		recipient, err = parseAddress(params.Recipient)
		if err != nil {
			return nil, invalidParams(err)
		}
	}
	amountIn, err := parseAmount(params.AmountIn)
	if err != nil {
		return nil, invalidParams(err)
	}
	var minOut *big.Int
	if params.MinAmountOut != "" {
		if minOut, err = parseAmount(params.MinAmountOut); err != nil {
			return nil, invalidParams(err)
		}
	}
	out, err := s.engine.Purchase(params.ID, buyer, recipient, amountIn, minOut, params.Deadline)
	if err != nil {
		return nil, invalidParams(err)
	}
	return PurchaseResult{AmountOut: formatBig(out)}, nil
}

type personaWithdrawParams struct {
	ID    uint64 `json:"id"`
	Buyer string `json:"buyer"`
}

func (s *Server) handlePersonaWithdraw(req *RPCRequest) (interface{}, *RPCError) {
	var params personaWithdrawParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := s.ledger.Withdraw(params.ID, buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	return WithdrawResult{Amount: formatBig(amount)}, nil
}

type personaWithdrawLockParams struct {
	ID    uint64 `json:"id"`
	Buyer string `json:"buyer"`
	Index uint32 `json:"index"`
}

func (s *Server) handlePersonaWithdrawLock(req *RPCRequest) (interface{}, *RPCError) {
	var params personaWithdrawLockParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	buyer, err := parseAddress(params.Buyer)
	if err != nil {
		return nil, invalidParams(err)
	}
	amount, err := s.ledger.WithdrawLock(params.ID, buyer, params.Index)
	if err != nil {
		return nil, invalidParams(err)
	}
	return WithdrawResult{Amount: formatBig(amount)}, nil
}

type personaUpdateMetadataParams struct {
	ID       uint64            `json:"id"`
	Caller   string            `json:"caller"`
	Metadata map[string]string `json:"metadata"`
}

func (s *Server) handlePersonaUpdateMetadata(req *RPCRequest) (interface{}, *RPCError) {
	var params personaUpdateMetadataParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		return nil, invalidParams(err)
	}
	keys := make([]string, 0, len(params.Metadata))
	for key := range params.Metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	values := make([]string, 0, len(keys))
	for _, key := range keys {
		values = append(values, params.Metadata[key])
	}
	record, err := s.ledger.UpdateMetadata(params.ID, caller, keys, values)
	if err != nil {
		return nil, invalidParams(err)
	}
	return personaResult(record), nil
}
