package rpc

import (
	"personachain/native/fees"
)

type pairingConfigureParams struct {
	Asset               string `json:"asset"`
	MintCost            string `json:"mintCost"`
	GraduationThreshold string `json:"graduationThreshold"`
}

func (s *Server) handlePairingConfigure(req *RPCRequest) (interface{}, *RPCError) {
	var params pairingConfigureParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	mintCost, err := parseAmount(params.MintCost)
	if err != nil {
		return nil, invalidParams(err)
	}
	threshold, err := parseAmount(params.GraduationThreshold)
	if err != nil {
		return nil, invalidParams(err)
	}
	cfg, err := s.pairings.Configure(params.Asset, mintCost, threshold)
	if err != nil {
		return nil, invalidParams(err)
	}
	return pairingResult(cfg), nil
}

type pairingAssetParams struct {
	Asset string `json:"asset"`
}

func (s *Server) handlePairingDisable(req *RPCRequest) (interface{}, *RPCError) {
	var params pairingAssetParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	if err := s.pairings.Disable(params.Asset); err != nil {
		return nil, invalidParams(err)
	}
	return map[string]bool{"disabled": true}, nil
}

func (s *Server) handlePairingGet(req *RPCRequest) (interface{}, *RPCError) {
	var params pairingAssetParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	cfg, err := s.pairings.Get(params.Asset)
	if err != nil {
		return nil, invalidParams(err)
	}
	return pairingResult(cfg), nil
}

type feesConfigureParams struct {
	FeeBps          uint32 `json:"feeBps"`
	CreatorShareBps uint32 `json:"creatorShareBps"`
}

func (s *Server) handleFeesConfigure(req *RPCRequest) (interface{}, *RPCError) {
	var params feesConfigureParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	if err := s.fees.SetConfig(fees.Config{FeeBps: params.FeeBps, CreatorShareBps: params.CreatorShareBps}); err != nil {
		return nil, invalidParams(err)
	}
	return map[string]bool{"ok": true}, nil
}

type feesLoyaltyParams struct {
	MinHolding       string `json:"minHolding"`
	MaxHolding       string `json:"maxHolding"`
	MinMultiplierBps uint32 `json:"minMultiplierBps"`
	MaxMultiplierBps uint32 `json:"maxMultiplierBps"`
}

func (s *Server) handleFeesConfigureLoyalty(req *RPCRequest) (interface{}, *RPCError) {
	var params feesLoyaltyParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	minHolding, err := parseAmount(params.MinHolding)
	if err != nil {
		return nil, invalidParams(err)
	}
	maxHolding, err := parseAmount(params.MaxHolding)
	if err != nil {
		return nil, invalidParams(err)
	}
	cfg := &fees.ReductionConfig{
		MinHolding:       minHolding,
		MaxHolding:       maxHolding,
		MinMultiplierBps: params.MinMultiplierBps,
		MaxMultiplierBps: params.MaxMultiplierBps,
	}
	if err := s.fees.SetReduction(cfg); err != nil {
		return nil, invalidParams(err)
	}
	return map[string]bool{"ok": true}, nil
}

type treasuryClaimParams struct {
	Holder     string   `json:"holder"`
	BurnAmount string   `json:"burnAmount"`
	Assets     []string `json:"assets"`
}

type claimPortionResult struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

func (s *Server) handleTreasuryClaim(req *RPCRequest) (interface{}, *RPCError) {
	var params treasuryClaimParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	holder, err := parseAddress(params.Holder)
	if err != nil {
		return nil, invalidParams(err)
	}
	burnAmount, err := parseAmount(params.BurnAmount)
	if err != nil {
		return nil, invalidParams(err)
	}
	portions, err := s.treasury.Claim(holder, burnAmount, params.Assets)
	if err != nil {
		return nil, invalidParams(err)
	}
	out := make([]claimPortionResult, 0, len(portions))
	for _, portion := range portions {
		out = append(out, claimPortionResult{Asset: portion.Asset, Amount: formatBig(portion.Amount)})
	}
	return out, nil
}

type rewardsRegisterParams struct {
	Name     string `json:"name"`
	ShareBps uint32 `json:"shareBps"`
}

func (s *Server) handleRewardsRegister(req *RPCRequest) (interface{}, *RPCError) {
	var params rewardsRegisterParams
	if err := decodeParams(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	if err := s.rewards.RegisterPool(params.Name, params.ShareBps); err != nil {
		return nil, invalidParams(err)
	}
	return map[string]bool{"ok": true}, nil
}

type rewardPoolResult struct {
	Name     string `json:"name"`
	ShareBps uint32 `json:"shareBps"`
}

func (s *Server) handleRewardsList(req *RPCRequest) (interface{}, *RPCError) {
	allocations, err := s.rewards.Allocations()
	if err != nil {
		return nil, serverError(err)
	}
	out := make([]rewardPoolResult, 0, len(allocations))
	for _, pool := range allocations {
		out = append(out, rewardPoolResult{Name: pool.Name, ShareBps: pool.ShareBps})
	}
	return out, nil
}
