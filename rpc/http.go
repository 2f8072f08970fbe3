package rpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"personachain/native/fees"
	"personachain/native/pairing"
	"personachain/native/persona"
	"personachain/native/rewards"
	"personachain/native/treasury"
	"personachain/observability/metrics"
)

type handlerFunc func(req *RPCRequest) (interface{}, *RPCError)

// Server exposes the launchpad engines over JSON-RPC 2.0.
type Server struct {
	ledger   *persona.Ledger
	engine   *persona.IssuanceEngine
	pairings *pairing.Registry
	fees     *fees.Engine
	treasury *treasury.Engine
	rewards  *rewards.Registry

	log      *slog.Logger
	limiter  *rate.Limiter
	handlers map[string]handlerFunc
}

// NewServer wires the launchpad engines into an RPC dispatch table.
func NewServer(ledger *persona.Ledger, engine *persona.IssuanceEngine, pairings *pairing.Registry, feeEngine *fees.Engine, treasuryEngine *treasury.Engine, rewardRegistry *rewards.Registry, log *slog.Logger, requestsPerSecond int) *Server {
	if log == nil {
		log = slog.Default()
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 50
	}
	s := &Server{
		ledger:   ledger,
		engine:   engine,
		pairings: pairings,
		fees:     feeEngine,
		treasury: treasuryEngine,
		rewards:  rewardRegistry,
		log:      log,
		limiter:  rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond*2),
	}
	s.handlers = map[string]handlerFunc{
		"persona_create":         s.handlePersonaCreate,
		"persona_get":            s.handlePersonaGet,
		"persona_quote":          s.handlePersonaQuote,
		"persona_purchase":       s.handlePersonaPurchase,
		"persona_withdraw":       s.handlePersonaWithdraw,
		"persona_withdrawLock":   s.handlePersonaWithdrawLock,
		"persona_updateMetadata": s.handlePersonaUpdateMetadata,
		"pairing_configure":      s.handlePairingConfigure,
		"pairing_disable":        s.handlePairingDisable,
		"pairing_get":            s.handlePairingGet,
		"fees_configure":         s.handleFeesConfigure,
		"fees_configureLoyalty":  s.handleFeesConfigureLoyalty,
		"treasury_claim":         s.handleTreasuryClaim,
		"rewards_register":       s.handleRewardsRegister,
		"rewards_list":           s.handleRewardsList,
	}
	return s
}

// Router builds the HTTP mux with health and metrics endpoints alongside the
// RPC entrypoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.ServeHTTP)
	return r
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := RPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message, Data: data}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	resp := RPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// ServeHTTP handles a single JSON-RPC request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, nil, codeServerError, "rate limit exceeded", nil)
		return
	}
	if r.Body == nil {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}
	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}
	handler, ok := s.handlers[req.Method]
	if !ok {
		metrics.Launchpad().RPCRequests.WithLabelValues(req.Method, "unknown").Inc()
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method "+req.Method, nil)
		return
	}

	start := time.Now()
	result, rpcErr := handler(&req)
	metrics.Launchpad().RPCLatency.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	if rpcErr != nil {
		metrics.Launchpad().RPCRequests.WithLabelValues(req.Method, "error").Inc()
		s.log.Warn("rpc call failed", "method", req.Method, "code", rpcErr.Code, "message", rpcErr.Message)
		status := http.StatusBadRequest
		if rpcErr.Code == codeServerError {
			status = http.StatusInternalServerError
		}
		writeError(w, status, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	metrics.Launchpad().RPCRequests.WithLabelValues(req.Method, "ok").Inc()
	writeResult(w, req.ID, result)
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: err.Error()}
}

func serverError(err error) *RPCError {
	return &RPCError{Code: codeServerError, Message: err.Error()}
}
