package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/stratafi/governance/voting/poolballot"
	"github.com/stratafi/governance/voting/rateballot"
	"github.com/stratafi/governance/voting/relweight"
	"github.com/stratafi/governance/voting/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

type rateResponse struct {
	Timestamp uint64 `json:"timestamp"`
	Rate      string `json:"rate"`
}

type rateOptionsResponse struct {
	Options []string `json:"options"`
}

type rateReceiptResponse struct {
	Amount     string `json:"amount"`
	UnlockTime uint64 `json:"unlockTime"`
	Option     uint64 `json:"option"`
}

type castRateRequest struct {
	Voter  string `json:"voter"`
	Option uint64 `json:"option"`
}

type poolsResponse struct {
	Pools []string `json:"pools"`
}

type addPoolRequest struct {
	Caller string `json:"caller"`
	Pool   string `json:"pool"`
}

type poolWeightsResponse struct {
	Timestamp uint64   `json:"timestamp"`
	Weights   []string `json:"weights"`
}

type castPoolRequest struct {
	Voter   string   `json:"voter"`
	Weights []string `json:"weights"`
}

type fundWeightResponse struct {
	Fund   string `json:"fund"`
	Week   uint64 `json:"week"`
	Weight string `json:"weight"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Could not encode response")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, &errorResponse{Error: err.Error()})
}

// statusForCastError maps the engine's sentinel errors onto HTTP codes.
// Anything unrecognized is a server-side failure.
func statusForCastError(err error) int {
	switch {
	case errors.Is(err, rateballot.ErrInvalidOption),
		errors.Is(err, poolballot.ErrWrongLength),
		errors.Is(err, poolballot.ErrWeightsTooLarge),
		errors.Is(err, types.ErrZeroBalance):
		return http.StatusBadRequest
	case errors.Is(err, poolballot.ErrNotRegistrar):
		return http.StatusForbidden
	case errors.Is(err, poolballot.ErrPoolAlreadyAdded),
		errors.Is(err, relweight.ErrPreviousWeekEmpty),
		errors.Is(err, relweight.ErrWeekNotComplete):
		return http.StatusConflict
	case errors.Is(err, relweight.ErrUnknownFund):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// timestampParam reads an optional ?timestamp= query, defaulting to now.
func timestampParam(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("timestamp")
	if raw == "" {
		return uint64(time.Now().Unix()), nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("malformed address %q", s)
	}
	return common.HexToAddress(s), nil
}

func parseWad(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok || b.Sign() < 0 {
		return nil, errors.Errorf("malformed weight %q", s)
	}
	z, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Errorf("weight %q overflows 256 bits", s)
	}
	return z, nil
}

func (s *Service) rateHandler(w http.ResponseWriter, r *http.Request) {
	t, err := timestampParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, &rateResponse{
		Timestamp: t,
		Rate:      s.cfg.RateBallot.Count(t).ToBig().String(),
	})
}

func (s *Service) rateOptionsHandler(w http.ResponseWriter, _ *http.Request) {
	opts := s.cfg.RateBallot.Options()
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.ToBig().String()
	}
	writeJSON(w, http.StatusOK, &rateOptionsResponse{Options: out})
}

func (s *Service) castRateHandler(w http.ResponseWriter, r *http.Request) {
	var req castRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	voter, err := parseAddress(req.Voter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.cfg.RateBallot.Cast(r.Context(), voter, req.Option); err != nil {
		writeError(w, statusForCastError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) rateReceiptHandler(w http.ResponseWriter, r *http.Request) {
	voter, err := parseAddress(mux.Vars(r)["account"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	receipt, ok := s.cfg.RateBallot.Receipt(voter)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("voter never cast"))
		return
	}
	writeJSON(w, http.StatusOK, &rateReceiptResponse{
		Amount:     receipt.Amount.ToBig().String(),
		UnlockTime: receipt.UnlockTime,
		Option:     receipt.Option,
	})
}

func (s *Service) poolsHandler(w http.ResponseWriter, _ *http.Request) {
	pools := s.cfg.PoolBallot.Pools()
	out := make([]string, len(pools))
	for i, p := range pools {
		out[i] = p.Hex()
	}
	writeJSON(w, http.StatusOK, &poolsResponse{Pools: out})
}

func (s *Service) addPoolHandler(w http.ResponseWriter, r *http.Request) {
	var req addPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	pool, err := parseAddress(req.Pool)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.cfg.PoolBallot.AddPool(caller, pool); err != nil {
		writeError(w, statusForCastError(err), err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Service) poolWeightsHandler(w http.ResponseWriter, r *http.Request) {
	t, err := timestampParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	weights := s.cfg.PoolBallot.Count(t)
	out := make([]string, len(weights))
	for i, wt := range weights {
		out[i] = wt.ToBig().String()
	}
	writeJSON(w, http.StatusOK, &poolWeightsResponse{Timestamp: t, Weights: out})
}

func (s *Service) castPoolHandler(w http.ResponseWriter, r *http.Request) {
	var req castPoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	voter, err := parseAddress(req.Voter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	weights := make([]*uint256.Int, len(req.Weights))
	for i, raw := range req.Weights {
		if weights[i], err = parseWad(raw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := s.cfg.PoolBallot.Cast(r.Context(), voter, weights); err != nil {
		writeError(w, statusForCastError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) fundWeightHandler(w http.ResponseWriter, r *http.Request) {
	fund, err := parseAddress(mux.Vars(r)["fund"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	week, err := strconv.ParseUint(r.URL.Query().Get("week"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.Wrap(err, "week query parameter required"))
		return
	}
	weight, err := s.cfg.Controller.FundRelativeWeight(r.Context(), fund, week)
	if err != nil {
		writeError(w, statusForCastError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, &fundWeightResponse{
		Fund:   fund.Hex(),
		Week:   week,
		Weight: weight.ToBig().String(),
	})
}
