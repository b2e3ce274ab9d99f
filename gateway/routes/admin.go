package routes

import (
	"fmt"
	"net/http"

	"nutvest/native/schedule"
)

type overrideLockRequest struct {
	Account   string `json:"account"`
	Timestamp uint64 `json:"timestamp"`
	Amount    string `json:"amount"`
}

func (a *api) overrideLock(w http.ResponseWriter, r *http.Request) {
	var req overrideLockRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	l, err := a.backend.OverrideLockEndTime(caller(r), account, req.Timestamp, amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{
		UnlockAt: l.UnlockAt,
		Amount:   amountString(l.Amount),
		AdminSet: l.AdminSet,
		Active:   true,
	})
}

type feeCollectorRequest struct {
	Address string `json:"address"`
}

func (a *api) setFeeCollector(w http.ResponseWriter, r *http.Request) {
	var req feeCollectorRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	collector, err := parseAddress(req.Address)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.backend.SetFeeCollector(caller(r), collector); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feeCollectorRequest{Address: addressString(collector)})
}

type trancheRequest struct {
	Timestamp uint64 `json:"timestamp"`
	Amount    string `json:"amount"`
}

type scheduleRequest struct {
	Tranches []trancheRequest `json:"tranches"`
}

func (a *api) setSchedule(w http.ResponseWriter, r *http.Request) {
	account, err := addressParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	var req scheduleRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	tranches := make([]schedule.Tranche, len(req.Tranches))
	for i, t := range req.Tranches {
		amount, err := parseAmount(t.Amount)
		if err != nil {
			a.fail(w, r, fmt.Errorf("tranche %d: %w", i, err))
			return
		}
		tranches[i] = schedule.Tranche{Timestamp: t.Timestamp, Amount: amount}
	}
	s, err := a.backend.SetSchedule(caller(r), account, tranches)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := scheduleResponse{
		Cursor:     s.Cursor,
		Total:      amountString(s.Total()),
		Unreleased: amountString(s.Unreleased()),
		Tranches:   make([]trancheResponse, len(s.Tranches)),
	}
	for i, t := range s.Tranches {
		resp.Tranches[i] = trancheResponse{Timestamp: t.Timestamp, Amount: amountString(t.Amount)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) cancelSchedule(w http.ResponseWriter, r *http.Request) {
	account, err := addressParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	returned, err := a.backend.CancelSchedule(caller(r), account)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Address: addressString(account), Amount: amountString(returned)})
}

// vestSchedule is open to any caller.
func (a *api) vestSchedule(w http.ResponseWriter, r *http.Request) {
	account, err := addressParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	released, err := a.backend.VestTokens(caller(r), account)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Address: addressString(account), Amount: amountString(released)})
}
