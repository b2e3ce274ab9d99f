package routes

import (
	"net/http"

	"nutvest/core"
)

type vestingResponse struct {
	Start      uint64 `json:"start"`
	Total      string `json:"total"`
	Claimed    string `json:"claimed"`
	Vested     string `json:"vested"`
	Releasable string `json:"releasable"`
}

type lockResponse struct {
	UnlockAt uint64 `json:"unlockAt"`
	Amount   string `json:"amount"`
	AdminSet bool   `json:"adminSet"`
	Active   bool   `json:"active"`
}

type trancheResponse struct {
	Timestamp uint64 `json:"timestamp"`
	Amount    string `json:"amount"`
	Released  bool   `json:"released"`
}

type scheduleResponse struct {
	Cursor     int               `json:"cursor"`
	Total      string            `json:"total"`
	Unreleased string            `json:"unreleased"`
	Tranches   []trancheResponse `json:"tranches"`
}

type accountResponse struct {
	Address  string            `json:"address"`
	Balances map[string]string `json:"balances"`
	Vesting  *vestingResponse  `json:"vesting,omitempty"`
	Lock     *lockResponse     `json:"lock,omitempty"`
	Schedule *scheduleResponse `json:"schedule,omitempty"`
	Now      uint64            `json:"now"`
}

func newAccountResponse(view *core.AccountView) accountResponse {
	out := accountResponse{
		Address: addressString(view.Address),
		Balances: map[string]string{
			"NUT":   amountString(view.NUT),
			"esNUT": amountString(view.EsNUT),
		},
		Now: view.Now,
	}
	if view.Vesting.Active() {
		out.Vesting = &vestingResponse{
			Start:      view.Vesting.Start,
			Total:      amountString(view.Vesting.Total),
			Claimed:    amountString(view.Vesting.Claimed),
			Vested:     amountString(view.Vested),
			Releasable: amountString(view.Releasable),
		}
	}
	if view.Lock != nil {
		out.Lock = &lockResponse{
			UnlockAt: view.Lock.UnlockAt,
			Amount:   amountString(view.Lock.Amount),
			AdminSet: view.Lock.AdminSet,
			Active:   view.LockActive,
		}
	}
	if s := view.Schedule; s != nil {
		resp := &scheduleResponse{
			Cursor:     s.Cursor,
			Total:      amountString(s.Total()),
			Unreleased: amountString(s.Unreleased()),
			Tranches:   make([]trancheResponse, len(s.Tranches)),
		}
		for i, t := range s.Tranches {
			resp.Tranches[i] = trancheResponse{Timestamp: t.Timestamp, Amount: amountString(t.Amount), Released: i < s.Cursor}
		}
		out.Schedule = resp
	}
	return out
}

func (a *api) getAccount(w http.ResponseWriter, r *http.Request) {
	addr, err := addressParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	view, err := a.backend.Account(addr)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(view))
}
