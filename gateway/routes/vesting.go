package routes

import "net/http"

type amountRequest struct {
	Amount string `json:"amount"`
}

type lockRequest struct {
	Duration uint64 `json:"duration"`
	Amount   string `json:"amount"`
}

type amountResponse struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (a *api) startVesting(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	s, err := a.backend.StartVesting(caller(r), amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vestingResponse{
		Start:      s.Start,
		Total:      amountString(s.Total),
		Claimed:    amountString(s.Claimed),
		Vested:     "0",
		Releasable: "0",
	})
}

func (a *api) claimVesting(w http.ResponseWriter, r *http.Request) {
	holder := caller(r)
	amount, err := a.backend.ClaimVestedTokens(holder)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, amountResponse{Address: addressString(holder), Amount: amountString(amount)})
}

type earlyWithdrawResponse struct {
	Vested       string `json:"vested"`
	Refund       string `json:"refund"`
	Penalty      string `json:"penalty"`
	PenaltyRate  string `json:"penaltyRate"`
	FeeCollector string `json:"feeCollector"`
}

func (a *api) earlyWithdraw(w http.ResponseWriter, r *http.Request) {
	out, err := a.backend.EarlyWithdraw(caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, earlyWithdrawResponse{
		Vested:       amountString(out.Vested),
		Refund:       amountString(out.Refund),
		Penalty:      amountString(out.Penalty),
		PenaltyRate:  amountString(out.PenaltyRate),
		FeeCollector: addressString(out.FeeCollector),
	})
}

type cancelResponse struct {
	Vested   string `json:"vested"`
	Returned string `json:"returned"`
}

func (a *api) cancelVesting(w http.ResponseWriter, r *http.Request) {
	out, err := a.backend.CancelVesting(caller(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Vested: amountString(out.Vested), Returned: amountString(out.Returned)})
}

func (a *api) lock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	l, err := a.backend.Lock(caller(r), req.Duration, amount)
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
