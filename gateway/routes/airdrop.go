package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nutvest/native/airdrop"
	"nutvest/native/merkle"
)

type distributionResponse struct {
	ID          string `json:"id"`
	Token       string `json:"token"`
	Root        string `json:"root"`
	Custody     string `json:"custody"`
	Total       string `json:"total"`
	Claimed     string `json:"claimed"`
	Remaining   string `json:"remaining"`
	ClaimCount  uint64 `json:"claimCount"`
	PublishedAt uint64 `json:"publishedAt"`
}

func newDistributionResponse(d *airdrop.Distribution) distributionResponse {
	return distributionResponse{
		ID:          d.ID,
		Token:       d.Token,
		Root:        d.Root.Hex(),
		Custody:     addressString(d.Custody),
		Total:       amountString(d.Total),
		Claimed:     amountString(d.Claimed),
		Remaining:   amountString(d.Remaining()),
		ClaimCount:  d.ClaimCount,
		PublishedAt: d.PublishedAt,
	}
}

func (a *api) listDistributions(w http.ResponseWriter, r *http.Request) {
	list, err := a.backend.Distributions()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	out := make([]distributionResponse, 0, len(list))
	for _, d := range list {
		out = append(out, newDistributionResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) getDistribution(w http.ResponseWriter, r *http.Request) {
	d, err := a.backend.Distribution(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDistributionResponse(d))
}

type claimStatusResponse struct {
	Distribution string `json:"distribution"`
	Index        uint64 `json:"index"`
	Claimed      bool   `json:"claimed"`
}

func (a *api) getClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := parseUint(chi.URLParam(r, "index"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	claimed, err := a.backend.IsClaimed(id, index)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimStatusResponse{Distribution: id, Index: index, Claimed: claimed})
}

type proofResponse struct {
	Distribution string `json:"distribution"`
	Address      string `json:"address"`
	merkle.ProofDocument
}

func (a *api) getProof(w http.ResponseWriter, r *http.Request) {
	if a.proofs == nil {
		a.fail(w, r, fmt.Errorf("proof index not configured"))
		return
	}
	id := chi.URLParam(r, "id")
	account, err := addressParam(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	doc, err := a.proofs.Lookup(r.Context(), id, account)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, proofResponse{Distribution: id, Address: addressString(account), ProofDocument: *doc})
}

type claimRequest struct {
	Index   *uint64  `json:"index"`
	Address string   `json:"address"`
	Amount  string   `json:"amount"`
	Proof   []string `json:"proof"`
}

type claimResponse struct {
	Distribution string `json:"distribution"`
	Index        uint64 `json:"index"`
	Address      string `json:"address"`
	Amount       string `json:"amount"`
	Claimed      bool   `json:"claimed"`
}

// postClaim settles a claim. A repeated claim answers 409 already_claimed so
// pollers can treat it as done.
func (a *api) postClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Index == nil {
		a.fail(w, r, fmt.Errorf("%w: index required", errBadRequest))
		return
	}
	account, err := parseAddress(req.Address)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	proof, err := merkle.ParseHashes(req.Proof)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.backend.Claim(caller(r), id, *req.Index, account, amount, proof); err != nil {
		if errors.Is(err, airdrop.ErrAlreadyClaimed) {
			w.Header().Set("X-Claim-Index", strconv.FormatUint(*req.Index, 10))
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		Distribution: id,
		Index:        *req.Index,
		Address:      addressString(account),
		Amount:       amount.String(),
		Claimed:      true,
	})
}
