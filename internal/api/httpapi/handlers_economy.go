package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type transferRequest struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Tax         decimal.Decimal `json:"tax"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

type loanRequest struct {
	Actor        string          `json:"actor"`
	Amount       decimal.Decimal `json:"amount"`
	DurationDays int             `json:"duration_days"`
}

type loanResponse struct {
	Loan    loanView        `json:"loan"`
	Balance decimal.Decimal `json:"balance"`
}

type repayRequest struct {
	Actor  string          `json:"actor"`
	Amount decimal.Decimal `json:"amount"`
}

type repayResponse struct {
	Loan    loanView        `json:"loan"`
	Paid    decimal.Decimal `json:"paid"`
	Balance decimal.Decimal `json:"balance"`
	Settled bool            `json:"settled"`
}

type leaderboardResponse struct {
	Accounts []accountView `json:"accounts"`
}

type settlementRunsResponse struct {
	Runs []settlementRunView `json:"runs"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.Transfer(r.Context(), req.From, req.To, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transferResponse{
		From:        result.FromActorID,
		To:          result.ToActorID,
		Amount:      result.Amount,
		Tax:         result.Tax,
		FromBalance: result.FromBalance,
		ToBalance:   result.ToBalance,
	})
}

func (s *Server) handleLoanRequest(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.RequestLoan(r.Context(), req.Actor, req.Amount, req.DurationDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loanResponse{Loan: newLoanView(result.Loan), Balance: result.Balance})
}

func (s *Server) handleLoanRepay(w http.ResponseWriter, r *http.Request) {
	var req repayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.RepayLoan(r.Context(), req.Actor, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, repayResponse{
		Loan:    newLoanView(result.Loan),
		Paid:    result.Paid,
		Balance: result.Balance,
		Settled: result.Settled,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.TopAccounts(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]accountView, 0, len(accounts))
	for _, account := range accounts {
		views = append(views, newAccountView(account))
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Accounts: views})
}

func (s *Server) handleSettlementRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.emitter.Runs(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]settlementRunView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newSettlementRunView(run))
	}
	writeJSON(w, http.StatusOK, settlementRunsResponse{Runs: views})
}
