package httpapi

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

type mutationResponse struct {
	ActorID string          `json:"actor_id"`
	Amount  decimal.Decimal `json:"amount"`
	Balance decimal.Decimal `json:"balance"`
}

type statsResponse struct {
	Account    accountView `json:"account"`
	ActiveLoan *loanView   `json:"active_loan,omitempty"`
	Cached     bool        `json:"cached"`
}

type transactionsResponse struct {
	Transactions []transactionView `json:"transactions"`
}

type bonusResponse struct {
	ActorID     string          `json:"actor_id"`
	Claimed     bool            `json:"claimed"`
	Granted     decimal.Decimal `json:"granted"`
	Balance     decimal.Decimal `json:"balance"`
	WaitHours   int             `json:"wait_hours"`
	WaitMinutes int             `json:"wait_minutes"`
}

func pathActor(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("actor"))
}

func (s *Server) handleAccountLoad(w http.ResponseWriter, r *http.Request) {
	account, err := s.ledger.Load(r.Context(), pathActor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newAccountView(account))
}

func (s *Server) handleAccountEvict(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.Evict(r.Context(), pathActor(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAccountStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.ledger.Stats(r.Context(), pathActor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := statsResponse{Account: newAccountView(stats.Account), Cached: stats.Cached}
	if stats.ActiveLoan != nil {
		view := newLoanView(*stats.ActiveLoan)
		resp.ActiveLoan = &view
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccountTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledger.History(r.Context(), pathActor(r), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: newTransactionViews(transactions)})
}

func (s *Server) handleAccountSetBalance(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.SetBalance(r.Context(), pathActor(r), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{ActorID: result.ActorID, Amount: result.Amount, Balance: result.Balance})
}

func (s *Server) handleAccountCredit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.Credit(r.Context(), pathActor(r), req.Amount, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{ActorID: result.ActorID, Amount: result.Amount, Balance: result.Balance})
}

func (s *Server) handleAccountDebit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.ledger.Debit(r.Context(), pathActor(r), req.Amount, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{ActorID: result.ActorID, Amount: result.Amount, Balance: result.Balance})
}

func (s *Server) handleAccountBonus(w http.ResponseWriter, r *http.Request) {
	result, err := s.ledger.ClaimDailyBonus(r.Context(), pathActor(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	hours, minutes := result.WaitHoursMinutes()
	writeJSON(w, http.StatusOK, bonusResponse{
		ActorID:     result.ActorID,
		Claimed:     result.Claimed,
		Granted:     result.Granted,
		Balance:     result.Balance,
		WaitHours:   hours,
		WaitMinutes: minutes,
	})
}
