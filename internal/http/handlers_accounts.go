package http

import (
	"net/http"
	"time"

	"financas/internal/core"
)

type accountPayload struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
	CurrentBalance string `json:"current_balance"`
	CreatedAt      string `json:"created_at,omitempty"`
}

func accountToPayload(a core.Account) accountPayload {
	return accountPayload{
		ID:             a.ID,
		Name:           a.Name,
		Type:           string(a.Type),
		InitialBalance: formatCents(a.InitialBalance.Cents),
		CurrentBalance: formatCents(a.CurrentBalance.Cents),
		CreatedAt:      a.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.ledger.ListAccounts(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]accountPayload, len(accounts))
	for i, a := range accounts {
		payload[i] = accountToPayload(a)
	}
	writeData(w, payload)
}

type createAccountRequest struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	InitialBalance string `json:"initial_balance"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Initial balance defaults to zero and may be negative (credit)
	var initial core.Money
	if req.InitialBalance != "" {
		cents, err := core.ParseSignedDecimalToCents(req.InitialBalance)
		if err != nil {
			writeError(w, err)
			return
		}
		initial = core.Money{Cents: cents}
	}

	acc, err := s.ledger.CreateAccount(r.Context(), currentUser(r), sanitizeInput(req.Name), core.AccountType(req.Type), initial)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, apiResponse{OK: true, Data: accountToPayload(acc)})
}
