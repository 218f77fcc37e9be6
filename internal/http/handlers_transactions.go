package http

import (
	"net/http"
	"strconv"
	"strings"

	"financas/internal/core"
)

type transactionPayload struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name,omitempty"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

func transactionToPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          t.ID,
		AccountID:   t.AccountID,
		AccountName: t.AccountName,
		Type:        string(t.Type),
		Category:    t.Category,
		Description: t.Description,
		Amount:      formatCents(t.Amount.Cents),
		Date:        t.Date.String(),
	}
}

type transactionRequest struct {
	AccountID   int64  `json:"account_id"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
}

// toDomain builds the validated-later domain value from the raw payload.
func (req transactionRequest) toDomain(userID int64) (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		UserID:      userID,
		AccountID:   req.AccountID,
		Type:        core.TransactionType(req.Type),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
		Date:        date,
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := req.toDomain(currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, apiResponse{OK: true, Data: map[string]any{"id": id}})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := req.toDomain(currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}
	tx.ID = id

	if err := s.ledger.UpdateTransaction(r.Context(), tx); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "updated")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.ledger.DeleteTransaction(r.Context(), currentUser(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "deleted")
}

// parseTransactionFilter reads the AND-combined query filters. Malformed
// values are rejected rather than silently ignored.
func parseTransactionFilter(r *http.Request) (core.TransactionFilter, error) {
	var f core.TransactionFilter
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.StartDate = d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.EndDate = d
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		f.Type = core.TransactionType(v)
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	if v := strings.TrimSpace(q.Get("account_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, core.ErrInvalidAccountID
		}
		f.AccountID = id
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), currentUser(r), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]transactionPayload, len(txs))
	for i, t := range txs {
		payload[i] = transactionToPayload(t)
	}
	writeData(w, payload)
}
