package http

import (
	"net/http"
	"time"

	"financas/internal/core"
)

type summaryPayload struct {
	Income       string `json:"income"`
	Expense      string `json:"expense"`
	Balance      string `json:"balance"`
	Transactions int64  `json:"transactions"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Summary(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, summaryPayload{
		Income:       formatCents(summary.Income.Cents),
		Expense:      formatCents(summary.Expense.Cents),
		Balance:      formatCents(summary.Balance.Cents),
		Transactions: summary.Transactions,
	})
}

type budgetStatusPayload struct {
	Category  string  `json:"category"`
	Limit     string  `json:"limit"`
	Spent     string  `json:"spent"`
	Remaining string  `json:"remaining"`
	Percent   float64 `json:"percent"`
	State     string  `json:"state"`
}

// handleBudgets reports the per-category status for one month. The month
// query parameter defaults to the current month.
func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = core.MonthOf(time.Now()).String()
	}

	statuses, err := s.reports.BudgetStatus(r.Context(), currentUser(r), month)
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]budgetStatusPayload, len(statuses))
	for i, st := range statuses {
		payload[i] = budgetStatusPayload{
			Category:  st.Category,
			Limit:     formatCents(st.Limit.Cents),
			Spent:     formatCents(st.Spent.Cents),
			Remaining: formatCents(st.Remaining.Cents),
			Percent:   st.Percent,
			State:     string(st.State),
		}
	}
	writeData(w, payload)
}

type setBudgetRequest struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Limit    string `json:"limit"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req setBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	month, err := core.ParseMonth(req.Month)
	if err != nil {
		writeError(w, err)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}

	err = s.ledger.SetBudget(r.Context(), core.Budget{
		UserID:   currentUser(r),
		Month:    month,
		Category: sanitizeInput(req.Category),
		Limit:    core.Money{Cents: cents},
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "budget set")
}

type trendPointPayload struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	points, err := s.reports.Trend(r.Context(), currentUser(r), time.Now())
	if err != nil {
		writeError(w, err)
		return
	}

	payload := make([]trendPointPayload, len(points))
	for i, p := range points {
		payload[i] = trendPointPayload{
			Month:   p.Month.String(),
			Income:  formatCents(p.Income.Cents),
			Expense: formatCents(p.Expense.Cents),
			Net:     formatCents(p.Net.Cents),
		}
	}
	writeData(w, payload)
}
