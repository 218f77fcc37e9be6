package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/storage"
)

// TrendMonths is the fixed reporting window of the trend series.
const TrendMonths = 6

// ReportService computes the derived aggregates: summary totals, monthly
// budget status and the trailing net trend. Summary and trend are cached per
// user; every ledger mutation drops the user's entries.
type ReportService struct {
	storage   *storage.SQLiteRepository
	summaries *cache.LRUCache[core.Summary]
	trends    *cache.LRUCache[[]core.TrendPoint]
}

func NewReportService(st *storage.SQLiteRepository) *ReportService {
	return &ReportService{
		storage:   st,
		summaries: cache.NewLRUCache[core.Summary](100, 5*time.Minute),
		trends:    cache.NewLRUCache[[]core.TrendPoint](100, 5*time.Minute),
	}
}

// Summary returns all-time income/expense totals, the balance across the
// user's accounts and the transaction count. A user with no data gets zeros.
func (s *ReportService) Summary(ctx context.Context, userID int64) (core.Summary, error) {
	key := strconv.FormatInt(userID, 10) + ":summary"
	if cached, found := s.summaries.Get(key); found {
		slog.DebugContext(ctx, "Summary cache hit", "user_id", userID)
		return cached, nil
	}

	summary, err := s.storage.Summary(ctx, userID)
	if err != nil {
		return core.Summary{}, fmt.Errorf("compute summary: %w", err)
	}

	s.summaries.Set(key, summary)
	return summary, nil
}

// BudgetStatus returns one row per budget the user holds for the month.
// A malformed month yields an empty result rather than an error.
func (s *ReportService) BudgetStatus(ctx context.Context, userID int64, month string) ([]core.BudgetStatus, error) {
	m, err := core.ParseMonth(month)
	if err != nil {
		slog.DebugContext(ctx, "Ignoring malformed budget month", "user_id", userID, "month", month)
		return []core.BudgetStatus{}, nil
	}

	statuses, err := s.storage.BudgetStatus(ctx, userID, m)
	if err != nil {
		return nil, fmt.Errorf("compute budget status: %w", err)
	}
	if statuses == nil {
		statuses = []core.BudgetStatus{}
	}
	return statuses, nil
}

// Trend returns the six calendar months ending with now's month, oldest
// first, each with its income/expense/net totals. Months without
// transactions report zeros.
func (s *ReportService) Trend(ctx context.Context, userID int64, now time.Time) ([]core.TrendPoint, error) {
	months := core.TrailingMonths(now, TrendMonths)
	key := strconv.FormatInt(userID, 10) + ":trend:" + months[len(months)-1].String()
	if cached, found := s.trends.Get(key); found {
		slog.DebugContext(ctx, "Trend cache hit", "user_id", userID)
		return cached, nil
	}

	start := core.Date{Time: months[0].Start()}
	end := months[len(months)-1].End()
	totals, err := s.storage.MonthTotals(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("compute trend: %w", err)
	}

	points := make([]core.TrendPoint, len(months))
	for i, m := range months {
		point := totals[m.String()]
		point.Month = m
		points[i] = point
	}

	s.trends.Set(key, points)
	return points, nil
}

// Invalidate drops the user's cached aggregates. Called by the ledger after
// every successful mutation.
func (s *ReportService) Invalidate(userID int64) {
	prefix := strconv.FormatInt(userID, 10) + ":"
	s.summaries.DeletePrefix(prefix)
	s.trends.DeletePrefix(prefix)
}

// CleanExpired removes expired cache entries and returns how many were
// dropped. The HTTP server runs this periodically.
func (s *ReportService) CleanExpired() int {
	return s.summaries.CleanExpired() + s.trends.CleanExpired()
}
