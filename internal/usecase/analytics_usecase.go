package usecase

import (
	"context"
	"time"

	repo "perfumeshop/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalyticsDays = 30
	maxAnalyticsDays     = 366
	topProductsLimit     = 5
)

type AnalyticsUsecase struct {
	analytics repo.AnalyticsRepository
	now       func() time.Time
}

func NewAnalyticsUsecase(analytics repo.AnalyticsRepository) *AnalyticsUsecase {
	return &AnalyticsUsecase{analytics: analytics, now: time.Now}
}

type DailyPoint struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Orders  int64  `json:"orders"`
}

type TopProduct struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Units     int64  `json:"units"`
	Revenue   int64  `json:"revenue"`
}

type AnalyticsSummary struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	Revenue           int64            `json:"revenue"`
	OrderCount        int64            `json:"order_count"`
	AverageOrderValue int64            `json:"average_order_value"`
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	TopProducts       []TopProduct     `json:"top_products"`
	NewCustomers      int64            `json:"new_customers"`
	Daily             []DailyPoint     `json:"daily"`
}

// 期間の既定は直近30日（UTCの日単位、toは翌日0時）
func (u *AnalyticsUsecase) resolveRange(from, to *time.Time) (time.Time, time.Time, error) {
	end := truncateDay(u.now().UTC()).AddDate(0, 0, 1)
	if to != nil {
		end = to.UTC()
	}
	start := truncateDay(end).AddDate(0, 0, -defaultAnalyticsDays)
	if from != nil {
		start = from.UTC()
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, errBadRequest("from must be before to")
	}
	if end.Sub(start) > maxAnalyticsDays*24*time.Hour {
		return time.Time{}, time.Time{}, errBadRequest("range too large")
	}
	return start, end, nil
}

// Summary は売上サマリ。集計クエリは並列に投げる
func (u *AnalyticsUsecase) Summary(ctx context.Context, from, to *time.Time) (AnalyticsSummary, error) {
	start, end, err := u.resolveRange(from, to)
	if err != nil {
		return AnalyticsSummary{}, err
	}

	var (
		totals   repo.SalesTotals
		byStatus []repo.StatusCount
		top      []repo.ProductSales
		newCust  int64
		daily    []repo.DailyRevenue
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = u.analytics.SalesTotals(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = u.analytics.OrdersByStatus(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = u.analytics.TopProducts(gctx, start, end, topProductsLimit)
		return err
	})
	g.Go(func() error {
		var err error
		newCust, err = u.analytics.NewCustomers(gctx, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		daily, err = u.analytics.DailyRevenue(gctx, start, end)
		return err
	})
	if err := g.Wait(); err != nil {
		return AnalyticsSummary{}, errDB()
	}

	out := AnalyticsSummary{
		From:              start,
		To:                end,
		Revenue:           totals.Revenue,
		OrderCount:        totals.OrderCount,
		AverageOrderValue: averageOrderValue(totals.Revenue, totals.OrderCount),
		OrdersByStatus:    map[string]int64{},
		TopProducts:       make([]TopProduct, 0, len(top)),
		NewCustomers:      newCust,
		Daily:             FillDailySeries(start, end, daily),
	}
	for _, s := range byStatus {
		out.OrdersByStatus[s.Status] = s.Count
	}
	for _, p := range top {
		out.TopProducts = append(out.TopProducts, TopProduct{
			ProductID: p.ProductID,
			Name:      p.Name,
			Units:     p.Units,
			Revenue:   p.Revenue,
		})
	}
	return out, nil
}

func averageOrderValue(revenue, orders int64) int64 {
	if orders <= 0 {
		return 0
	}
	return decimal.NewFromInt(revenue).
		Div(decimal.NewFromInt(orders)).
		Round(0).
		IntPart()
}

// FillDailySeries は [from, to) の全日を並べ、売上の無い日は0で埋める
func FillDailySeries(from, to time.Time, rows []repo.DailyRevenue) []DailyPoint {
	byDay := make(map[string]repo.DailyRevenue, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r
	}

	out := []DailyPoint{}
	for d := truncateDay(from.UTC()); d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		r := byDay[key]
		out = append(out, DailyPoint{Date: key, Revenue: r.Revenue, Orders: r.Orders})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
