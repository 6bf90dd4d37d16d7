package repository

import (
	"context"
	"time"
)

type SalesTotals struct {
	Revenue    int64
	OrderCount int64
}

type StatusCount struct {
	Status string
	Count  int64
}

type ProductSales struct {
	ProductID int64
	Name      string
	Units     int64
	Revenue   int64
}

type DailyRevenue struct {
	Day     string // YYYY-MM-DD
	Revenue int64
	Orders  int64
}

// 集計はすべて [from, to) 、CANCELEDは売上に含めない
type AnalyticsRepository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error)
	OrdersByStatus(ctx context.Context, from, to time.Time) ([]StatusCount, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error)
	NewCustomers(ctx context.Context, from, to time.Time) (int64, error)
	DailyRevenue(ctx context.Context, from, to time.Time) ([]DailyRevenue, error)
}
