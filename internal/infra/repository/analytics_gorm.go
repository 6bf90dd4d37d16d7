package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
)

type AnalyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) *AnalyticsGormRepository {
	return &AnalyticsGormRepository{db: db}
}

// 売上対象の注文（期間内、キャンセル以外）
func (r *AnalyticsGormRepository) salesOrders(ctx context.Context, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("status <> ? AND created_at >= ? AND created_at < ?", model.OrderStatusCanceled, from, to)
}

func (r *AnalyticsGormRepository) SalesTotals(ctx context.Context, from, to time.Time) (repo.SalesTotals, error) {
	var out repo.SalesTotals
	err := r.salesOrders(ctx, from, to).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS order_count").
		Scan(&out).Error
	return out, err
}

// キャンセルも含めた件数
func (r *AnalyticsGormRepository) OrdersByStatus(ctx context.Context, from, to time.Time) ([]repo.StatusCount, error) {
	out := []repo.StatusCount{}
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("status").
		Order("status asc").
		Scan(&out).Error
	return out, err
}

func (r *AnalyticsGormRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.ProductSales, error) {
	out := []repo.ProductSales{}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.product_id,
			MAX(order_items.product_name_snapshot) AS name,
			SUM(order_items.quantity) AS units,
			SUM(order_items.quantity * order_items.unit_price_snapshot) AS revenue`).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status <> ? AND orders.created_at >= ? AND orders.created_at < ?", model.OrderStatusCanceled, from, to).
		Group("order_items.product_id").
		Order("units desc, order_items.product_id asc").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *AnalyticsGormRepository) NewCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ? AND created_at >= ? AND created_at < ?", model.RoleUser, from, to).
		Count(&n).Error
	return n, err
}

// 注文がある日だけ返る（0埋めはusecase側）
func (r *AnalyticsGormRepository) DailyRevenue(ctx context.Context, from, to time.Time) ([]repo.DailyRevenue, error) {
	out := []repo.DailyRevenue{}
	err := r.salesOrders(ctx, from, to).
		Select("DATE(created_at) AS day, COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS orders").
		Group("DATE(created_at)").
		Order("day asc").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	// postgresはdate型がRFC3339で入るので日付部分だけにそろえる
	for i := range out {
		if len(out[i].Day) > 10 {
			out[i].Day = out[i].Day[:10]
		}
	}
	return out, nil
}
