package usecase

import (
	"context"
	"strconv"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
)

const csvContentType = "text/csv; charset=utf-8"

type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// CSVエクスポート（管理者）
type ExportUsecase struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	users      repo.UserRepository
	products   repo.ProductRepository
	auditLogs  repo.AuditLogRepository
	now        func() time.Time
}

func NewExportUsecase(
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	users repo.UserRepository,
	products repo.ProductRepository,
	auditLogs repo.AuditLogRepository,
) *ExportUsecase {
	return &ExportUsecase{
		orders:     orders,
		orderItems: orderItems,
		users:      users,
		products:   products,
		auditLogs:  auditLogs,
		now:        time.Now,
	}
}

func (u *ExportUsecase) filename(kind string) string {
	return kind + "-" + u.now().Format("2006-01-02") + ".csv"
}

func (u *ExportUsecase) audit(ctx context.Context, actor int64, kind string, rows int, filter any) error {
	log := newAuditLog(actor, model.AuditActionExport, model.AuditResourceExport, 0,
		filter,
		map[string]any{"kind": kind, "rows": rows},
	)
	if err := u.auditLogs.Create(ctx, log); err != nil {
		return errDB()
	}
	return nil
}

// 注文CSV（期間は[from, to)）
func (u *ExportUsecase) ExportOrders(ctx context.Context, actorAdminUserID int64, from, to *time.Time) (ExportFile, error) {
	if actorAdminUserID <= 0 {
		return ExportFile{}, errUnauthorized()
	}
	if from != nil && to != nil && !from.Before(*to) {
		return ExportFile{}, errBadRequest("from must be before to")
	}

	orders, err := u.orders.ListForExport(ctx, from, to)
	if err != nil {
		return ExportFile{}, errDB()
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	units, err := u.orderItems.CountUnitsByOrderIDs(ctx, ids)
	if err != nil {
		return ExportFile{}, errDB()
	}

	var b csvBuilder
	b.row("order_id", "user_id", "status", "created_at", "items",
		"subtotal", "discount", "total", "coupon_code",
		"ship_name", "ship_city", "ship_postal_code", "ship_country")
	for _, o := range orders {
		b.row(
			strconv.FormatInt(o.ID, 10),
			strconv.FormatInt(o.UserID, 10),
			string(o.Status),
			o.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(units[o.ID], 10),
			formatMoney(o.Subtotal),
			formatMoney(o.Discount),
			formatMoney(o.TotalPrice),
			o.CouponCode,
			o.ShipName,
			o.ShipCity,
			o.ShipPostalCode,
			o.ShipCountry,
		)
	}

	filter := map[string]any{}
	if from != nil {
		filter["from"] = from.UTC().Format(time.RFC3339)
	}
	if to != nil {
		filter["to"] = to.UTC().Format(time.RFC3339)
	}
	if err := u.audit(ctx, actorAdminUserID, "orders", len(orders), filter); err != nil {
		return ExportFile{}, err
	}

	return ExportFile{
		Filename:    u.filename("orders"),
		ContentType: csvContentType,
		Body:        b.bytes(),
		Rows:        len(orders),
	}, nil
}

func (u *ExportUsecase) ExportCustomers(ctx context.Context, actorAdminUserID int64) (ExportFile, error) {
	if actorAdminUserID <= 0 {
		return ExportFile{}, errUnauthorized()
	}

	rows, err := u.users.ListCustomers(ctx)
	if err != nil {
		return ExportFile{}, errDB()
	}

	var b csvBuilder
	b.row("user_id", "email", "name", "order_count", "total_spent", "created_at")
	for _, r := range rows {
		b.row(
			strconv.FormatInt(r.ID, 10),
			r.Email,
			r.Name,
			strconv.FormatInt(r.OrderCount, 10),
			formatMoney(r.TotalSpent),
			r.CreatedAt.UTC().Format(time.RFC3339),
		)
	}

	if err := u.audit(ctx, actorAdminUserID, "customers", len(rows), nil); err != nil {
		return ExportFile{}, err
	}

	return ExportFile{
		Filename:    u.filename("customers"),
		ContentType: csvContentType,
		Body:        b.bytes(),
		Rows:        len(rows),
	}, nil
}

func (u *ExportUsecase) ExportProducts(ctx context.Context, actorAdminUserID int64) (ExportFile, error) {
	if actorAdminUserID <= 0 {
		return ExportFile{}, errUnauthorized()
	}

	products, err := u.products.ListAll(ctx)
	if err != nil {
		return ExportFile{}, errDB()
	}

	var b csvBuilder
	b.row("product_id", "name", "brand", "gender", "concentration", "volume_ml",
		"price", "stock", "is_active", "top_notes", "heart_notes", "base_notes")
	for _, p := range products {
		b.row(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Brand,
			string(p.Gender),
			p.Concentration,
			strconv.Itoa(p.VolumeML),
			formatMoney(p.Price),
			strconv.FormatInt(p.Stock, 10),
			strconv.FormatBool(p.IsActive),
			p.TopNotes,
			p.HeartNotes,
			p.BaseNotes,
		)
	}

	if err := u.audit(ctx, actorAdminUserID, "products", len(products), nil); err != nil {
		return ExportFile{}, err
	}

	return ExportFile{
		Filename:    u.filename("products"),
		ContentType: csvContentType,
		Body:        b.bytes(),
		Rows:        len(products),
	}, nil
}
