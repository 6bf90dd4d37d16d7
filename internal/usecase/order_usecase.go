package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/metrics"
	repo "perfumeshop/internal/repository"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	carts     repo.CartRepository
	items     repo.CartItemRepository
	coupons   repo.CouponRepository
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	carts repo.CartRepository,
	items repo.CartItemRepository,
	coupons repo.CouponRepository,
	m *metrics.Metrics,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		addresses: addresses,
		carts:     carts,
		items:     items,
		coupons:   coupons,
		metrics:   m,
		now:       time.Now,
	}
}

type PlaceOrderInput struct {
	AddressID      int64
	CouponCode     string
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	VolumeML  int    `json:"volume_ml"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type ShippingOutput struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

type OrderOutput struct {
	ID         int64             `json:"id"`
	UserID     int64             `json:"user_id"`
	Status     string            `json:"status"`
	Subtotal   int64             `json:"subtotal"`
	Discount   int64             `json:"discount"`
	TotalPrice int64             `json:"total_price"`
	CouponCode string            `json:"coupon_code,omitempty"`
	Shipping   ShippingOutput    `json:"shipping"`
	CreatedAt  time.Time         `json:"created_at"`
	Items      []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type QuoteOutput struct {
	Items      []CartItemResponse `json:"items"`
	Subtotal   int64              `json:"subtotal"`
	Discount   int64              `json:"discount"`
	Total      int64              `json:"total"`
	CouponCode string             `json:"coupon_code,omitempty"`
}

// 注文前の見積もり（在庫は減らさない）
func (u *OrderUsecase) Quote(ctx context.Context, userID int64, couponCode string) (QuoteOutput, error) {
	if userID <= 0 {
		return QuoteOutput{}, errUnauthorized()
	}

	cart, err := u.carts.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return QuoteOutput{}, errBadRequest("cart empty")
	}
	if err != nil {
		return QuoteOutput{}, errDB()
	}
	lines, err := u.items.ListLines(ctx, cart.ID)
	if err != nil {
		return QuoteOutput{}, errDB()
	}
	if len(lines) == 0 {
		return QuoteOutput{}, errBadRequest("cart empty")
	}

	resp := toCartResponse(lines)
	out := QuoteOutput{Items: resp.Items, Subtotal: resp.Total, Total: resp.Total}

	code := strings.TrimSpace(couponCode)
	if code == "" {
		return out, nil
	}
	c, err := u.coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return QuoteOutput{}, errBadRequest("invalid coupon")
	}
	if err != nil {
		return QuoteOutput{}, errDB()
	}
	discount, err := ComputeDiscount(c, out.Subtotal, u.now())
	if err != nil {
		return QuoteOutput{}, err
	}
	out.Discount = discount
	out.Total = out.Subtotal - discount
	out.CouponCode = c.Code
	return out, nil
}

// PlaceOrder は注文確定。
// 冪等キー確認・在庫減算・クーポン消費・注文作成・カートクリアを1つのトランザクションで行う。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if in.AddressID <= 0 {
		return OrderOutput{}, errBadRequest("invalid address_id")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, errBadRequest("invalid idempotency_key")
	}

	//address_idの存在確認＋所有チェック（他人の住所も404）
	addr, err := u.addresses.FindByID(ctx, in.AddressID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, errNotFound()
	}
	if err != nil {
		return OrderOutput{}, errDB()
	}
	if addr.UserID != userID {
		return OrderOutput{}, errNotFound()
	}

	var (
		out     OrderOutput
		created bool
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		prev, found, err := findOrderByKey(ctx, r, userID, key)
		if err != nil {
			return err
		}
		if found {
			out = prev
			return nil
		}

		cart, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return errBadRequest("cart empty")
		}
		if err != nil {
			return errDB()
		}
		lines, err := r.CartItems().ListLines(ctx, cart.ID)
		if err != nil {
			return errDB()
		}
		if len(lines) == 0 {
			return errBadRequest("cart empty")
		}

		//在庫を確定時に再チェックして減らす
		now := u.now()
		orderItems := make([]model.OrderItem, 0, len(lines))
		var subtotal int64
		for _, l := range lines {
			if !l.IsActive {
				return errBadRequest("product unavailable: " + l.Name)
			}
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return errDB()
			}
			if !ok {
				return errBadRequest("out of stock: " + l.Name)
			}

			//スナップショット
			item := model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: l.Name,
				BrandSnapshot:       l.Brand,
				VolumeMLSnapshot:    l.VolumeML,
				UnitPriceSnapshot:   l.Price,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			}
			orderItems = append(orderItems, item)
			subtotal += item.LineTotal()
		}

		// クーポン（上限チェックと消費は1文）
		var (
			discount   int64
			couponCode string
		)
		if code := strings.TrimSpace(in.CouponCode); code != "" {
			c, err := r.Coupons().FindByCode(ctx, code)
			if errors.Is(err, repo.ErrNotFound) {
				return errBadRequest("invalid coupon")
			}
			if err != nil {
				return errDB()
			}
			discount, err = ComputeDiscount(c, subtotal, now)
			if err != nil {
				return err
			}
			ok, err := r.Coupons().Redeem(ctx, c.ID)
			if err != nil {
				return errDB()
			}
			if !ok {
				return errBadRequest("coupon exhausted")
			}
			couponCode = c.Code
		}

		order := model.Order{
			UserID:         userID,
			AddressID:      addr.ID,
			Status:         model.OrderStatusPending,
			Subtotal:       subtotal,
			Discount:       discount,
			TotalPrice:     subtotal - discount,
			CouponCode:     couponCode,
			IdempotencyKey: key,
			ShipName:       addr.Name,
			ShipLine1:      addr.Line1,
			ShipLine2:      addr.Line2,
			ShipCity:       addr.City,
			ShipState:      addr.State,
			ShipPostalCode: addr.PostalCode,
			ShipCountry:    addr.Country,
			ShipPhone:      addr.Phone,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			// 同じキーで同時に入った。ロールバックしてから先に確定した注文を読み直す
			return errIdempotencyRace
		}
		if err != nil {
			return errDB()
		}
		order.ID = orderID

		//注文明細一括作成
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return errDB()
		}

		//カートを空にする（再注文防止）
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return errDB()
		}

		out = toOrderOutput(order, orderItems)
		created = true
		return nil
	})
	if errors.Is(err, errIdempotencyRace) {
		return u.replayOrder(ctx, userID, key)
	}
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		u.metrics.OrderPlaced(out.TotalPrice)
	}
	return out, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized()
	}
	if page < 1 {
		return OrderListOutput{}, errBadRequest("invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, errBadRequest("invalid limit")
	}

	out := OrderListOutput{Page: page, Limit: limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return errDB()
		}
		out.Total = total

		out.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errDB()
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, errBadRequest("invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return errNotFound()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 本人のキャンセルはPENDINGのみ。在庫とクーポンを戻す
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, errBadRequest("invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if o.UserID != userID {
			return errNotFound()
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusConflict, "only pending orders can be canceled")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}
		if err := releaseOrder(ctx, r, o, items); err != nil {
			return err
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCanceled); err != nil {
			return errDB()
		}

		o.Status = model.OrderStatusCanceled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	u.metrics.OrderCanceled("user")
	return out, nil
}

var errIdempotencyRace = errors.New("order with same idempotency key committed concurrently")

func (u *OrderUsecase) replayOrder(ctx context.Context, userID int64, key string) (OrderOutput, error) {
	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		prev, found, err := findOrderByKey(ctx, r, userID, key)
		if err != nil {
			return err
		}
		if !found {
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		out = prev
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func findOrderByKey(ctx context.Context, r repo.TxRepos, userID int64, key string) (OrderOutput, bool, error) {
	o, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
	if err != nil {
		return OrderOutput{}, false, errDB()
	}
	if !found {
		return OrderOutput{}, false, nil
	}
	items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
	if err != nil {
		return OrderOutput{}, false, errDB()
	}
	return toOrderOutput(o, items), true, nil
}

// キャンセル時: 在庫を戻し、クーポンの使用回数を戻す
func releaseOrder(ctx context.Context, r repo.TxRepos, o model.Order, items []model.OrderItem) error {
	for _, it := range items {
		err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity)
		// 削除済み商品の在庫は戻さない
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return errDB()
		}
	}

	if o.CouponCode == "" {
		return nil
	}
	c, err := r.Coupons().FindByCode(ctx, o.CouponCode)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return errDB()
	}
	if err := r.Coupons().Release(ctx, c.ID); err != nil {
		return errDB()
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Brand:     it.BrandSnapshot,
			VolumeML:  it.VolumeMLSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return OrderOutput{
		ID:         o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Subtotal:   o.Subtotal,
		Discount:   o.Discount,
		TotalPrice: o.TotalPrice,
		CouponCode: o.CouponCode,
		Shipping: ShippingOutput{
			Name:       o.ShipName,
			Line1:      o.ShipLine1,
			Line2:      o.ShipLine2,
			City:       o.ShipCity,
			State:      o.ShipState,
			PostalCode: o.ShipPostalCode,
			Country:    o.ShipCountry,
			Phone:      o.ShipPhone,
		},
		CreatedAt: o.CreatedAt,
		Items:     outItems,
	}
}
