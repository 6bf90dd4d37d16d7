package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// 遷移できる次のステータス
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCanceled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped: {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCanceled || s == OrderStatusDelivered
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, n := range orderTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;index;uniqueIndex:ux_orders_user_idem,priority:1" json:"user_id"`
	AddressID      int64       `gorm:"not null" json:"address_id"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal       int64       `gorm:"not null;default:0" json:"subtotal"`
	Discount       int64       `gorm:"not null;default:0" json:"discount"`
	TotalPrice     int64       `gorm:"not null" json:"total_price"`
	CouponCode     string      `gorm:"type:varchar(64);not null;default:''" json:"coupon_code,omitempty"`
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex:ux_orders_user_idem,priority:2" json:"-"`

	//配送先スナップショット（住所が後で変わっても注文は変えない）
	ShipName       string `gorm:"type:varchar(255);not null;default:''" json:"ship_name"`
	ShipLine1      string `gorm:"type:varchar(255);not null;default:''" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255);not null;default:''" json:"ship_line2"`
	ShipCity       string `gorm:"type:varchar(255);not null;default:''" json:"ship_city"`
	ShipState      string `gorm:"type:varchar(100);not null;default:''" json:"ship_state"`
	ShipPostalCode string `gorm:"type:varchar(20);not null;default:''" json:"ship_postal_code"`
	ShipCountry    string `gorm:"type:varchar(2);not null;default:''" json:"ship_country"`
	ShipPhone      string `gorm:"type:varchar(30);not null;default:''" json:"ship_phone"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
