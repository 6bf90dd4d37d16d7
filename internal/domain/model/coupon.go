package model

import "time"

type DiscountType string

const (
	DiscountPercent DiscountType = "PERCENT"
	DiscountFixed   DiscountType = "FIXED"
)

// クーポン（プロモーション）
type Coupon struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code         string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Description  string       `gorm:"type:varchar(255);not null;default:''" json:"description"`
	DiscountType DiscountType `gorm:"type:varchar(10);not null" json:"discount_type"`
	// PERCENTなら1〜100、FIXEDなら金額
	Value       int64 `gorm:"not null" json:"value"`
	MinSubtotal int64 `gorm:"not null;default:0" json:"min_subtotal"`
	// 0は無制限
	MaxRedemptions int64      `gorm:"not null;default:0" json:"max_redemptions"`
	TimesRedeemed  int64      `gorm:"not null;default:0" json:"times_redeemed"`
	StartsAt       *time.Time `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	IsActive       bool       `gorm:"not null" json:"is_active"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
