package model

import "time"

// 配送先住所
type Address struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	//宛名
	Name string `gorm:"type:varchar(255);not null" json:"name"`

	Line1 string `gorm:"type:varchar(255);not null" json:"line1"`
	Line2 string `gorm:"type:varchar(255);not null;default:''" json:"line2"`
	City  string `gorm:"type:varchar(255);not null" json:"city"`

	//州・都道府県
	State      string `gorm:"type:varchar(100);not null;default:''" json:"state"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code"`

	//ISO 3166-1 alpha-2
	Country string `gorm:"type:varchar(2);not null" json:"country"`
	Phone   string `gorm:"type:varchar(30);not null;default:''" json:"phone"`

	//このユーザーのデフォルト住所か
	IsDefault bool `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
