package model

import "time"

// ゲストはSessionToken、ログインユーザーはUserIDで識別する。
// session tokenごとに1つ、ユーザーごとに最大1つ。
type Cart struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *int64    `gorm:"uniqueIndex" json:"user_id,omitempty"`
	SessionToken *string   `gorm:"type:varchar(128);uniqueIndex" json:"-"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c Cart) IsGuest() bool {
	return c.UserID == nil
}
