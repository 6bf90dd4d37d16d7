package model

import "time"

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// 問い合わせ（ゲストはUserIDなし）
type SupportTicket struct {
	ID         int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64       `gorm:"index" json:"user_id,omitempty"`
	Email      string       `gorm:"type:varchar(255);not null" json:"email"`
	Subject    string       `gorm:"type:varchar(255);not null" json:"subject"`
	Message    string       `gorm:"type:text;not null" json:"message"`
	OrderID    *int64       `json:"order_id,omitempty"`
	Status     TicketStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	AdminReply string       `gorm:"type:text;not null;default:''" json:"admin_reply"`
	CreatedAt  time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
