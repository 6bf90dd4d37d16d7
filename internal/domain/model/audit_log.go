package model

import "time"

type AuditAction string

const (
	AuditActionUpdateStock       AuditAction = "UPDATE_STOCK"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionCreateProduct     AuditAction = "CREATE_PRODUCT"
	AuditActionUpdateProduct     AuditAction = "UPDATE_PRODUCT"
	AuditActionDeleteProduct     AuditAction = "DELETE_PRODUCT"
	AuditActionCreateCoupon      AuditAction = "CREATE_COUPON"
	AuditActionUpdateCoupon      AuditAction = "UPDATE_COUPON"
	AuditActionDeleteCoupon      AuditAction = "DELETE_COUPON"
	AuditActionUpdateTicket      AuditAction = "UPDATE_TICKET"
	AuditActionForceLogout       AuditAction = "FORCE_LOGOUT"
	AuditActionExport            AuditAction = "EXPORT_CSV"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
	AuditResourceUser    AuditResourceType = "user"
	AuditResourceCoupon  AuditResourceType = "coupon"
	AuditResourceTicket  AuditResourceType = "ticket"
	AuditResourceExport  AuditResourceType = "export"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"column:before_json;type:text" json:"before_json"`
	AfterJSON  string `gorm:"column:after_json;type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
