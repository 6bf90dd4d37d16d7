package repository

import (
	"context"
	"time"

	"perfumeshop/internal/domain/model"
)

// nil の項目は絞り込まない
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。Limit/Offset を使う
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
	// Limit/Offset は無視して件数だけ
	Count(ctx context.Context, filter AuditLogFilter) (int64, error)
}
