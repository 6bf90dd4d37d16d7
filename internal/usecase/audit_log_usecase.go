package usecase

import (
	"context"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
)

type AuditLogUsecase struct {
	auditLogs repo.AuditLogRepository
}

func NewAuditLogUsecase(auditLogs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditLogs: auditLogs}
}

type AuditLogPage struct {
	Items  []model.AuditLog `json:"items"`
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

// 監査ログ一覧（新しい順）
func (u *AuditLogUsecase) List(ctx context.Context, f repo.AuditLogFilter) (AuditLogPage, error) {
	if f.Limit == 0 {
		f.Limit = 50
	}
	if f.Limit < 1 || f.Limit > 200 {
		return AuditLogPage{}, errBadRequest("invalid limit")
	}
	if f.Offset < 0 {
		return AuditLogPage{}, errBadRequest("invalid offset")
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && !f.CreatedFrom.Before(*f.CreatedTo) {
		return AuditLogPage{}, errBadRequest("from must be before to")
	}

	logs, err := u.auditLogs.List(ctx, f)
	if err != nil {
		return AuditLogPage{}, errDB()
	}
	total, err := u.auditLogs.Count(ctx, f)
	if err != nil {
		return AuditLogPage{}, errDB()
	}
	return AuditLogPage{Items: logs, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}
