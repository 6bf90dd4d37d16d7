package usecase

import (
	"encoding/json"
	"time"

	"perfumeshop/internal/domain/model"
)

// before/afterはJSON文字列で残す
func auditJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func newAuditLog(actor int64, action model.AuditAction, rt model.AuditResourceType, id int64, before, after any) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: rt,
		ResourceID:   id,
		BeforeJSON:   auditJSON(before),
		AfterJSON:    auditJSON(after),
		CreatedAt:    time.Now(),
	}
}
