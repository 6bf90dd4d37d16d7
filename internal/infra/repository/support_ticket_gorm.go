package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"gorm.io/gorm"
)

type SupportTicketGormRepository struct {
	db *gorm.DB
}

func NewSupportTicketGormRepository(db *gorm.DB) *SupportTicketGormRepository {
	return &SupportTicketGormRepository{db: db}
}

func (r *SupportTicketGormRepository) Create(ctx context.Context, t model.SupportTicket) (model.SupportTicket, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return model.SupportTicket{}, err
	}
	return t, nil
}

func (r *SupportTicketGormRepository) FindByID(ctx context.Context, id int64) (model.SupportTicket, error) {
	var t model.SupportTicket
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return model.SupportTicket{}, translate(err)
	}
	return t, nil
}

func (r *SupportTicketGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.SupportTicket, error) {
	list := []model.SupportTicket{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id desc").Find(&list).Error
	if err != nil {
		return []model.SupportTicket{}, err
	}
	return list, nil
}

func (r *SupportTicketGormRepository) ListAdmin(ctx context.Context, f repo.TicketListFilter) ([]model.SupportTicket, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.SupportTicket{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.SupportTicket{}, 0, err
	}

	list := []model.SupportTicket{}
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("id desc").Limit(f.Limit).Offset(offset).Find(&list).Error; err != nil {
		return []model.SupportTicket{}, 0, err
	}
	return list, total, nil
}

func (r *SupportTicketGormRepository) UpdateStatusAndReply(ctx context.Context, id int64, status model.TicketStatus, reply string) error {
	res := r.db.WithContext(ctx).Model(&model.SupportTicket{}).Where("id = ?", id).Updates(map[string]any{
		"status":      status,
		"admin_reply": reply,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
