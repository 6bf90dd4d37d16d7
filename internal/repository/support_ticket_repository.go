package repository

import (
	"context"

	"perfumeshop/internal/domain/model"
)

type TicketListFilter struct {
	Status string
	Page   int
	Limit  int
}

type SupportTicketRepository interface {
	Create(ctx context.Context, t model.SupportTicket) (model.SupportTicket, error)
	FindByID(ctx context.Context, id int64) (model.SupportTicket, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.SupportTicket, error)
	ListAdmin(ctx context.Context, f TicketListFilter) ([]model.SupportTicket, int64, error)
	UpdateStatusAndReply(ctx context.Context, id int64, status model.TicketStatus, reply string) error
}
