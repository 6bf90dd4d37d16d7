package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
)

type SupportUsecase struct {
	tickets   repo.SupportTicketRepository
	users     repo.UserRepository
	orders    repo.OrderRepository
	auditLogs repo.AuditLogRepository
}

func NewSupportUsecase(
	tickets repo.SupportTicketRepository,
	users repo.UserRepository,
	orders repo.OrderRepository,
	auditLogs repo.AuditLogRepository,
) *SupportUsecase {
	return &SupportUsecase{tickets: tickets, users: users, orders: orders, auditLogs: auditLogs}
}

type CreateTicketInput struct {
	Email   string
	Subject string
	Message string
	OrderID *int64
}

type UpdateTicketInput struct {
	Status     string
	AdminReply *string
}

type TicketListOutput struct {
	Items []model.SupportTicket `json:"items"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// 問い合わせ作成。ログイン中ならユーザーのemail、ゲストはemail必須
func (u *SupportUsecase) Create(ctx context.Context, userID int64, in CreateTicketInput) (model.SupportTicket, error) {
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	if subject == "" || len(subject) > 255 {
		return model.SupportTicket{}, errBadRequest("invalid subject")
	}
	if message == "" || len(message) > 5000 {
		return model.SupportTicket{}, errBadRequest("invalid message")
	}

	t := model.SupportTicket{
		Subject:   subject,
		Message:   message,
		Status:    model.TicketStatusOpen,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if userID > 0 {
		user, err := u.users.FindByID(ctx, userID)
		if err != nil {
			return model.SupportTicket{}, errUnauthorized()
		}
		uid := userID
		t.UserID = &uid
		t.Email = user.Email

		// 注文番号は本人のものだけ
		if in.OrderID != nil {
			o, err := u.orders.FindByID(ctx, *in.OrderID)
			if errors.Is(err, repo.ErrNotFound) || (err == nil && o.UserID != userID) {
				return model.SupportTicket{}, errBadRequest("invalid order_id")
			}
			if err != nil {
				return model.SupportTicket{}, errDB()
			}
			t.OrderID = in.OrderID
		}
	} else {
		email := strings.TrimSpace(in.Email)
		if _, err := mail.ParseAddress(email); email == "" || err != nil {
			return model.SupportTicket{}, errBadRequest("email is required")
		}
		t.Email = strings.ToLower(email)
	}

	created, err := u.tickets.Create(ctx, t)
	if err != nil {
		return model.SupportTicket{}, errDB()
	}
	return created, nil
}

func (u *SupportUsecase) ListMine(ctx context.Context, userID int64) ([]model.SupportTicket, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}
	list, err := u.tickets.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *SupportUsecase) AdminList(ctx context.Context, f repo.TicketListFilter) (TicketListOutput, error) {
	if f.Page < 1 {
		return TicketListOutput{}, errBadRequest("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return TicketListOutput{}, errBadRequest("invalid limit")
	}
	if f.Status != "" && !model.TicketStatus(f.Status).Valid() {
		return TicketListOutput{}, errBadRequest("invalid status")
	}

	list, total, err := u.tickets.ListAdmin(ctx, f)
	if err != nil {
		return TicketListOutput{}, errDB()
	}
	return TicketListOutput{Items: list, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ステータスと返信の更新（監査ログあり）
func (u *SupportUsecase) AdminUpdate(ctx context.Context, actorAdminUserID int64, ticketID int64, in UpdateTicketInput) (model.SupportTicket, error) {
	if actorAdminUserID <= 0 {
		return model.SupportTicket{}, errUnauthorized()
	}
	if ticketID <= 0 {
		return model.SupportTicket{}, errBadRequest("invalid id")
	}

	before, err := u.tickets.FindByID(ctx, ticketID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.SupportTicket{}, errNotFound()
	}
	if err != nil {
		return model.SupportTicket{}, errDB()
	}

	status := before.Status
	if s := strings.ToUpper(strings.TrimSpace(in.Status)); s != "" {
		status = model.TicketStatus(s)
		if !status.Valid() {
			return model.SupportTicket{}, errBadRequest("invalid status")
		}
	}
	reply := before.AdminReply
	if in.AdminReply != nil {
		reply = strings.TrimSpace(*in.AdminReply)
	}

	if err := u.tickets.UpdateStatusAndReply(ctx, ticketID, status, reply); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.SupportTicket{}, errNotFound()
		}
		return model.SupportTicket{}, errDB()
	}

	after := before
	after.Status = status
	after.AdminReply = reply
	after.UpdatedAt = time.Now()

	log := newAuditLog(actorAdminUserID, model.AuditActionUpdateTicket, model.AuditResourceTicket, ticketID,
		map[string]string{"status": string(before.Status), "admin_reply": before.AdminReply},
		map[string]string{"status": string(after.Status), "admin_reply": after.AdminReply},
	)
	if err := u.auditLogs.Create(ctx, log); err != nil {
		return model.SupportTicket{}, errDB()
	}
	return after, nil
}
