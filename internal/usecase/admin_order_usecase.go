package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/metrics"
	repo "perfumeshop/internal/repository"
)

type AdminOrderUsecase struct {
	tx      repo.TransactionManager
	metrics *metrics.Metrics
}

func NewAdminOrderUsecase(tx repo.TransactionManager, m *metrics.Metrics) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, metrics: m}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 注文一覧（ページング＋絞り込み）
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, errBadRequest("invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, errBadRequest("invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, errBadRequest("invalid status")
	}
	if f.From != nil && f.To != nil && !f.From.Before(*f.To) {
		return OrderListOutput{}, errBadRequest("from must be before to")
	}

	out := OrderListOutput{Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return errDB()
		}
		out.Total = total

		out.Items = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return errDB()
			}
			out.Items = append(out.Items, toOrderOutput(o, items))
		}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新（CANCELEDなら在庫とクーポンを戻す）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, errBadRequest("invalid id")
	}

	newStatus := model.OrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, errBadRequest("invalid status")
	}

	var (
		out      OrderOutput
		canceled bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		if !o.Status.CanTransitionTo(newStatus) {
			return NewHTTPError(http.StatusConflict, "cannot change status from "+string(o.Status)+" to "+string(newStatus))
		}

		if newStatus == model.OrderStatusCanceled {
			if err := releaseOrder(ctx, r, o, items); err != nil {
				return err
			}
			canceled = true
		}

		beforeStatus := o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return errNotFound()
			}
			return errDB()
		}

		// 監査ログ（UPDATE_ORDER_STATUS）
		log := newAuditLog(actorAdminUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(beforeStatus)},
			map[string]string{"status": string(newStatus)},
		)
		if err := r.AuditLogs().Create(ctx, log); err != nil {
			return errDB()
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if canceled {
		u.metrics.OrderCanceled("admin")
	}
	return out, nil
}

// 期間パラメータ（RFC3339 か YYYY-MM-DD）
func ParseTimeParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, errBadRequest("invalid date: " + s)
	}
	return &t, nil
}
