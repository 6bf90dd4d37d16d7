package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"

	"github.com/shopspring/decimal"
)

// ComputeDiscount はクーポンの割引額を返す（使えないクーポンなら400）。
// PERCENTは四捨五入、どちらも小計を超えない。
func ComputeDiscount(c model.Coupon, subtotal int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, errBadRequest("coupon is not active")
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return 0, errBadRequest("coupon is not started")
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return 0, errBadRequest("coupon expired")
	}
	if subtotal < c.MinSubtotal {
		return 0, errBadRequest("subtotal below coupon minimum")
	}
	if c.MaxRedemptions > 0 && c.TimesRedeemed >= c.MaxRedemptions {
		return 0, errBadRequest("coupon exhausted")
	}

	var discount int64
	switch c.DiscountType {
	case model.DiscountPercent:
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(c.Value)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	case model.DiscountFixed:
		discount = c.Value
	default:
		return 0, errBadRequest("invalid coupon")
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}

type CouponUsecase struct {
	coupons repo.CouponRepository
	tx      repo.TransactionManager
}

func NewCouponUsecase(coupons repo.CouponRepository, tx repo.TransactionManager) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, tx: tx}
}

type CouponInput struct {
	Code           string
	Description    string
	DiscountType   string
	Value          int64
	MinSubtotal    int64
	MaxRedemptions int64
	StartsAt       *time.Time
	ExpiresAt      *time.Time
	IsActive       bool
}

func (in CouponInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return errBadRequest("code required")
	}
	switch model.DiscountType(in.DiscountType) {
	case model.DiscountPercent:
		if in.Value < 1 || in.Value > 100 {
			return errBadRequest("percent value must be 1-100")
		}
	case model.DiscountFixed:
		if in.Value < 1 {
			return errBadRequest("fixed value must be > 0")
		}
	default:
		return errBadRequest("invalid discount_type")
	}
	if in.MinSubtotal < 0 || in.MaxRedemptions < 0 {
		return errBadRequest("min_subtotal and max_redemptions must be >= 0")
	}
	if in.StartsAt != nil && in.ExpiresAt != nil && !in.StartsAt.Before(*in.ExpiresAt) {
		return errBadRequest("starts_at must be before expires_at")
	}
	return nil
}

func (in CouponInput) toModel() model.Coupon {
	return model.Coupon{
		Code:           strings.ToUpper(strings.TrimSpace(in.Code)),
		Description:    strings.TrimSpace(in.Description),
		DiscountType:   model.DiscountType(in.DiscountType),
		Value:          in.Value,
		MinSubtotal:    in.MinSubtotal,
		MaxRedemptions: in.MaxRedemptions,
		StartsAt:       in.StartsAt,
		ExpiresAt:      in.ExpiresAt,
		IsActive:       in.IsActive,
	}
}

func (u *CouponUsecase) List(ctx context.Context) ([]model.Coupon, error) {
	list, err := u.coupons.List(ctx)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *CouponUsecase) Create(ctx context.Context, adminUserID int64, in CouponInput) (model.Coupon, error) {
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}

	var out model.Coupon
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Coupons().Create(ctx, in.toModel())
		if errors.Is(err, repo.ErrDuplicate) {
			return NewHTTPError(http.StatusConflict, "coupon code already exists")
		}
		if err != nil {
			return errDB()
		}
		out = c
		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionCreateCoupon, model.AuditResourceCoupon, c.ID, nil, c)); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return model.Coupon{}, err
	}
	return out, nil
}

// コードは変更しない
func (u *CouponUsecase) Update(ctx context.Context, adminUserID, couponID int64, in CouponInput) (model.Coupon, error) {
	if couponID <= 0 {
		return model.Coupon{}, errBadRequest("invalid id")
	}
	if err := in.validate(); err != nil {
		return model.Coupon{}, err
	}

	var out model.Coupon
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Coupons().FindByID(ctx, couponID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		after := in.toModel()
		after.ID = before.ID
		after.Code = before.Code
		after.TimesRedeemed = before.TimesRedeemed
		after.CreatedAt = before.CreatedAt
		if err := r.Coupons().Update(ctx, after); err != nil {
			return errDB()
		}
		out = after
		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionUpdateCoupon, model.AuditResourceCoupon, couponID, before, after)); err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return model.Coupon{}, err
	}
	return out, nil
}

func (u *CouponUsecase) Delete(ctx context.Context, adminUserID, couponID int64) error {
	if couponID <= 0 {
		return errBadRequest("invalid id")
	}
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Coupons().FindByID(ctx, couponID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if err := r.Coupons().Delete(ctx, couponID); err != nil {
			return errDB()
		}
		if err := r.AuditLogs().Create(ctx, newAuditLog(adminUserID, model.AuditActionDeleteCoupon, model.AuditResourceCoupon, couponID, before, nil)); err != nil {
			return errDB()
		}
		return nil
	})
}
