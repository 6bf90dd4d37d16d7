package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/repository"
)

type AddressDTO struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"user_id"`
	Name       string  `json:"name"`
	Line1      string  `json:"line1"`
	Line2      string  `json:"line2"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      string  `json:"phone"`
	IsDefault  bool    `json:"is_default"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  *string `json:"updated_at,omitempty"`
}

type AddressInput struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

func (in AddressInput) normalize() AddressInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	in.City = strings.TrimSpace(in.City)
	in.State = strings.TrimSpace(in.State)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

func (in AddressInput) valid() bool {
	return in.Name != "" && in.Line1 != "" && in.City != "" && in.PostalCode != "" && len(in.Country) == 2
}

type AddressUsecase struct {
	addresses repository.AddressRepository
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}

	out := make([]AddressDTO, 0, len(list))
	for i := range list {
		out = append(out, toAddressDTO(&list[i]))
	}
	return out, nil
}

// 最初の住所は自動でデフォルトになる
func (u *AddressUsecase) Create(ctx context.Context, userID int64, in AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, ErrUnauthorized
	}

	//入力チェック
	in = in.normalize()
	if !in.valid() {
		return AddressDTO{}, ErrValidation
	}

	count, err := u.addresses.CountByUserID(ctx, userID)
	if err != nil {
		return AddressDTO{}, ErrInternal
	}

	now := time.Now()
	a := model.Address{
		UserID:     userID,
		Name:       in.Name,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		Phone:      in.Phone,
		IsDefault:  false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, ErrInternal
	}

	if count == 0 {
		if err := u.addresses.SetDefault(ctx, userID, created.ID); err != nil {
			return AddressDTO{}, ErrInternal
		}
		created.IsDefault = true
	}

	return toAddressDTO(&created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, in AddressInput) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, ErrUnauthorized
	}
	if addressID <= 0 {
		return AddressDTO{}, ErrValidation
	}
	in = in.normalize()
	if !in.valid() {
		return AddressDTO{}, ErrValidation
	}

	current, err := u.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return AddressDTO{}, err
	}

	current.Name = in.Name
	current.Line1 = in.Line1
	current.Line2 = in.Line2
	current.City = in.City
	current.State = in.State
	current.PostalCode = in.PostalCode
	current.Country = in.Country
	current.Phone = in.Phone
	current.UpdatedAt = time.Now()

	if err := u.addresses.Update(ctx, current); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AddressDTO{}, ErrNotFound
		}
		return AddressDTO{}, ErrInternal
	}

	return toAddressDTO(&current), nil
}

// デフォルトを消したら、残りの一番古い住所をデフォルトにする
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if addressID <= 0 {
		return ErrValidation
	}

	current, err := u.ownedAddress(ctx, userID, addressID)
	if err != nil {
		return err
	}

	if err := u.addresses.Delete(ctx, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return ErrConflict
	}

	if !current.IsDefault {
		return nil
	}
	rest, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return ErrInternal
	}
	if len(rest) == 0 {
		return nil
	}
	oldest := rest[0]
	for _, a := range rest[1:] {
		if a.ID < oldest.ID {
			oldest = a
		}
	}
	if err := u.addresses.SetDefault(ctx, userID, oldest.ID); err != nil {
		return ErrInternal
	}
	return nil
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if userID <= 0 {
		return ErrUnauthorized
	}
	if addressID <= 0 {
		return ErrValidation
	}

	//user内でdefaultは1つ（他人の住所はNotFound）
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return ErrInternal
	}
	return nil
}

// 他人の住所は存在しない扱い
func (u *AddressUsecase) ownedAddress(ctx context.Context, userID, addressID int64) (model.Address, error) {
	a, err := u.addresses.FindByID(ctx, addressID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Address{}, ErrNotFound
	}
	if err != nil {
		return model.Address{}, ErrInternal
	}
	if a.UserID != userID {
		return model.Address{}, ErrNotFound
	}
	return a, nil
}

func toAddressDTO(a *model.Address) AddressDTO {
	dto := AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
	}
	t := a.UpdatedAt.Format(time.RFC3339)
	dto.UpdatedAt = &t
	return dto
}
