package repository

import (
	"context"
	"testing"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/infra/db/dbtest"
	repo "perfumeshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProduct(t *testing.T, conn *gorm.DB, name string, price, stock int64) model.Product {
	t.Helper()
	p, err := NewProductGormRepository(conn).Create(context.Background(), model.Product{
		Name:      name,
		Brand:     "Maison",
		Gender:    model.GenderUnisex,
		TopNotes:  "bergamot, lemon",
		BaseNotes: "musk",
		Price:     price,
		Stock:     stock,
		IsActive:  true,
	})
	require.NoError(t, err)
	return p
}

func seedUser(t *testing.T, conn *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: "n", PasswordHash: "h", Role: model.RoleUser, IsActive: true}
	require.NoError(t, NewUserGormRepository(conn).Create(context.Background(), u))
	return u
}

func TestCart_AddQuantity_SumsSameProduct(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewCartGormRepository(conn)
	p := seedProduct(t, conn, "Rose", 1000, 10)

	cart, err := r.GetOrCreateByUserID(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, r.AddQuantity(ctx, cart.ID, p.ID, 2))
	require.NoError(t, r.AddQuantity(ctx, cart.ID, p.ID, 3))

	lines, err := r.ListLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(5), lines[0].Quantity)
	assert.Equal(t, "Rose", lines[0].Name)
	assert.Equal(t, int64(1000), lines[0].Price)
	assert.True(t, lines[0].IsActive)
}

func TestCart_GetOrCreateByUserID_ReturnsSameCart(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewCartGormRepository(conn)

	a, err := r.GetOrCreateByUserID(ctx, 7)
	require.NoError(t, err)
	b, err := r.GetOrCreateByUserID(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	require.NotNil(t, b.UserID)
	assert.Equal(t, int64(7), *b.UserID)
}

func TestCart_SessionCart_DeleteRemovesItems(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewCartGormRepository(conn)
	p := seedProduct(t, conn, "Oud", 2000, 10)

	cart, err := r.CreateForSession(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, cart.IsGuest())

	found, err := r.FindBySessionToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)

	require.NoError(t, r.AddQuantity(ctx, cart.ID, p.ID, 1))
	require.NoError(t, r.Delete(ctx, cart.ID))

	_, err = r.FindBySessionToken(ctx, "tok-1")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_RemoveLastItem_LeavesEmptyCart(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewCartGormRepository(conn)
	p := seedProduct(t, conn, "Iris", 1500, 10)

	cart, err := r.GetOrCreateByUserID(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, r.AddQuantity(ctx, cart.ID, p.ID, 1))

	items, err := r.ListByCartID(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NoError(t, r.DeleteByID(ctx, items[0].ID))

	lines, err := r.ListLines(ctx, cart.ID)
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	assert.ErrorIs(t, r.DeleteByID(ctx, items[0].ID), repo.ErrNotFound)
}

func TestProduct_ListPublic_SearchAndFilter(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewProductGormRepository(conn)
	seedProduct(t, conn, "Rose Noir", 3000, 1)
	seedProduct(t, conn, "Vetiver", 1000, 1)
	hidden, err := r.Create(ctx, model.Product{Name: "Rose Hidden", Price: 10, Stock: 1})
	require.NoError(t, err)
	require.False(t, hidden.IsActive)

	items, total, err := r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Patterns: []string{"%rose%"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Rose Noir", items[0].Name)

	// 香調でも当たる
	_, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Patterns: []string{"%bergamot%"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	maxPrice := int64(2000)
	items, _, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, MaxPrice: &maxPrice, Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Vetiver", items[0].Name)
}

func TestInventory_DecreaseStockIfEnough(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewInventoryGormRepository(conn)
	p := seedProduct(t, conn, "Amber", 1000, 3)

	ok, err := r.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DecreaseStockIfEnough(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := NewProductGormRepository(conn).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Stock)
}

func TestAddress_SetDefault_KeepsSingleDefault(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewAddressGormRepository(conn)

	a1, err := r.Create(ctx, model.Address{UserID: 1, Name: "a", Line1: "l", City: "c", PostalCode: "1", Country: "JP", IsDefault: true})
	require.NoError(t, err)
	a2, err := r.Create(ctx, model.Address{UserID: 1, Name: "b", Line1: "l", City: "c", PostalCode: "2", Country: "JP"})
	require.NoError(t, err)

	require.NoError(t, r.SetDefault(ctx, 1, a2.ID))

	list, err := r.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a2.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.Equal(t, a1.ID, list[1].ID)
	assert.False(t, list[1].IsDefault)

	// 他人の住所
	assert.ErrorIs(t, r.SetDefault(ctx, 2, a1.ID), repo.ErrNotFound)
}

func TestCoupon_RedeemRespectsMax(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewCouponGormRepository(conn)

	c, err := r.Create(ctx, model.Coupon{Code: " spring ", DiscountType: model.DiscountPercent, Value: 10, MaxRedemptions: 1, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "SPRING", c.Code)

	ok, err := r.Redeem(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Redeem(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Release(ctx, c.ID))
	got, err := r.FindByCode(ctx, "spring")
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.TimesRedeemed)

	_, err = r.Create(ctx, model.Coupon{Code: "SPRING", DiscountType: model.DiscountFixed, Value: 1})
	assert.ErrorIs(t, err, repo.ErrDuplicate)
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewWishlistGormRepository(conn)
	p := seedProduct(t, conn, "Neroli", 1200, 2)

	require.NoError(t, r.Add(ctx, model.WishlistItem{UserID: 1, ProductID: p.ID}))
	require.NoError(t, r.Add(ctx, model.WishlistItem{UserID: 1, ProductID: p.ID}))

	lines, err := r.ListLines(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Neroli", lines[0].Name)

	require.NoError(t, r.Remove(ctx, 1, p.ID))
	assert.ErrorIs(t, r.Remove(ctx, 1, p.ID), repo.ErrNotFound)
}

func TestUser_DuplicateEmailAndTokenVersion(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewUserGormRepository(conn)
	u := seedUser(t, conn, "Alice@Example.com")
	assert.Equal(t, "alice@example.com", u.Email)

	err := r.Create(ctx, &model.User{Email: "alice@example.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	require.NoError(t, r.UpdatePassword(ctx, u.ID, "new-hash"))
	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
	assert.Equal(t, 1, got.TokenVersion)

	_, err = r.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestPasswordReset_MarkUsedOnce(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewPasswordResetGormRepository(conn)

	require.NoError(t, r.Create(ctx, model.PasswordResetToken{
		ID:        "11111111-1111-1111-1111-111111111111",
		UserID:    1,
		TokenHash: "hash",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	tok, err := r.FindByTokenHash(ctx, "hash")
	require.NoError(t, err)

	ok, err := r.MarkUsed(ctx, tok.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.MarkUsed(ctx, tok.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	p := seedProduct(t, conn, "Cedar", 1000, 5)

	tm := NewTxManagerGorm(conn)
	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, p.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return repo.ErrNotFound
	})
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err := NewProductGormRepository(conn).FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Stock)
}

func TestOrderItem_CountUnitsByOrderIDs(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewOrderItemGormRepository(conn)

	require.NoError(t, r.CreateBulk(ctx, 1, []model.OrderItem{
		{ProductID: 1, ProductNameSnapshot: "a", UnitPriceSnapshot: 1, Quantity: 2},
		{ProductID: 2, ProductNameSnapshot: "b", UnitPriceSnapshot: 1, Quantity: 3},
	}))
	require.NoError(t, r.CreateBulk(ctx, 2, []model.OrderItem{
		{ProductID: 1, ProductNameSnapshot: "a", UnitPriceSnapshot: 1, Quantity: 1},
	}))

	got, err := r.CountUnitsByOrderIDs(ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 5, 2: 1}, got)

	empty, err := r.CountUnitsByOrderIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAuditLog_ListPagesAndCountIgnoresLimit(t *testing.T) {
	conn := dbtest.New(t)
	ctx := context.Background()
	r := NewAuditLogGormRepository(conn)

	now := time.Now()
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, r.Create(ctx, model.AuditLog{
			ActorUserID:  9,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   i,
			CreatedAt:    now,
		}))
	}
	require.NoError(t, r.Create(ctx, model.AuditLog{
		ActorUserID:  9,
		Action:       model.AuditActionDeleteProduct,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   1,
		CreatedAt:    now,
	}))

	action := model.AuditActionUpdateStock
	f := repo.AuditLogFilter{Action: &action, Limit: 2}

	page, err := r.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ResourceID)

	f.Offset = 2
	page, err = r.List(ctx, f)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(1), page[0].ResourceID)

	n, err := r.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
