package usecase_test

import (
	"context"
	"testing"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/infra/db/dbtest"
	infraRepo "perfumeshop/internal/infra/repository"
	repo "perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// sqliteの実リポジトリを束ねたもの
type testEnv struct {
	conn      *gorm.DB
	users     repo.UserRepository
	products  *infraRepo.ProductGormRepository
	inventory *infraRepo.InventoryGormRepository
	carts     *infraRepo.CartGormRepository
	addresses repo.AddressRepository
	orders    *infraRepo.OrderGormRepository
	items     *infraRepo.OrderItemGormRepository
	coupons   *infraRepo.CouponGormRepository
	wishlist  *infraRepo.WishlistGormRepository
	tickets   *infraRepo.SupportTicketGormRepository
	audit     repo.AuditLogRepository
	resets    *infraRepo.PasswordResetGormRepository
	tx        *infraRepo.TxManagerGorm
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := dbtest.New(t)
	return &testEnv{
		conn:      conn,
		users:     infraRepo.NewUserGormRepository(conn),
		products:  infraRepo.NewProductGormRepository(conn),
		inventory: infraRepo.NewInventoryGormRepository(conn),
		carts:     infraRepo.NewCartGormRepository(conn),
		addresses: infraRepo.NewAddressGormRepository(conn),
		orders:    infraRepo.NewOrderGormRepository(conn),
		items:     infraRepo.NewOrderItemGormRepository(conn),
		coupons:   infraRepo.NewCouponGormRepository(conn),
		wishlist:  infraRepo.NewWishlistGormRepository(conn),
		tickets:   infraRepo.NewSupportTicketGormRepository(conn),
		audit:     infraRepo.NewAuditLogGormRepository(conn),
		resets:    infraRepo.NewPasswordResetGormRepository(conn),
		tx:        infraRepo.NewTxManagerGorm(conn),
	}
}

func (e *testEnv) cartUC() *usecase.CartUsecase {
	return usecase.NewCartUsecase(e.carts, e.carts, e.products, e.tx, nil)
}

func (e *testEnv) orderUC() *usecase.OrderUsecase {
	return usecase.NewOrderUsecase(e.tx, e.addresses, e.carts, e.carts, e.coupons, nil)
}

func (e *testEnv) seedProduct(t *testing.T, name string, price, stock int64) model.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), model.Product{
		Name:     name,
		Brand:    "Maison",
		Gender:   model.GenderUnisex,
		TopNotes: "bergamot",
		Price:    price,
		Stock:    stock,
		IsActive: true,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, Name: "Test", PasswordHash: "h", Role: model.RoleUser, IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) seedAddress(t *testing.T, userID int64) model.Address {
	t.Helper()
	a, err := e.addresses.Create(context.Background(), model.Address{
		UserID:     userID,
		Name:       "Jane Doe",
		Line1:      "1 Rue de la Paix",
		City:       "Paris",
		PostalCode: "75002",
		Country:    "FR",
	})
	require.NoError(t, err)
	return a
}

func (e *testEnv) stockOf(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

// HTTPErrorのステータスを確認
func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if assert.True(t, ok, "want HTTPError, got %v", err) {
		assert.Equal(t, status, he.Status, he.Message)
	}
}

func qtyByProduct(resp usecase.CartResponse) map[int64]int64 {
	out := map[int64]int64{}
	for _, it := range resp.Items {
		out[it.ProductID] = it.Quantity
	}
	return out
}
