package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"perfumeshop/internal/domain/model"
	repo "perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupportUC(env *testEnv) *usecase.SupportUsecase {
	return usecase.NewSupportUsecase(env.tickets, env.users, env.orders, env.audit)
}

func seedOrder(t *testing.T, env *testEnv, userID int64, key string) int64 {
	t.Helper()
	id, err := env.orders.Create(context.Background(), model.Order{
		UserID:         userID,
		AddressID:      1,
		Status:         model.OrderStatusPending,
		TotalPrice:     1000,
		IdempotencyKey: key,
	})
	require.NoError(t, err)
	return id
}

func TestSupportUsecase_Create_Guest(t *testing.T) {
	env := newTestEnv(t)
	uc := newSupportUC(env)
	ctx := context.Background()

	_, err := uc.Create(ctx, 0, usecase.CreateTicketInput{Subject: "Leak", Message: "bottle leaked"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = uc.Create(ctx, 0, usecase.CreateTicketInput{Email: "not-an-email", Subject: "Leak", Message: "bottle leaked"})
	assertStatus(t, err, http.StatusBadRequest)

	got, err := uc.Create(ctx, 0, usecase.CreateTicketInput{Email: "Guest@Example.com", Subject: " Leak ", Message: "bottle leaked"})
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.Equal(t, "guest@example.com", got.Email)
	assert.Equal(t, "Leak", got.Subject)
	assert.Equal(t, model.TicketStatusOpen, got.Status)
}

func TestSupportUsecase_Create_UserUsesAccountEmail(t *testing.T) {
	env := newTestEnv(t)
	uc := newSupportUC(env)
	ctx := context.Background()
	u := env.seedUser(t, "member@example.com")
	orderID := seedOrder(t, env, u.ID, "k1")

	got, err := uc.Create(ctx, u.ID, usecase.CreateTicketInput{
		Email:   "ignored@example.com",
		Subject: "Where is my order",
		Message: "not arrived",
		OrderID: &orderID,
	})
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, u.ID, *got.UserID)
	assert.Equal(t, "member@example.com", got.Email)
	require.NotNil(t, got.OrderID)
	assert.Equal(t, orderID, *got.OrderID)

	mine, err := uc.ListMine(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSupportUsecase_Create_OtherUsersOrder(t *testing.T) {
	env := newTestEnv(t)
	uc := newSupportUC(env)
	ctx := context.Background()
	owner := env.seedUser(t, "owner@example.com")
	other := env.seedUser(t, "other@example.com")
	orderID := seedOrder(t, env, owner.ID, "k1")

	_, err := uc.Create(ctx, other.ID, usecase.CreateTicketInput{Subject: "s", Message: "m", OrderID: &orderID})
	assertStatus(t, err, http.StatusBadRequest)

	missing := int64(9999)
	_, err = uc.Create(ctx, other.ID, usecase.CreateTicketInput{Subject: "s", Message: "m", OrderID: &missing})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestSupportUsecase_AdminUpdate(t *testing.T) {
	env := newTestEnv(t)
	uc := newSupportUC(env)
	ctx := context.Background()

	tk, err := uc.Create(ctx, 0, usecase.CreateTicketInput{Email: "g@example.com", Subject: "s", Message: "m"})
	require.NoError(t, err)

	reply := "  Sent a replacement  "
	got, err := uc.AdminUpdate(ctx, 7, tk.ID, usecase.UpdateTicketInput{Status: "resolved", AdminReply: &reply})
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, got.Status)
	assert.Equal(t, "Sent a replacement", got.AdminReply)

	stored, err := env.tickets.FindByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusResolved, stored.Status)

	logs, err := env.audit.List(ctx, repo.AuditLogFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionUpdateTicket, logs[0].Action)
	assert.JSONEq(t, `{"status":"OPEN","admin_reply":""}`, logs[0].BeforeJSON)
	assert.JSONEq(t, `{"status":"RESOLVED","admin_reply":"Sent a replacement"}`, logs[0].AfterJSON)

	_, err = uc.AdminUpdate(ctx, 7, tk.ID, usecase.UpdateTicketInput{Status: "LOST"})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = uc.AdminUpdate(ctx, 7, 9999, usecase.UpdateTicketInput{Status: "CLOSED"})
	assertStatus(t, err, http.StatusNotFound)
}

func TestSupportUsecase_AdminList(t *testing.T) {
	env := newTestEnv(t)
	uc := newSupportUC(env)
	ctx := context.Background()

	for _, s := range []string{"a", "b", "c"} {
		_, err := uc.Create(ctx, 0, usecase.CreateTicketInput{Email: "g@example.com", Subject: s, Message: "m"})
		require.NoError(t, err)
	}

	out, err := uc.AdminList(ctx, repo.TicketListFilter{Page: 1, Limit: 2, Status: "OPEN"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Total)
	assert.Len(t, out.Items, 2)

	_, err = uc.AdminList(ctx, repo.TicketListFilter{Page: 0, Limit: 2})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = uc.AdminList(ctx, repo.TicketListFilter{Page: 1, Limit: 101})
	assertStatus(t, err, http.StatusBadRequest)
	_, err = uc.AdminList(ctx, repo.TicketListFilter{Page: 1, Limit: 10, Status: "LOST"})
	assertStatus(t, err, http.StatusBadRequest)
}
