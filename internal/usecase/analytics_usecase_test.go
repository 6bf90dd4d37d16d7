package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	repo "perfumeshop/internal/repository"
	"perfumeshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type analyticsRepoMock struct{ mock.Mock }

func (m *analyticsRepoMock) SalesTotals(ctx context.Context, from, to time.Time) (repo.SalesTotals, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(repo.SalesTotals), args.Error(1)
}

func (m *analyticsRepoMock) OrdersByStatus(ctx context.Context, from, to time.Time) ([]repo.StatusCount, error) {
	args := m.Called(ctx, from, to)
	out, _ := args.Get(0).([]repo.StatusCount)
	return out, args.Error(1)
}

func (m *analyticsRepoMock) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]repo.ProductSales, error) {
	args := m.Called(ctx, from, to, limit)
	out, _ := args.Get(0).([]repo.ProductSales)
	return out, args.Error(1)
}

func (m *analyticsRepoMock) NewCustomers(ctx context.Context, from, to time.Time) (int64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *analyticsRepoMock) DailyRevenue(ctx context.Context, from, to time.Time) ([]repo.DailyRevenue, error) {
	args := m.Called(ctx, from, to)
	out, _ := args.Get(0).([]repo.DailyRevenue)
	return out, args.Error(1)
}

func TestAnalyticsUsecase_Summary(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 4, 0, 0, 0, 0, time.UTC)

	m := new(analyticsRepoMock)
	m.On("SalesTotals", mock.Anything, from, to).Return(repo.SalesTotals{Revenue: 10000, OrderCount: 3}, nil)
	m.On("OrdersByStatus", mock.Anything, from, to).Return([]repo.StatusCount{{Status: "PAID", Count: 2}, {Status: "CANCELED", Count: 1}}, nil)
	m.On("TopProducts", mock.Anything, from, to, 5).Return([]repo.ProductSales{{ProductID: 7, Name: "Oud", Units: 4, Revenue: 8000}}, nil)
	m.On("NewCustomers", mock.Anything, from, to).Return(int64(2), nil)
	m.On("DailyRevenue", mock.Anything, from, to).Return([]repo.DailyRevenue{{Day: "2025-05-02", Revenue: 10000, Orders: 3}}, nil)

	out, err := usecase.NewAnalyticsUsecase(m).Summary(context.Background(), &from, &to)
	require.NoError(t, err)

	assert.Equal(t, int64(10000), out.Revenue)
	assert.Equal(t, int64(3), out.OrderCount)
	assert.Equal(t, int64(3333), out.AverageOrderValue)
	assert.Equal(t, map[string]int64{"PAID": 2, "CANCELED": 1}, out.OrdersByStatus)
	require.Len(t, out.TopProducts, 1)
	assert.Equal(t, "Oud", out.TopProducts[0].Name)
	assert.Equal(t, int64(2), out.NewCustomers)
	assert.Equal(t, []usecase.DailyPoint{
		{Date: "2025-05-01"},
		{Date: "2025-05-02", Revenue: 10000, Orders: 3},
		{Date: "2025-05-03"},
	}, out.Daily)
	m.AssertExpectations(t)
}

func TestAnalyticsUsecase_Summary_RepoError(t *testing.T) {
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	m := new(analyticsRepoMock)
	m.On("SalesTotals", mock.Anything, from, to).Return(repo.SalesTotals{}, errors.New("boom"))
	m.On("OrdersByStatus", mock.Anything, from, to).Return(nil, nil)
	m.On("TopProducts", mock.Anything, from, to, 5).Return(nil, nil)
	m.On("NewCustomers", mock.Anything, from, to).Return(int64(0), nil)
	m.On("DailyRevenue", mock.Anything, from, to).Return(nil, nil)

	_, err := usecase.NewAnalyticsUsecase(m).Summary(context.Background(), &from, &to)
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestAnalyticsUsecase_Summary_InvalidRange(t *testing.T) {
	uc := usecase.NewAnalyticsUsecase(new(analyticsRepoMock))
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := uc.Summary(context.Background(), &from, &from)
	assertStatus(t, err, http.StatusBadRequest)

	tooFar := from.AddDate(2, 0, 0)
	_, err = uc.Summary(context.Background(), &from, &tooFar)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestFillDailySeries_EmptyRows(t *testing.T) {
	from := time.Date(2025, 1, 30, 15, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC)

	got := usecase.FillDailySeries(from, to, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "2025-01-30", got[0].Date)
	assert.Equal(t, "2025-02-01", got[2].Date)
}
