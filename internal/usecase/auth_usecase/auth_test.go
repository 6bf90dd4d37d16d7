package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"perfumeshop/internal/domain/model"
	"perfumeshop/internal/repository"
	auth "perfumeshop/internal/usecase/auth_usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByGoogleSub(ctx context.Context, sub string) (*model.User, error) {
	args := m.Called(ctx, sub)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListCustomers(ctx context.Context) ([]repository.CustomerRow, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]repository.CustomerRow)
	return rows, args.Error(1)
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

// =====================
// Fakes
// =====================

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fakeGoogle struct {
	user googleResult
}

type googleResult struct {
	User auth.GoogleUser
	Err  error
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, _ string) (auth.GoogleUser, error) {
	return f.user.User, f.user.Err
}

const testSecret = "test-secret"

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newIssuer() *auth.JWTIssuer {
	return auth.NewJWTIssuer(testSecret, 15*time.Minute)
}

// =====================
// Register
// =====================

func TestRegister_Success(t *testing.T) {
	repo := new(MockUserRepository)
	hasher := auth.NewBcryptPasswordHasher(4)
	uc := auth.NewRegisterUserUsecase(repo, hasher, fixedClock{now: testNow})

	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "jane@example.com" && u.Role == model.RoleUser && u.IsActive && u.PasswordHash != "Sandalwood-77"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 10
	}).Return(nil)

	out, err := uc.Execute(context.Background(), auth.RegisterUserInput{Email: " Jane@Example.com ", Name: " Jane ", Password: "Sandalwood-77"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.User.ID)
	assert.Equal(t, "Jane", out.User.Name)
	assert.True(t, hasher.Verify("Sandalwood-77", out.User.PasswordHash))
	repo.AssertExpectations(t)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name  string
		in    auth.RegisterUserInput
		setup func(*MockUserRepository)
		want  error
	}{
		{
			name: "invalid email",
			in:   auth.RegisterUserInput{Email: "not-an-email", Password: "Sandalwood-77"},
			want: auth.ErrInvalidEmailFormat,
		},
		{
			name: "short password",
			in:   auth.RegisterUserInput{Email: "a@example.com", Password: "short"},
			want: auth.ErrPasswordTooShort,
		},
		{
			name: "weak password",
			in:   auth.RegisterUserInput{Email: "a@example.com", Password: "Perfume123"},
			want: auth.ErrWeakPassword,
		},
		{
			name: "existing email",
			in:   auth.RegisterUserInput{Email: "a@example.com", Password: "Sandalwood-77"},
			setup: func(r *MockUserRepository) {
				r.On("FindByEmail", mock.Anything, "a@example.com").Return(&model.User{ID: 1}, nil)
			},
			want: auth.ErrEmailAlreadyExists,
		},
		{
			name: "duplicate on insert",
			in:   auth.RegisterUserInput{Email: "a@example.com", Password: "Sandalwood-77"},
			setup: func(r *MockUserRepository) {
				r.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, repository.ErrNotFound)
				r.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)
			},
			want: auth.ErrEmailAlreadyExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			if tt.setup != nil {
				tt.setup(repo)
			}
			uc := auth.NewRegisterUserUsecase(repo, auth.NewBcryptPasswordHasher(4), fixedClock{now: testNow})
			_, err := uc.Execute(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// =====================
// Login
// =====================

func TestLogin(t *testing.T) {
	hasher := auth.NewBcryptPasswordHasher(4)
	hash, err := hasher.Hash("Sandalwood-77")
	require.NoError(t, err)

	active := func() *model.User {
		return &model.User{ID: 5, Email: "jane@example.com", PasswordHash: hash, Role: model.RoleUser, TokenVersion: 2, IsActive: true}
	}

	t.Run("success", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(active(), nil)
		repo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
			return u.LastLoginAt != nil && u.LastLoginAt.Equal(testNow)
		})).Return(nil)

		uc := auth.NewLoginUsecase(repo, hasher, newIssuer(), fixedClock{now: testNow}, nil)
		out, err := uc.Execute(context.Background(), auth.LoginInput{Email: "JANE@example.com", Password: "Sandalwood-77"})
		require.NoError(t, err)
		assert.Equal(t, 900, out.Token.ExpiresIn)
		assert.Equal(t, 2, out.Token.TokenVersion)
		assert.NotEmpty(t, out.Token.AccessToken)
		repo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(active(), nil)

		uc := auth.NewLoginUsecase(repo, hasher, newIssuer(), fixedClock{now: testNow}, nil)
		_, err := uc.Execute(context.Background(), auth.LoginInput{Email: "jane@example.com", Password: "nope-nope"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound)

		uc := auth.NewLoginUsecase(repo, hasher, newIssuer(), fixedClock{now: testNow}, nil)
		_, err := uc.Execute(context.Background(), auth.LoginInput{Email: "ghost@example.com", Password: "Sandalwood-77"})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("inactive", func(t *testing.T) {
		u := active()
		u.IsActive = false
		repo := new(MockUserRepository)
		repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(u, nil)

		uc := auth.NewLoginUsecase(repo, hasher, newIssuer(), fixedClock{now: testNow}, nil)
		_, err := uc.Execute(context.Background(), auth.LoginInput{Email: "jane@example.com", Password: "Sandalwood-77"})
		assert.ErrorIs(t, err, auth.ErrUserInactive)
	})
}

// =====================
// JWT
// =====================

func TestJWT_RoundTrip(t *testing.T) {
	tok, exp, err := newIssuer().Issue(42, model.RoleAdmin, 3, time.Now())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	claims, err := auth.ParseAccessToken(testSecret, tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)

	_, err = auth.ParseAccessToken("other-secret", tok)
	assert.Error(t, err)

	_, _, err = auth.NewJWTIssuer("", time.Minute).Issue(1, model.RoleUser, 0, time.Now())
	assert.Error(t, err)
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, auth.ValidatePassword("Sandalwood-77"))
	assert.ErrorIs(t, auth.ValidatePassword("1234567"), auth.ErrPasswordTooShort)
	assert.ErrorIs(t, auth.ValidatePassword(" PASSWORD123 "), auth.ErrWeakPassword)
	assert.Equal(t, "a@example.com", auth.NormalizeEmail("  A@Example.COM "))
}

// =====================
// Google
// =====================

func TestGoogleLogin_Disabled(t *testing.T) {
	uc := auth.NewGoogleLoginUsecase(new(MockUserRepository), nil, newIssuer(), fixedClock{now: testNow}, nil)
	assert.False(t, uc.Enabled())

	_, err := uc.AuthURL("state")
	assert.ErrorIs(t, err, auth.ErrGoogleDisabled)
	_, err = uc.Execute(context.Background(), "code")
	assert.ErrorIs(t, err, auth.ErrGoogleDisabled)
}

func TestGoogleLogin_LinksExistingEmail(t *testing.T) {
	repo := new(MockUserRepository)
	provider := &fakeGoogle{user: googleResult{User: auth.GoogleUser{Sub: "g-1", Email: "Jane@Example.com", EmailVerified: true, Name: "Jane"}}}
	existing := &model.User{ID: 5, Email: "jane@example.com", PasswordHash: "h", Role: model.RoleUser, IsActive: true}

	repo.On("FindByGoogleSub", mock.Anything, "g-1").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "jane@example.com").Return(existing, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.GoogleSub != nil && *u.GoogleSub == "g-1"
	})).Return(nil)

	uc := auth.NewGoogleLoginUsecase(repo, provider, newIssuer(), fixedClock{now: testNow}, nil)
	require.True(t, uc.Enabled())

	url, err := uc.AuthURL("xyz")
	require.NoError(t, err)
	assert.Contains(t, url, "state=xyz")

	out, err := uc.Execute(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.User.ID)
	assert.Equal(t, "Jane", out.User.Name)
	repo.AssertExpectations(t)
}

func TestGoogleLogin_CreatesNewUser(t *testing.T) {
	repo := new(MockUserRepository)
	provider := &fakeGoogle{user: googleResult{User: auth.GoogleUser{Sub: "g-2", Email: "new@example.com", EmailVerified: true, Name: "New"}}}

	repo.On("FindByGoogleSub", mock.Anything, "g-2").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.PasswordHash == "" && u.GoogleSub != nil && *u.GoogleSub == "g-2"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 11
	}).Return(nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	uc := auth.NewGoogleLoginUsecase(repo, provider, newIssuer(), fixedClock{now: testNow}, nil)
	out, err := uc.Execute(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.User.ID)
	repo.AssertExpectations(t)
}

func TestGoogleLogin_Rejects(t *testing.T) {
	tests := []struct {
		name string
		gu   googleResult
		code string
		want error
	}{
		{name: "empty code", code: " ", want: auth.ErrGoogleExchange},
		{name: "exchange fails", code: "c", gu: googleResult{Err: errors.New("bad code")}, want: auth.ErrGoogleExchange},
		{name: "unverified email", code: "c", gu: googleResult{User: auth.GoogleUser{Sub: "g", Email: "a@example.com"}}, want: auth.ErrEmailNotVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := auth.NewGoogleLoginUsecase(new(MockUserRepository), &fakeGoogle{user: tt.gu}, newIssuer(), fixedClock{now: testNow}, nil)
			_, err := uc.Execute(context.Background(), tt.code)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
