package usersvc

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/dkibalenko/city-library-api/model"
	"github.com/dkibalenko/city-library-api/util/hash"
)

type mockRepo struct {
	createFn  func(ctx context.Context, u *model.User) error
	byEmailFn func(ctx context.Context, email string) (*model.User, error)
	byIDFn    func(ctx context.Context, id int64) (*model.User, error)
	listFn    func(ctx context.Context) ([]model.User, error)
	updateFn  func(ctx context.Context, u *model.User) error
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		u.ID = 1
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.byEmailFn == nil {
		return nil, nil
	}
	return m.byEmailFn(ctx, email)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return nil, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context) ([]model.User, error) {
	if m.listFn == nil {
		return nil, nil
	}
	return m.listFn(ctx)
}

func (m *mockRepo) Update(ctx context.Context, u *model.User) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, u)
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			u.ID = 42
			return nil
		},
	}
	svc := New(m, "test-secret")

	u, err := svc.Create(ctx, "reader@Example.COM", "supersecret")
	require.NoError(t, err)
	require.Equal(t, int64(42), u.ID)
	require.Equal(t, "reader@example.com", u.Email)
	require.False(t, u.IsStaff)
	require.False(t, u.IsSuperuser)
	require.NotEqual(t, "supersecret", u.PasswordHash)
	require.True(t, hash.Check(u.PasswordHash, "supersecret"))
}

func TestCreate_MissingEmail(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.Create(context.Background(), "  ", "supersecret")
	require.ErrorIs(t, err, ErrEmailRequired)
	require.Equal(t, "The given email must be set", err.Error())
}

func TestCreate_NormalizesDomainOnly(t *testing.T) {
	m := &mockRepo{}
	svc := New(m, "test-secret")

	u, err := svc.Create(context.Background(), "Reader@EXAMPLE.Com", "supersecret")
	require.NoError(t, err)
	require.Equal(t, "Reader@example.com", u.Email)
}

func TestCreate_EmailTaken(t *testing.T) {
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: "23505"}
		},
	}
	svc := New(m, "test-secret")

	_, err := svc.Create(context.Background(), "taken@example.com", "supersecret")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateSuperuser_RequiresStaffFlag(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.CreateSuperuser(context.Background(), "admin@example.com", "pw123456", false, true)
	require.ErrorIs(t, err, ErrStaffFlag)
	require.Equal(t, "Superuser must have is_staff=True.", err.Error())
}

func TestCreateSuperuser_RequiresSuperuserFlag(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.CreateSuperuser(context.Background(), "admin@example.com", "pw123456", true, false)
	require.ErrorIs(t, err, ErrSuperuserFlag)
	require.Equal(t, "Superuser must have is_superuser=True.", err.Error())
}

func TestCreateSuperuser_Success(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	u, err := svc.CreateSuperuser(context.Background(), "admin@example.com", "pw123456", true, true)
	require.NoError(t, err)
	require.True(t, u.IsStaff)
	require.True(t, u.IsSuperuser)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := hash.HashPassword(plain)
	require.NoError(t, err)
	return h
}

func TestLogin_Success(t *testing.T) {
	hashed := mustHash(t, "supersecret")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: "reader@example.com", PasswordHash: hashed, IsSuperuser: true}, nil
		},
	}
	svc := New(m, "test-secret")

	u, tok, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "reader@example.com",
		Password: "supersecret",
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), u.ID)
	require.NotEmpty(t, tok)
}

func TestLogin_UserNotFound(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "missing@example.com",
		Password: "whatever",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_WrongPassword(t *testing.T) {
	hashed := mustHash(t, "correct-password")
	m := &mockRepo{
		byEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 7, Email: "reader@example.com", PasswordHash: hashed}, nil
		},
	}
	svc := New(m, "test-secret")

	_, _, err := svc.Login(context.Background(), model.LoginReq{
		Email:    "reader@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrInvalidCreds)
}

func TestUpdate_PasswordRehash(t *testing.T) {
	oldHash := mustHash(t, "oldpassword")
	var saved *model.User
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Email: "reader@example.com", PasswordHash: oldHash}, nil
		},
		updateFn: func(ctx context.Context, u *model.User) error {
			saved = u
			return nil
		},
	}
	svc := New(m, "test-secret")

	pw := "newpassword"
	u, err := svc.Update(context.Background(), 7, UpdateParams{Password: &pw})
	require.NoError(t, err)
	require.Equal(t, "reader@example.com", u.Email)
	require.True(t, hash.Check(u.PasswordHash, "newpassword"))
	require.NotNil(t, saved)
}

func TestUpdate_EmptyEmailRejected(t *testing.T) {
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) {
			return &model.User{ID: id, Email: "reader@example.com"}, nil
		},
	}
	svc := New(m, "test-secret")

	empty := ""
	_, err := svc.Update(context.Background(), 7, UpdateParams{Email: &empty})
	require.ErrorIs(t, err, ErrEmailRequired)
}

func TestMe_NotFound(t *testing.T) {
	svc := New(&mockRepo{}, "test-secret")

	_, err := svc.Me(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList_PassThrough(t *testing.T) {
	m := &mockRepo{
		listFn: func(ctx context.Context) ([]model.User, error) {
			return []model.User{{ID: 1}, {ID: 2}}, nil
		},
	}
	svc := New(m, "test-secret")

	rows, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

func TestList_Error(t *testing.T) {
	m := &mockRepo{
		listFn: func(ctx context.Context) ([]model.User, error) {
			return nil, errors.New("db down")
		},
	}
	svc := New(m, "test-secret")

	_, err := svc.List(context.Background())
	require.Error(t, err)
}
