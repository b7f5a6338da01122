package usersvc

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dkibalenko/city-library-api/model"
	"github.com/dkibalenko/city-library-api/util/hash"
	jwtutil "github.com/dkibalenko/city-library-api/util/jwt"
)

var (
	ErrEmailRequired = errors.New("The given email must be set")
	ErrStaffFlag     = errors.New("Superuser must have is_staff=True.")
	ErrSuperuserFlag = errors.New("Superuser must have is_superuser=True.")
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidCreds  = errors.New("invalid credentials")
	ErrNotFound      = errors.New("user not found")
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, u *model.User) error
}

// UpdateParams carries a partial profile update; nil fields stay untouched.
type UpdateParams struct {
	Email    *string
	Password *string
}

type Service interface {
	Create(ctx context.Context, email, password string) (*model.User, error)
	CreateSuperuser(ctx context.Context, email, password string, isStaff, isSuperuser bool) (*model.User, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
	Me(ctx context.Context, id int64) (*model.User, error)
	Update(ctx context.Context, id int64, p UpdateParams) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type service struct {
	r      Repo
	secret string
}

func New(r Repo, secret string) Service { return &service{r: r, secret: secret} }

func (s *service) Create(ctx context.Context, email, password string) (*model.User, error) {
	return s.create(ctx, email, password, false, false)
}

func (s *service) CreateSuperuser(ctx context.Context, email, password string, isStaff, isSuperuser bool) (*model.User, error) {
	if !isStaff {
		return nil, ErrStaffFlag
	}
	if !isSuperuser {
		return nil, ErrSuperuserFlag
	}
	return s.create(ctx, email, password, true, true)
}

func (s *service) create(ctx context.Context, email, password string, isStaff, isSuperuser bool) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailRequired
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hashed,
		IsStaff:      isStaff,
		IsSuperuser:  isSuperuser,
	}
	if err := s.r.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	u, err := s.r.ByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", ErrInvalidCreds
	}
	token, err := jwtutil.Issue(s.secret, u.ID, u.Email, u.IsStaff, u.IsSuperuser, 24)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Me(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *service) Update(ctx context.Context, id int64, p UpdateParams) (*model.User, error) {
	u, err := s.Me(ctx, id)
	if err != nil {
		return nil, err
	}

	if p.Email != nil {
		email := normalizeEmail(*p.Email)
		if email == "" {
			return nil, ErrEmailRequired
		}
		u.Email = email
	}
	if p.Password != nil {
		hashed, err := hash.HashPassword(*p.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hashed
	}

	if err := s.r.Update(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (s *service) List(ctx context.Context) ([]model.User, error) { return s.r.List(ctx) }

// normalizeEmail trims whitespace and lower-cases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
