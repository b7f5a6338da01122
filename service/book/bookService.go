package booksvc

import (
	"context"
	"errors"
	"math"

	"github.com/dkibalenko/city-library-api/model"
	bookrepo "github.com/dkibalenko/city-library-api/repository/book"
)

var (
	ErrBadInput  = errors.New("invalid payload")
	ErrNotFound  = errors.New("book not found")
	ErrProtected = errors.New("book has borrowings")
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) (*model.Book, error)
	List(ctx context.Context) ([]model.Book, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)
	Update(ctx context.Context, b *model.Book) (*model.Book, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func validate(b *model.Book) error {
	if b.Title == "" || b.Author == "" {
		return ErrBadInput
	}
	if b.Cover == "" {
		b.Cover = model.CoverSoft
	}
	if b.Cover != model.CoverHard && b.Cover != model.CoverSoft {
		return ErrBadInput
	}
	if b.Inventory < 0 {
		return ErrBadInput
	}
	// daily_fee is NUMERIC(5,2): at most 999.99, two decimal places.
	if b.DailyFee < 0 || b.DailyFee >= 1000 {
		return ErrBadInput
	}
	if math.Abs(b.DailyFee*100-math.Round(b.DailyFee*100)) > 1e-9 {
		return ErrBadInput
	}
	return nil
}

func (s *service) Create(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) List(ctx context.Context) ([]model.Book, error) { return s.r.List(ctx) }

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	if err := validate(b); err != nil {
		return nil, err
	}
	found, err := s.r.Update(ctx, b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	found, err := s.r.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, bookrepo.ErrProtected) {
			return ErrProtected
		}
		return err
	}
	if !found {
		return ErrNotFound
	}
	return nil
}
