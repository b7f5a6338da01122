// service/book/book_service_test.go
package booksvc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dkibalenko/city-library-api/model"
	bookrepo "github.com/dkibalenko/city-library-api/repository/book"
	booksvc "github.com/dkibalenko/city-library-api/service/book"
)

type repoMock struct {
	createFn func(ctx context.Context, b *model.Book) error
	listFn   func(ctx context.Context) ([]model.Book, error)
	detailFn func(ctx context.Context, id int64) (*model.Book, error)
	updateFn func(ctx context.Context, b *model.Book) (bool, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)
}

func (m *repoMock) Create(ctx context.Context, b *model.Book) error {
	if m.createFn == nil {
		b.ID = 1
		return nil
	}
	return m.createFn(ctx, b)
}
func (m *repoMock) List(ctx context.Context) ([]model.Book, error) { return m.listFn(ctx) }
func (m *repoMock) Detail(ctx context.Context, id int64) (*model.Book, error) {
	if m.detailFn == nil {
		return nil, nil
	}
	return m.detailFn(ctx, id)
}
func (m *repoMock) Update(ctx context.Context, b *model.Book) (bool, error) {
	if m.updateFn == nil {
		return true, nil
	}
	return m.updateFn(ctx, b)
}
func (m *repoMock) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn == nil {
		return true, nil
	}
	return m.deleteFn(ctx, id)
}

func TestCreate_Validation(t *testing.T) {
	s := booksvc.New(&repoMock{})
	ctx := context.Background()

	bad := []model.Book{
		{Title: "", Author: "a", Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "", Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "a", Cover: "PAPERBACK", Inventory: 1, DailyFee: 1},
		{Title: "t", Author: "a", Inventory: -1, DailyFee: 1},
		{Title: "t", Author: "a", Inventory: 1, DailyFee: -0.5},
		{Title: "t", Author: "a", Inventory: 1, DailyFee: 1000},
		{Title: "t", Author: "a", Inventory: 1, DailyFee: 1.999},
	}
	for i := range bad {
		if _, err := s.Create(ctx, &bad[i]); !errors.Is(err, booksvc.ErrBadInput) {
			t.Fatalf("case %d: got %v; want ErrBadInput", i, err)
		}
	}
}

func TestCreate_DefaultCover(t *testing.T) {
	s := booksvc.New(&repoMock{})
	b, err := s.Create(context.Background(), &model.Book{Title: "t", Author: "a", Inventory: 3, DailyFee: 1.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Cover != model.CoverSoft {
		t.Fatalf("got cover %q; want SOFT default", b.Cover)
	}
}

func TestCreate_Success(t *testing.T) {
	m := &repoMock{
		createFn: func(ctx context.Context, b *model.Book) error {
			if b.Title != "Clean Code" || b.Author != "Robert C. Martin" || b.DailyFee != 2.25 {
				return errors.New("bad args")
			}
			b.ID = 42
			return nil
		},
	}
	s := booksvc.New(m)
	b, err := s.Create(context.Background(), &model.Book{
		Title: "Clean Code", Author: "Robert C. Martin", Cover: model.CoverHard,
		Inventory: 5, DailyFee: 2.25,
	})
	if err != nil || b.ID != 42 {
		t.Fatalf("got id=%v err=%v; want 42 nil", b, err)
	}
}

func TestDetail_NotFound(t *testing.T) {
	s := booksvc.New(&repoMock{})
	if _, err := s.Detail(context.Background(), 99); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	m := &repoMock{
		updateFn: func(ctx context.Context, b *model.Book) (bool, error) { return false, nil },
	}
	s := booksvc.New(m)
	_, err := s.Update(context.Background(), &model.Book{ID: 9, Title: "t", Author: "a", Inventory: 1, DailyFee: 1})
	if !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestDelete_Protected(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, bookrepo.ErrProtected },
	}
	s := booksvc.New(m)
	if err := s.Delete(context.Background(), 7); !errors.Is(err, booksvc.ErrProtected) {
		t.Fatalf("got %v; want ErrProtected", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := &repoMock{
		deleteFn: func(ctx context.Context, id int64) (bool, error) { return false, nil },
	}
	s := booksvc.New(m)
	if err := s.Delete(context.Background(), 7); !errors.Is(err, booksvc.ErrNotFound) {
		t.Fatalf("got %v; want ErrNotFound", err)
	}
}

func TestPassThroughs(t *testing.T) {
	m := &repoMock{
		listFn: func(ctx context.Context) ([]model.Book, error) {
			return []model.Book{{ID: 1, Title: "A"}}, nil
		},
		detailFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id}, nil
		},
	}
	s := booksvc.New(m)

	rows, err := s.List(context.Background())
	if err != nil || len(rows) != 1 {
		t.Fatalf("List got %v %v; want one row", rows, err)
	}
	if _, err := s.Detail(context.Background(), 99); err != nil {
		t.Fatalf("Detail error: %v", err)
	}
}
