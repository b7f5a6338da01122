package borrowingsvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dkibalenko/city-library-api/model"
	borrowingrepo "github.com/dkibalenko/city-library-api/repository/borrowing"
	telegramrepo "github.com/dkibalenko/city-library-api/repository/telegram"
)

// errors used by controllers

type ErrCode string

const (
	ErrBookNotFound ErrCode = "BOOK_NOT_FOUND"
	ErrNoStock      ErrCode = "NO_STOCK"
	ErrInvalidRange ErrCode = "INVALID_DATE_RANGE"
	ErrNotFound     ErrCode = "NOT_FOUND"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Filter mirrors the recognized list query options.
type Filter struct {
	IsActive *bool
	UserID   *int64
}

type Repo interface {
	Begin(ctx context.Context) (borrowingrepo.Tx, error)
	List(ctx context.Context, f borrowingrepo.Filter) ([]model.Borrowing, error)
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
}

// BookReader is the slice of the book repository the ledger needs for its
// preconditions.
type BookReader interface {
	Detail(ctx context.Context, id int64) (*model.Book, error)
}

type Service interface {
	// Create: open a borrowing and take one copy off the shelf, atomically.
	Create(ctx context.Context, requester *model.Requester, bookID int64, borrowDate, expectedReturnDate model.Date) (*model.Borrowing, error)

	// Return: stamp today's date on the borrowing and put the copy back.
	Return(ctx context.Context, requester *model.Requester, borrowingID int64) (*model.Borrowing, error)

	// List: borrowings visible to the requester, borrow_date ascending.
	List(ctx context.Context, requester *model.Requester, f Filter) ([]model.Borrowing, error)

	// Get: single borrowing with its book expanded.
	Get(ctx context.Context, requester *model.Requester, id int64) (*model.Borrowing, error)
}

// ----- Service implementation -----

type service struct {
	r     Repo
	books BookReader
	tg    telegramrepo.Repo
	log   *slog.Logger
}

func New(r Repo, books BookReader, tg telegramrepo.Repo, log *slog.Logger) Service {
	return &service{r: r, books: books, tg: tg, log: log}
}

func (s *service) Create(ctx context.Context, requester *model.Requester, bookID int64, borrowDate, expectedReturnDate model.Date) (b *model.Borrowing, err error) {
	// Preconditions, checked before the transaction opens.
	book, err := s.books.Detail(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrBookNotFound)
	}
	if book.Inventory <= 0 {
		return nil, makeErr(ErrNoStock)
	}
	if borrowDate.After(expectedReturnDate.Time) {
		return nil, makeErr(ErrInvalidRange)
	}

	tx, err := s.r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b = &model.Borrowing{
		BookID:             bookID,
		UserID:             requester.ID,
		UserEmail:          requester.Email,
		BorrowDate:         borrowDate,
		ExpectedReturnDate: expectedReturnDate,
		IsActive:           true,
	}
	if err = tx.InsertBorrowing(ctx, b); err != nil {
		return nil, mapIntegrityErr(err)
	}

	// The guarded decrement makes the read above race-safe: a concurrent
	// borrow of the last copy loses here and the whole tx rolls back.
	if err = tx.DecrementInventory(ctx, bookID); err != nil {
		if errors.Is(err, borrowingrepo.ErrNoStock) {
			return nil, makeErr(ErrNoStock)
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, mapIntegrityErr(err)
	}

	book.Inventory--
	b.Book = book

	// Post-commit, best effort. Runs detached so the sink's latency or
	// failure never reaches the caller.
	go s.notifyCreated(b)

	return b, nil
}

func (s *service) Return(ctx context.Context, requester *model.Requester, borrowingID int64) (out *model.Borrowing, err error) {
	tx, err := s.r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b, err := tx.GetForUpdate(ctx, borrowingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, makeErr(ErrNotFound)
		}
		return nil, err
	}

	// Deliberately no owner or already-returned check: returns may be done
	// on anyone's behalf, and a repeated return just re-stamps the date and
	// puts another copy back.
	if err = tx.MarkReturned(ctx, borrowingID, model.Today()); err != nil {
		return nil, mapIntegrityErr(err)
	}
	if err = tx.IncrementInventory(ctx, b.BookID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, mapIntegrityErr(err)
	}

	return s.Get(ctx, requester, borrowingID)
}

func (s *service) List(ctx context.Context, requester *model.Requester, f Filter) ([]model.Borrowing, error) {
	rf := borrowingrepo.Filter{IsActive: f.IsActive}
	if requester.IsSuperuser {
		rf.UserID = f.UserID
	} else {
		// Non-superusers only ever see their own rows; user_id is ignored.
		rf.UserID = &requester.ID
	}
	return s.r.List(ctx, rf)
}

func (s *service) Get(ctx context.Context, _ *model.Requester, id int64) (*model.Borrowing, error) {
	b, err := s.r.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, makeErr(ErrNotFound)
	}
	return b, nil
}

func (s *service) notifyCreated(b *model.Borrowing) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	text := fmt.Sprintf(
		"<b>New borrowing</b>\nUser: %s\nBook: %s\nBorrowed: %s\nExpected return: %s",
		b.UserEmail, b.Book.Title, b.BorrowDate, b.ExpectedReturnDate,
	)
	ok, err := s.tg.Send(ctx, telegramrepo.SendMessageReq{Text: text})
	if !ok {
		s.log.Warn("borrowing notification failed", "borrowing_id", b.ID, "err", err)
	}
}

// mapIntegrityErr turns a CHECK-constraint violation raised at the store into
// the date-range validation error instead of leaking it as a 500.
func mapIntegrityErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return makeErr(ErrInvalidRange)
	}
	return err
}
