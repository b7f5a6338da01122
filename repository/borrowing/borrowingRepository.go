package borrowingrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import

	"github.com/dkibalenko/city-library-api/model"
)

// ErrNoStock is returned by DecrementInventory when the guarded update
// matched no row, i.e. the book had no copies left.
var ErrNoStock = errors.New("no inventory available")

// Filter narrows List. Nil fields mean "not set".
type Filter struct {
	IsActive *bool
	UserID   *int64
}

// Tx is the transaction-scoped slice of the repository. The ledger service
// opens it, drives the borrow/return write pairs through it and commits;
// any error before Commit rolls the whole pair back.
type Tx interface {
	InsertBorrowing(ctx context.Context, b *model.Borrowing) error
	DecrementInventory(ctx context.Context, bookID int64) error
	GetForUpdate(ctx context.Context, id int64) (*model.Borrowing, error)
	MarkReturned(ctx context.Context, id int64, returned model.Date) error
	IncrementInventory(ctx context.Context, bookID int64) error
	Commit() error
	Rollback() error
}

type Repo interface {
	Begin(ctx context.Context) (Tx, error)
	List(ctx context.Context, f Filter) ([]model.Borrowing, error)
	Detail(ctx context.Context, id int64) (*model.Borrowing, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

type repoTx struct{ tx *sql.Tx }

func (r *repo) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &repoTx{tx: tx}, nil
}

func (t *repoTx) Commit() error   { return t.tx.Commit() }
func (t *repoTx) Rollback() error { return t.tx.Rollback() }

func (t *repoTx) InsertBorrowing(ctx context.Context, b *model.Borrowing) error {
	const q = `
		INSERT INTO borrowings (book_id, user_id, borrow_date, expected_return_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return t.tx.QueryRowContext(ctx, q, b.BookID, b.UserID, b.BorrowDate, b.ExpectedReturnDate).
		Scan(&b.ID)
}

func (t *repoTx) DecrementInventory(ctx context.Context, bookID int64) error {
	// Guard: only decrement while copies remain. Two concurrent borrows of
	// the last copy serialize on the row lock; the loser matches no row.
	const q = `
			UPDATE books
			SET inventory = inventory - 1
			WHERE id = $1
			AND inventory > 0`
	res, err := t.tx.ExecContext(ctx, q, bookID)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return ErrNoStock
	}
	return nil
}

func (t *repoTx) GetForUpdate(ctx context.Context, id int64) (*model.Borrowing, error) {
	const q = `
		SELECT id, book_id, user_id, borrow_date, expected_return_date, actual_return_date
		FROM borrowings
		WHERE id = $1
		FOR UPDATE`
	var b model.Borrowing
	var actual sql.NullTime
	err := t.tx.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.BookID, &b.UserID, &b.BorrowDate, &b.ExpectedReturnDate, &actual)
	if err != nil {
		return nil, err
	}
	if actual.Valid {
		d := model.Date{Time: actual.Time}
		b.ActualReturnDate = &d
	}
	b.IsActive = b.ActualReturnDate == nil
	return &b, nil
}

func (t *repoTx) MarkReturned(ctx context.Context, id int64, returned model.Date) error {
	const q = `
		UPDATE borrowings
		SET actual_return_date = $2
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, id, returned)
	return err
}

func (t *repoTx) IncrementInventory(ctx context.Context, bookID int64) error {
	const q = `
		UPDATE books
		SET inventory = inventory + 1
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, bookID)
	return err
}

// borrowingCols is the fixed select list shared by List and Detail.
var borrowingCols = []any{
	goqu.I("br.id"), goqu.I("br.book_id"), goqu.I("br.user_id"),
	goqu.I("br.borrow_date"), goqu.I("br.expected_return_date"), goqu.I("br.actual_return_date"),
	goqu.I("u.email"),
	goqu.I("b.title"), goqu.I("b.author"), goqu.I("b.cover"), goqu.I("b.inventory"), goqu.I("b.daily_fee"),
}

func borrowingQuery() *goqu.SelectDataset {
	return goqu.Dialect("postgres").
		From(goqu.T("borrowings").As("br")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("br.book_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("br.user_id")))).
		Select(borrowingCols...)
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Borrowing, error) {
	stmt := borrowingQuery().
		Order(goqu.I("br.borrow_date").Asc(), goqu.I("br.id").Asc())

	if f.IsActive != nil {
		if *f.IsActive {
			stmt = stmt.Where(goqu.I("br.actual_return_date").IsNull())
		} else {
			stmt = stmt.Where(goqu.I("br.actual_return_date").IsNotNull())
		}
	}
	if f.UserID != nil {
		stmt = stmt.Where(goqu.I("br.user_id").Eq(*f.UserID))
	}

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Borrowing
	for rows.Next() {
		b, err := scanBorrowing(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) Detail(ctx context.Context, id int64) (*model.Borrowing, error) {
	stmt := borrowingQuery().Where(goqu.I("br.id").Eq(id))

	query, args, err := stmt.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	b, err := scanBorrowing(r.db.QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func scanBorrowing(scan func(dest ...any) error) (*model.Borrowing, error) {
	var b model.Borrowing
	var book model.Book
	var actual sql.NullTime
	err := scan(
		&b.ID, &b.BookID, &b.UserID,
		&b.BorrowDate, &b.ExpectedReturnDate, &actual,
		&b.UserEmail,
		&book.Title, &book.Author, &book.Cover, &book.Inventory, &book.DailyFee,
	)
	if err != nil {
		return nil, err
	}
	if actual.Valid {
		d := model.Date{Time: actual.Time}
		b.ActualReturnDate = &d
	}
	book.ID = b.BookID
	b.Book = &book
	b.IsActive = b.ActualReturnDate == nil
	return &b, nil
}
