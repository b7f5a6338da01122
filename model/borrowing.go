// model/borrowing.go
package model

type Borrowing struct {
	ID                 int64  `json:"id"`
	BookID             int64  `json:"-"`
	Book               *Book  `json:"book,omitempty"`
	UserID             int64  `json:"-"`
	UserEmail          string `json:"user_email"`
	BorrowDate         Date   `json:"borrow_date"`
	ExpectedReturnDate Date   `json:"expected_return_date"`
	ActualReturnDate   *Date  `json:"actual_return_date"`
	IsActive           bool   `json:"is_active"`
}
