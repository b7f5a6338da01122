// Package policy holds the capability matrix in one place. Controllers call
// Can once per request instead of scattering role checks.
package policy

import "github.com/dkibalenko/city-library-api/model"

type Action string

const (
	BookList   Action = "book.list"
	BookGet    Action = "book.get"
	BookCreate Action = "book.create"
	BookUpdate Action = "book.update"
	BookDelete Action = "book.delete"

	BorrowingList   Action = "borrowing.list"
	BorrowingCreate Action = "borrowing.create"
	BorrowingGet    Action = "borrowing.get"
	BorrowingReturn Action = "borrowing.return"

	UserCreate Action = "user.create"
	UserList   Action = "user.list"
	UserMe     Action = "user.me"
)

// Can reports whether the requester may perform the action. A nil requester
// is anonymous. Note list/create scoping (own rows vs all) is the ledger's
// concern, not the policy's.
func Can(r *model.Requester, a Action) bool {
	switch a {
	case BookList, BookGet, UserCreate:
		return true
	case BookCreate, BookUpdate, BookDelete, UserList:
		return r != nil && r.IsStaff
	case BorrowingList, BorrowingCreate, BorrowingGet, BorrowingReturn, UserMe:
		return r != nil
	}
	return false
}
