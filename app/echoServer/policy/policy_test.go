package policy

import (
	"testing"

	"github.com/dkibalenko/city-library-api/model"
)

func TestCan(t *testing.T) {
	anon := (*model.Requester)(nil)
	user := &model.Requester{ID: 1}
	admin := &model.Requester{ID: 2, IsStaff: true, IsSuperuser: true}

	cases := []struct {
		name   string
		r      *model.Requester
		action Action
		want   bool
	}{
		{"anon can list books", anon, BookList, true},
		{"anon can get book", anon, BookGet, true},
		{"anon can sign up", anon, UserCreate, true},
		{"anon cannot create book", anon, BookCreate, false},
		{"anon cannot list borrowings", anon, BorrowingList, false},
		{"anon cannot read own profile", anon, UserMe, false},

		{"user cannot create book", user, BookCreate, false},
		{"user cannot update book", user, BookUpdate, false},
		{"user cannot delete book", user, BookDelete, false},
		{"user cannot list users", user, UserList, false},
		{"user can list borrowings", user, BorrowingList, true},
		{"user can create borrowing", user, BorrowingCreate, true},
		{"user can get borrowing", user, BorrowingGet, true},
		{"user can return borrowing", user, BorrowingReturn, true},
		{"user can read own profile", user, UserMe, true},

		{"admin can create book", admin, BookCreate, true},
		{"admin can delete book", admin, BookDelete, true},
		{"admin can list users", admin, UserList, true},
		{"admin can list borrowings", admin, BorrowingList, true},

		{"unknown action denied", admin, Action("nope"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.r, tc.action); got != tc.want {
				t.Fatalf("Can(%v, %s) = %v; want %v", tc.r, tc.action, got, tc.want)
			}
		})
	}
}
