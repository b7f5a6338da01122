// app/echoServer/jwtx/requester.go
package jwtx

import (
	"github.com/labstack/echo/v4"

	"github.com/dkibalenko/city-library-api/model"
)

const ContextKey = "requester"

// FromContext returns the authenticated requester, or nil on public routes.
func FromContext(c echo.Context) *model.Requester {
	r, _ := c.Get(ContextKey).(*model.Requester)
	return r
}

// FromClaims builds a requester from verified JWT claims. Returns nil when
// the subject claim is missing or malformed.
func FromClaims(claims map[string]any) *model.Requester {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil
	}
	r := &model.Requester{ID: int64(sub)}
	r.Email, _ = claims["email"].(string)
	r.IsStaff, _ = claims["is_staff"].(bool)
	r.IsSuperuser, _ = claims["is_superuser"].(bool)
	return r
}
