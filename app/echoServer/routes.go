package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/dkibalenko/city-library-api/app/echoServer/controller/book"
	"github.com/dkibalenko/city-library-api/app/echoServer/controller/borrowing"
	"github.com/dkibalenko/city-library-api/app/echoServer/controller/user"
	"github.com/dkibalenko/city-library-api/app/echoServer/jwtx"
)

type C struct {
	User      *user.Controller
	Book      *book.Controller
	Borrowing *borrowing.Controller
	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.User.Register)
	pub.POST("/users/login", c.User.Login)

	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	auth := e.Group("/v1")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey: []byte(c.JWTSecret),

		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization",
	}))
	// requester extraction from verified claims
	auth.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			tokenObj := ctx.Get("user")
			var claims jwt.MapClaims
			switch t := tokenObj.(type) {
			case *jwt.Token:
				claims, _ = t.Claims.(jwt.MapClaims)
			case jwt.MapClaims:
				claims = t
			}
			if claims == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			req := jwtx.FromClaims(claims)
			if req == nil {
				return ctx.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
			}

			ctx.Set(jwtx.ContextKey, req)
			return next(ctx)
		}
	})

	// Books (admin mutations)
	auth.POST("/books", c.Book.Create)
	auth.PUT("/books/:id", c.Book.Update)
	auth.DELETE("/books/:id", c.Book.Delete)

	// Borrowings
	auth.GET("/borrowings", c.Borrowing.List)
	auth.POST("/borrowings", c.Borrowing.Create)
	auth.GET("/borrowings/:id", c.Borrowing.Detail)
	auth.GET("/borrowings/:id/return", c.Borrowing.ReturnPreview)
	auth.POST("/borrowings/:id/return", c.Borrowing.Return)

	// Users
	auth.GET("/users", c.User.List)
	auth.GET("/users/me", c.User.Me)
	auth.PUT("/users/me", c.User.UpdateMe)
}
