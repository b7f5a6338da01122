// Package main city library API.
//
// @title           City Library API
// @version         1.0
// @description     library borrowing service (books, borrowings, users).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/dkibalenko/city-library-api/app/echoServer"
	bookctrl "github.com/dkibalenko/city-library-api/app/echoServer/controller/book"
	borrowingctrl "github.com/dkibalenko/city-library-api/app/echoServer/controller/borrowing"
	userctrl "github.com/dkibalenko/city-library-api/app/echoServer/controller/user"
	"github.com/dkibalenko/city-library-api/app/echoServer/validation"
	"github.com/dkibalenko/city-library-api/config"
	bookrepo "github.com/dkibalenko/city-library-api/repository/book"
	borrowingrepo "github.com/dkibalenko/city-library-api/repository/borrowing"
	telegramrepo "github.com/dkibalenko/city-library-api/repository/telegram"
	userrepo "github.com/dkibalenko/city-library-api/repository/user"
	booksvc "github.com/dkibalenko/city-library-api/service/book"
	borrowingsvc "github.com/dkibalenko/city-library-api/service/borrowing"
	usersvc "github.com/dkibalenko/city-library-api/service/user"
	"github.com/dkibalenko/city-library-api/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// repos
	ur := userrepo.New(db)
	br := bookrepo.New(db)
	rr := borrowingrepo.New(db)
	tg := telegramrepo.NewHTTP(cfg.TelegramBotToken, cfg.TelegramChatID)

	// services
	us := usersvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	ls := borrowingsvc.New(rr, br, tg, log)

	bootstrapAdmin(ctx, us, log)

	// controllers
	v := validator.New()
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowingC := &borrowingctrl.Controller{Svc: ls, V: v, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		User:      userC,
		Book:      bookC,
		Borrowing: borrowingC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port)

	e.Logger.Fatal(e.Start(":" + port))
}

// bootstrapAdmin creates the initial superuser from ADMIN_EMAIL/ADMIN_PASSWORD
// if set. Safe to run on every boot: an existing email is left alone.
func bootstrapAdmin(ctx context.Context, us usersvc.Service, log *slog.Logger) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}
	if _, err := us.CreateSuperuser(ctx, email, password, true, true); err != nil {
		if errors.Is(err, usersvc.ErrEmailTaken) {
			return
		}
		log.Warn("admin bootstrap failed", "err", err)
	}
}
