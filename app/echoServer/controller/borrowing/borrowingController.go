package borrowing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/dkibalenko/city-library-api/app/echoServer/jwtx"
	"github.com/dkibalenko/city-library-api/app/echoServer/policy"
	"github.com/dkibalenko/city-library-api/model"
	bs "github.com/dkibalenko/city-library-api/service/borrowing"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

// List borrowings
// @Summary      List borrowings
// @Description  Own borrowings; superusers see all and may filter by user_id
// @Tags         borrowings
// @Produce      json
// @Param        is_active  query  bool  false  "active filter"
// @Param        user_id    query  int   false  "borrower filter (superuser only)"
// @Success      200  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/borrowings [get]
func (h *Controller) List(c echo.Context) error {
	req := jwtx.FromContext(c)
	if !policy.Can(req, policy.BorrowingList) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	var f bs.Filter
	if v := c.QueryParam("is_active"); v != "" {
		active := v == "true"
		f.IsActive = &active
	}
	if v := c.QueryParam("user_id"); v != "" {
		uid, err := strconv.ParseInt(v, 10, 64)
		if err != nil || uid <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user_id"})
		}
		f.UserID = &uid
	}

	rows, err := h.Svc.List(c.Request().Context(), req, f)
	if err != nil {
		h.Log.Error("borrowing list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if rows == nil {
		rows = []model.Borrowing{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// Create borrowing
// @Summary      Borrow a book
// @Tags         borrowings
// @Accept       json
// @Produce      json
// @Param        payload  body  CreateBorrowingReq  true  "Borrow payload"
// @Success      201  {object}  model.Borrowing
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/borrowings [post]
func (h *Controller) Create(c echo.Context) error {
	req := jwtx.FromContext(c)
	if !policy.Can(req, policy.BorrowingCreate) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	var body CreateBorrowingReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "validation error",
			"errors":  err.Error(),
		})
	}

	borrowDate, err := model.ParseDate(body.BorrowDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid borrow_date"})
	}
	expected, err := model.ParseDate(body.ExpectedReturnDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid expected_return_date"})
	}

	out, err := h.Svc.Create(c.Request().Context(), req, body.Book, borrowDate, expected)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrBookNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
		case bs.ErrNoStock:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "Book is not available"})
		case bs.ErrInvalidRange:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "borrow_date must not be after expected_return_date"})
		default:
			h.Log.Error("borrowing create", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, out)
}

// Borrowing detail
// @Summary      Get a borrowing
// @Tags         borrowings
// @Produce      json
// @Param        id  path  int  true  "borrowing id"
// @Success      200  {object}  model.Borrowing
// @Failure      404  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/borrowings/{id} [get]
func (h *Controller) Detail(c echo.Context) error {
	req := jwtx.FromContext(c)
	if !policy.Can(req, policy.BorrowingGet) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Get(c.Request().Context(), req, id)
	if err != nil {
		if bs.Code(err) == bs.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		}
		h.Log.Error("borrowing detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, out)
}

// ReturnPreview shows the borrowing as it currently stands without mutating it.
// GET /v1/borrowings/:id/return
func (h *Controller) ReturnPreview(c echo.Context) error {
	return h.Detail(c)
}

// Return a borrowing
// @Summary      Return a borrowed book
// @Tags         borrowings
// @Produce      json
// @Param        id  path  int  true  "borrowing id"
// @Success      200  {object}  model.Borrowing
// @Failure      404  {object}  map[string]any
// @Security     BearerAuth
// @Router       /v1/borrowings/{id}/return [post]
func (h *Controller) Return(c echo.Context) error {
	req := jwtx.FromContext(c)
	if !policy.Can(req, policy.BorrowingReturn) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	out, err := h.Svc.Return(c.Request().Context(), req, id)
	if err != nil {
		switch bs.Code(err) {
		case bs.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "borrowing not found"})
		case bs.ErrInvalidRange:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "return date violates borrowing dates"})
		default:
			h.Log.Error("borrowing return", "err", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, out)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
