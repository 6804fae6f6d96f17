package echo

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/account-admin/internal/application/account"
)

type AccountHandler struct {
	list      app.ListAccounts
	deleteOne app.DeleteAccount
	deleteAll app.DeleteAllAccounts
}

type listAccountsQuery struct {
	Search  string `query:"q"`
	Page    int    `query:"page" validate:"gte=0"`
	PerPage int    `query:"per_page" validate:"gte=0"`
}

func NewAccountHandler(list app.ListAccounts, deleteOne app.DeleteAccount, deleteAll app.DeleteAllAccounts) *AccountHandler {
	return &AccountHandler{list: list, deleteOne: deleteOne, deleteAll: deleteAll}
}

func (h *AccountHandler) ListAccounts(c echo.Context) error {
	var q listAccountsQuery
	if err := c.Bind(&q); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "invalid query parameters")
	}
	if err := c.Validate(&q); err != nil {
		return errorJSON(c, http.StatusBadRequest, "bad_request", "page and per_page must not be negative")
	}

	out, err := h.list.Execute(c.Request().Context(), app.DashboardQuery{
		Search:  q.Search,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to list accounts")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}

func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	err := h.deleteOne.Execute(c.Request().Context(), c.Param("key"))
	if err != nil {
		if errors.Is(err, app.ErrInvalidAccountKey) {
			return errorJSON(c, http.StatusBadRequest, "invalid_key", "account key is required")
		}
		if errors.Is(err, app.ErrAccountNotFound) {
			return errorJSON(c, http.StatusNotFound, "not_found", "account not found")
		}
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to delete account")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) DeleteAllAccounts(c echo.Context) error {
	out, err := h.deleteAll.Execute(c.Request().Context())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "internal_error", "failed to delete accounts")
	}
	return c.JSON(http.StatusOK, apiResponse{Data: out})
}
