package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type MenuHandler struct {
	menu MenuService
}

func NewMenuHandler(menu MenuService) *MenuHandler {
	return &MenuHandler{menu: menu}
}

func (h *MenuHandler) List(c echo.Context) error {
	items, err := h.menu.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}
