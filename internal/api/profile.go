package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
)

type ProfileHandler struct {
	profiles ProfileService
	orders   OrderService
}

func NewProfileHandler(profiles ProfileService, orders OrderService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, orders: orders}
}

func customer(c echo.Context) (string, bool) {
	id := auth.CustomerFromContext(c)
	if id == nil {
		return "", false
	}
	return *id, true
}

func (h *ProfileHandler) Get(c echo.Context) error {
	userID, ok := customer(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "sign in required")
	}
	profile, err := h.profiles.Get(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

type profileRequest struct {
	FullName string `json:"full_name"`
}

func (h *ProfileHandler) Update(c echo.Context) error {
	userID, ok := customer(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "sign in required")
	}
	req := profileRequest{}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	profile, err := h.profiles.UpdateName(c.Request().Context(), userID, req.FullName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) Orders(c echo.Context) error {
	userID, ok := customer(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "sign in required")
	}
	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		var err error
		if limit, err = strconv.Atoi(v); err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid limit")
		}
	}

	orders, err := h.orders.ListUserOrders(c.Request().Context(), userID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}
