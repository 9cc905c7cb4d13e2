package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/service"
)

type AdminHandler struct {
	admins AdminService
	orders OrderAdminService
	menu   MenuService
}

func NewAdminHandler(admins AdminService, orders OrderAdminService, menu MenuService) *AdminHandler {
	return &AdminHandler{admins: admins, orders: orders, menu: menu}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(c echo.Context) error {
	req := loginRequest{}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	token, err := h.admins.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

// session pulls the admin capability out of the verified token. The JWT
// middleware has already rejected missing or bad tokens.
func session(c echo.Context) (auth.AdminSession, error) {
	admin, err := auth.AdminFromContext(c)
	if err != nil {
		return auth.AdminSession{}, service.ErrForbidden
	}
	return admin, nil
}

func paramID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}

	limit, offset := 0, 0
	if v := c.QueryParam("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid limit")
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid offset")
		}
	}

	orders, err := h.orders.ListOrders(c.Request().Context(), admin, entity.OrderScope(c.QueryParam("scope")), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

type statusRequest struct {
	Status entity.OrderStatus `json:"status"`
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	req := statusRequest{}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	order, err := h.orders.UpdateOrderStatus(c.Request().Context(), admin, id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

type paymentRequest struct {
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
}

func (h *AdminHandler) UpdatePaymentStatus(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	req := paymentRequest{}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	order, err := h.orders.UpdatePaymentStatus(c.Request().Context(), admin, id, req.PaymentStatus)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) SalesSummary(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	summary, err := h.orders.SalesSummary(c.Request().Context(), admin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) ListMenu(c echo.Context) error {
	if _, err := session(c); err != nil {
		return respondError(c, err)
	}
	items, err := h.menu.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *AdminHandler) CreateMenuItem(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	in := service.MenuItemInput{}
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	item, err := h.menu.Create(c.Request().Context(), admin, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *AdminHandler) UpdateMenuItem(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	in := service.MenuItemInput{}
	if err := c.Bind(&in); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	item, err := h.menu.Update(c.Request().Context(), admin, id, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *AdminHandler) DeleteMenuItem(c echo.Context) error {
	admin, err := session(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := paramID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}

	if err := h.menu.Delete(c.Request().Context(), admin, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
