package api

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// The handler dependencies below are implemented by the service package.

type OrderService interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (string, error)
	GetOrderByToken(ctx context.Context, token string) (*entity.CustomerOrder, error)
	ListUserOrders(ctx context.Context, userID string, limit int) ([]entity.CustomerOrder, error)
}

type OrderAdminService interface {
	UpdateOrderStatus(ctx context.Context, admin auth.AdminSession, id int64, status entity.OrderStatus) (*entity.Order, error)
	UpdatePaymentStatus(ctx context.Context, admin auth.AdminSession, id int64, status entity.PaymentStatus) (*entity.Order, error)
	ListOrders(ctx context.Context, admin auth.AdminSession, scope entity.OrderScope, limit, offset int) ([]*entity.Order, error)
	SalesSummary(ctx context.Context, admin auth.AdminSession) (*entity.SalesSummary, error)
}

type MenuService interface {
	List(ctx context.Context) ([]entity.MenuItem, error)
	Create(ctx context.Context, admin auth.AdminSession, in service.MenuItemInput) (*entity.MenuItem, error)
	Update(ctx context.Context, admin auth.AdminSession, id int64, in service.MenuItemInput) (*entity.MenuItem, error)
	Delete(ctx context.Context, admin auth.AdminSession, id int64) error
}

type ProfileService interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	UpdateName(ctx context.Context, userID string, name string) (*entity.Profile, error)
}

type AdminService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// respondError maps service errors to HTTP responses. Unknown errors never
// leak their text.
func respondError(c echo.Context, err error) error {
	if msg, ok := service.IsValidation(err); ok {
		return errorJSON(c, http.StatusBadRequest, msg)
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return errorJSON(c, http.StatusForbidden, service.ErrForbidden.Error())
	case errors.Is(err, service.ErrInvalidLogin):
		return errorJSON(c, http.StatusUnauthorized, service.ErrInvalidLogin.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPlaceOrder), errors.Is(err, service.ErrPointsAward):
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	logger.Error().Err(err).Msgf("Unhandled error on %s %s", c.Request().Method, c.Path())
	return errorJSON(c, http.StatusInternalServerError, "internal server error")
}
