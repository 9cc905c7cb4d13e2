package service

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
)

// The stores below are implemented by the MySQL repositories.

type MenuStore interface {
	GetMenuItems(ctx context.Context) ([]entity.MenuItem, error)
	GetMenuItemsByIDs(ctx context.Context, ids []int64) ([]entity.MenuItem, error)
	GetMenuItemByID(ctx context.Context, id int64) (*entity.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *entity.MenuItem) (*entity.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item *entity.MenuItem) error
	DeleteMenuItem(ctx context.Context, id int64) error
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
	CreateOrderItems(ctx context.Context, orderID int64, items []entity.OrderItem) error
	DeleteOrder(ctx context.Context, id int64) error
	GetOrderByID(ctx context.Context, id int64) (*entity.Order, error)
	GetOrderByToken(ctx context.Context, token string) (*entity.Order, error)
	ListOrders(ctx context.Context, q entity.OrderQuery) ([]*entity.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status entity.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id int64, status entity.PaymentStatus) error
	ClaimPointsAward(ctx context.Context, id int64, points int64) (bool, error)
	ReleasePointsAward(ctx context.Context, id int64) error
	SalesSummary(ctx context.Context, q entity.OrderQuery) (decimal.Decimal, int, error)
}

// ProfileStore holds point balances. IncrementPoints may return
// repository.ErrIncrementUnavailable, in which case callers read the
// balance and write it back with SetPoints.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*entity.Profile, error)
	CreateProfile(ctx context.Context, userID string) error
	UpdateFullName(ctx context.Context, userID string, name *string) error
	DeductPoints(ctx context.Context, userID string, amount int64) error
	IncrementPoints(ctx context.Context, userID string, amount int64) error
	SetPoints(ctx context.Context, userID string, points int64) error
}

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error)
	CreateAdmin(ctx context.Context, admin *entity.Admin) (*entity.Admin, error)
}
