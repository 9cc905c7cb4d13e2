package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/schedule"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentUnpaid || s == PaymentPaid
}

// PaymentCash is the only payment method; payment happens out of band.
const PaymentCash = "cash"

type Order struct {
	ID             int64           `json:"id"`
	Token          string          `json:"order_token"`
	UserID         *string         `json:"user_id,omitempty"`
	UserLabel      string          `json:"user_email"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Status         OrderStatus     `json:"status"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	PointsRedeemed int64           `json:"points_redeemed"`
	PointsEarned   *int64          `json:"points_earned,omitempty"`
	ScheduledFor   *schedule.Date  `json:"scheduled_for,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	Items          []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	MenuItemID   int64           `json:"menu_item_id"`
	MenuItemName string          `json:"menu_item_name,omitempty"`
	Quantity     int             `json:"quantity"`
	PriceAtTime  decimal.Decimal `json:"price_at_time"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CustomerOrder is what a customer sees when tracking an order. It carries
// the opaque token only, never the sequential id.
type CustomerOrder struct {
	Token          string              `json:"order_token"`
	UserLabel      string              `json:"user_email"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Status         OrderStatus         `json:"status"`
	PaymentMethod  string              `json:"payment_method"`
	PaymentStatus  PaymentStatus       `json:"payment_status"`
	PointsRedeemed int64               `json:"points_redeemed"`
	PointsEarned   *int64              `json:"points_earned,omitempty"`
	ScheduledFor   *schedule.Date      `json:"scheduled_for,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	Items          []CustomerOrderItem `json:"items"`
}

type CustomerOrderItem struct {
	MenuItemID  int64           `json:"menu_item_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	PriceAtTime decimal.Decimal `json:"price_at_time"`
}

func (o *Order) CustomerView() CustomerOrder {
	items := make([]CustomerOrderItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, CustomerOrderItem{
			MenuItemID:  it.MenuItemID,
			Name:        it.MenuItemName,
			Quantity:    it.Quantity,
			PriceAtTime: it.PriceAtTime,
		})
	}
	return CustomerOrder{
		Token:          o.Token,
		UserLabel:      o.UserLabel,
		TotalAmount:    o.TotalAmount,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		PaymentStatus:  o.PaymentStatus,
		PointsRedeemed: o.PointsRedeemed,
		PointsEarned:   o.PointsEarned,
		ScheduledFor:   o.ScheduledFor,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}

type SalesSummary struct {
	Date    schedule.Date   `json:"date"`
	Revenue decimal.Decimal `json:"total_revenue"`
	Count   int             `json:"order_count"`
}

/*
Mysql Table

CREATE TABLE orders (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_token CHAR(36) NOT NULL UNIQUE,
	user_id VARCHAR(64) NULL,
	user_email VARCHAR(255) NOT NULL,
	total_amount DECIMAL(10,2) NOT NULL,
	...
);

CREATE TABLE order_items (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	menu_item_id BIGINT NOT NULL,
	quantity INT NOT NULL,
	price_at_time DECIMAL(10,2) NOT NULL
);

*/
