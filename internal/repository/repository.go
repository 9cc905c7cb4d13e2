package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
	"storefront/internal/schedule"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientPoints is returned when a conditional point deduction
	// matched no row.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrIncrementUnavailable is returned by stores that cannot increment a
	// balance atomically; callers fall back to read-then-write.
	ErrIncrementUnavailable = errors.New("atomic increment unavailable")
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

const orderColumns = `o.id, o.order_token, o.user_id, o.user_email, o.total_amount, o.status, o.payment_method,
	o.payment_status, o.points_redeemed, o.points_earned, o.scheduled_for, o.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*entity.Order, error) {
	order := &entity.Order{}
	var scheduledFor sql.NullTime
	err := row.Scan(&order.ID, &order.Token, &order.UserID, &order.UserLabel, &order.TotalAmount, &order.Status,
		&order.PaymentMethod, &order.PaymentStatus, &order.PointsRedeemed, &order.PointsEarned, &scheduledFor, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	if scheduledFor.Valid {
		d := schedule.DateOf(scheduledFor.Time)
		order.ScheduledFor = &d
	}
	return order, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	query := `INSERT INTO orders (order_token, user_id, user_email, total_amount, status, payment_method, payment_status,
		points_redeemed, scheduled_for, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, order.Token, order.UserID, order.UserLabel, order.TotalAmount, order.Status,
		order.PaymentMethod, order.PaymentStatus, order.PointsRedeemed, order.ScheduledFor, order.CreatedAt)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	order.ID = id
	return order, nil
}

// CreateOrderItems inserts every line of an order in one statement.
func (r *OrderRepository) CreateOrderItems(ctx context.Context, orderID int64, items []entity.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_time) VALUES `
	var values []interface{}
	for _, item := range items {
		query += "(?, ?, ?, ?),"
		values = append(values, orderID, item.MenuItemID, item.Quantity, item.PriceAtTime)
	}

	// Remove the trailing comma
	query = query[:len(query)-1]

	_, err := r.db.ExecContext(ctx, query, values...)
	return err
}

func (r *OrderRepository) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int64) (*entity.Order, error) {
	return r.getOrder(ctx, `o.id = ?`, id)
}

func (r *OrderRepository) GetOrderByToken(ctx context.Context, token string) (*entity.Order, error) {
	return r.getOrder(ctx, `o.order_token = ?`, token)
}

func (r *OrderRepository) getOrder(ctx context.Context, where string, arg interface{}) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE `+where, arg)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, []*entity.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders newest first, with their items.
func (r *OrderRepository) ListOrders(ctx context.Context, q entity.OrderQuery) ([]*entity.Order, error) {
	var (
		conds []string
		args  []interface{}
	)

	switch q.Scope {
	case entity.ScopeToday:
		conds = append(conds, `(o.scheduled_for = ? OR (o.scheduled_for IS NULL AND o.created_at >= ? AND o.created_at < ?))`)
		args = append(args, q.Today, q.TodayStart, q.TodayEnd)
	case entity.ScopeUpcoming:
		conds = append(conds, `o.scheduled_for > ?`)
		args = append(args, q.Today)
	}
	if q.UserID != nil {
		conds = append(conds, `o.user_id = ?`)
		args = append(args, *q.UserID)
	}

	query := `SELECT ` + orderColumns + ` FROM orders o`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []*entity.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*entity.Order, len(orders))
	placeholders := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		placeholders = append(placeholders, "?")
		args = append(args, o.ID)
	}

	query := `SELECT oi.id, oi.order_id, oi.menu_item_id, COALESCE(m.name, ''), oi.quantity, oi.price_at_time
		FROM order_items oi LEFT JOIN menu_items m ON m.id = oi.menu_item_id
		WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `) ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item := entity.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.MenuItemName, &item.Quantity, &item.PriceAtTime); err != nil {
			return err
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return rows.Err()
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id int64, status entity.OrderStatus) error {
	return r.updateOne(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
}

func (r *OrderRepository) UpdatePaymentStatus(ctx context.Context, id int64, status entity.PaymentStatus) error {
	return r.updateOne(ctx, `UPDATE orders SET payment_status = ? WHERE id = ?`, status, id)
}

// ClaimPointsAward records points_earned only if it has never been set.
// It reports whether this call made the claim.
func (r *OrderRepository) ClaimPointsAward(ctx context.Context, id int64, points int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET points_earned = ? WHERE id = ? AND points_earned IS NULL`, points, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *OrderRepository) ReleasePointsAward(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE orders SET points_earned = NULL WHERE id = ?`, id)
	return err
}

// SalesSummary totals the non-cancelled orders fulfilled on one day.
func (r *OrderRepository) SalesSummary(ctx context.Context, q entity.OrderQuery) (decimal.Decimal, int, error) {
	query := `SELECT COALESCE(SUM(o.total_amount), 0), COUNT(*) FROM orders o
		WHERE o.status <> ?
		AND (o.scheduled_for = ? OR (o.scheduled_for IS NULL AND o.created_at >= ? AND o.created_at < ?))`

	var (
		revenue decimal.Decimal
		count   int
	)
	err := r.db.QueryRowContext(ctx, query, entity.StatusCancelled, q.Today, q.TodayStart, q.TodayEnd).Scan(&revenue, &count)
	if err != nil {
		return decimal.Zero, 0, err
	}
	return revenue, count, nil
}

func (r *OrderRepository) updateOne(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 for an unchanged row too; tell the two apart.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)`, args[len(args)-1]).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}
