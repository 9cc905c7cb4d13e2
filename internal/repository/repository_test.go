package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/entity"
	"storefront/internal/schedule"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var orderCols = []string{"id", "order_token", "user_id", "user_email", "total_amount", "status", "payment_method",
	"payment_status", "points_redeemed", "points_earned", "scheduled_for", "created_at"}

func TestCreateOrderAndItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	day := schedule.Date{Year: 2026, Month: time.October, Day: 19}
	created := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)
	user := "u1"
	order := &entity.Order{
		Token:          "tok",
		UserID:         &user,
		UserLabel:      "juan",
		TotalAmount:    decimal.RequireFromString("300.50"),
		Status:         entity.StatusPending,
		PaymentMethod:  entity.PaymentCash,
		PaymentStatus:  entity.PaymentUnpaid,
		PointsRedeemed: 25,
		ScheduledFor:   &day,
		CreatedAt:      created,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders")).
		WithArgs("tok", "u1", "juan", "300.5", "pending", "cash", "unpaid", int64(25), "2026-10-19", created).
		WillReturnResult(sqlmock.NewResult(42, 1))

	got, err := repo.CreateOrder(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO order_items (order_id, menu_item_id, quantity, price_at_time) VALUES (?, ?, ?, ?),(?, ?, ?, ?)")).
		WithArgs(int64(42), int64(1), 2, "120", int64(42), int64(2), 1, "85.5").
		WillReturnResult(sqlmock.NewResult(1, 2))

	err = repo.CreateOrderItems(ctx, 42, []entity.OrderItem{
		{MenuItemID: 1, Quantity: 2, PriceAtTime: decimal.RequireFromString("120")},
		{MenuItemID: 2, Quantity: 1, PriceAtTime: decimal.RequireFromString("85.50")},
	})
	require.NoError(t, err)

	require.NoError(t, repo.CreateOrderItems(ctx, 42, nil))
}

func TestDeleteOrderRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM order_items WHERE order_id = ?")).WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM orders WHERE id = ?")).WithArgs(int64(7)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	require.ErrorIs(t, repo.DeleteOrder(context.Background(), 7), sql.ErrConnDone)
}

func TestGetOrderByTokenLoadsItems(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	created := time.Date(2026, 10, 16, 1, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o WHERE o.order_token = ?")).WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(int64(42), "tok", nil, "guest", "240.00", "ready", "cash", "paid", int64(0), int64(4),
				time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), created))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi LEFT JOIN menu_items m")).WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price_at_time"}).
			AddRow(int64(1), int64(42), int64(1), "Adobo Rice", 2, "120.00"))

	order, err := repo.GetOrderByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)
	assert.Nil(t, order.UserID)
	assert.Equal(t, entity.StatusReady, order.Status)
	assert.Equal(t, entity.PaymentPaid, order.PaymentStatus)
	require.NotNil(t, order.PointsEarned)
	assert.Equal(t, int64(4), *order.PointsEarned)
	require.NotNil(t, order.ScheduledFor)
	assert.Equal(t, "2026-10-19", order.ScheduledFor.String())
	assert.True(t, decimal.RequireFromString("240").Equal(order.TotalAmount))
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Adobo Rice", order.Items[0].MenuItemName)
	assert.True(t, decimal.RequireFromString("120").Equal(order.Items[0].PriceAtTime))
}

func TestGetOrderNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders o WHERE o.id = ?")).WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(orderCols))

	_, err := repo.GetOrderByID(context.Background(), 9)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersTodayScope(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	start := time.Date(2026, 10, 11, 16, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	q := entity.OrderQuery{
		Scope:      entity.ScopeToday,
		Today:      schedule.Date{Year: 2026, Month: time.October, Day: 12},
		TodayStart: start,
		TodayEnd:   end,
		Limit:      50,
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE (o.scheduled_for = ? OR (o.scheduled_for IS NULL AND o.created_at >= ? AND o.created_at < ?)) ORDER BY o.created_at DESC, o.id DESC LIMIT ? OFFSET ?")).
		WithArgs("2026-10-12", start, end, 50, 0).
		WillReturnRows(sqlmock.NewRows(orderCols))

	orders, err := repo.ListOrders(context.Background(), q)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListOrdersUpcomingForUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	user := "u1"
	q := entity.OrderQuery{
		Scope:  entity.ScopeUpcoming,
		Today:  schedule.Date{Year: 2026, Month: time.October, Day: 12},
		UserID: &user,
		Limit:  5,
		Offset: 10,
	}

	created := time.Date(2026, 10, 12, 2, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.scheduled_for > ? AND o.user_id = ?")).
		WithArgs("2026-10-12", "u1", 5, 10).
		WillReturnRows(sqlmock.NewRows(orderCols).
			AddRow(int64(2), "b", "u1", "juan", "10.00", "pending", "cash", "unpaid", int64(0), nil, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), created).
			AddRow(int64(1), "a", "u1", "juan", "20.00", "pending", "cash", "unpaid", int64(0), nil, time.Date(2026, 10, 13, 0, 0, 0, 0, time.UTC), created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE oi.order_id IN (?,?)")).WithArgs(int64(2), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "menu_item_id", "name", "quantity", "price_at_time"}).
			AddRow(int64(5), int64(1), int64(3), "Pancit", 1, "20.00").
			AddRow(int64(6), int64(2), int64(3), "Pancit", 1, "10.00"))

	orders, err := repo.ListOrders(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, int64(2), orders[0].ID)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, int64(6), orders[0].Items[0].ID)
	assert.Nil(t, orders[1].PointsEarned)
}

func TestClaimPointsAward(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("UPDATE orders SET points_earned = ? WHERE id = ? AND points_earned IS NULL")
	mock.ExpectExec(query).WithArgs(int64(3), int64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(3), int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.ClaimPointsAward(ctx, 7, 3)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimPointsAward(ctx, 7, 3)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestUpdateOrderStatusMissingRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET status = ? WHERE id = ?")).WithArgs("ready", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)")).WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Same status again: MySQL reports no change, but the row exists.
	require.NoError(t, repo.UpdateOrderStatus(ctx, 7, entity.StatusReady))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET payment_status = ? WHERE id = ?")).WithArgs("paid", int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)")).WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	require.ErrorIs(t, repo.UpdatePaymentStatus(ctx, 8, entity.PaymentPaid), ErrNotFound)
}

func TestSalesSummary(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOrderRepository(db)

	start := time.Date(2026, 10, 11, 16, 0, 0, 0, time.UTC)
	q := entity.OrderQuery{
		Today:      schedule.Date{Year: 2026, Month: time.October, Day: 12},
		TodayStart: start,
		TodayEnd:   start.Add(24 * time.Hour),
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(o.total_amount), 0), COUNT(*) FROM orders o")).
		WithArgs("cancelled", "2026-10-12", q.TodayStart, q.TodayEnd).
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "count"}).AddRow("350.50", 2))

	revenue, count, err := repo.SalesSummary(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, decimal.RequireFromString("350.50").Equal(revenue))
}

func TestDeductPoints(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("UPDATE profiles SET points = points - ? WHERE id = ? AND points >= ?")
	mock.ExpectExec(query).WithArgs(int64(10), "u1", int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(99), "u1", int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeductPoints(ctx, "u1", 10))
	require.ErrorIs(t, repo.DeductPoints(ctx, "u1", 99), ErrInsufficientPoints)
}

func TestIncrementPoints(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("UPDATE profiles SET points = points + ? WHERE id = ?")
	mock.ExpectExec(query).WithArgs(int64(3), "u1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs(int64(3), "ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.IncrementPoints(ctx, "u1", 3))
	require.ErrorIs(t, repo.IncrementPoints(ctx, "ghost", 3), ErrNotFound)
}

func TestGetProfile(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, points FROM profiles WHERE id = ?")).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "points"}).AddRow("u1", nil, int64(12)))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, points FROM profiles WHERE id = ?")).WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "points"}))

	p, err := repo.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p.FullName)
	assert.Equal(t, int64(12), p.Points)

	_, err = repo.GetProfile(ctx, "u2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMenuItemsByIDs(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMenuRepository(db)

	created := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items WHERE id IN (?,?,?)")).WithArgs(int64(1), int64(2), int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "price", "image_url", "category", "is_available", "created_at"}).
			AddRow(int64(1), "Adobo Rice", "Classic", "120.00", nil, "Meals", true, created).
			AddRow(int64(2), "Halo-Halo", nil, "60.00", "https://img.example/h.png", "Desserts", false, created))

	items, err := repo.GetMenuItemsByIDs(context.Background(), []int64{1, 2, 99})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Description)
	assert.Equal(t, "Classic", *items[0].Description)
	assert.Nil(t, items[0].ImageURL)
	assert.False(t, items[1].IsAvailable)
	require.NotNil(t, items[1].ImageURL)

	items, err = repo.GetMenuItemsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDeleteMenuItemMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMenuRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items WHERE id = ?")).WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.ErrorIs(t, repo.DeleteMenuItem(context.Background(), 5), ErrNotFound)
}

func TestGetAdminByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAdminRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, role FROM admins WHERE email = ?")).
		WithArgs("owner@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
			AddRow(int64(1), "owner@example.com", "$2a$10$hash", "admin"))

	a, err := repo.GetAdminByEmail(context.Background(), "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, "admin", a.Role)
}
