package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/schedule"
)

var errStorage = errors.New("storage unavailable")

func adminSession() auth.AdminSession {
	s, err := auth.AdminFromClaims(&auth.Claims{
		Email:            "owner@example.com",
		Role:             auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	})
	if err != nil {
		panic(err)
	}
	return s
}

func manila() *time.Location {
	loc, err := time.LoadLocation("Asia/Manila")
	if err != nil {
		panic(err)
	}
	return loc
}

type fakeMenu struct {
	items    map[int64]entity.MenuItem
	nextID   int64
	listErr  error
	getCalls int
}

func newFakeMenu(items ...entity.MenuItem) *fakeMenu {
	f := &fakeMenu{items: make(map[int64]entity.MenuItem)}
	for _, it := range items {
		f.items[it.ID] = it
		if it.ID > f.nextID {
			f.nextID = it.ID
		}
	}
	return f
}

func (f *fakeMenu) GetMenuItems(context.Context) ([]entity.MenuItem, error) {
	f.getCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]entity.MenuItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeMenu) GetMenuItemsByIDs(_ context.Context, ids []int64) ([]entity.MenuItem, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []entity.MenuItem
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeMenu) GetMenuItemByID(_ context.Context, id int64) (*entity.MenuItem, error) {
	it, ok := f.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (f *fakeMenu) CreateMenuItem(_ context.Context, item *entity.MenuItem) (*entity.MenuItem, error) {
	f.nextID++
	item.ID = f.nextID
	f.items[item.ID] = *item
	return item, nil
}

func (f *fakeMenu) UpdateMenuItem(_ context.Context, item *entity.MenuItem) error {
	f.items[item.ID] = *item
	return nil
}

func (f *fakeMenu) DeleteMenuItem(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeOrders struct {
	mu     sync.Mutex
	orders map[int64]*entity.Order
	nextID int64

	createErr  error
	itemsErr   error
	deleteErr  error
	claimErr   error
	releaseErr error

	deleted   []int64
	lastQuery entity.OrderQuery
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: make(map[int64]*entity.Order)}
}

func (f *fakeOrders) CreateOrder(_ context.Context, order *entity.Order) (*entity.Order, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	stored := *order
	stored.ID = f.nextID
	f.orders[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeOrders) CreateOrderItems(_ context.Context, orderID int64, items []entity.OrderItem) error {
	if f.itemsErr != nil {
		return f.itemsErr
	}
	o, ok := f.orders[orderID]
	if !ok {
		return errors.New("order missing")
	}
	for i, it := range items {
		it.ID = int64(i + 1)
		it.OrderID = orderID
		o.Items = append(o.Items, it)
	}
	return nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.orders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeOrders) copyOf(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	if o.PointsEarned != nil {
		p := *o.PointsEarned
		c.PointsEarned = &p
	}
	return &c
}

func (f *fakeOrders) GetOrderByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.copyOf(o), nil
}

func (f *fakeOrders) GetOrderByToken(_ context.Context, token string) (*entity.Order, error) {
	for _, o := range f.orders {
		if o.Token == token {
			return f.copyOf(o), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrders) ListOrders(_ context.Context, q entity.OrderQuery) ([]*entity.Order, error) {
	f.lastQuery = q
	var out []*entity.Order
	for _, o := range f.orders {
		if q.UserID != nil && (o.UserID == nil || *o.UserID != *q.UserID) {
			continue
		}
		out = append(out, f.copyOf(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id int64, status entity.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrders) UpdatePaymentStatus(_ context.Context, id int64, status entity.PaymentStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.PaymentStatus = status
	return nil
}

func (f *fakeOrders) ClaimPointsAward(_ context.Context, id int64, points int64) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	o, ok := f.orders[id]
	if !ok || o.PointsEarned != nil {
		return false, nil
	}
	o.PointsEarned = &points
	return true, nil
}

func (f *fakeOrders) ReleasePointsAward(_ context.Context, id int64) error {
	if f.releaseErr != nil {
		return f.releaseErr
	}
	if o, ok := f.orders[id]; ok {
		o.PointsEarned = nil
	}
	return nil
}

func (f *fakeOrders) SalesSummary(_ context.Context, q entity.OrderQuery) (decimal.Decimal, int, error) {
	f.lastQuery = q
	total, count := decimal.Zero, 0
	for _, o := range f.orders {
		if o.Status == entity.StatusCancelled || o.ScheduledFor == nil || *o.ScheduledFor != q.Today {
			continue
		}
		total = total.Add(o.TotalAmount)
		count++
	}
	return total, count, nil
}

type fakeProfiles struct {
	points map[string]int64
	names  map[string]*string

	getErr       error
	deductErr    error
	incrementErr error
	noIncrement  bool
	setCalls     int
}

func newFakeProfiles(balances map[string]int64) *fakeProfiles {
	f := &fakeProfiles{points: make(map[string]int64), names: make(map[string]*string)}
	for k, v := range balances {
		f.points[k] = v
	}
	return f
}

func (f *fakeProfiles) GetProfile(_ context.Context, userID string) (*entity.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	pts, ok := f.points[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entity.Profile{ID: userID, FullName: f.names[userID], Points: pts}, nil
}

func (f *fakeProfiles) CreateProfile(_ context.Context, userID string) error {
	if _, ok := f.points[userID]; !ok {
		f.points[userID] = 0
	}
	return nil
}

func (f *fakeProfiles) UpdateFullName(_ context.Context, userID string, name *string) error {
	f.names[userID] = name
	return nil
}

func (f *fakeProfiles) DeductPoints(_ context.Context, userID string, amount int64) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	if f.points[userID] < amount {
		return repository.ErrInsufficientPoints
	}
	f.points[userID] -= amount
	return nil
}

func (f *fakeProfiles) IncrementPoints(_ context.Context, userID string, amount int64) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	if f.noIncrement {
		return repository.ErrIncrementUnavailable
	}
	if _, ok := f.points[userID]; !ok {
		return repository.ErrNotFound
	}
	f.points[userID] += amount
	return nil
}

func (f *fakeProfiles) SetPoints(_ context.Context, userID string, points int64) error {
	f.setCalls++
	f.points[userID] = points
	return nil
}

// fakePublisher records events. With block set, Publish waits for it to be
// closed and records nothing if its context ends first.
type fakePublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
	block  chan struct{}
}

func (p *fakePublisher) Publish(ctx context.Context, ev notify.Event) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) published() []notify.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Event(nil), p.events...)
}

type fakeAdmins struct {
	admins map[string]*entity.Admin
}

func (f *fakeAdmins) GetAdminByEmail(_ context.Context, email string) (*entity.Admin, error) {
	a, ok := f.admins[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeAdmins) CreateAdmin(_ context.Context, admin *entity.Admin) (*entity.Admin, error) {
	admin.ID = int64(len(f.admins) + 1)
	f.admins[admin.Email] = admin
	return admin, nil
}

func dateOf(s string) schedule.Date {
	d, err := schedule.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
