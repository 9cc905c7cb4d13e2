package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/entity"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/saga"
	"storefront/internal/schedule"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

const (
	stepRedeemPoints = "redeem-points"
	stepCreateOrder  = "create-order"
	stepCreateItems  = "create-items"
)

// publishTimeout bounds delivery of one created event once checkout has
// returned.
const publishTimeout = 5 * time.Second

// OrderService places orders and drives their status and payment.
type OrderService struct {
	menus     MenuStore
	orders    OrderStore
	profiles  ProfileStore
	publisher notify.Publisher
	policy    schedule.Policy
	strict    bool

	now      func() time.Time
	newToken func() string

	publishing sync.WaitGroup
}

// NewOrderService creates a new instance of OrderService. With strict set,
// admin status changes must follow the forward order lifecycle.
func NewOrderService(menus MenuStore, orders OrderStore, profiles ProfileStore, publisher notify.Publisher, policy schedule.Policy, strict bool) *OrderService {
	return &OrderService{
		menus:     menus,
		orders:    orders,
		profiles:  profiles,
		publisher: publisher,
		policy:    policy,
		strict:    strict,
		now:       time.Now,
		newToken:  uuid.NewString,
	}
}

type PlaceOrderInput struct {
	Lines          []cart.Line
	UserLabel      string
	UserID         *string
	PointsToRedeem int64
	// ScheduledFor is the requested fulfillment day. Nil means the earliest
	// day the cutoff rule allows.
	ScheduledFor *schedule.Date
}

// PlaceOrder validates and reprices the cart, redeems points and stores the
// order with its items. It returns the order token.
//
// Nothing is written until every validation has passed. Once writing starts,
// a failing step undoes the earlier ones; if an undo fails too the outcome is
// logged as inconsistent and the caller still only sees ErrPlaceOrder.
// Calling it twice places two orders.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (string, error) {
	if len(in.Lines) == 0 {
		return "", invalid("Your cart is empty.")
	}
	label := strings.TrimSpace(in.UserLabel)
	if label == "" {
		return "", invalid("A name or email is required to place an order.")
	}
	if in.PointsToRedeem < 0 {
		return "", invalid("Points to redeem cannot be negative.")
	}

	c, err := cart.FromLines(in.Lines)
	if errors.Is(err, cart.ErrQuantityTooLarge) {
		return "", invalid(fmt.Sprintf("You can order at most %d of each item.", cart.MaxQuantity))
	}
	if err != nil {
		return "", invalid("Every item in your cart needs a quantity of at least 1.")
	}

	now := s.now()
	scheduledFor, err := s.fulfillmentDay(now, in.ScheduledFor)
	if err != nil {
		return "", err
	}

	items, total, err := s.reprice(ctx, c.Lines())
	if err != nil {
		return "", err
	}

	if in.PointsToRedeem > 0 {
		if err := s.checkRedemption(ctx, in.UserID, in.PointsToRedeem, total); err != nil {
			return "", err
		}
	}

	finalTotal := total.Sub(decimal.NewFromInt(in.PointsToRedeem))
	if finalTotal.IsNegative() {
		finalTotal = decimal.Zero
	}

	order := &entity.Order{
		Token:          s.newToken(),
		UserID:         in.UserID,
		UserLabel:      label,
		TotalAmount:    finalTotal,
		Status:         entity.StatusPending,
		PaymentMethod:  entity.PaymentCash,
		PaymentStatus:  entity.PaymentUnpaid,
		PointsRedeemed: in.PointsToRedeem,
		ScheduledFor:   &scheduledFor,
		CreatedAt:      now.UTC().Truncate(time.Second),
	}

	var steps []saga.Step
	if in.PointsToRedeem > 0 {
		userID := *in.UserID
		steps = append(steps, saga.Step{
			Name: stepRedeemPoints,
			Action: func(ctx context.Context) error {
				return s.profiles.DeductPoints(ctx, userID, in.PointsToRedeem)
			},
			Compensate: func(ctx context.Context) error {
				return s.creditPoints(ctx, userID, in.PointsToRedeem)
			},
		})
	}
	steps = append(steps,
		saga.Step{
			Name: stepCreateOrder,
			Action: func(ctx context.Context) error {
				created, err := s.orders.CreateOrder(ctx, order)
				if err != nil {
					return err
				}
				order = created
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.orders.DeleteOrder(ctx, order.ID)
			},
		},
		saga.Step{
			Name: stepCreateItems,
			Action: func(ctx context.Context) error {
				for i := range items {
					items[i].OrderID = order.ID
				}
				return s.orders.CreateOrderItems(ctx, order.ID, items)
			},
		},
	)

	res := saga.Run(ctx, steps...)
	switch res.Outcome {
	case saga.Completed:
	case saga.Inconsistent:
		ev := logger.Error().Err(res.Error()).
			Str("saga_outcome", res.Outcome.String()).
			Str("failed_step", res.FailedStep).
			Str("order_token", order.Token)
		failed := make([]string, 0, len(res.CompensationErrors))
		for _, ce := range res.CompensationErrors {
			failed = append(failed, ce.Step)
		}
		ev.Strs("failed_compensations", failed).Msg("Order placement left partial changes behind")
		return "", ErrPlaceOrder
	default:
		// The conditional deduction lost a race with another checkout.
		if res.Failed(stepRedeemPoints) && res.FailedWith(repository.ErrInsufficientPoints) {
			logger.Warn().Msgf("Point balance changed during checkout for user %s", *in.UserID)
			return "", invalid("You don't have enough points for this redemption.")
		}
		logger.Error().Err(res.Error()).Str("saga_outcome", res.Outcome.String()).Msg("Error placing order")
		return "", ErrPlaceOrder
	}

	order.Items = items
	s.publishCreated(ctx, order)

	logger.Info().Msgf("Order %d placed for %s, total %s", order.ID, order.UserLabel, order.TotalAmount.StringFixed(2))
	return order.Token, nil
}

// fulfillmentDay resolves the requested day against the cutoff rule. A day
// earlier than the first one the rule allows is rejected.
func (s *OrderService) fulfillmentDay(now time.Time, requested *schedule.Date) (schedule.Date, error) {
	earliest := s.policy.Decide(now).Date
	if requested == nil || requested.IsZero() {
		return earliest, nil
	}
	if requested.Before(earliest) {
		return schedule.Date{}, invalid(fmt.Sprintf("Orders can no longer be placed for %s. The earliest available day is %s.", requested, earliest))
	}
	return *requested, nil
}

// reprice loads current menu data for lines. Missing items are dropped; an
// unavailable item rejects the whole cart.
func (s *OrderService) reprice(ctx context.Context, lines []cart.Line) ([]entity.OrderItem, decimal.Decimal, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.MenuItemID
	}

	menuItems, err := s.menus.GetMenuItemsByIDs(ctx, ids)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching menu items for checkout")
		return nil, decimal.Zero, ErrPlaceOrder
	}
	byID := make(map[int64]entity.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	total := decimal.Zero
	items := make([]entity.OrderItem, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity > cart.MaxQuantity {
			return nil, decimal.Zero, invalid("Every item in your cart needs a quantity of at least 1.")
		}
		m, ok := byID[l.MenuItemID]
		if !ok {
			logger.Warn().Msgf("Menu item %d no longer exists, dropping it from the order", l.MenuItemID)
			continue
		}
		if !m.IsAvailable {
			return nil, decimal.Zero, invalid(fmt.Sprintf("Sorry, %s is currently sold out.", m.Name))
		}
		item := entity.OrderItem{
			MenuItemID:   m.ID,
			MenuItemName: m.Name,
			Quantity:     l.Quantity,
			PriceAtTime:  m.Price,
		}
		total = total.Add(item.Subtotal())
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil, decimal.Zero, invalid("None of the items in your cart are on the menu anymore.")
	}
	return items, total, nil
}

func (s *OrderService) checkRedemption(ctx context.Context, userID *string, points int64, total decimal.Decimal) error {
	if userID == nil || *userID == "" {
		return invalid("You must be signed in to redeem points.")
	}

	var balance int64
	profile, err := s.profiles.GetProfile(ctx, *userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		logger.Error().Err(err).Msgf("Error getting profile %s", *userID)
		return ErrPlaceOrder
	default:
		balance = profile.Points
	}

	if points > balance {
		return invalid(fmt.Sprintf("You only have %d points available.", balance))
	}
	if limit := total.Floor().IntPart(); points > limit {
		return invalid(fmt.Sprintf("You can redeem at most %d points on this order.", limit))
	}
	return nil
}

// publishCreated announces the order in the background. Checkout does not
// wait for delivery, and the event outlives the request that placed it.
func (s *OrderService) publishCreated(ctx context.Context, order *entity.Order) {
	if s.publisher == nil {
		return
	}
	ev := notify.Event{
		Type:         notify.EventOrderCreated,
		OrderID:      order.ID,
		OrderToken:   order.Token,
		UserLabel:    order.UserLabel,
		Total:        order.TotalAmount,
		ScheduledFor: order.ScheduledFor,
		CreatedAt:    order.CreatedAt,
	}

	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, ev); err != nil {
			logger.Error().Err(err).Msgf("Error publishing created event for order %d", ev.OrderID)
		}
	}()
}

// Drain waits for created events still being published.
func (s *OrderService) Drain() {
	s.publishing.Wait()
}

// GetOrderByToken is the customer tracking lookup.
func (s *OrderService) GetOrderByToken(ctx context.Context, token string) (*entity.CustomerOrder, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, ErrNotFound
	}
	order, err := s.orders.GetOrderByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting order by token %s", token)
		return nil, err
	}
	view := order.CustomerView()
	return &view, nil
}

const (
	defaultRecentOrders = 5
	maxRecentOrders     = 50
)

// ListUserOrders returns a customer's most recent orders.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit int) ([]entity.CustomerOrder, error) {
	if limit <= 0 {
		limit = defaultRecentOrders
	}
	if limit > maxRecentOrders {
		limit = maxRecentOrders
	}

	orders, err := s.orders.ListOrders(ctx, entity.OrderQuery{Scope: entity.ScopeAll, UserID: &userID, Limit: limit})
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing orders for user %s", userID)
		return nil, err
	}

	views := make([]entity.CustomerOrder, 0, len(orders))
	for _, o := range orders {
		views = append(views, o.CustomerView())
	}
	return views, nil
}
