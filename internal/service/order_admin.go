package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/auth"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"storefront/internal/saga"
)

// One point per this many currency units of a completed order.
var pointsRate = decimal.NewFromInt(50)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// statusRank orders the forward lifecycle. Cancelled sits outside it.
var statusRank = map[entity.OrderStatus]int{
	entity.StatusPending:   0,
	entity.StatusPreparing: 1,
	entity.StatusReady:     2,
	entity.StatusCompleted: 3,
}

// canTransition is the strict lifecycle: forward moves only, cancel from any
// state but completed, and completed or cancelled are final.
func canTransition(from, to entity.OrderStatus) bool {
	if from == to {
		return true
	}
	if from == entity.StatusCompleted || from == entity.StatusCancelled {
		return false
	}
	if to == entity.StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

// UpdateOrderStatus sets an order's status. Entering completed for the first
// time awards floor(total/50) points to the order's user.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, admin auth.AdminSession, id int64, status entity.OrderStatus) (*entity.Order, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("Unknown order status %q.", status))
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.strict && !canTransition(order.Status, status) {
		logger.Warn().Msgf("Admin %d tried to move order %d from %s to %s", admin.ID(), id, order.Status, status)
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, order.Status, status)
	}

	if err := s.orders.UpdateOrderStatus(ctx, id, status); err != nil {
		logger.Error().Err(err).Msgf("Error updating status of order %d", id)
		return nil, mapNotFound(err)
	}
	previous := order.Status
	order.Status = status
	logger.Info().Msgf("Admin %d moved order %d from %s to %s", admin.ID(), id, previous, status)

	if status == entity.StatusCompleted && previous != entity.StatusCompleted {
		points, err := s.awardPoints(ctx, order)
		if err != nil {
			return order, err
		}
		if points != nil {
			order.PointsEarned = points
		}
	}
	return order, nil
}

var errAlreadyAwarded = errors.New("points already awarded")

// awardPoints claims the order's one award and credits it. When the credit
// fails the claim is released so a later completion can try again. The
// returned value is nil when the order had already been awarded.
func (s *OrderService) awardPoints(ctx context.Context, order *entity.Order) (*int64, error) {
	var points int64
	if order.UserID != nil {
		points = order.TotalAmount.Div(pointsRate).Floor().IntPart()
	}

	res := saga.Run(ctx,
		saga.Step{
			Name: "claim-award",
			Action: func(ctx context.Context) error {
				claimed, err := s.orders.ClaimPointsAward(ctx, order.ID, points)
				if err != nil {
					return err
				}
				if !claimed {
					return errAlreadyAwarded
				}
				return nil
			},
			Compensate: func(ctx context.Context) error {
				return s.orders.ReleasePointsAward(ctx, order.ID)
			},
		},
		saga.Step{
			Name: "credit-points",
			Action: func(ctx context.Context) error {
				if points == 0 {
					return nil
				}
				if err := s.profiles.CreateProfile(ctx, *order.UserID); err != nil {
					return err
				}
				return s.creditPoints(ctx, *order.UserID, points)
			},
		},
	)

	switch {
	case res.OK():
		if points > 0 {
			logger.Info().Msgf("Awarded %d points to user %s for order %d", points, *order.UserID, order.ID)
		}
		return &points, nil
	case res.FailedWith(errAlreadyAwarded):
		return nil, nil
	case res.Outcome == saga.Inconsistent:
		logger.Error().Err(res.Error()).Str("saga_outcome", res.Outcome.String()).
			Msgf("Points award for order %d is recorded but was not credited", order.ID)
	default:
		logger.Error().Err(res.Error()).Msgf("Error awarding points for order %d", order.ID)
	}
	return nil, ErrPointsAward
}

// creditPoints adds amount to a balance, falling back to read-then-write when
// the store has no atomic increment.
func (s *OrderService) creditPoints(ctx context.Context, userID string, amount int64) error {
	err := s.profiles.IncrementPoints(ctx, userID, amount)
	if !errors.Is(err, repository.ErrIncrementUnavailable) {
		return err
	}

	logger.Warn().Msgf("Atomic increment unavailable, updating points of user %s directly", userID)
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	return s.profiles.SetPoints(ctx, userID, profile.Points+amount)
}

// UpdatePaymentStatus records whether the out-of-band payment was received.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, admin auth.AdminSession, id int64, status entity.PaymentStatus) (*entity.Order, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}
	if !status.Valid() {
		return nil, invalid(fmt.Sprintf("Unknown payment status %q.", status))
	}

	if err := s.orders.UpdatePaymentStatus(ctx, id, status); err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error updating payment status of order %d", id)
		}
		return nil, mapNotFound(err)
	}
	logger.Info().Msgf("Admin %d set payment of order %d to %s", admin.ID(), id, status)

	return s.getOrder(ctx, id)
}

func (s *OrderService) MarkPaid(ctx context.Context, admin auth.AdminSession, id int64) (*entity.Order, error) {
	return s.UpdatePaymentStatus(ctx, admin, id, entity.PaymentPaid)
}

// ListOrders lists orders newest first. Scope today means orders fulfilled
// today; upcoming means pre-orders for later days.
func (s *OrderService) ListOrders(ctx context.Context, admin auth.AdminSession, scope entity.OrderScope, limit, offset int) ([]*entity.Order, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}
	if scope == "" {
		scope = entity.ScopeAll
	}
	if !scope.Valid() {
		return nil, invalid(fmt.Sprintf("Unknown order scope %q.", scope))
	}
	if offset < 0 {
		return nil, invalid("Offset cannot be negative.")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	q := s.todayQuery()
	q.Scope = scope
	q.Limit = limit
	q.Offset = offset

	orders, err := s.orders.ListOrders(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing orders")
		return nil, err
	}
	if orders == nil {
		orders = []*entity.Order{}
	}
	return orders, nil
}

// SalesSummary totals today's orders, cancelled ones excluded.
func (s *OrderService) SalesSummary(ctx context.Context, admin auth.AdminSession) (*entity.SalesSummary, error) {
	if !admin.Valid() {
		return nil, ErrForbidden
	}

	q := s.todayQuery()
	revenue, count, err := s.orders.SalesSummary(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error computing sales summary")
		return nil, err
	}
	return &entity.SalesSummary{Date: q.Today, Revenue: revenue, Count: count}, nil
}

func (s *OrderService) todayQuery() entity.OrderQuery {
	today := s.policy.Today(s.now())
	loc := s.policy.Location
	if loc == nil {
		loc = time.UTC
	}
	return entity.OrderQuery{
		Today:      today,
		TodayStart: today.In(loc),
		TodayEnd:   today.AddDays(1).In(loc),
	}
}

func (s *OrderService) getOrder(ctx context.Context, id int64) (*entity.Order, error) {
	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Error().Err(err).Msgf("Error getting order by ID %d", id)
		}
		return nil, mapNotFound(err)
	}
	return order, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
