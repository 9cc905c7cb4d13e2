package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/skip2/go-qrcode"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/schedule"
	"storefront/internal/service"
)

const idempotentKeyTTL = 24 * time.Hour

type OrderHandler struct {
	orders  OrderService
	rdb     *redis.Client
	policy  schedule.Policy
	baseURL string
	now     func() time.Time
}

// NewOrderHandler creates the customer-facing order handler. rdb may be nil,
// which turns the Idempotent-Key guard off.
func NewOrderHandler(orders OrderService, rdb *redis.Client, policy schedule.Policy, baseURL string) *OrderHandler {
	return &OrderHandler{orders: orders, rdb: rdb, policy: policy, baseURL: baseURL, now: time.Now}
}

// checkoutRequest has no price or total fields; whatever a client claims
// about money is dropped while decoding.
type checkoutRequest struct {
	Items          []cart.Line    `json:"items"`
	UserLabel      string         `json:"user_email"`
	PointsToRedeem int64          `json:"points_to_redeem"`
	ScheduledFor   *schedule.Date `json:"scheduled_for"`
}

func (h *OrderHandler) trackingURL(token string) string {
	return fmt.Sprintf("%s/order/%s", h.baseURL, token)
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	req := checkoutRequest{}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request payload")
	}

	key := c.Request().Header.Get("Idempotent-Key")
	if key != "" {
		fresh, err := h.claimIdempotentKey(ctx, key)
		if err != nil {
			logger.Error().Err(err).Msg("Error checking idempotent key")
		} else if !fresh {
			return errorJSON(c, http.StatusConflict, "This order was already submitted.")
		}
	}

	token, err := h.orders.PlaceOrder(ctx, service.PlaceOrderInput{
		Lines:          req.Items,
		UserLabel:      req.UserLabel,
		UserID:         auth.CustomerFromContext(c),
		PointsToRedeem: req.PointsToRedeem,
		ScheduledFor:   req.ScheduledFor,
	})
	if err != nil {
		if key != "" {
			h.releaseIdempotentKey(ctx, key)
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]string{
		"order_token":  token,
		"tracking_url": h.trackingURL(token),
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orders.GetOrderByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// OrderQR renders the tracking URL of an order as a PNG QR code.
func (h *OrderHandler) OrderQR(c echo.Context) error {
	order, err := h.orders.GetOrderByToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}

	png, err := qrcode.Encode(h.trackingURL(order.Token), qrcode.Medium, 256)
	if err != nil {
		logger.Error().Err(err).Msgf("Error encoding QR code for order %s", order.Token)
		return errorJSON(c, http.StatusInternalServerError, "internal server error")
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

// Schedule reports the cutoff decision for right now, so every page shows
// the same fulfillment day.
func (h *OrderHandler) Schedule(c echo.Context) error {
	return c.JSON(http.StatusOK, h.policy.Decide(h.now()))
}

// claimIdempotentKey reports whether key has not been seen in the last 24h,
// recording it in the same call.
func (h *OrderHandler) claimIdempotentKey(ctx context.Context, key string) (bool, error) {
	if h.rdb == nil {
		return true, nil
	}
	redisKey := fmt.Sprintf("idempotent-key:%s", key)
	ok, err := h.rdb.SetNX(ctx, redisKey, "exists", idempotentKeyTTL).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, err
	}
	return ok, nil
}

// releaseIdempotentKey lets a failed checkout be submitted again.
func (h *OrderHandler) releaseIdempotentKey(ctx context.Context, key string) {
	if h.rdb == nil {
		return
	}
	if err := h.rdb.Del(ctx, fmt.Sprintf("idempotent-key:%s", key)).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error releasing idempotent key %s", key)
	}
}
