package entity

import (
	"time"

	"storefront/internal/schedule"
)

type OrderScope string

const (
	ScopeAll      OrderScope = "all"
	ScopeToday    OrderScope = "today"
	ScopeUpcoming OrderScope = "upcoming"
)

func (s OrderScope) Valid() bool {
	return s == ScopeAll || s == ScopeToday || s == ScopeUpcoming
}

// OrderQuery filters an order listing. Today and the TodayStart/TodayEnd
// window are the store-local day; orders without a scheduled_for date
// belong to the day they were created.
type OrderQuery struct {
	Scope      OrderScope
	Today      schedule.Date
	TodayStart time.Time
	TodayEnd   time.Time
	UserID     *string
	Limit      int
	Offset     int
}
