// Package schedule decides whether an order can still be fulfilled today or
// has to be pre-ordered for a later business day.
package schedule

import (
	"fmt"
	"time"
)

// DefaultCutoff is the daily order cutoff, 08:30 store time.
const DefaultCutoff = 8*time.Hour + 30*time.Minute

// Policy is the single place where "now" is turned into a fulfillment day.
// All evaluation happens in Location, never in the caller's zone.
type Policy struct {
	Location *time.Location
	Cutoff   time.Duration
}

// Decision is the outcome of evaluating the cutoff rule at one instant.
type Decision struct {
	PreOrder bool   `json:"is_preorder"`
	Date     Date   `json:"date"`
	Label    string `json:"label"`
}

func NewPolicy(loc *time.Location, cutoff time.Duration) Policy {
	return Policy{Location: loc, Cutoff: cutoff}
}

// ParseCutoff parses an "HH:MM" time of day.
func ParseCutoff(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid cutoff %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Today returns the current store-local calendar day.
func (p Policy) Today(now time.Time) Date {
	return DateOf(now.In(p.location()))
}

// Decide applies the cutoff rule:
//  1. Saturday or Sunday: next Monday.
//  2. Friday at/after cutoff: next Monday.
//  3. Monday-Thursday at/after cutoff: tomorrow.
//  4. Otherwise: today, not a pre-order.
func (p Policy) Decide(now time.Time) Decision {
	local := now.In(p.location())
	today := DateOf(local)
	afterCutoff := !local.Before(p.cutoffOn(today))

	switch wd := local.Weekday(); {
	case wd == time.Saturday || wd == time.Sunday:
		return Decision{PreOrder: true, Date: nextMonday(today), Label: "Pre-ordering for Monday"}
	case wd == time.Friday && afterCutoff:
		return Decision{PreOrder: true, Date: nextMonday(today), Label: "Pre-ordering for Monday"}
	case afterCutoff:
		return Decision{PreOrder: true, Date: today.AddDays(1), Label: "Pre-ordering for Tomorrow"}
	default:
		return Decision{Date: today, Label: fmt.Sprintf("Order before %s for Today", p.cutoffLabel())}
	}
}

func (p Policy) cutoffOn(d Date) time.Time {
	h := int(p.Cutoff / time.Hour)
	m := int((p.Cutoff % time.Hour) / time.Minute)
	return time.Date(d.Year, d.Month, d.Day, h, m, 0, 0, p.location())
}

func (p Policy) cutoffLabel() string {
	return p.cutoffOn(Date{Year: 2000, Month: time.January, Day: 1}).Format("3:04 PM")
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

func nextMonday(d Date) Date {
	return d.AddDays((8 - int(d.Weekday())) % 7)
}
