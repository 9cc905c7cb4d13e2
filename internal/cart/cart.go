// Package cart holds the customer's pending selection. It lives entirely on
// the client: prices here are for display only and are never sent to
// checkout, which receives Lines (item ids and quantities) instead.
package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"storefront/internal/entity"
)

// MaxQuantity is the most of one item a single order may hold.
const MaxQuantity = 999

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrQuantityTooLarge = fmt.Errorf("quantity must be at most %d", MaxQuantity)
)

// Line is the only shape of cart data the server accepts.
type Line struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type Entry struct {
	MenuItemID int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
}

type Cart struct {
	entries []Entry
}

func New() *Cart {
	return &Cart{}
}

// FromLines builds a cart from checkout lines, merging repeated items. Every
// merged quantity stays within 1..MaxQuantity.
func FromLines(lines []Line) (*Cart, error) {
	c := New()
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: %w", l.MenuItemID, ErrInvalidQuantity)
		}
		if l.Quantity > MaxQuantity {
			return nil, fmt.Errorf("item %d: %w", l.MenuItemID, ErrQuantityTooLarge)
		}
		if i := c.index(l.MenuItemID); i >= 0 {
			if c.entries[i].Quantity > MaxQuantity-l.Quantity {
				return nil, fmt.Errorf("item %d: %w", l.MenuItemID, ErrQuantityTooLarge)
			}
			c.entries[i].Quantity += l.Quantity
			continue
		}
		c.entries = append(c.entries, Entry{MenuItemID: l.MenuItemID, Quantity: l.Quantity})
	}
	return c, nil
}

// Add puts one more of item in the cart.
func (c *Cart) Add(item entity.MenuItem) {
	if i := c.index(item.ID); i >= 0 {
		if c.entries[i].Quantity < MaxQuantity {
			c.entries[i].Quantity++
		}
		return
	}
	c.entries = append(c.entries, Entry{MenuItemID: item.ID, Name: item.Name, Price: item.Price, Quantity: 1})
}

func (c *Cart) Remove(menuItemID int64) {
	if i := c.index(menuItemID); i >= 0 {
		c.entries = append(c.entries[:i], c.entries[i+1:]...)
	}
}

// SetQuantity changes an entry's quantity; zero or less removes it and
// anything above MaxQuantity is clamped.
func (c *Cart) SetQuantity(menuItemID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(menuItemID)
		return
	}
	if quantity > MaxQuantity {
		quantity = MaxQuantity
	}
	if i := c.index(menuItemID); i >= 0 {
		c.entries[i].Quantity = quantity
	}
}

func (c *Cart) Clear() {
	c.entries = nil
}

func (c *Cart) Empty() bool {
	return len(c.entries) == 0
}

func (c *Cart) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cart) Count() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// DisplayTotal sums the prices captured when items were added. The server
// recomputes the real total at checkout.
func (c *Cart) DisplayTotal() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.entries))
	for _, e := range c.entries {
		lines = append(lines, Line{MenuItemID: e.MenuItemID, Quantity: e.Quantity})
	}
	return lines
}

// Save writes the cart as JSON to local storage.
func (c *Cart) Save(w io.Writer) error {
	return json.NewEncoder(w).Encode(c.entries)
}

// Load restores a saved cart. Entries with a non-positive quantity are
// dropped and oversized ones clamped.
func Load(r io.Reader) (*Cart, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return New(), nil
		}
		return nil, fmt.Errorf("failed to parse cart: %w", err)
	}
	c := New()
	for _, e := range entries {
		if e.Quantity <= 0 {
			continue
		}
		if e.Quantity > MaxQuantity {
			e.Quantity = MaxQuantity
		}
		c.entries = append(c.entries, e)
	}
	return c, nil
}

func (c *Cart) index(menuItemID int64) int {
	for i, e := range c.entries {
		if e.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}
