package cart

import (
	"errors"
	"fmt"

	"ventapos/terminal/internal/domain"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoClientSelected  = errors.New("no client selected")
	ErrEmptyCart         = errors.New("cart is empty")
)

// Cart is the in-progress sale draft: an optional client reference plus an
// ordered set of lines, at most one per product. It is exclusively owned by a
// single terminal session; the caller synchronizes access.
type Cart struct {
	clientID string
	lines    []line
}

type line struct {
	productID      string
	productName    string
	unitPriceCents int64
	qty            int
}

func New() *Cart {
	return &Cart{}
}

// AddLine merges qty into an existing line for the product, or appends a new
// line. The merged quantity may not exceed the product's snapshotted stock; a
// violating add is rejected whole and the cart is left unchanged. On a merge
// the unit price snapshot is refreshed from the current catalog product.
func (c *Cart) AddLine(product domain.Product, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	idx := c.indexOf(product.ID)
	merged := qty
	if idx >= 0 {
		merged += c.lines[idx].qty
	}
	if merged > product.Stock {
		return fmt.Errorf("%w: %d available", ErrInsufficientStock, product.Stock)
	}

	if idx >= 0 {
		c.lines[idx].qty = merged
		c.lines[idx].unitPriceCents = product.PriceCents
		c.lines[idx].productName = product.Name
		return nil
	}

	c.lines = append(c.lines, line{
		productID:      product.ID,
		productName:    product.Name,
		unitPriceCents: product.PriceCents,
		qty:            qty,
	})
	return nil
}

// RemoveLine deletes the line for productID. Removing an absent product is a
// no-op, not an error.
func (c *Cart) RemoveLine(productID string) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

func (c *Cart) SelectClient(clientID string) {
	c.clientID = clientID
}

func (c *Cart) ClientID() string {
	return c.clientID
}

// Reset clears the client selection and all lines unconditionally.
func (c *Cart) Reset() {
	c.clientID = ""
	c.lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// TotalCents is the sum of unit price times quantity over all current lines,
// recomputed on every call.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.unitPriceCents * int64(l.qty)
	}
	return total
}

// Lines returns the current lines in insertion order with subtotals derived
// from the stored unit price and quantity.
func (c *Cart) Lines() []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(c.lines))
	for _, l := range c.lines {
		lines = append(lines, domain.CartLine{
			ProductID:      l.productID,
			ProductName:    l.productName,
			UnitPriceCents: l.unitPriceCents,
			Qty:            l.qty,
			SubtotalCents:  l.unitPriceCents * int64(l.qty),
		})
	}
	return lines
}

// Items projects the cart into the (product, quantity) pairs of a sale
// submission payload.
func (c *Cart) Items() []domain.SaleItem {
	items := make([]domain.SaleItem, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, domain.SaleItem{ProductID: l.productID, Quantity: l.qty})
	}
	return items
}

func (c *Cart) View() domain.CartView {
	return domain.CartView{
		ClientID:   c.clientID,
		Lines:      c.Lines(),
		TotalCents: c.TotalCents(),
		ItemCount:  len(c.lines),
	}
}

func (c *Cart) indexOf(productID string) int {
	for i, l := range c.lines {
		if l.productID == productID {
			return i
		}
	}
	return -1
}
