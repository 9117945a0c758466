package domain

import "time"

// CartLine is one product in a cart. Name, price, image and stock are
// captured when the line is created; stock is the ceiling UpdateQuantity
// enforces until the line is refreshed.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url,omitempty"`
	Stock     int    `json:"stock"`
	Quantity  int    `json:"quantity"`
}

// LineTotal returns price × quantity.
func (l CartLine) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart is a session-scoped shopping cart. It holds at most one line per
// product, in the order the products were first added.
type Cart struct {
	SessionID string     `json:"session_id"`
	Lines     []CartLine `json:"lines"`
	Currency  string     `json:"currency"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// NewCart returns an empty cart for a session.
func NewCart(sessionID, currency string) *Cart {
	return &Cart{
		SessionID: sessionID,
		Lines:     []CartLine{},
		Currency:  currency,
	}
}

func (c *Cart) index(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Line returns the line for productID, if any.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

// Add merges quantity into the product's line, or appends a new line
// snapshotting the product. A non-positive quantity counts as one.
// Add does not clamp against stock; callers that need the ceiling use
// UpdateQuantity.
func (c *Cart) Add(p *Product, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	if i := c.index(p.ID); i >= 0 {
		c.Lines[i].Quantity += quantity
		return
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		ImageURL:  p.FirstImage(),
		Stock:     p.Stock,
		Quantity:  quantity,
	})
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line. It returns false, leaving the cart unchanged, when quantity
// exceeds the stock captured on the line. A missing line is a no-op.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		c.Remove(productID)
		return true
	}
	i := c.index(productID)
	if i < 0 {
		return true
	}
	if quantity > c.Lines[i].Stock {
		return false
	}
	c.Lines[i].Quantity = quantity
	return true
}

// Remove drops the product's line. Removing an absent product is a no-op.
func (c *Cart) Remove(productID string) {
	if i := c.index(productID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

// Deduct lowers each product's line by the given quantity, dropping lines
// that reach zero. Products without a line are ignored.
func (c *Cart) Deduct(quantities map[string]int) {
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		l.Quantity -= quantities[l.ProductID]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	c.Lines = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalItems is the sum of all line quantities.
func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of price × quantity over all lines.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.LineTotal()
	}
	return total
}

// ProductIDs returns the product of every line, in line order.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// RefreshResult describes what RefreshStock changed.
type RefreshResult struct {
	Removed []string `json:"removed"`
	Clamped []string `json:"clamped"`
}

// Changed reports whether any line was removed or clamped.
func (r RefreshResult) Changed() bool {
	return len(r.Removed) > 0 || len(r.Clamped) > 0
}

// RefreshStock replaces each line's captured stock with the live value in
// stock, keyed by product ID. Lines whose product is absent from stock or
// has none left are removed; quantities above the new ceiling are lowered
// to it. Prices are not touched.
func (c *Cart) RefreshStock(stock map[string]int) RefreshResult {
	res := RefreshResult{Removed: []string{}, Clamped: []string{}}
	kept := c.Lines[:0]
	for _, l := range c.Lines {
		live, ok := stock[l.ProductID]
		if !ok || live <= 0 {
			res.Removed = append(res.Removed, l.ProductID)
			continue
		}
		l.Stock = live
		if l.Quantity > live {
			l.Quantity = live
			res.Clamped = append(res.Clamped, l.ProductID)
		}
		kept = append(kept, l)
	}
	c.Lines = kept
	return res
}
