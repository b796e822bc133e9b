// internal/domain/cart/entity.go
package cart

import (
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the denormalized product data carried by a cart item
type ProductSnapshot struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images,omitempty"`
}

// CartItem represents one line of the cart
type CartItem struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Product   ProductSnapshot `json:"product"`
}

// Cart represents the authenticated user's in-progress cart
type Cart struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// CartTotals represents the tax-inclusive pricing of a cart
type CartTotals struct {
	ItemCount     int             `json:"item_count"`     // Number of unique items
	TotalQuantity int             `json:"total_quantity"` // Sum of all quantities
	SubTotal      decimal.Decimal `json:"sub_total"`      // Total before tax
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"` // Final total
}

// Recalculate derives every item subtotal and the cart total from quantity
// and unit price.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].Product.Price.Mul(decimal.NewFromInt(int64(c.Items[i].Quantity)))
		total = total.Add(c.Items[i].Subtotal)
	}
	c.TotalAmount = total
}

// IsEmpty reports whether the cart has no items
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// Totals calculates the tax-inclusive totals at the given rate.
// Tax is rounded to two decimal places.
func (c *Cart) Totals(taxRate decimal.Decimal) CartTotals {
	var totals CartTotals
	totals.SubTotal = decimal.Zero
	totals.TaxRate = taxRate

	if c != nil {
		totals.ItemCount = len(c.Items)
		for _, item := range c.Items {
			totals.TotalQuantity += item.Quantity
			totals.SubTotal = totals.SubTotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	totals.TaxAmount = totals.SubTotal.Mul(taxRate).Round(2)
	totals.TotalAmount = totals.SubTotal.Add(totals.TaxAmount)
	return totals
}

// Clone returns a deep copy of the cart
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = make([]CartItem, len(c.Items))
	for i, item := range c.Items {
		clone.Items[i] = item
		if item.Product.Images != nil {
			clone.Items[i].Product.Images = append([]string(nil), item.Product.Images...)
		}
	}
	return &clone
}

func (c *Cart) findItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) findProduct(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
