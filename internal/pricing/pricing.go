// Package pricing derives order totals from cart items, coupons and the shipping choice.
// Everything here is a pure function of its arguments; nothing is cached.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-cart-ledger/internal/cart"
)

// Subtotal is Σ unit price × quantity over all items, selected or not.
func Subtotal(items []cart.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(decimal.NewFromFloat(it.UnitPrice).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// MatchingCoupon returns the first coupon whose code equals input. Empty input never matches.
func MatchingCoupon(coupons []Coupon, input string) (Coupon, bool) {
	if input == "" {
		return Coupon{}, false
	}
	for _, c := range coupons {
		if c.Code == input {
			return c, true
		}
	}
	return Coupon{}, false
}

// ResolveShipping returns the option with the given id, or the zero-fee NoShipping.
func ResolveShipping(options []ShippingOption, id string) ShippingOption {
	for _, o := range options {
		if o.ID == id {
			return o
		}
	}
	return NoShipping
}

// Discount is the matching coupon's value, or zero.
func Discount(coupons []Coupon, input string) decimal.Decimal {
	if c, ok := MatchingCoupon(coupons, input); ok {
		return decimal.NewFromFloat(c.Value)
	}
	return decimal.Zero
}

// Total is subtotal − discount + shipping fee. It is not clamped: a coupon larger than
// the subtotal plus shipping yields a negative total.
func Total(items []cart.LineItem, coupons []Coupon, input string, options []ShippingOption, shippingID string) decimal.Decimal {
	fee := decimal.NewFromFloat(ResolveShipping(options, shippingID).Fee)
	return Subtotal(items).Sub(Discount(coupons, input)).Add(fee)
}

// ItemCount is the number of distinct products, not the sum of quantities.
func ItemCount(items []cart.LineItem) int {
	return len(items)
}

// Summarize computes every derived value in one pass over the inputs.
func Summarize(items []cart.LineItem, coupons []Coupon, input string, options []ShippingOption, shippingID string) Summary {
	ship := ResolveShipping(options, shippingID)
	s := Summary{
		Subtotal:    Subtotal(items),
		Discount:    decimal.Zero,
		ShippingFee: decimal.NewFromFloat(ship.Fee),
		ItemCount:   ItemCount(items),
		Shipping:    ship,
	}
	if c, ok := MatchingCoupon(coupons, input); ok {
		s.Coupon = &c
		s.Discount = decimal.NewFromFloat(c.Value)
	}
	s.Total = s.Subtotal.Sub(s.Discount).Add(s.ShippingFee)
	return s
}

// FormatAmount renders an amount the way the order draft stores it: no trailing zeros,
// no thousands separators ("250", "12.5", "-20").
func FormatAmount(d decimal.Decimal) string {
	return d.String()
}
