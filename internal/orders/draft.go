// Package orders holds the order draft, its synchronization from derived cart totals, and
// the hand-off of a finished draft to checkout.
package orders

import (
	"github.com/imrishuroy/go-cart-ledger/internal/pricing"
)

// Sync copies the derived totals of s into the draft. It must be called again after any
// cart, coupon input or shipping change that should be reflected; nothing re-syncs on its own.
func (d *Draft) Sync(s pricing.Summary) {
	d.ShippingFee = pricing.FormatAmount(s.ShippingFee)
	d.Subtotal = pricing.FormatAmount(s.Subtotal)
	if s.Coupon != nil {
		d.Discount = pricing.FormatAmount(s.Discount)
	} else {
		d.Discount = ""
	}
	d.GrandTotal = pricing.FormatAmount(s.Total)
}

// Reset replaces the whole draft with a blank one.
func (d *Draft) Reset() {
	*d = Draft{}
}

// SetRecipient fills the recipient fields.
func (d *Draft) SetRecipient(name, email, phone, address string) {
	d.RecipientName = name
	d.RecipientEmail = email
	d.RecipientPhone = phone
	d.RecipientAddress = address
}

// PaymentLabel is the display label of the draft's payment method, or "".
func (d Draft) PaymentLabel() string {
	return PaymentMethods[d.PaymentStatus]
}

// StatusLabel is the display label of the draft's order status.
func (d Draft) StatusLabel() string {
	return OrderStatuses[d.OrderStatus]
}
