package pricing

import "github.com/shopspring/decimal"

// ShippingOption is a selectable delivery method with a flat fee.
type ShippingOption struct {
	ID    string  `json:"id"`
	Label string  `json:"name"`
	Fee   float64 `json:"price"`
}

// Coupon is an absolute-amount discount matched by its code.
type Coupon struct {
	Code  string  `json:"coupon_no"`
	Value float64 `json:"coupon_value"`
}

// DefaultShippingOptions is the storefront's static shipping set.
var DefaultShippingOptions = []ShippingOption{
	{ID: "0", Label: "Home delivery (fee $80 TWD)", Fee: 80},
	{ID: "1", Label: "7-11 pickup (fee $60 TWD)", Fee: 60},
}

// NoShipping is returned when no option matches the selected id.
var NoShipping = ShippingOption{}

// Summary is every derived value for one cart state.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"item_count"`
	Shipping    ShippingOption  `json:"shipping"`
	Coupon      *Coupon         `json:"coupon,omitempty"`
}
