package validation

// AddItemRequest is the payload for POST /cart/items.
type AddItemRequest struct {
	ProductID string  `json:"product_no" validate:"required"`
	Name      string  `json:"product_name"`
	UnitPrice float64 `json:"product_price" validate:"money"`             // absolute currency amount
	Quantity  int     `json:"product_quantity" validate:"required,min=1"` // must be >= 1
	Selected  bool    `json:"checked"`
}

// AdjustQuantityRequest is the payload for PATCH /cart/items/:id.
type AdjustQuantityRequest struct {
	Direction string `json:"direction" validate:"required,oneof=increment decrement"`
}

// SelectRequest toggles selection for one item or for the whole cart.
type SelectRequest struct {
	Selected bool `json:"selected"`
}

// CouponInputRequest carries the user-entered coupon code. Empty clears it.
type CouponInputRequest struct {
	Code string `json:"code"`
}

// ShippingRequest selects a shipping option by id.
type ShippingRequest struct {
	OptionID string `json:"shipping_id" validate:"required"`
}

// RecipientRequest fills recipient and payment fields of the order draft.
type RecipientRequest struct {
	Name          string `json:"ord_name" validate:"required"`
	Email         string `json:"take_mail" validate:"required,email"`
	Phone         string `json:"take_tel" validate:"required"`
	Address       string `json:"take_address" validate:"required"`
	PaymentStatus string `json:"payment_status" validate:"omitempty,oneof=0 1"`
}

// RefreshCouponsRequest identifies the member whose coupons should be loaded.
type RefreshCouponsRequest struct {
	MemberID string `json:"member_no" validate:"required"`
}
