package orders

// Payment methods, stored in Draft.PaymentStatus.
const (
	PaymentBankTransfer = "0"
	PaymentOnlineCard   = "1"
)

// PaymentMethods labels each payment method for display.
var PaymentMethods = map[string]string{
	PaymentBankTransfer: "Bank transfer",
	PaymentOnlineCard:   "Online card payment",
}

// Order statuses, stored in Draft.OrderStatus.
const (
	StatusNotShipped = 0
	StatusShipped    = 1
)

// OrderStatuses labels each order status for display.
var OrderStatuses = map[int]string{
	StatusNotShipped: "Not shipped",
	StatusShipped:    "Shipped",
}

// Draft is the order-info record handed to checkout. Money fields are strings captured
// by Sync; JSON names match what the checkout endpoint expects.
type Draft struct {
	RecipientName    string `json:"ord_name" validate:"required"`
	RecipientEmail   string `json:"take_mail" validate:"required,email"`
	RecipientPhone   string `json:"take_tel" validate:"required"`
	RecipientAddress string `json:"take_address" validate:"required"`
	ShippingFee      string `json:"delivery_fee" validate:"required"`
	Subtotal         string `json:"ord_amount" validate:"required"`
	Discount         string `json:"sales_amount"` // blank when no coupon matched
	GrandTotal       string `json:"ord_payment" validate:"required"`
	ShippingOptionID string `json:"shipping_status" validate:"required"`
	PaymentStatus    string `json:"payment_status" validate:"required,oneof=0 1"`
	OrderStatus      int    `json:"ord_status" validate:"oneof=0 1"`
}
