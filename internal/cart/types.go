package cart

// ItemsKey is the storage key the ledger mirror is written under.
const ItemsKey = "items"

// Direction is the step applied by AdjustQuantity.
type Direction string

const (
	Increment Direction = "increment"
	Decrement Direction = "decrement"
)

// LineItem is one product in the cart. ProductID is unique within a ledger.
type LineItem struct {
	ProductID string  `json:"product_no" validate:"required"`
	Name      string  `json:"product_name"`
	UnitPrice float64 `json:"product_price" validate:"money"`
	Quantity  int     `json:"product_quantity" validate:"min=1"`
	Selected  bool    `json:"checked"`
}

// mirrorItem is the persisted form of a LineItem. Selection is session state and is not stored.
type mirrorItem struct {
	ProductID string  `json:"product_no"`
	Name      string  `json:"product_name"`
	UnitPrice float64 `json:"product_price"`
	Quantity  int     `json:"product_quantity"`
}
