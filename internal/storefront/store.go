// Package storefront composes the cart ledger, coupon book, pricing and order draft into one
// explicitly constructed state object per device.
package storefront

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/cart"
	"github.com/imrishuroy/go-cart-ledger/internal/coupons"
	"github.com/imrishuroy/go-cart-ledger/internal/metrics"
	"github.com/imrishuroy/go-cart-ledger/internal/orders"
	"github.com/imrishuroy/go-cart-ledger/internal/pricing"
	"github.com/imrishuroy/go-cart-ledger/internal/storage"
)

var (
	// ErrCheckoutDisabled is returned by Submit when no submitter is configured.
	ErrCheckoutDisabled = errors.New("checkout hand-off is not configured")
	// ErrNoCouponGateway is returned by RefreshCoupons when no gateway is configured.
	ErrNoCouponGateway = errors.New("coupon gateway is not configured")
)

// Submitter hands a synced draft to checkout.
type Submitter interface {
	Submit(ctx context.Context, deviceID string, draft orders.Draft, items []cart.LineItem) (orders.Receipt, error)
}

// Deps groups the collaborators of a Store.
type Deps struct {
	DeviceID  string
	Mirror    storage.Adapter
	Coupons   coupons.Gateway
	Submitter Submitter
	Recorder  metrics.Recorder
	Logger    *zap.Logger
	Shipping  []pricing.ShippingOption
}

// Store is one device's cart session. All methods are safe for concurrent use; ledger
// mutations are serialized, and a coupon refresh never holds the store lock.
type Store struct {
	mu          sync.Mutex
	deviceID    string
	ledger      *cart.Ledger
	book        *coupons.Book
	gateway     coupons.Gateway
	submitter   Submitter
	recorder    metrics.Recorder
	logger      *zap.Logger
	shipping    []pricing.ShippingOption
	selectAll   bool
	couponInput string
	draft       orders.Draft
}

// New builds a Store and restores its ledger from the mirror.
func New(ctx context.Context, deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("device_id", deps.DeviceID))
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	mirror := deps.Mirror
	if mirror == nil {
		mirror = storage.NewMemoryStore()
	}
	shipping := deps.Shipping
	if shipping == nil {
		shipping = pricing.DefaultShippingOptions
	}

	s := &Store{
		deviceID:  deps.DeviceID,
		ledger:    cart.NewLedger(mirror, logger),
		book:      coupons.NewBook(logger),
		gateway:   deps.Coupons,
		submitter: deps.Submitter,
		recorder:  recorder,
		logger:    logger,
		shipping:  shipping,
	}
	s.ledger.OnMirrorError = func(op string, err error) { recorder.MirrorFailure(op) }
	s.book.OnFetchError = func(err error) { recorder.CouponFetchFailure() }
	s.ledger.Restore(ctx)
	return s
}

// DeviceID identifies the session's device.
func (s *Store) DeviceID() string { return s.deviceID }

// EnsureRestored retries loading the saved cart when the first read failed.
func (s *Store) EnsureRestored(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.EnsureRestored(ctx)
}

// --- ledger ---

func (s *Store) AddItem(ctx context.Context, item cart.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Add(ctx, item)
}

func (s *Store) AdjustQuantity(ctx context.Context, productID string, dir cart.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AdjustQuantity(ctx, productID, dir)
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Remove(ctx, productID)
}

func (s *Store) RemoveSelected(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.RemoveSelected(ctx)
}

func (s *Store) SetSelected(productID string, flag bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SetSelected(productID, flag)
}

// SetSelectAll records the session-wide select-all flag and applies it to every item.
func (s *Store) SetSelectAll(flag bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectAll = flag
	s.ledger.SetSelectAll(flag)
}

// ToggleAllSelection re-applies the current select-all flag to every item.
func (s *Store) ToggleAllSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.SetSelectAll(s.selectAll)
}

func (s *Store) SelectAll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectAll
}

func (s *Store) Items() []cart.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Items()
}

// --- coupons & shipping ---

// SetCouponInput records the code the user typed. Matching happens on read.
func (s *Store) SetCouponInput(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.couponInput = code
}

func (s *Store) CouponInput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.couponInput
}

func (s *Store) Coupons() []pricing.Coupon { return s.book.Coupons() }

// RefreshCoupons reloads memberID's coupons. Failures are logged and leave the
// previous list in place; the result reports whether the list was replaced.
func (s *Store) RefreshCoupons(ctx context.Context, memberID string) (bool, error) {
	if s.gateway == nil {
		return false, ErrNoCouponGateway
	}
	return s.book.Refresh(ctx, s.gateway, memberID), nil
}

// SelectShipping records the chosen shipping option id on the draft and returns the
// option it resolves to.
func (s *Store) SelectShipping(optionID string) pricing.ShippingOption {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.ShippingOptionID = optionID
	return pricing.ResolveShipping(s.shipping, optionID)
}

func (s *Store) ShippingOptions() []pricing.ShippingOption {
	out := make([]pricing.ShippingOption, len(s.shipping))
	copy(out, s.shipping)
	return out
}

// --- derived views ---

// Summary recomputes every derived value from the current state.
func (s *Store) Summary() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *Store) summaryLocked() pricing.Summary {
	return pricing.Summarize(s.ledger.Items(), s.book.Coupons(), s.couponInput, s.shipping, s.draft.ShippingOptionID)
}

func (s *Store) Subtotal() decimal.Decimal { return s.Summary().Subtotal }

func (s *Store) Discount() decimal.Decimal { return s.Summary().Discount }

func (s *Store) Total() decimal.Decimal { return s.Summary().Total }

func (s *Store) ItemCount() int { return s.Summary().ItemCount }

func (s *Store) MatchingCoupon() (pricing.Coupon, bool) {
	s.mu.Lock()
	input := s.couponInput
	s.mu.Unlock()
	return pricing.MatchingCoupon(s.book.Coupons(), input)
}

func (s *Store) ResolvedShipping() pricing.ShippingOption { return s.Summary().Shipping }

// --- order draft ---

// SyncDraft copies the current derived totals into the draft and returns it.
func (s *Store) SyncDraft() orders.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Sync(s.summaryLocked())
	return s.draft
}

func (s *Store) Draft() orders.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// ResetDraft replaces the draft with a blank one, including the shipping selection.
func (s *Store) ResetDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Reset()
}

func (s *Store) SetRecipient(name, email, phone, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.SetRecipient(name, email, phone, address)
}

func (s *Store) SetPaymentStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.PaymentStatus = status
}

// Submit hands the draft as last synced to checkout. It does not sync or reset.
func (s *Store) Submit(ctx context.Context) (orders.Receipt, error) {
	if s.submitter == nil {
		return orders.Receipt{}, ErrCheckoutDisabled
	}
	s.mu.Lock()
	draft := s.draft
	items := s.ledger.Items()
	s.mu.Unlock()

	rec, err := s.submitter.Submit(ctx, s.deviceID, draft, items)
	if err != nil {
		return orders.Receipt{}, err
	}
	s.recorder.DraftSubmitted()
	return rec, nil
}
