package coupons

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/pricing"
)

// Book is the session's coupon list. Refreshes may overlap; each one takes a generation
// token and a response older than the newest applied one is discarded.
type Book struct {
	mu      sync.Mutex
	coupons []pricing.Coupon
	issued  uint64
	applied uint64
	logger  *zap.Logger

	// OnFetchError is called after a failed fetch, if set.
	OnFetchError func(err error)
}

// NewBook returns an empty Book.
func NewBook(logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Book{logger: logger}
}

// Coupons returns a copy of the current list.
func (b *Book) Coupons() []pricing.Coupon {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]pricing.Coupon, len(b.coupons))
	copy(out, b.coupons)
	return out
}

// Replace sets the list directly and supersedes any in-flight refresh.
func (b *Book) Replace(list []pricing.Coupon) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.issued++
	b.applied = b.issued
	b.coupons = append([]pricing.Coupon(nil), list...)
}

// Refresh fetches memberID's coupons and reports whether the list was replaced.
// On failure the error is logged and the previous list stays in place.
func (b *Book) Refresh(ctx context.Context, gw Gateway, memberID string) bool {
	b.mu.Lock()
	b.issued++
	token := b.issued
	b.mu.Unlock()

	list, err := gw.FetchCoupons(ctx, memberID)
	if err != nil {
		b.logger.Warn("[coupons] fetch failed, keeping previous list",
			zap.String("member_no", memberID), zap.Error(err))
		if b.OnFetchError != nil {
			b.OnFetchError(err)
		}
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if token < b.applied {
		b.logger.Info("[coupons] discarding stale response",
			zap.String("member_no", memberID), zap.Uint64("token", token), zap.Uint64("applied", b.applied))
		return false
	}
	b.applied = token
	b.coupons = list
	b.logger.Debug("[coupons] refreshed", zap.String("member_no", memberID), zap.Int("count", len(list)))
	return true
}
