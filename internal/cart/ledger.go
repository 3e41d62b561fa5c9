// Package cart holds the ledger: the authoritative list of cart line items and its durable mirror.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/storage"
	"github.com/imrishuroy/go-cart-ledger/internal/validation"
)

// Ledger owns cart line items. Every mutating call rewrites the mirror before returning.
// A Ledger is not safe for concurrent use; callers serialize access.
type Ledger struct {
	items    []LineItem
	mirror   storage.Adapter
	logger   *zap.Logger
	validate *validatorv10.Validate
	restored bool

	// OnMirrorError is called after a failed mirror read or write, if set.
	OnMirrorError func(op string, err error)
}

// NewLedger returns an empty ledger writing to mirror. Call Restore to load a previous
// session; otherwise the first mutation loads it.
func NewLedger(mirror storage.Adapter, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		items:    []LineItem{},
		mirror:   mirror,
		logger:   logger,
		validate: validation.New(),
	}
}

// ErrNotRestored is reported for mirror writes skipped because the saved cart has not
// been read yet.
var ErrNotRestored = errors.New("mirror not restored")

// Restore replaces the in-memory items with the mirror's contents.
// An absent or corrupt mirror yields an empty ledger. When the mirror cannot be read the
// ledger starts empty, stops writing the mirror and retries on the next EnsureRestored.
func (l *Ledger) Restore(ctx context.Context) {
	items, ok := l.read(ctx)
	l.items = items
	l.restored = ok
	if ok {
		l.logger.Debug("[cart] restored", zap.Int("items", len(l.items)))
	}
}

// Restored reports whether the mirror has been read successfully.
func (l *Ledger) Restored() bool { return l.restored }

// EnsureRestored reads the mirror if that has not succeeded yet. Items added in the
// meantime are merged on top of the saved ones. It is a no-op once the mirror has been read.
func (l *Ledger) EnsureRestored(ctx context.Context) {
	if l.restored {
		return
	}
	saved, ok := l.read(ctx)
	if !ok {
		return
	}
	for _, it := range l.items {
		if idx := indexIn(saved, it.ProductID); idx >= 0 {
			if saved[idx].Quantity <= math.MaxInt-it.Quantity {
				saved[idx].Quantity += it.Quantity
			}
			saved[idx].Selected = it.Selected
			continue
		}
		saved = append(saved, it)
	}
	l.items = saved
	l.restored = true
	l.logger.Debug("[cart] restored", zap.Int("items", len(l.items)))
}

// read loads the mirror. ok is false only when the adapter failed.
func (l *Ledger) read(ctx context.Context) ([]LineItem, bool) {
	items := []LineItem{}

	raw, ok, err := l.mirror.Get(ctx, ItemsKey)
	if err != nil {
		l.mirrorFailed(storage.OpGet, err)
		return items, false
	}
	if !ok || raw == "" {
		return items, true
	}

	var stored []mirrorItem
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		l.logger.Warn("[cart] corrupt mirror, starting empty", zap.Error(err))
		return items, true
	}

	for _, m := range stored {
		it := LineItem{
			ProductID: m.ProductID,
			Name:      m.Name,
			UnitPrice: m.UnitPrice,
			Quantity:  m.Quantity,
		}
		if err := validation.Check(l.validate, it); err != nil {
			l.logger.Warn("[cart] dropping invalid mirrored item",
				zap.String("product_no", m.ProductID), zap.Error(err))
			continue
		}
		if idx := indexIn(items, it.ProductID); idx >= 0 {
			if items[idx].Quantity > math.MaxInt-it.Quantity {
				l.logger.Warn("[cart] dropping duplicate mirrored item that overflows quantity",
					zap.String("product_no", m.ProductID))
				continue
			}
			items[idx].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	return items, true
}

// Add merges item into the ledger: an existing ProductID gains item.Quantity,
// otherwise item is appended as given.
func (l *Ledger) Add(ctx context.Context, item LineItem) error {
	if err := validation.Check(l.validate, item); err != nil {
		return err
	}
	l.EnsureRestored(ctx)

	if idx := l.indexOf(item.ProductID); idx >= 0 {
		if l.items[idx].Quantity > math.MaxInt-item.Quantity {
			return validation.Invalid("quantity", fmt.Sprintf("merged quantity for %q exceeds %d", item.ProductID, math.MaxInt))
		}
		l.items[idx].Quantity += item.Quantity
	} else {
		l.items = append(l.items, item)
	}
	l.persist(ctx)
	return nil
}

// AdjustQuantity steps one item's quantity. Unknown ids are ignored, and a decrement
// that would take quantity below 1 is ignored.
func (l *Ledger) AdjustQuantity(ctx context.Context, productID string, dir Direction) error {
	if dir != Increment && dir != Decrement {
		return validation.Invalid("direction", fmt.Sprintf("unknown direction %q", dir))
	}

	l.EnsureRestored(ctx)
	idx := l.indexOf(productID)
	if idx < 0 {
		return nil
	}

	switch dir {
	case Increment:
		if l.items[idx].Quantity == math.MaxInt {
			return validation.Invalid("quantity", fmt.Sprintf("quantity for %q is at its maximum", productID))
		}
		l.items[idx].Quantity++
	case Decrement:
		if l.items[idx].Quantity <= 1 {
			return nil
		}
		l.items[idx].Quantity--
	}
	l.persist(ctx)
	return nil
}

// Remove deletes productID if present. The mirror is rewritten either way.
func (l *Ledger) Remove(ctx context.Context, productID string) {
	l.EnsureRestored(ctx)
	if idx := l.indexOf(productID); idx >= 0 {
		l.items = append(l.items[:idx], l.items[idx+1:]...)
	}
	l.persist(ctx)
}

// RemoveSelected deletes every selected item, keeping the rest in order, and
// returns how many were removed.
func (l *Ledger) RemoveSelected(ctx context.Context) int {
	l.EnsureRestored(ctx)
	removed := 0
	for i := len(l.items) - 1; i >= 0; i-- {
		if l.items[i].Selected {
			l.items = append(l.items[:i], l.items[i+1:]...)
			removed++
		}
	}
	l.persist(ctx)
	return removed
}

// SetSelectAll assigns flag to every item's Selected.
func (l *Ledger) SetSelectAll(flag bool) {
	for i := range l.items {
		l.items[i].Selected = flag
	}
}

// SetSelected assigns one item's Selected and reports whether the item exists.
func (l *Ledger) SetSelected(productID string, flag bool) bool {
	idx := l.indexOf(productID)
	if idx < 0 {
		return false
	}
	l.items[idx].Selected = flag
	return true
}

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Len is the number of distinct products.
func (l *Ledger) Len() int { return len(l.items) }

func (l *Ledger) indexOf(productID string) int {
	return indexIn(l.items, productID)
}

func indexIn(items []LineItem, productID string) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// persist writes the mirror. Failures are logged and reported, never returned:
// the in-memory ledger stays authoritative and only durability degrades. Nothing is
// written before the mirror has been read, so a failed read never clobbers the saved cart.
func (l *Ledger) persist(ctx context.Context) {
	if !l.restored {
		l.mirrorFailed(storage.OpSet, ErrNotRestored)
		return
	}
	stored := make([]mirrorItem, 0, len(l.items))
	for _, it := range l.items {
		stored = append(stored, mirrorItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	body, err := json.Marshal(stored)
	if err != nil {
		l.mirrorFailed(storage.OpSet, fmt.Errorf("marshal mirror: %w", err))
		return
	}
	if err := l.mirror.Set(ctx, ItemsKey, string(body)); err != nil {
		l.mirrorFailed(storage.OpSet, err)
	}
}

func (l *Ledger) mirrorFailed(op string, err error) {
	l.logger.Warn("[cart] mirror "+op+" failed", zap.Error(err))
	if l.OnMirrorError != nil {
		l.OnMirrorError(op, err)
	}
}
