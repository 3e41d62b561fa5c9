package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/imrishuroy/go-cart-ledger/internal/cart"
	"github.com/imrishuroy/go-cart-ledger/internal/validation"
)

type fakePublisher struct {
	bodies []string
	attrs  []map[string]string
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, body string, attrs map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.bodies = append(f.bodies, body)
	f.attrs = append(f.attrs, attrs)
	return "msg-42", nil
}

func readyDraft() Draft {
	d := Draft{ShippingOptionID: "0", PaymentStatus: PaymentBankTransfer}
	d.SetRecipient("Lin", "lin@example.com", "0912345678", "Taipei")
	d.Sync(summary("SAVE30"))
	return d
}

func TestSubmit_PublishesSubmission(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSubmitter(pub, nil)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return fixed }
	s.newID = func() string { return "corr-1" }

	items := []cart.LineItem{{ProductID: "p1", UnitPrice: 100, Quantity: 2}}
	rec, err := s.Submit(context.Background(), "device-1", readyDraft(), items)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if rec.CorrelationID != "corr-1" || rec.MessageID != "msg-42" {
		t.Fatalf("unexpected receipt: %+v", rec)
	}
	if len(pub.bodies) != 1 {
		t.Fatalf("expected one publish")
	}

	var got Submission
	if err := json.Unmarshal([]byte(pub.bodies[0]), &got); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if got.Order.GrandTotal != "300" || got.DeviceID != "device-1" || len(got.Items) != 1 || !got.SubmittedAt.Equal(fixed) {
		t.Fatalf("unexpected submission: %+v", got)
	}
	if pub.attrs[0]["correlation_id"] != "corr-1" {
		t.Fatalf("missing correlation attribute")
	}
}

func TestSubmit_RejectsUnsyncedOrEmpty(t *testing.T) {
	pub := &fakePublisher{}
	s := NewSubmitter(pub, nil)
	items := []cart.LineItem{{ProductID: "p1", UnitPrice: 1, Quantity: 1}}

	if _, err := s.Submit(context.Background(), "d", readyDraft(), nil); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	unsynced := Draft{ShippingOptionID: "0", PaymentStatus: PaymentBankTransfer}
	unsynced.SetRecipient("Lin", "lin@example.com", "09", "Taipei")
	_, err := s.Submit(context.Background(), "d", unsynced, items)
	if !errors.Is(err, validation.ErrInvalid) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(pub.bodies) != 0 {
		t.Fatalf("invalid drafts must not be published")
	}
}

func TestSubmit_PublishFailure(t *testing.T) {
	s := NewSubmitter(&fakePublisher{err: errors.New("throttled")}, nil)
	items := []cart.LineItem{{ProductID: "p1", UnitPrice: 1, Quantity: 1}}
	if _, err := s.Submit(context.Background(), "d", readyDraft(), items); err == nil {
		t.Fatalf("expected publish error")
	}
}
