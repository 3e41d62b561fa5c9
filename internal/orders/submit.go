package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/cart"
	"github.com/imrishuroy/go-cart-ledger/internal/validation"
)

// ErrEmptyCart is returned when submitting a draft for a cart with no items.
var ErrEmptyCart = errors.New("cart is empty")

// Publisher delivers a message body to the checkout queue.
type Publisher interface {
	Publish(ctx context.Context, messageBody string, attributes map[string]string) (string, error)
}

// Submission is the message checkout receives.
type Submission struct {
	CorrelationID string          `json:"correlation_id"`
	DeviceID      string          `json:"device_id,omitempty"`
	Order         Draft           `json:"order"`
	Items         []cart.LineItem `json:"items"`
	SubmittedAt   time.Time       `json:"submitted_at"`
}

// Receipt identifies a published submission.
type Receipt struct {
	CorrelationID string `json:"correlation_id"`
	MessageID     string `json:"message_id,omitempty"`
}

// Submitter validates a synced draft and publishes it for checkout.
type Submitter struct {
	publisher Publisher
	validate  *validatorv10.Validate
	logger    *zap.Logger
	nowFunc   func() time.Time
	newID     func() string
}

// NewSubmitter returns a Submitter publishing through p.
func NewSubmitter(p Publisher, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		publisher: p,
		validate:  validation.New(),
		logger:    logger,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// Submit publishes draft and items. The draft must already be synced and complete.
func (s *Submitter) Submit(ctx context.Context, deviceID string, draft Draft, items []cart.LineItem) (Receipt, error) {
	if len(items) == 0 {
		return Receipt{}, ErrEmptyCart
	}
	if err := validation.Check(s.validate, draft); err != nil {
		return Receipt{}, err
	}

	sub := Submission{
		CorrelationID: s.newID(),
		DeviceID:      deviceID,
		Order:         draft,
		Items:         items,
		SubmittedAt:   s.nowFunc().UTC(),
	}
	body, err := json.Marshal(sub)
	if err != nil {
		return Receipt{}, fmt.Errorf("marshal submission: %w", err)
	}

	msgID, err := s.publisher.Publish(ctx, string(body), map[string]string{
		"correlation_id": sub.CorrelationID,
		"device_id":      deviceID,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("publish submission: %w", err)
	}

	s.logger.Info("[orders] draft submitted",
		zap.String("correlation_id", sub.CorrelationID),
		zap.String("message_id", msgID),
		zap.String("grand_total", draft.GrandTotal))
	return Receipt{CorrelationID: sub.CorrelationID, MessageID: msgID}, nil
}
