// Package metrics counts degraded-durability and remote-failure events for the cart.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-cart-ledger/internal/aws"
)

// Metric names.
const (
	MirrorFailures      = "MirrorFailures"
	CouponFetchFailures = "CouponFetchFailures"
	DraftSubmissions    = "DraftSubmissions"
)

// maxBatch is the PutMetricData datum limit per call.
const maxBatch = 1000

// Recorder counts cart events. Implementations must not block.
type Recorder interface {
	MirrorFailure(op string)
	CouponFetchFailure()
	DraftSubmitted()
}

// Nop discards everything.
type Nop struct{}

func (Nop) MirrorFailure(string) {}
func (Nop) CouponFetchFailure()  {}
func (Nop) DraftSubmitted()      {}

// CloudWatchRecorder buffers counts in memory and ships them with Flush.
type CloudWatchRecorder struct {
	client    aws.CloudWatchAPI
	namespace string
	logger    *zap.Logger
	nowFunc   func() time.Time

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewCloudWatchRecorder returns a recorder publishing under namespace.
func NewCloudWatchRecorder(client aws.CloudWatchAPI, namespace string, logger *zap.Logger) *CloudWatchRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchRecorder{
		client:    client,
		namespace: namespace,
		logger:    logger,
		nowFunc:   time.Now,
	}
}

func (r *CloudWatchRecorder) MirrorFailure(op string) {
	r.add(MirrorFailures, types.Dimension{Name: awsString("Operation"), Value: awsString(op)})
}

func (r *CloudWatchRecorder) CouponFetchFailure() { r.add(CouponFetchFailures) }

func (r *CloudWatchRecorder) DraftSubmitted() { r.add(DraftSubmissions) }

func (r *CloudWatchRecorder) add(name string, dims ...types.Dimension) {
	now := r.nowFunc()
	one := 1.0
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, types.MetricDatum{
		MetricName: awsString(name),
		Dimensions: dims,
		Timestamp:  &now,
		Unit:       types.StandardUnitCount,
		Value:      &one,
	})
}

// Flush sends buffered data. Data from a failed batch is dropped, not retried.
func (r *CloudWatchRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	batch := r.pending
	r.pending = nil
	r.mu.Unlock()

	for len(batch) > 0 {
		n := len(batch)
		if n > maxBatch {
			n = maxBatch
		}
		_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  &r.namespace,
			MetricData: batch[:n],
		})
		if err != nil {
			return fmt.Errorf("put metric data: %w", err)
		}
		batch = batch[n:]
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (r *CloudWatchRecorder) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.Flush(flushCtx); err != nil {
				r.logger.Warn("[metrics] final flush failed", zap.Error(err))
			}
			cancel()
			return
		case <-t.C:
			if err := r.Flush(ctx); err != nil {
				r.logger.Warn("[metrics] flush failed", zap.Error(err))
			}
		}
	}
}

func awsString(s string) *string { return &s }
