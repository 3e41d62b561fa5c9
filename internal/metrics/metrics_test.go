package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

type mockCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchRecorder_Flush(t *testing.T) {
	mock := &mockCloudWatch{}
	r := NewCloudWatchRecorder(mock, "Storefront/Cart", nil)

	r.MirrorFailure("set")
	r.CouponFetchFailure()
	r.DraftSubmitted()

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("expected one call, got %d", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.Namespace != "Storefront/Cart" || len(in.MetricData) != 3 {
		t.Fatalf("unexpected input: %+v", in)
	}
	d := in.MetricData[0]
	if *d.MetricName != MirrorFailures || len(d.Dimensions) != 1 || *d.Dimensions[0].Value != "set" {
		t.Fatalf("unexpected datum: %+v", d)
	}

	// nothing pending: no call
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("empty Flush error: %v", err)
	}
	if len(mock.inputs) != 1 {
		t.Fatalf("empty flush must not call CloudWatch")
	}
}

func TestCloudWatchRecorder_Batches(t *testing.T) {
	mock := &mockCloudWatch{}
	r := NewCloudWatchRecorder(mock, "ns", nil)
	for i := 0; i < maxBatch+5; i++ {
		r.CouponFetchFailure()
	}
	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	if len(mock.inputs) != 2 || len(mock.inputs[1].MetricData) != 5 {
		t.Fatalf("expected batches of %d and 5, got %d calls", maxBatch, len(mock.inputs))
	}
}

func TestCloudWatchRecorder_FlushError(t *testing.T) {
	r := NewCloudWatchRecorder(&mockCloudWatch{err: errors.New("denied")}, "ns", nil)
	r.DraftSubmitted()
	if err := r.Flush(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCloudWatchRecorder_RunFlushesOnCancel(t *testing.T) {
	mock := &mockCloudWatch{}
	r := NewCloudWatchRecorder(mock, "ns", nil)
	r.CouponFetchFailure()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Hour)
		close(done)
	}()
	cancel()
	<-done

	if len(mock.inputs) != 1 {
		t.Fatalf("expected a final flush, got %d calls", len(mock.inputs))
	}
}
