package telemetry

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
)

// Cascade outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// BusinessMetrics counts procure-to-pay activity
type BusinessMetrics struct {
	cascades        *Counter
	approvals       *Counter
	attachmentBytes *Counter
}

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError describes a failed instrument setup
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// NewBusinessMetrics registers the business counters on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	var (
		bm  BusinessMetrics
		err error
	)
	bm.cascades, err = NewCounter(meter,
		"p2p.cascade.operations",
		"Disbursement status cascades by operation and outcome",
		"{cascades}")
	if err != nil {
		return nil, err
	}
	bm.approvals, err = NewCounter(meter,
		"p2p.requisition.approvals",
		"Check requisition approval decisions",
		"{decisions}")
	if err != nil {
		return nil, err
	}
	bm.attachmentBytes, err = NewCounter(meter,
		"p2p.attachments.bytes",
		"Bytes of attachments uploaded",
		"By")
	if err != nil {
		return nil, err
	}
	return &bm, nil
}

// RecordCascade counts one disbursement cascade. operation is create, update
// or delete.
func (bm *BusinessMetrics) RecordCascade(ctx context.Context, tenantID uuid.UUID, operation, outcome string) {
	bm.cascades.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome))
}

// RecordRequisitionDecision counts an approve, reject or blocked approval
func (bm *BusinessMetrics) RecordRequisitionDecision(ctx context.Context, tenantID uuid.UUID, decision string) {
	bm.approvals.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrDecision.String(decision))
}

// RecordAttachmentBytes adds the size of stored uploads
func (bm *BusinessMetrics) RecordAttachmentBytes(ctx context.Context, tenantID uuid.UUID, subjectType string, size int64) {
	if size <= 0 {
		return
	}
	bm.attachmentBytes.Add(ctx, size,
		AttrTenantID.String(tenantID.String()),
		AttrSubjectType.String(subjectType))
}
