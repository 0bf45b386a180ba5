package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/procurement"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeRepo returns canned aggregates and remembers the last range it saw
type fakeRepo struct {
	mu        sync.Mutex
	calls     int
	lastRange report.DateRange
	byMethod  map[string]report.DateRange

	poByStatus   []report.StatusAggregate
	finalized    report.FinalizedSummary
	commitment   decimal.Decimal
	vendors      []report.RankedAmount
	received     report.CountAmount
	approved     report.CountAmount
	payables     []report.DatedAmount
	underReview  []report.DatedAmount
	pendingReqs  []report.DatedAmount
	unreleased   []report.DatedAmount
	invoiced     decimal.Decimal
	paid         decimal.Decimal
	outstanding  decimal.Decimal
	topProjects  []report.RankedAmount
	reqsByStatus []report.StatusAggregate
}

func (f *fakeRepo) seen(r report.DateRange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastRange = r
}

// seenBy records the range a point-in-time aggregate was asked for
func (f *fakeRepo) seenBy(method string, r report.DateRange) {
	f.seen(r)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byMethod == nil {
		f.byMethod = map[string]report.DateRange{}
	}
	f.byMethod[method] = r
}

func (f *fakeRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeRepo) PurchaseOrdersByStatus(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.StatusAggregate, error) {
	f.seen(r)
	return f.poByStatus, nil
}

func (f *fakeRepo) FinalizedPurchaseOrders(_ context.Context, _ uuid.UUID, r report.DateRange) (report.FinalizedSummary, error) {
	f.seen(r)
	return f.finalized, nil
}

func (f *fakeRepo) OpenCommitment(_ context.Context, _ uuid.UUID, r report.DateRange) (decimal.Decimal, error) {
	f.seenBy("OpenCommitment", r)
	return f.commitment, nil
}

func (f *fakeRepo) TopVendors(_ context.Context, _ uuid.UUID, r report.DateRange, _ int) ([]report.RankedAmount, error) {
	f.seen(r)
	return f.vendors, nil
}

func (f *fakeRepo) InvoicesReceived(_ context.Context, _ uuid.UUID, r report.DateRange) (report.CountAmount, error) {
	f.seen(r)
	return f.received, nil
}

func (f *fakeRepo) InvoicePipeline(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.StatusAggregate, error) {
	f.seen(r)
	return nil, nil
}

func (f *fakeRepo) InvoicesApproved(_ context.Context, _ uuid.UUID, r report.DateRange) (report.CountAmount, error) {
	f.seen(r)
	return f.approved, nil
}

func (f *fakeRepo) UnpaidPayables(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.DatedAmount, error) {
	f.seenBy("UnpaidPayables", r)
	return f.payables, nil
}

func (f *fakeRepo) InvoicesUnderReview(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.DatedAmount, error) {
	f.seenBy("InvoicesUnderReview", r)
	return f.underReview, nil
}

func (f *fakeRepo) RequisitionsByStatus(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.StatusAggregate, error) {
	f.seen(r)
	return f.reqsByStatus, nil
}

func (f *fakeRepo) PendingRequisitions(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.DatedAmount, error) {
	f.seenBy("PendingRequisitions", r)
	return f.pendingReqs, nil
}

func (f *fakeRepo) DisbursementPipeline(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.StatusAggregate, error) {
	f.seen(r)
	return nil, nil
}

func (f *fakeRepo) DisbursementsReleased(_ context.Context, _ uuid.UUID, r report.DateRange) (report.CountAmount, error) {
	f.seen(r)
	return report.CountAmount{}, nil
}

func (f *fakeRepo) UnreleasedDisbursements(_ context.Context, _ uuid.UUID, r report.DateRange) ([]report.DatedAmount, error) {
	f.seenBy("UnreleasedDisbursements", r)
	return f.unreleased, nil
}

func (f *fakeRepo) InvoicedAmount(_ context.Context, _ uuid.UUID, r report.DateRange) (decimal.Decimal, error) {
	f.seen(r)
	return f.invoiced, nil
}

func (f *fakeRepo) PaidAmount(_ context.Context, _ uuid.UUID, r report.DateRange) (decimal.Decimal, error) {
	f.seen(r)
	return f.paid, nil
}

func (f *fakeRepo) OutstandingPayables(_ context.Context, _ uuid.UUID, r report.DateRange) (decimal.Decimal, error) {
	f.seenBy("OutstandingPayables", r)
	return f.outstanding, nil
}

func (f *fakeRepo) TopProjects(_ context.Context, _ uuid.UUID, r report.DateRange, _ int) ([]report.RankedAmount, error) {
	f.seen(r)
	return f.topProjects, nil
}

// mapCache is a Cache over a map
type mapCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	generations map[uuid.UUID]int64
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}, generations: map[uuid.UUID]int64{}}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mapCache) Generation(_ context.Context, tenantID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[tenantID], nil
}

func (c *mapCache) BumpGeneration(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[tenantID]++
	return nil
}

func principal(role identity.Role) identity.Principal {
	return identity.NewPrincipal(uuid.New(), uuid.New(), "user-"+role.String(), role, "", role.DefaultPermissions())
}

func newService(repo *fakeRepo) *Service {
	s := NewService(repo, nil)
	s.SetClock(func() time.Time { return fixedNow })
	return s
}

func TestForRole_PurchasingDefaultsToCurrentMonth(t *testing.T) {
	repo := &fakeRepo{
		poByStatus: []report.StatusAggregate{{Status: "open", Count: 2, Amount: dec("8000")}},
		finalized:  report.FinalizedSummary{Count: 3, Amount: dec("12000"), Invoiced: dec("4000")},
		commitment: dec("6000"),
	}
	svc := newService(repo)

	resp, err := svc.ForRole(context.Background(), principal(identity.RolePurchasing), "purchasing", Query{})
	require.NoError(t, err)
	require.NotNil(t, resp.Purchasing)
	assert.Nil(t, resp.Treasury)

	d := resp.Purchasing
	assert.Equal(t, day(2026, 10, 1), d.Range.From)
	assert.Equal(t, day(2026, 10, 31), d.Range.To)
	assert.Equal(t, d.Range, repo.lastRange)
	assert.Equal(t, int64(3), d.Finalized.Count)
	assert.True(t, d.InvoicedPercentage.Equal(dec("33.33")), d.InvoicedPercentage.String())
	assert.True(t, d.OpenCommitment.Equal(dec("6000")))
	assert.NotNil(t, d.TopVendors)
}

func TestForRole_OnlyFromGiven(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	from := time.Date(2026, 9, 20, 17, 0, 0, 0, time.UTC)

	resp, err := svc.ForRole(context.Background(), principal(identity.RoleExecutive), "executive", Query{From: &from})
	require.NoError(t, err)
	assert.Equal(t, day(2026, 9, 20), resp.Executive.Range.From)
	assert.Equal(t, day(2026, 10, 31), resp.Executive.Range.To)
	assert.True(t, resp.Executive.PaidPercentage.IsZero())
}

func TestForRole_PointInTimeMetricsUseTheRange(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)
	from := day(2026, 9, 1)
	to := day(2026, 9, 30)
	want := report.DateRange{From: from, To: to}

	for _, role := range []string{"purchasing", "accounting", "treasury", "executive"} {
		_, err := svc.ForRole(context.Background(), principal(identity.RoleAdmin), role, Query{From: &from, To: &to})
		require.NoError(t, err, role)
	}

	for _, method := range []string{
		"OpenCommitment",
		"UnpaidPayables",
		"InvoicesUnderReview",
		"PendingRequisitions",
		"UnreleasedDisbursements",
		"OutstandingPayables",
	} {
		assert.Equal(t, want, repo.byMethod[method], method)
	}
}

func TestForRole_InvertedRange(t *testing.T) {
	svc := newService(&fakeRepo{})
	from := day(2026, 10, 20)
	to := day(2026, 10, 2)

	_, err := svc.ForRole(context.Background(), principal(identity.RoleTreasury), "treasury", Query{From: &from, To: &to})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestForRole_Access(t *testing.T) {
	svc := newService(&fakeRepo{})
	ctx := context.Background()

	tests := []struct {
		name    string
		p       identity.Principal
		role    string
		wantErr error
	}{
		{"other role", principal(identity.RolePurchasing), "treasury", shared.ErrForbidden},
		{"no dashboard permission", identity.NewPrincipal(uuid.New(), uuid.New(), "bob", identity.RoleAccounting, "", nil), "accounting", shared.ErrForbidden},
		{"executive sees treasury", principal(identity.RoleExecutive), "treasury", nil},
		{"admin sees accounting", principal(identity.RoleAdmin), "accounting", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ForRole(ctx, tt.p, tt.role, Query{})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	_, err := svc.ForRole(ctx, principal(identity.RoleAdmin), "admin", Query{})
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestForPrincipal_AdminLandsOnExecutive(t *testing.T) {
	svc := newService(&fakeRepo{})
	resp, err := svc.ForPrincipal(context.Background(), principal(identity.RoleAdmin), Query{})
	require.NoError(t, err)
	assert.Equal(t, identity.RoleExecutive, resp.Role)
	assert.NotNil(t, resp.Executive)
}

func TestAccounting_AgingBuckets(t *testing.T) {
	today := report.StartOfDay(fixedNow)
	repo := &fakeRepo{
		received: report.CountAmount{Count: 8, Amount: dec("16000")},
		approved: report.CountAmount{Count: 3, Amount: dec("6000")},
		payables: []report.DatedAmount{
			{Date: today.AddDate(0, 0, -1), Amount: dec("100")},
			{Date: today, Amount: dec("200")},
			{Date: today.AddDate(0, 0, 7), Amount: dec("300")},
			{Date: today.AddDate(0, 0, 8), Amount: dec("400")},
			{Date: today.AddDate(0, 0, 61), Amount: dec("500")},
		},
		underReview: []report.DatedAmount{
			{Date: today.AddDate(0, 0, -30), Amount: dec("10")},
			{Date: today.AddDate(0, 0, -91), Amount: dec("20")},
		},
	}
	svc := newService(repo)

	resp, err := svc.ForRole(context.Background(), principal(identity.RoleAccounting), "accounting", Query{})
	require.NoError(t, err)
	d := resp.Accounting

	assert.True(t, d.ApprovalRate.Equal(dec("37.5")), d.ApprovalRate.String())

	labels := func(results []report.AgingResult) []string {
		out := make([]string, len(results))
		for i, r := range results {
			out[i] = fmt.Sprintf("%s:%d:%s", r.Label, r.Count, r.Amount.String())
		}
		return out
	}
	assert.Equal(t, []string{
		"Overdue:1:100",
		"0-7 days:2:500",
		"8-30 days:1:400",
		"60+ days:1:500",
	}, labels(d.PayablesAging))
	assert.Equal(t, []string{"0-30 days:1:10", "90+ days:1:20"}, labels(d.ReviewAging))
	assert.Empty(t, d.Pipeline)
}

func TestTreasury_ReleaseAging(t *testing.T) {
	today := report.StartOfDay(fixedNow)
	repo := &fakeRepo{
		pendingReqs: []report.DatedAmount{{Date: today.AddDate(0, 0, -16), Amount: dec("4000")}},
		unreleased:  []report.DatedAmount{{Date: today.AddDate(0, 0, -31), Amount: dec("900")}},
	}
	svc := newService(repo)

	resp, err := svc.ForRole(context.Background(), principal(identity.RoleTreasury), "treasury", Query{})
	require.NoError(t, err)
	require.Len(t, resp.Treasury.ApprovalAging, 1)
	assert.Equal(t, "16-30 days", resp.Treasury.ApprovalAging[0].Label)
	require.Len(t, resp.Treasury.ReleaseAging, 1)
	assert.Equal(t, "30+ days", resp.Treasury.ReleaseAging[0].Label)
}

func TestCaching_GenerationBumpRecomputes(t *testing.T) {
	repo := &fakeRepo{invoiced: dec("5000"), paid: dec("1250")}
	cache := newMapCache()
	svc := newService(repo)
	svc.SetCache(cache, time.Minute)
	p := principal(identity.RoleExecutive)
	ctx := context.Background()

	first, err := svc.ForRole(ctx, p, "executive", Query{})
	require.NoError(t, err)
	calls := repo.count()
	require.Positive(t, calls)

	second, err := svc.ForRole(ctx, p, "executive", Query{})
	require.NoError(t, err)
	assert.Equal(t, calls, repo.count())
	assert.True(t, second.Executive.PaidPercentage.Equal(first.Executive.PaidPercentage))
	assert.True(t, second.Executive.Paid.Equal(dec("1250")))

	handler := NewInvalidationHandler(cache, nil)
	assert.Equal(t, procurement.FinancialEventTypes(), handler.EventTypes())
	event := shared.NewBaseDomainEvent(procurement.EventTypeDisbursementCreated, "Disbursement", uuid.New(), p.TenantID)
	require.NoError(t, handler.Handle(ctx, &event))

	_, err = svc.ForRole(ctx, p, "executive", Query{})
	require.NoError(t, err)
	assert.Greater(t, repo.count(), calls)
}
