package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/procurement/backend/internal/domain/identity"
	"github.com/procurement/backend/internal/domain/report"
	"github.com/procurement/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Query is the optional date range of a dashboard request
type Query struct {
	From *time.Time
	To   *time.Time
}

// DashboardResponse carries exactly one role view
type DashboardResponse struct {
	Role       identity.Role               `json:"role"`
	Purchasing *report.PurchasingDashboard `json:"purchasing,omitempty"`
	Accounting *report.AccountingDashboard `json:"accounting,omitempty"`
	Treasury   *report.TreasuryDashboard   `json:"treasury,omitempty"`
	Executive  *report.ExecutiveDashboard  `json:"executive,omitempty"`
}

// Service builds the role dashboards
type Service struct {
	repo   report.DashboardRepository
	cache  Cache
	ttl    time.Duration
	now    report.Clock
	logger *zap.Logger
}

// NewService creates a dashboard service without caching
func NewService(repo report.DashboardRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		ttl:    DefaultCacheTTL,
		now:    time.Now,
		logger: logger,
	}
}

// SetCache enables result caching
func (s *Service) SetCache(cache Cache, ttl time.Duration) {
	s.cache = cache
	if ttl > 0 {
		s.ttl = ttl
	}
}

// SetClock overrides the clock used for default ranges and aging
func (s *Service) SetClock(now report.Clock) {
	s.now = now
}

// ForPrincipal returns the dashboard of the principal's own role. Admins, who
// own no dashboard, land on the executive view.
func (s *Service) ForPrincipal(ctx context.Context, p identity.Principal, q Query) (*DashboardResponse, error) {
	role := p.Role
	if role == identity.RoleAdmin {
		role = identity.RoleExecutive
	}
	return s.ForRole(ctx, p, role.String(), q)
}

// ForRole returns the dashboard of a named role
func (s *Service) ForRole(ctx context.Context, p identity.Principal, roleName string, q Query) (*DashboardResponse, error) {
	if err := p.Authorize(identity.ModuleDashboard, identity.AccessRead); err != nil {
		return nil, err
	}
	role, err := dashboardRole(roleName)
	if err != nil {
		return nil, err
	}
	if !p.Role.CanViewDashboard(role) {
		return nil, shared.ErrForbidden
	}

	now := s.now()
	r, err := report.ResolveDateRange(q.From, q.To, now)
	if err != nil {
		return nil, err
	}

	key := ""
	if s.cache != nil {
		if gen, err := s.cache.Generation(ctx, p.TenantID); err != nil {
			s.logger.Warn("Dashboard cache generation unavailable", zap.Error(err))
		} else {
			key = cacheKey(p.TenantID, gen, role, r)
			if resp, ok := s.cached(ctx, key); ok {
				return resp, nil
			}
		}
	}

	resp, err := s.build(ctx, p, role, r, now)
	if err != nil {
		return nil, err
	}

	if key != "" {
		s.store(ctx, key, resp)
	}
	return resp, nil
}

func (s *Service) build(ctx context.Context, p identity.Principal, role identity.Role, r report.DateRange, now time.Time) (*DashboardResponse, error) {
	resp := &DashboardResponse{Role: role}
	var err error
	switch role {
	case identity.RolePurchasing:
		resp.Purchasing, err = s.purchasing(ctx, p, r)
	case identity.RoleAccounting:
		resp.Accounting, err = s.accounting(ctx, p, r, now)
	case identity.RoleTreasury:
		resp.Treasury, err = s.treasury(ctx, p, r, now)
	case identity.RoleExecutive:
		resp.Executive, err = s.executive(ctx, p, r)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) purchasing(ctx context.Context, p identity.Principal, r report.DateRange) (*report.PurchasingDashboard, error) {
	byStatus, err := s.repo.PurchaseOrdersByStatus(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	finalized, err := s.repo.FinalizedPurchaseOrders(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	commitment, err := s.repo.OpenCommitment(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	vendors, err := s.repo.TopVendors(ctx, p.TenantID, r, report.TopN)
	if err != nil {
		return nil, err
	}

	return &report.PurchasingDashboard{
		Range:              r,
		PurchaseOrders:     nonNil(byStatus),
		Finalized:          report.CountAmount{Count: finalized.Count, Amount: finalized.Amount},
		OpenCommitment:     commitment,
		InvoicedPercentage: shared.Percentage(finalized.Invoiced, finalized.Amount),
		TopVendors:         nonNil(vendors),
	}, nil
}

func (s *Service) accounting(ctx context.Context, p identity.Principal, r report.DateRange, now time.Time) (*report.AccountingDashboard, error) {
	received, err := s.repo.InvoicesReceived(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.repo.InvoicePipeline(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	approved, err := s.repo.InvoicesApproved(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	payables, err := s.repo.UnpaidPayables(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	underReview, err := s.repo.InvoicesUnderReview(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}

	return &report.AccountingDashboard{
		Range:    r,
		Received: received,
		Pipeline: nonNil(pipeline),
		Approved: approved,
		ApprovalRate: shared.Percentage(
			decimal.NewFromInt(approved.Count),
			decimal.NewFromInt(received.Count)),
		PayablesAging: report.PayablesDueAging.AgeUntil(payables, now),
		ReviewAging:   report.ReviewAging.AgeSince(underReview, now),
	}, nil
}

func (s *Service) treasury(ctx context.Context, p identity.Principal, r report.DateRange, now time.Time) (*report.TreasuryDashboard, error) {
	requisitions, err := s.repo.RequisitionsByStatus(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	pending, err := s.repo.PendingRequisitions(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	pipeline, err := s.repo.DisbursementPipeline(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	released, err := s.repo.DisbursementsReleased(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	unreleased, err := s.repo.UnreleasedDisbursements(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}

	return &report.TreasuryDashboard{
		Range:                r,
		Requisitions:         nonNil(requisitions),
		ApprovalAging:        report.ApprovalAging.AgeSince(pending, now),
		DisbursementPipeline: nonNil(pipeline),
		Released:             released,
		ReleaseAging:         report.ReleaseAging.AgeSince(unreleased, now),
	}, nil
}

func (s *Service) executive(ctx context.Context, p identity.Principal, r report.DateRange) (*report.ExecutiveDashboard, error) {
	finalized, err := s.repo.FinalizedPurchaseOrders(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	invoiced, err := s.repo.InvoicedAmount(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	paid, err := s.repo.PaidAmount(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	outstanding, err := s.repo.OutstandingPayables(ctx, p.TenantID, r)
	if err != nil {
		return nil, err
	}
	projects, err := s.repo.TopProjects(ctx, p.TenantID, r, report.TopN)
	if err != nil {
		return nil, err
	}

	return &report.ExecutiveDashboard{
		Range:               r,
		Committed:           finalized.Amount,
		Invoiced:            invoiced,
		Paid:                paid,
		PaidPercentage:      shared.Percentage(paid, invoiced),
		OutstandingPayables: outstanding,
		TopProjects:         nonNil(projects),
	}, nil
}

func (s *Service) cached(ctx context.Context, key string) (*DashboardResponse, bool) {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp DashboardResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		s.logger.Warn("Discarding unreadable dashboard cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &resp, true
}

func (s *Service) store(ctx context.Context, key string, resp *DashboardResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to encode dashboard for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func dashboardRole(name string) (identity.Role, error) {
	role := identity.Role(name)
	for _, r := range identity.DashboardRoles() {
		if r == role {
			return role, nil
		}
	}
	return "", shared.NewValidationError("role", "Unknown dashboard role")
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
