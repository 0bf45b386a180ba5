package procurement

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/procurement/backend/internal/domain/shared"
)

// CascadeKind identifies the disbursement operation driving a cascade
type CascadeKind string

const (
	CascadeCreate CascadeKind = "create"
	CascadeUpdate CascadeKind = "update"
	CascadeDelete CascadeKind = "delete"
)

// ExternalRefs summarizes how an invoice is referenced by requisitions outside
// the disbursement being changed. Requisitions previously or currently
// attached to the disbursement are never counted.
type ExternalRefs struct {
	// Active is the number of non-rejected outside requisitions linking the invoice
	Active int
	// Paid is set when one of those requisitions is paid
	Paid bool
}

// CascadeState is the loaded snapshot the planner works on
type CascadeState struct {
	Requisitions map[uuid.UUID]RequisitionStatus
	Invoices     map[uuid.UUID]InvoiceStatus
	// Links maps each requisition to the invoices it links
	Links        map[uuid.UUID][]uuid.UUID
	ExternalRefs map[uuid.UUID]ExternalRefs
}

// CascadeEvent describes the requested change of attachment
type CascadeEvent struct {
	Kind     CascadeKind
	Previous []uuid.UUID
	Current  []uuid.UUID
	Released bool
}

// RequisitionTransition is one planned requisition status change
type RequisitionTransition struct {
	ID   uuid.UUID
	From RequisitionStatus
	To   RequisitionStatus
}

// InvoiceTransition is one planned invoice status change
type InvoiceTransition struct {
	ID   uuid.UUID
	From InvoiceStatus
	To   InvoiceStatus
}

// CascadePlan is the full set of side effects of one disbursement change
type CascadePlan struct {
	Kind         CascadeKind
	Attach       []uuid.UUID
	Detach       []uuid.UUID
	Current      []uuid.UUID
	Requisitions []RequisitionTransition
	Invoices     []InvoiceTransition
	// Reachable holds every invoice reachable before or after the change
	Reachable []uuid.UUID
}

// PlanCascade computes the requisition and invoice transitions for a
// disbursement create, update or delete without touching storage.
//
// Attached requisitions become processed, or paid when the check is released.
// Detached requisitions revert to approved. Invoices reachable from the new
// attachment follow their requisitions; invoices that drop out revert to
// approved only when no outside requisition still holds them.
func PlanCascade(state CascadeState, event CascadeEvent) (*CascadePlan, error) {
	previous := dedupeIDs(event.Previous)
	current := dedupeIDs(event.Current)

	if err := validateCascadeEvent(state, event.Kind, previous, current); err != nil {
		return nil, err
	}

	removed, added := diffIDs(previous, current)
	plan := &CascadePlan{
		Kind:    event.Kind,
		Attach:  added,
		Detach:  removed,
		Current: current,
	}

	target := RequisitionStatusProcessed
	if event.Released {
		target = RequisitionStatusPaid
	}
	for _, id := range removed {
		plan.addRequisition(id, state.Requisitions[id], RequisitionStatusApproved)
	}
	for _, id := range current {
		plan.addRequisition(id, state.Requisitions[id], target)
	}

	newReach := reachable(state.Links, current)
	oldReach := reachable(state.Links, previous)

	all := make(map[uuid.UUID]struct{}, len(newReach)+len(oldReach))
	for id := range newReach {
		all[id] = struct{}{}
	}
	for id := range oldReach {
		all[id] = struct{}{}
	}
	plan.Reachable = sortedIDs(all)

	for _, id := range plan.Reachable {
		from, ok := state.Invoices[id]
		if !ok {
			return nil, shared.NewDomainError("INVOICE_NOT_FOUND", fmt.Sprintf("Invoice %s linked by a requisition was not found", id))
		}
		refs := state.ExternalRefs[id]

		var to InvoiceStatus
		if _, stillReachable := newReach[id]; stillReachable {
			to = InvoiceStatusPendingDisbursement
			if event.Released || refs.Paid {
				to = InvoiceStatusPaid
			}
		} else {
			switch {
			case refs.Paid:
				to = InvoiceStatusPaid
			case refs.Active > 0:
				to = InvoiceStatusPendingDisbursement
			default:
				to = InvoiceStatusApproved
			}
		}

		if !from.CanCascadeTo(to) {
			return nil, shared.NewDomainError("INVALID_INVOICE_STATE",
				fmt.Sprintf("Invoice %s cannot move from %s to %s", id, from, to))
		}
		if from != to {
			plan.Invoices = append(plan.Invoices, InvoiceTransition{ID: id, From: from, To: to})
		}
	}

	return plan, nil
}

// IsNoop reports whether the plan changes nothing
func (p *CascadePlan) IsNoop() bool {
	return len(p.Attach) == 0 && len(p.Detach) == 0 && len(p.Requisitions) == 0 && len(p.Invoices) == 0
}

// Apply mutates the loaded aggregates according to the plan. Every aggregate
// must still be in the planned From status.
func (p *CascadePlan) Apply(reqs map[uuid.UUID]*CheckRequisition, invs map[uuid.UUID]*Invoice, by *uuid.UUID, at time.Time) error {
	for _, t := range p.Requisitions {
		r, ok := reqs[t.ID]
		if !ok {
			return shared.ErrNotFound
		}
		if r.Status != t.From {
			return shared.ErrConcurrencyConflict
		}
		var err error
		switch t.To {
		case RequisitionStatusApproved:
			err = r.RevertToApproved(at)
		case RequisitionStatusProcessed:
			err = r.MarkProcessed(by, at)
		case RequisitionStatusPaid:
			if err = r.MarkProcessed(by, at); err == nil {
				err = r.MarkPaid(at)
			}
		default:
			err = shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Unsupported cascade target %s", t.To))
		}
		if err != nil {
			return err
		}
	}

	for _, t := range p.Invoices {
		inv, ok := invs[t.ID]
		if !ok {
			return shared.ErrNotFound
		}
		if inv.Status != t.From {
			return shared.ErrConcurrencyConflict
		}
		var err error
		switch t.To {
		case InvoiceStatusApproved:
			err = inv.RevertToApproved(at)
		case InvoiceStatusPendingDisbursement:
			err = inv.MarkPendingDisbursement(at)
		case InvoiceStatusPaid:
			err = inv.MarkPaid(at)
		default:
			err = shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Unsupported cascade target %s", t.To))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *CascadePlan) addRequisition(id uuid.UUID, from, to RequisitionStatus) {
	if from == to {
		return
	}
	p.Requisitions = append(p.Requisitions, RequisitionTransition{ID: id, From: from, To: to})
}

func validateCascadeEvent(state CascadeState, kind CascadeKind, previous, current []uuid.UUID) error {
	verr := &shared.ValidationError{}
	switch kind {
	case CascadeCreate:
		if len(previous) > 0 {
			verr.Add("check_requisition_ids", "A new disbursement has no previous requisitions")
		}
		if len(current) == 0 {
			verr.Add("check_requisition_ids", "At least one check requisition is required")
		}
	case CascadeUpdate:
		if len(current) == 0 {
			verr.Add("check_requisition_ids", "At least one check requisition is required")
		}
	case CascadeDelete:
		if len(current) > 0 {
			return shared.NewDomainError("INVALID_CASCADE", "A deleted disbursement keeps no requisitions")
		}
	default:
		return shared.NewDomainError("INVALID_CASCADE", fmt.Sprintf("Unknown cascade kind %q", kind))
	}
	if verr.HasErrors() {
		return verr
	}

	wasAttached := toSet(previous)
	for _, id := range current {
		status, ok := state.Requisitions[id]
		if !ok {
			verr.Add("check_requisition_ids", fmt.Sprintf("Check requisition %s does not exist", id))
			continue
		}
		if _, attached := wasAttached[id]; attached {
			continue
		}
		if status != RequisitionStatusApproved {
			verr.Add("check_requisition_ids", fmt.Sprintf("Check requisition %s is %s, only approved requisitions can be attached", id, status))
		}
	}
	for _, id := range previous {
		if _, ok := state.Requisitions[id]; !ok {
			return shared.NewDomainError("REQUISITION_NOT_FOUND", fmt.Sprintf("Attached requisition %s was not loaded", id))
		}
	}
	return verr.OrNil()
}

func reachable(links map[uuid.UUID][]uuid.UUID, reqIDs []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{})
	for _, r := range reqIDs {
		for _, inv := range links[r] {
			out[inv] = struct{}{}
		}
	}
	return out
}

func sortedIDs(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
