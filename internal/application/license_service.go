package application

import (
	"context"
	"fmt"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/bnema/egnyte-reseller-cli/internal/ports"
)

// LicenseService applies the update safety policy before anything touches the
// portal: idempotency, refusal to shrink below in-use capacity, and pool
// capacity checks with optional replenishment. The raw mutations live behind
// ports.LicenseWriter.
type LicenseService struct {
	customers ports.CustomerReader
	plans     ports.PlanReader
	writer    ports.LicenseWriter
	// force mirrors the client's ForceLicenseChange flag: seat reductions
	// below the in-use count are allowed. Storage has no such override.
	force bool
}

func NewLicenseService(customers ports.CustomerReader, plans ports.PlanReader, writer ports.LicenseWriter, force bool) *LicenseService {
	return &LicenseService{
		customers: customers,
		plans:     plans,
		writer:    writer,
		force:     force,
	}
}

// SetCustomerPowerUsers drives one seat update through the guard sequence:
//
//  1. unchanged request -> NO_CHANGE, no request issued;
//  2. reduction below in-use seats -> NO_CHANGE unless force;
//  3. increase beyond the customer's available pool ceiling -> error, unless
//     autoReplenish buys the shortfall at plan level first;
//  4. otherwise submit and interpret the portal's acknowledgment.
//
// The customer is re-read fresh for every call; no state is reused across
// update decisions.
func (s *LicenseService) SetCustomerPowerUsers(ctx context.Context, id domain.CustomerID, total int, autoReplenish bool) (domain.UpdateOutcome, error) {
	cid := domain.NormalizeCustomerID(string(id))

	customer, err := s.customers.GetCustomer(ctx, cid)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	if total == customer.PowerUsers.Total {
		return domain.UpdateOutcome{
			Result:  domain.UpdateNoChange,
			Message: fmt.Sprintf("customer %s is already set to %d power users, did not modify", cid, total),
		}, nil
	}

	if total < customer.PowerUsers.Used && !s.force {
		return domain.UpdateOutcome{
			Result:  domain.UpdateNoChange,
			Message: fmt.Sprintf("customer %s has %d power users in use, refusing to reduce to %d", cid, customer.PowerUsers.Used, total),
		}, nil
	}

	if needed := total - customer.PowerUsers.Total; needed > 0 {
		if autoReplenish {
			if err := s.EnsurePoolCapacity(ctx, customer.PlanID, needed, customer.PowerUsers.Available); err != nil {
				return domain.UpdateOutcome{}, err
			}
		} else if customer.PowerUsers.Available < needed {
			return domain.UpdateOutcome{}, &domain.InsufficientPoolError{
				Needed:    needed,
				Available: customer.PowerUsers.Available,
			}
		}
	}

	outcome, err := s.writer.ChangeCustomerPowerUsers(ctx, cid, total)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	switch outcome.Result {
	case domain.UpdateNoChange:
		outcome.Message = fmt.Sprintf("customer %s is already set to %d power users, did not modify", cid, total)
	case domain.UpdateSuccess:
		outcome.Message = fmt.Sprintf("updated customer %s from %d to %d power users", cid, customer.PowerUsers.Total, total)
	}

	return outcome, nil
}

// SetCustomerStorage is the storage analogue. Reductions below in-use storage
// are always refused: there is no force override, because shrinking storage
// under live data is riskier upstream than shrinking seats.
func (s *LicenseService) SetCustomerStorage(ctx context.Context, id domain.CustomerID, totalGB int) (domain.UpdateOutcome, error) {
	cid := domain.NormalizeCustomerID(string(id))

	customer, err := s.customers.GetCustomer(ctx, cid)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	if totalGB == customer.StorageGB.Total {
		return domain.UpdateOutcome{
			Result:  domain.UpdateNoChange,
			Message: fmt.Sprintf("customer %s is already set to %dGB storage, did not modify", cid, totalGB),
		}, nil
	}

	if totalGB < customer.StorageGB.Used {
		return domain.UpdateOutcome{
			Result:  domain.UpdateNoChange,
			Message: fmt.Sprintf("customer %s has %dGB storage in use, refusing to reduce to %dGB", cid, customer.StorageGB.Used, totalGB),
		}, nil
	}

	outcome, err := s.writer.ChangeCustomerStorage(ctx, cid, totalGB)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	switch outcome.Result {
	case domain.UpdateNoChange:
		outcome.Message = fmt.Sprintf("customer %s is already set to %dGB storage, did not modify", cid, totalGB)
	case domain.UpdateSuccess:
		outcome.Message = fmt.Sprintf("updated customer %s from %dGB to %dGB storage", cid, customer.StorageGB.Total, totalGB)
	}

	return outcome, nil
}

// SetPlanPowerUsers changes a plan's purchased seat total directly. The
// portal bills in packs of five; totals off the pack boundary are refused
// upstream.
func (s *LicenseService) SetPlanPowerUsers(ctx context.Context, planID domain.PlanID, total int) (domain.UpdateOutcome, error) {
	outcome, err := s.writer.ChangePlanPowerUsers(ctx, planID, total)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	switch outcome.Result {
	case domain.UpdateNoChange:
		outcome.Message = fmt.Sprintf("plan %s is already set to %d power users, did not modify", planID, total)
	case domain.UpdateSuccess:
		outcome.Message = fmt.Sprintf("updated plan %s seat pool to %d power users", planID, total)
	}

	return outcome, nil
}

// EnsurePoolCapacity tops up a plan's seat pool so that seatsNeeded more
// seats can be assigned. No-op when the pool already covers the need. The
// plan-level pool figure is re-read fresh and decides the shortfall; the
// purchase rounds up to the portal's pack size. This call changes what the
// reseller is billed.
func (s *LicenseService) EnsurePoolCapacity(ctx context.Context, planID domain.PlanID, seatsNeeded, available int) error {
	if seatsNeeded <= available {
		return nil
	}

	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return err
	}

	var plan *domain.Plan
	for i := range plans {
		if plans[i].ID == planID {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return fmt.Errorf("%w: %s", domain.ErrPlanNotFound, planID)
	}

	if plan.AvailablePowerUsers >= seatsNeeded {
		return nil
	}

	if plan.TotalPowerUsers == nil {
		return fmt.Errorf("plan %s: purchased seat total unavailable, cannot replenish pool", planID)
	}

	shortfall := seatsNeeded - plan.AvailablePowerUsers
	newTotal := *plan.TotalPowerUsers + domain.RoundUpToPack(shortfall)

	if _, err := s.writer.ChangePlanPowerUsers(ctx, planID, newTotal); err != nil {
		return err
	}

	return nil
}
