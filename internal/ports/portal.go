package ports

import (
	"context"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
)

// CustomerReader retrieves per-customer licensing snapshots from the portal.
// Every call re-reads upstream; there is no cache to invalidate.
type CustomerReader interface {
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomer(ctx context.Context, id domain.CustomerID) (domain.Customer, error)
	// ProtectPlanUsage returns nil without error when the tenant has no
	// Protect add-on entry; many tenants do not.
	ProtectPlanUsage(ctx context.Context, tenantID string) (*domain.StorageStats, error)
}

// PlanReader retrieves plan-level pool figures.
type PlanReader interface {
	ListPlanIDs(ctx context.Context) ([]domain.PlanID, error)
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

// LicenseWriter issues the raw mutating portal requests. Safety policy lives
// above this interface; implementations only authenticate, post, and classify
// the portal's acknowledgment.
type LicenseWriter interface {
	ChangeCustomerPowerUsers(ctx context.Context, id domain.CustomerID, total int) (domain.UpdateOutcome, error)
	ChangeCustomerStorage(ctx context.Context, id domain.CustomerID, totalGB int) (domain.UpdateOutcome, error)
	ChangePlanPowerUsers(ctx context.Context, planID domain.PlanID, total int) (domain.UpdateOutcome, error)
}
