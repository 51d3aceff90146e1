package application

import (
	"context"
	"testing"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	customers []domain.Customer
	plans     []domain.Plan
	listCalls int
}

func (f *fakeReader) ListCustomers(context.Context) ([]domain.Customer, error) {
	f.listCalls++
	return f.customers, nil
}

func (f *fakeReader) GetCustomer(_ context.Context, id domain.CustomerID) (domain.Customer, error) {
	for _, customer := range f.customers {
		if customer.ID == id {
			return customer, nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

func (f *fakeReader) ProtectPlanUsage(context.Context, string) (*domain.StorageStats, error) {
	return nil, nil
}

func (f *fakeReader) ListPlanIDs(context.Context) ([]domain.PlanID, error) {
	ids := make([]domain.PlanID, 0, len(f.plans))
	for _, plan := range f.plans {
		ids = append(ids, plan.ID)
	}
	return ids, nil
}

func (f *fakeReader) ListPlans(context.Context) ([]domain.Plan, error) {
	return f.plans, nil
}

type writeCall struct {
	kind   string
	id     string
	planID domain.PlanID
	total  int
}

type spyWriter struct {
	calls   []writeCall
	outcome domain.UpdateOutcome
	err     error
}

func (s *spyWriter) ChangeCustomerPowerUsers(_ context.Context, id domain.CustomerID, total int) (domain.UpdateOutcome, error) {
	s.calls = append(s.calls, writeCall{kind: "power_users", id: string(id), total: total})
	return s.outcome, s.err
}

func (s *spyWriter) ChangeCustomerStorage(_ context.Context, id domain.CustomerID, totalGB int) (domain.UpdateOutcome, error) {
	s.calls = append(s.calls, writeCall{kind: "storage", id: string(id), total: totalGB})
	return s.outcome, s.err
}

func (s *spyWriter) ChangePlanPowerUsers(_ context.Context, planID domain.PlanID, total int) (domain.UpdateOutcome, error) {
	s.calls = append(s.calls, writeCall{kind: "plan_power_users", planID: planID, total: total})
	return s.outcome, s.err
}

func intPtr(n int) *int { return &n }

func serviceFixture(force bool, outcome domain.UpdateOutcome) (*LicenseService, *fakeReader, *spyWriter) {
	reader := &fakeReader{
		customers: []domain.Customer{
			{
				ID:         "acme",
				PlanID:     "1",
				PowerUsers: domain.NewUsageStat(10, 5, 3),
				StorageGB:  domain.NewUsageStat(400, 100, 200),
			},
		},
		plans: []domain.Plan{
			{
				ID:                  "1",
				TotalPowerUsers:     intPtr(50),
				UsedPowerUsers:      intPtr(47),
				AvailablePowerUsers: 3,
				AvailableStorageGB:  200,
			},
		},
	}
	writer := &spyWriter{outcome: outcome}

	return NewLicenseService(reader, reader, writer, force), reader, writer
}

func TestSetCustomerPowerUsersUnchangedSkipsMutation(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{})

	outcome, err := svc.SetCustomerPowerUsers(context.Background(), "ACME", 15, false)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateNoChange, outcome.Result)
	assert.Contains(t, outcome.Message, "already set to 15 power users")
	assert.Empty(t, writer.calls, "no mutation may be issued for an unchanged total")
}

func TestSetCustomerPowerUsersRefusesReductionBelowUsed(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{})

	outcome, err := svc.SetCustomerPowerUsers(context.Background(), "acme", 8, false)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateNoChange, outcome.Result)
	assert.Contains(t, outcome.Message, "has 10 power users in use")
	assert.Empty(t, writer.calls)
}

func TestSetCustomerPowerUsersForceAllowsReduction(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(true, domain.UpdateOutcome{Result: domain.UpdateSuccess})

	outcome, err := svc.SetCustomerPowerUsers(context.Background(), "acme", 8, false)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateSuccess, outcome.Result)
	assert.Contains(t, outcome.Message, "updated customer acme from 15 to 8 power users")
	require.Len(t, writer.calls, 1)
	assert.Equal(t, writeCall{kind: "power_users", id: "acme", total: 8}, writer.calls[0])
}

func TestSetCustomerPowerUsersInsufficientPoolWithoutReplenish(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{})

	_, err := svc.SetCustomerPowerUsers(context.Background(), "acme", 20, false)

	var poolErr *domain.InsufficientPoolError
	require.ErrorAs(t, err, &poolErr)
	assert.Equal(t, 5, poolErr.Needed)
	assert.Equal(t, 3, poolErr.Available)
	assert.Equal(t, 2, poolErr.Shortfall())
	assert.Empty(t, writer.calls)
}

func TestSetCustomerPowerUsersAutoReplenishBuysPackAndUpdates(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{Result: domain.UpdateSuccess})

	outcome, err := svc.SetCustomerPowerUsers(context.Background(), "acme", 20, true)
	require.NoError(t, err)
	assert.Equal(t, domain.UpdateSuccess, outcome.Result)

	// shortfall of 2 seats rounds up to one pack of 5 on top of the
	// purchased total of 50
	require.Len(t, writer.calls, 2)
	assert.Equal(t, writeCall{kind: "plan_power_users", planID: "1", total: 55}, writer.calls[0])
	assert.Equal(t, writeCall{kind: "power_users", id: "acme", total: 20}, writer.calls[1])
}

func TestSetCustomerPowerUsersNoChangeAckFromPortal(t *testing.T) {
	t.Parallel()

	svc, _, _ := serviceFixture(false, domain.UpdateOutcome{Result: domain.UpdateNoChange})

	outcome, err := svc.SetCustomerPowerUsers(context.Background(), "acme", 16, false)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateNoChange, outcome.Result)
	assert.Contains(t, outcome.Message, "already set to 16 power users")
}

func TestSetCustomerPowerUsersUnknownCustomer(t *testing.T) {
	t.Parallel()

	svc, _, _ := serviceFixture(false, domain.UpdateOutcome{})

	_, err := svc.SetCustomerPowerUsers(context.Background(), "nobody", 5, false)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestSetCustomerStorageRefusesReductionBelowUsedEvenWithForce(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(true, domain.UpdateOutcome{})

	outcome, err := svc.SetCustomerStorage(context.Background(), "acme", 300)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateNoChange, outcome.Result)
	assert.Contains(t, outcome.Message, "has 400GB storage in use")
	assert.Empty(t, writer.calls)
}

func TestSetCustomerStorageUnchangedSkipsMutation(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{})

	outcome, err := svc.SetCustomerStorage(context.Background(), "acme", 500)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateNoChange, outcome.Result)
	assert.Empty(t, writer.calls)
}

func TestSetCustomerStorageIncrease(t *testing.T) {
	t.Parallel()

	svc, _, writer := serviceFixture(false, domain.UpdateOutcome{Result: domain.UpdateSuccess})

	outcome, err := svc.SetCustomerStorage(context.Background(), "acme", 600)
	require.NoError(t, err)

	assert.Equal(t, domain.UpdateSuccess, outcome.Result)
	assert.Contains(t, outcome.Message, "from 500GB to 600GB")
	require.Len(t, writer.calls, 1)
	assert.Equal(t, writeCall{kind: "storage", id: "acme", total: 600}, writer.calls[0])
}

func TestEnsurePoolCapacity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		planID      domain.PlanID
		seatsNeeded int
		available   int
		wantTotal   int
		wantCalls   int
		wantErr     error
	}{
		{name: "pool already covers need", planID: "1", seatsNeeded: 3, available: 3, wantCalls: 0},
		{name: "plan pool covers despite low customer ceiling", planID: "1", seatsNeeded: 3, available: 1, wantCalls: 0},
		{name: "shortfall rounds to pack", planID: "1", seatsNeeded: 5, available: 0, wantTotal: 55, wantCalls: 1},
		{name: "exact pack shortfall", planID: "1", seatsNeeded: 8, available: 0, wantTotal: 55, wantCalls: 1},
		{name: "unknown plan", planID: "99", seatsNeeded: 10, available: 0, wantErr: domain.ErrPlanNotFound},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc, _, writer := serviceFixture(false, domain.UpdateOutcome{Result: domain.UpdateSuccess})

			err := svc.EnsurePoolCapacity(context.Background(), tc.planID, tc.seatsNeeded, tc.available)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Len(t, writer.calls, tc.wantCalls)
			if tc.wantCalls > 0 {
				assert.Equal(t, writeCall{kind: "plan_power_users", planID: tc.planID, total: tc.wantTotal}, writer.calls[0])
			}
		})
	}
}
