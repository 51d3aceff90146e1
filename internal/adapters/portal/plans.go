package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"golang.org/x/sync/errgroup"
)

// directoryEntry is one row of the account's customer directory.
type directoryEntry struct {
	Domain string      `json:"domain"`
	PlanID json.Number `json:"plan_id"`
	Status string      `json:"status"`
}

// purchasedPayload is the purchased-seat figure for one plan. The endpoint
// sometimes returns nothing useful; Purchased stays nil then.
type purchasedPayload struct {
	Purchased *int `json:"purchased"`
}

// ListPlanIDs lists the unique plan ids across the customer directory,
// skipping deleted entries and preserving first-seen order.
func (c *Client) ListPlanIDs(ctx context.Context) ([]domain.PlanID, error) {
	sess, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return c.listPlanIDs(ctx, sess)
}

func (c *Client) listPlanIDs(ctx context.Context, sess session) ([]domain.PlanID, error) {
	endpoint := fmt.Sprintf("%s/msp/customer_data/%s", c.baseURL, c.cachedResellerID())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create customer directory request: %w", err)
	}
	req.Header.Set("Cookie", sess.cookie)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch customer directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("customer directory: status %d", resp.StatusCode)
	}

	var entries []directoryEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode customer directory: %w", err)
	}

	planIDs := make([]domain.PlanID, 0, len(entries))
	seen := make(map[domain.PlanID]struct{}, len(entries))
	for _, entry := range entries {
		if entry.Status == "deleted" {
			continue
		}
		planID := domain.PlanID(entry.PlanID.String())
		if _, ok := seen[planID]; ok {
			continue
		}
		seen[planID] = struct{}{}
		planIDs = append(planIDs, planID)
	}

	return planIDs, nil
}

// ListPlans assembles plan-level pool figures. Unlike ListCustomers the plans
// are fetched in parallel: this endpoint pair has shown no rate sensitivity,
// and the asymmetry with the sequential customer walk is deliberate.
func (c *Client) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	sess, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	planIDs, err := c.listPlanIDs(ctx, sess)
	if err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, len(planIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, planID := range planIDs {
		i, planID := i, planID
		g.Go(func() error {
			plan, err := c.fetchPlan(gctx, sess, planID)
			if err != nil {
				return err
			}
			plans[i] = plan
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (c *Client) fetchPlan(ctx context.Context, sess session, planID domain.PlanID) (domain.Plan, error) {
	var (
		records   []map[string]usageRecord
		purchased purchasedPayload
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = c.fetchUsageStats(gctx, sess, planID)
		return err
	})
	g.Go(func() error {
		var err error
		purchased, err = c.fetchPurchasedSeats(gctx, sess, planID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Plan{}, err
	}

	plan := domain.Plan{ID: planID}

	if len(records) > 0 {
		for _, ref := range records[0] {
			plan.AvailablePowerUsers = ref.PowerUserStats.Available
			plan.AvailableStorageGB = ref.StorageStats.Available
		}
	}
	for _, record := range records {
		for tenantID := range record {
			plan.CustomerIDs = append(plan.CustomerIDs, domain.NormalizeCustomerID(tenantID))
		}
	}

	// used seats are only derivable when the purchased figure came back
	if purchased.Purchased != nil {
		total := *purchased.Purchased
		used := total - plan.AvailablePowerUsers
		plan.TotalPowerUsers = &total
		plan.UsedPowerUsers = &used
	}

	return plan, nil
}

func (c *Client) fetchPurchasedSeats(ctx context.Context, sess session, planID domain.PlanID) (purchasedPayload, error) {
	endpoint := fmt.Sprintf("%s/msp/get_plan_pu_data/%s/%s/", c.baseURL, c.cachedResellerID(), planID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return purchasedPayload{}, fmt.Errorf("create purchased seats request: %w", err)
	}
	req.Header.Set("Cookie", sess.cookie)
	req.Header.Set("X-CSRFToken", sess.csrfToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return purchasedPayload{}, fmt.Errorf("fetch purchased seats for plan %s: %w", planID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return purchasedPayload{}, fmt.Errorf("purchased seats for plan %s: status %d", planID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return purchasedPayload{}, fmt.Errorf("read purchased seats for plan %s: %w", planID, err)
	}
	if len(body) == 0 {
		return purchasedPayload{}, nil
	}

	var payload purchasedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return purchasedPayload{}, fmt.Errorf("decode purchased seats for plan %s: %w", planID, err)
	}

	return payload, nil
}
