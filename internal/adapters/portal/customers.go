package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/rs/zerolog/log"
)

// usageRecord is the nested structure the usage-stats endpoint reports per
// tenant. Each element of the response array is a single-key object mapping a
// synthetic tenant id to one of these.
type usageRecord struct {
	PowerUserStats domain.StorageStats `json:"power_user_stats"`
	StorageStats   domain.StorageStats `json:"storage_stats"`
	FeatureStats   map[string]int      `json:"feature_stats"`
}

// ListCustomers walks every active plan sequentially, pacing between plans,
// and returns the customers it could read. A plan whose usage fetch fails is
// logged and skipped: the listing is best-effort across independent plans and
// partial results are acceptable.
func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	sess, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	planIDs, err := c.listPlanIDs(ctx, sess)
	if err != nil {
		return nil, err
	}

	customers := make([]domain.Customer, 0, len(planIDs))
	for i, planID := range planIDs {
		if i > 0 {
			if err := c.sleep(ctx, c.backoffDelay(i)); err != nil {
				return nil, err
			}
		}

		records, err := c.fetchUsageStats(ctx, sess, planID)
		if err != nil {
			log.Warn().Err(err).Str("plan_id", string(planID)).Msg("skipping plan, usage stats fetch failed")
			continue
		}

		for _, record := range records {
			for tenantID, ref := range record {
				customers = append(customers, customerFromRecord(planID, tenantID, ref))
			}
		}
	}

	return customers, nil
}

// GetCustomer finds one customer by exact id match over a fresh listing.
func (c *Client) GetCustomer(ctx context.Context, id domain.CustomerID) (domain.Customer, error) {
	customers, err := c.ListCustomers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}

	for _, customer := range customers {
		if customer.ID == id {
			return customer, nil
		}
	}

	return domain.Customer{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, id)
}

// ProtectPlanUsage looks up a tenant's Protect add-on storage counters on the
// reserved Protect plan. A tenant without a Protect entry yields (nil, nil);
// absence is a normal outcome, not an error.
func (c *Client) ProtectPlanUsage(ctx context.Context, tenantID string) (*domain.StorageStats, error) {
	if c.cfg.ProtectPlanID == "" {
		return nil, fmt.Errorf("protect plan id is not configured")
	}

	sess, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	records, err := c.fetchUsageStats(ctx, sess, domain.PlanID(c.cfg.ProtectPlanID))
	if err != nil {
		return nil, err
	}

	key := "protect" + strings.ToLower(tenantID)
	for _, record := range records {
		if ref, ok := record[key]; ok {
			stats := ref.StorageStats
			return &stats, nil
		}
	}

	return nil, nil
}

func (c *Client) fetchUsageStats(ctx context.Context, sess session, planID domain.PlanID) ([]map[string]usageRecord, error) {
	endpoint := fmt.Sprintf("%s/msp/usage_stats/%s/%s/", c.baseURL, c.cachedResellerID(), planID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create usage stats request: %w", err)
	}
	req.Header.Set("Cookie", sess.cookie)
	req.Header.Set("X-CSRFToken", sess.csrfToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch usage stats for plan %s: %w", planID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usage stats for plan %s: status %d", planID, resp.StatusCode)
	}

	var records []map[string]usageRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode usage stats for plan %s: %w", planID, err)
	}

	return records, nil
}

func customerFromRecord(planID domain.PlanID, tenantID string, ref usageRecord) domain.Customer {
	return domain.Customer{
		ID:         domain.NormalizeCustomerID(tenantID),
		PlanID:     planID,
		PowerUsers: domain.NewUsageStat(ref.PowerUserStats.Used, ref.PowerUserStats.Unused, ref.PowerUserStats.Available),
		StorageGB:  domain.NewUsageStat(ref.StorageStats.Used, ref.StorageStats.Unused, ref.StorageStats.Available),
		Features:   domain.MapFeatures(ref.FeatureStats),
	}
}

func (c *Client) cachedResellerID() string {
	c.resellerMu.Lock()
	defer c.resellerMu.Unlock()
	return c.resellerID
}
