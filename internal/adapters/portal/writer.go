package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/rs/zerolog/log"
)

// Every mutation authenticates from scratch. Updates never reuse a session
// obtained for an earlier read, matching the portal's short-lived session
// behavior.

// ChangeCustomerPowerUsers posts a new seat total for one tenant. The known
// CFS failure is read as a soft success only when the client was configured
// with ForceLicenseChange.
func (c *Client) ChangeCustomerPowerUsers(ctx context.Context, id domain.CustomerID, total int) (domain.UpdateOutcome, error) {
	payload := map[string]string{
		"domain":      string(id),
		"power_users": strconv.Itoa(total),
	}

	status, body, err := c.postMutation(ctx, "/msp/change_power_users/", payload)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	return classifyAck(status, body, c.cfg.ForceLicenseChange)
}

// ChangeCustomerStorage posts a new storage allocation in GB for one tenant.
// There is no soft-success path for storage.
func (c *Client) ChangeCustomerStorage(ctx context.Context, id domain.CustomerID, totalGB int) (domain.UpdateOutcome, error) {
	payload := map[string]string{
		"domain":  string(id),
		"storage": strconv.Itoa(totalGB),
	}

	status, body, err := c.postMutation(ctx, "/msp/change_storage/", payload)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	return classifyAck(status, body, false)
}

// ChangePlanPowerUsers posts a new purchased seat total for a whole plan.
// This mutates billing: the reseller is invoiced for the new total.
func (c *Client) ChangePlanPowerUsers(ctx context.Context, planID domain.PlanID, total int) (domain.UpdateOutcome, error) {
	payload := map[string]string{
		"plan_id":         string(planID),
		"plan_power_users": strconv.Itoa(total),
	}

	status, body, err := c.postMutation(ctx, "/msp/change_plan_power_users/", payload)
	if err != nil {
		return domain.UpdateOutcome{}, err
	}

	return classifyAck(status, body, false)
}

// postMutation authenticates, then posts a JSON body with the session cookie
// and both CSRF headers attached. It returns the raw status and body for the
// classifier; HTTP-level failures are the only errors raised here.
func (c *Client) postMutation(ctx context.Context, path string, payload map[string]string) (int, []byte, error) {
	sess, err := c.authenticate(ctx)
	if err != nil {
		return 0, nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode mutation payload: %w", err)
	}

	endpoint := c.baseURL + path + c.cachedResellerID() + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create mutation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", sess.cookie+"; "+csrfCookieName+"="+sess.csrfToken)
	req.Header.Set("X-CSRFToken", sess.csrfToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", c.baseURL)

	resp, err := c.httpNoRedirect.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}

	log.Debug().Str("path", path).Int("status", resp.StatusCode).Msg("portal mutation submitted")

	return resp.StatusCode, respBody, nil
}
