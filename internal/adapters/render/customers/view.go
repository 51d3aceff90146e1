package customers

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bnema/egnyte-reseller-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 24

func renderCustomersView(customers []domain.Customer, s styles) string {
	lines := []string{
		s.title.Render("Egnyte Reseller Customers"),
		s.header.Render(fmt.Sprintf("customers: %d", len(customers))),
	}

	if len(customers) == 0 {
		lines = append(lines, s.empty.Render("No customers found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, customer := range customers {
		lines = append(lines, s.section.Render(renderCustomer(customer, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCustomer(customer domain.Customer, s styles) string {
	parts := []string{
		s.name.Render(fmt.Sprintf("Customer: %s (plan %s)", customer.ID, customer.PlanID)),
		usageLine("power users", customer.PowerUsers, "", s),
		usageLine("storage", customer.StorageGB, "GB", s),
	}

	if packs := customer.Features["totalStandardUserPacks"]; packs != 0 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("standard user packs: %d", packs)))
	}
	if customer.PowerUsers.Free == 0 && customer.PowerUsers.Total > 0 {
		parts = append(parts, s.warning.Render("all licensed power users are in use"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func usageLine(label string, stat domain.UsageStat, unit string, s styles) string {
	key := s.key.Render(label + ":")
	bar := renderUsageBar(stat, barWidth, s)

	figures := fmt.Sprintf("%d/%d", stat.Used, stat.Total)
	if unit != "" {
		figures += " " + unit
	}
	meta := s.meta.Render(fmt.Sprintf("%s used, %d available", figures, stat.Available))

	return lipgloss.JoinHorizontal(lipgloss.Top, key, " ", bar, " ", meta)
}

func renderUsageBar(stat domain.UsageStat, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := 0
	if stat.Total > 0 {
		filled = int(math.Round(float64(width) * float64(stat.Used) / float64(stat.Total)))
	}
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func renderPlansView(plans []domain.Plan, s styles) string {
	lines := []string{
		s.title.Render("Egnyte Reseller Plans"),
		s.header.Render(fmt.Sprintf("plans: %d", len(plans))),
	}

	if len(plans) == 0 {
		lines = append(lines, s.empty.Render("No plans found."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, plan := range plans {
		lines = append(lines, s.section.Render(renderPlan(plan, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPlan(plan domain.Plan, s styles) string {
	parts := []string{
		s.name.Render(fmt.Sprintf("Plan %s", plan.ID)),
		s.detail.Render(seatsLine(plan)),
		s.detail.Render(fmt.Sprintf("storage pool: %d GB available", plan.AvailableStorageGB)),
	}

	if len(plan.CustomerIDs) > 0 {
		ids := make([]string, 0, len(plan.CustomerIDs))
		for _, id := range plan.CustomerIDs {
			ids = append(ids, string(id))
		}
		sort.Strings(ids)
		parts = append(parts, s.meta.Render("customers: "+strings.Join(ids, ", ")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func seatsLine(plan domain.Plan) string {
	if plan.TotalPowerUsers == nil {
		return fmt.Sprintf("seats: purchased total unknown, %d available", plan.AvailablePowerUsers)
	}

	used := 0
	if plan.UsedPowerUsers != nil {
		used = *plan.UsedPowerUsers
	}

	return fmt.Sprintf("seats: %d/%d used, %d available", used, *plan.TotalPowerUsers, plan.AvailablePowerUsers)
}
