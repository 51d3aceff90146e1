package domain

// PackSize is the billing increment for power-user seats. Plan-level seat
// changes must land on a multiple of this.
const PackSize = 5

// Plan is one reseller billing plan grouping customer tenants that share a
// pool of purchased seats and storage. TotalPowerUsers and UsedPowerUsers are
// nil when the purchased-seat endpoint returned no data for the plan; the
// listing tolerates that rather than failing.
type Plan struct {
	ID                  PlanID
	TotalPowerUsers     *int
	UsedPowerUsers      *int
	AvailablePowerUsers int
	AvailableStorageGB  int
	CustomerIDs         []CustomerID
}

// RoundUpToPack rounds n up to the nearest multiple of PackSize. Values that
// are already aligned come back unchanged; non-positive values round to zero.
func RoundUpToPack(n int) int {
	if n <= 0 {
		return 0
	}

	if rem := n % PackSize; rem != 0 {
		return n + PackSize - rem
	}

	return n
}
