package domain

import "strings"

type CustomerID string
type PlanID string

// NormalizeCustomerID canonicalizes a tenant domain. The portal treats tenant
// domains as case-insensitive but only accepts the lowercase form on writes.
func NormalizeCustomerID(id string) CustomerID {
	return CustomerID(strings.ToLower(strings.TrimSpace(id)))
}

// UsageStat is one licensed resource on one customer. Total is always
// Used + Free; Available is the upstream-reported ceiling on how much more
// of the plan pool may still be assigned to this customer.
type UsageStat struct {
	Total     int
	Used      int
	Available int
	Free      int
}

// NewUsageStat derives Total from the two upstream counters so that the
// Total == Used + Free invariant holds by construction.
func NewUsageStat(used, free, available int) UsageStat {
	return UsageStat{
		Total:     used + free,
		Used:      used,
		Available: available,
		Free:      free,
	}
}

// StorageStats carries the three raw upstream counters unchanged. The Protect
// usage lookup returns these verbatim.
type StorageStats struct {
	Used      int `json:"Used"`
	Unused    int `json:"Unused"`
	Available int `json:"Available"`
}

type Customer struct {
	ID         CustomerID
	PlanID     PlanID
	PowerUsers UsageStat
	StorageGB  UsageStat
	Features   map[string]int
}
