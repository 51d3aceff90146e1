package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPlanNotFound     = errors.New("plan not found")
	// ErrUpdateRejected wraps the verbatim upstream refusal message.
	ErrUpdateRejected = errors.New("update rejected by portal")
)

// InsufficientPoolError reports a seat increase that exceeds what the plan
// pool has left unassigned.
type InsufficientPoolError struct {
	Needed    int
	Available int
}

func (e *InsufficientPoolError) Error() string {
	return fmt.Sprintf("not enough available licenses on the reseller plan: need %d but only %d are available", e.Needed, e.Available)
}

// Shortfall is how many seats the pool is missing.
func (e *InsufficientPoolError) Shortfall() int {
	return e.Needed - e.Available
}
