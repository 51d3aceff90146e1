package domain

type UpdateResult string

const (
	// UpdateSuccess means the portal accepted the change.
	UpdateSuccess UpdateResult = "SUCCESS"
	// UpdateNoChange means the requested state already holds or a safety
	// guard refused the change. It is not an error.
	UpdateNoChange UpdateResult = "NO_CHANGE"
)

type UpdateOutcome struct {
	Result  UpdateResult
	Message string
}
