package entities

// DepositQuery filters deposits. Zero values match everything.
type DepositQuery struct {
	UserID string
	Status DepositStatus
}
