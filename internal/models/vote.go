package models

// VoteOutcome is the result of an atomic vote attempt against the store.
type VoteOutcome int

const (
	// VoteRecorded means the ledger entry was appended and the counter bumped.
	VoteRecorded VoteOutcome = iota
	// VoteAlreadyCast means the user already holds a vote for the product;
	// nothing was written.
	VoteAlreadyCast
	VoteProductMissing
	VoteUserMissing
)

func (o VoteOutcome) String() string {
	switch o {
	case VoteRecorded:
		return "recorded"
	case VoteAlreadyCast:
		return "already_cast"
	case VoteProductMissing:
		return "product_missing"
	case VoteUserMissing:
		return "user_missing"
	default:
		return "unknown"
	}
}

// VoteResult pairs the outcome with the product as it stands after the
// attempt. Product is nil unless Outcome is VoteRecorded.
type VoteResult struct {
	Outcome VoteOutcome
	Product *FailedProduct
}
