package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of value movement.
type TransactionType string

const (
	TransactionTypeTopUp TransactionType = "TOP_UP"
	TransactionTypeBonus TransactionType = "BONUS"
	TransactionTypeSpend TransactionType = "SPEND"
)

// Transaction is the immutable header row of a double-entry posting.
// Its journal entries always sum to exactly zero.
type Transaction struct {
	ID          uuid.UUID              `json:"id"`
	Type        TransactionType        `json:"type"`
	Reference   string                 `json:"reference"`
	Description *string                `json:"description,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// Entry is a single journal line. A positive amount means value leaves
// the account (a debit); a negative amount means value arrives (a
// credit). BalanceAfter is an as-of snapshot for history reporting,
// not an authoritative balance.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	AssetTypeID   uuid.UUID       `json:"asset_type_id"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Posting magnitude constraints: fixed-point decimals with up to 8
// fractional digits and magnitude at most 10^7 per posting.
var (
	maxMagnitude = decimal.New(1, 7) // 10,000,000
)

const maxFractionalDigits = 8

// ValidateMagnitude checks a posting magnitude against the precision
// and range constraints. Returns a reason string when invalid.
func ValidateMagnitude(m decimal.Decimal) (string, bool) {
	if m.Sign() <= 0 {
		return "amount must be positive", false
	}
	if m.GreaterThan(maxMagnitude) {
		return "amount exceeds maximum of 10000000", false
	}
	if !m.Equal(m.Truncate(maxFractionalDigits)) {
		return "amount has more than 8 fractional digits", false
	}
	return "", true
}
