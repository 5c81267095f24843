package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountKind distinguishes user wallets from system counterparties.
type AccountKind string

const (
	// AccountKindSystem accounts represent unbounded supply or sink and
	// may carry negative balances (treasury, bonus pool, revenue).
	AccountKindSystem AccountKind = "SYSTEM"
	// AccountKindUser accounts must never go negative.
	AccountKindUser AccountKind = "USER"
)

// Account is a ledger account together with its cached balance row.
// Balance and Version come from the 1:1 balances row and are only
// current when the account was loaded under a row lock.
type Account struct {
	ID          uuid.UUID       `json:"id"`
	ExternalID  *string         `json:"external_id,omitempty"`
	Kind        AccountKind     `json:"kind"`
	AssetTypeID uuid.UUID       `json:"asset_type_id"`
	AssetCode   string          `json:"asset_code"`
	DisplayName string          `json:"display_name"`
	Active      bool            `json:"active"`
	Balance     decimal.Decimal `json:"balance"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CanGoNegative reports whether the non-negative balance policy applies.
func (a *Account) CanGoNegative() bool {
	return a.Kind == AccountKindSystem
}

// Well-known external id prefixes for system counterparty accounts.
// The full id is the prefix joined with the asset's short code,
// e.g. SYS_TREASURY_DIAMOND.
const (
	TreasuryExternalIDPrefix  = "SYS_TREASURY"
	BonusPoolExternalIDPrefix = "SYS_BONUS"
	RevenueExternalIDPrefix   = "SYS_REVENUE"
)

// TreasuryExternalID returns the treasury account id for an asset code.
func TreasuryExternalID(assetCode string) string {
	return fmt.Sprintf("%s_%s", TreasuryExternalIDPrefix, assetCode)
}

// BonusPoolExternalID returns the bonus-pool account id for an asset code.
func BonusPoolExternalID(assetCode string) string {
	return fmt.Sprintf("%s_%s", BonusPoolExternalIDPrefix, assetCode)
}

// RevenueExternalID returns the revenue account id for an asset code.
func RevenueExternalID(assetCode string) string {
	return fmt.Sprintf("%s_%s", RevenueExternalIDPrefix, assetCode)
}
