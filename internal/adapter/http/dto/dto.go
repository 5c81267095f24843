package dto

import (
	"wallet-ledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// MovementRequest is the request body for the three mutating endpoints.
type MovementRequest struct {
	AccountID   string                 `json:"accountId" binding:"required,uuid"`
	Amount      decimal.Decimal        `json:"amount" binding:"required"`
	ReferenceID string                 `json:"referenceId" binding:"required,max=255,safe_reference"`
	Description *string                `json:"description,omitempty" binding:"omitempty,max=500"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// MovementResponse is the success data of a mutating endpoint.
type MovementResponse struct {
	TransactionID string          `json:"transactionId"`
	ReferenceID   string          `json:"referenceId"`
	Type          string          `json:"type"`
	AccountID     string          `json:"accountId"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Description   *string         `json:"description,omitempty"`
	CreatedAt     string          `json:"createdAt"`
	Idempotent    bool            `json:"idempotent,omitempty"`
}

// BalanceResponse is the success data of the balance query.
type BalanceResponse struct {
	AccountID string          `json:"accountId"`
	AssetCode string          `json:"assetCode"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	UpdatedAt string          `json:"updatedAt"`
}

// HistoryItemResponse is a single user-facing history line. Amount is
// negated relative to storage: income positive, outflow negative.
type HistoryItemResponse struct {
	TransactionID string          `json:"transactionId"`
	Type          string          `json:"type"`
	ReferenceID   string          `json:"referenceId"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Description   *string         `json:"description,omitempty"`
	CreatedAt     string          `json:"createdAt"`
}

// HistoryResponse wraps a paginated history page.
type HistoryResponse struct {
	Items  []HistoryItemResponse `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// AuditResponse is the success data of the audit query.
type AuditResponse struct {
	AccountID      string          `json:"accountId"`
	CachedBalance  decimal.Decimal `json:"cachedBalance"`
	JournalBalance decimal.Decimal `json:"journalBalance"`
	Discrepancy    decimal.Decimal `json:"discrepancy"`
	IsConsistent   bool            `json:"isConsistent"`
}

// FromMovementResult maps a core result into the response shape.
func FromMovementResult(r *ports.MovementResult) MovementResponse {
	return MovementResponse{
		TransactionID: r.TransactionID.String(),
		ReferenceID:   r.ReferenceID,
		Type:          string(r.Type),
		AccountID:     r.AccountID.String(),
		Amount:        r.Amount,
		BalanceAfter:  r.BalanceAfter,
		Description:   r.Description,
		CreatedAt:     r.CreatedAt.Format(timeFormat),
		Idempotent:    r.Idempotent,
	}
}

// FromBalanceSnapshot maps a balance snapshot into the response shape.
func FromBalanceSnapshot(b *ports.BalanceSnapshot) BalanceResponse {
	return BalanceResponse{
		AccountID: b.AccountID.String(),
		AssetCode: b.AssetCode,
		Balance:   b.Balance,
		Version:   b.Version,
		UpdatedAt: b.UpdatedAt.Format(timeFormat),
	}
}

// FromHistoryPage maps a history page into the response shape.
func FromHistoryPage(p *ports.HistoryPage) HistoryResponse {
	resp := HistoryResponse{
		Items:  make([]HistoryItemResponse, 0, len(p.Items)),
		Total:  p.Total,
		Limit:  p.Limit,
		Offset: p.Offset,
	}
	for _, it := range p.Items {
		resp.Items = append(resp.Items, HistoryItemResponse{
			TransactionID: it.TransactionID.String(),
			Type:          string(it.Type),
			ReferenceID:   it.Reference,
			Amount:        it.Amount,
			BalanceAfter:  it.BalanceAfter,
			Description:   it.Description,
			CreatedAt:     it.CreatedAt.Format(timeFormat),
		})
	}
	return resp
}

// FromAuditReport maps an audit report into the response shape.
func FromAuditReport(a *ports.AuditReport) AuditResponse {
	return AuditResponse{
		AccountID:      a.AccountID.String(),
		CachedBalance:  a.CachedBalance,
		JournalBalance: a.JournalBalance,
		Discrepancy:    a.Discrepancy,
		IsConsistent:   a.IsConsistent,
	}
}
