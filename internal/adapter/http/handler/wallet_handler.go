package handler

import (
	"context"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the three mutating wallet endpoints.
type WalletHandler struct {
	ledgerSvc ports.LedgerService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(ledgerSvc ports.LedgerService) *WalletHandler {
	return &WalletHandler{ledgerSvc: ledgerSvc}
}

// TopUp handles POST /api/v1/wallet/topup.
func (h *WalletHandler) TopUp(c *gin.Context) {
	h.movement(c, h.ledgerSvc.TopUp)
}

// Bonus handles POST /api/v1/wallet/bonus.
func (h *WalletHandler) Bonus(c *gin.Context) {
	h.movement(c, h.ledgerSvc.Bonus)
}

// Spend handles POST /api/v1/wallet/spend.
func (h *WalletHandler) Spend(c *gin.Context) {
	h.movement(c, h.ledgerSvc.Spend)
}

// movement binds and validates the shared request shape, invokes the
// flow, and maps the result. 201 for a fresh execution, 200 for an
// idempotent replay.
func (h *WalletHandler) movement(c *gin.Context, flow func(context.Context, ports.MovementRequest) (*ports.MovementResult, error)) {
	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		response.Error(c, apperror.Validation("accountId must be a valid UUID"))
		return
	}

	result, err := flow(c.Request.Context(), ports.MovementRequest{
		AccountID:   accountID,
		Amount:      req.Amount,
		ReferenceID: req.ReferenceID,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Idempotent {
		response.OK(c, dto.FromMovementResult(result))
		return
	}
	response.Created(c, dto.FromMovementResult(result))
}
