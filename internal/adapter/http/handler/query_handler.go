package handler

import (
	"strconv"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QueryHandler handles the read-only wallet endpoints.
type QueryHandler struct {
	ledgerSvc ports.LedgerService
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(ledgerSvc ports.LedgerService) *QueryHandler {
	return &QueryHandler{ledgerSvc: ledgerSvc}
}

// Balance handles GET /api/v1/wallet/:accountId/balance.
func (h *QueryHandler) Balance(c *gin.Context) {
	accountID, ok := pathAccountID(c)
	if !ok {
		return
	}

	snapshot, err := h.ledgerSvc.Balance(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromBalanceSnapshot(snapshot))
}

// History handles GET /api/v1/wallet/:accountId/history.
func (h *QueryHandler) History(c *gin.Context) {
	accountID, ok := pathAccountID(c)
	if !ok {
		return
	}

	limit, err := intQuery(c, "limit", 20)
	if err != nil || limit < 1 || limit > 100 {
		response.Error(c, apperror.Validation("limit must be an integer between 1 and 100"))
		return
	}
	offset, err := intQuery(c, "offset", 0)
	if err != nil || offset < 0 {
		response.Error(c, apperror.Validation("offset must be a non-negative integer"))
		return
	}

	params := ports.HistoryParams{
		AccountID: accountID,
		Limit:     limit,
		Offset:    offset,
	}
	if raw := c.Query("type"); raw != "" {
		typ := domain.TransactionType(raw)
		switch typ {
		case domain.TransactionTypeTopUp, domain.TransactionTypeBonus, domain.TransactionTypeSpend:
			params.Type = &typ
		default:
			response.Error(c, apperror.Validation("type must be one of TOP_UP, BONUS, SPEND"))
			return
		}
	}

	page, err := h.ledgerSvc.History(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromHistoryPage(page))
}

// Audit handles GET /api/v1/wallet/:accountId/audit.
func (h *QueryHandler) Audit(c *gin.Context) {
	accountID, ok := pathAccountID(c)
	if !ok {
		return
	}

	report, err := h.ledgerSvc.Audit(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromAuditReport(report))
}

func pathAccountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("accountId"))
	if err != nil {
		response.Error(c, apperror.Validation("accountId must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
