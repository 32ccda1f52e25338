package handler

import (
	"github.com/gin-gonic/gin"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
)

// PaymentHandler handles payment reversal
type PaymentHandler struct {
	BaseHandler
	ledger PaymentLedger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(ledger PaymentLedger) *PaymentHandler {
	return &PaymentHandler{ledger: ledger}
}

// Reverse godoc
// @ID           reversePayment
// @Summary      Reverse a payment
// @Description  Post a negating entry for a payment. A payment can be reversed only once
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user ID" format(uuid)
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body dto.ReversePaymentRequest true "Reversal details"
// @Success      201 {object} dto.Response{data=dto.LedgerResultResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /payments/{id}/reverse [post]
func (h *PaymentHandler) Reverse(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ReversePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledger.ReversePayment(c.Request.Context(), appar.ReversePaymentRequest{
		PaymentID:    id,
		Reason:       req.Reason,
		ReversalDate: req.ReversalDate.Time,
		RecordedBy:   middleware.GetActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.LedgerResultResponse{
		Payment: dto.NewPaymentResponse(result.Payment),
		Invoice: dto.NewInvoiceResponse(result.Invoice),
	})
}
