package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
)

// InvoiceHandler handles invoice and payment endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceCommands
	ledger   PaymentLedger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceCommands, ledger PaymentLedger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, ledger: ledger}
}

// Create godoc
// @ID           createInvoice
// @Summary      Issue an invoice
// @Description  Issue an invoice after checking the customer's credit limit against open balances
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user ID" format(uuid)
// @Param        request body dto.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.IssueDate.IsZero() || req.DueDate.IsZero() {
		h.BadRequest(c, dto.ErrCodeValidation, "issue_date and due_date are required")
		return
	}

	items := make([]appar.InvoiceItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, appar.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	inv, err := h.invoices.Create(c.Request.Context(), appar.CreateInvoiceRequest{
		CustomerID:    uuid.MustParse(req.CustomerID),
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate.Time,
		DueDate:       req.DueDate.Time,
		TotalAmount:   req.TotalAmount,
		Items:         items,
		CreatedBy:     middleware.GetActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewInvoiceResponse(inv))
}

// Get godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice with its items and current balances
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewInvoiceResponse(inv))
}

// AmendTotal godoc
// @ID           amendInvoiceTotal
// @Summary      Amend invoice total
// @Description  Change the invoice total. The credit check runs again with the new total
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.AmendTotalRequest true "New total"
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices/{id}/total [put]
func (h *InvoiceHandler) AmendTotal(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.AmendTotalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.AmendTotal(c.Request.Context(), id, req.TotalAmount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewInvoiceResponse(inv))
}

// Cancel godoc
// @ID           cancelInvoice
// @Summary      Cancel an invoice
// @Description  Cancel an invoice that has no applied payments
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.CancelInvoiceRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=dto.InvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.CancelInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	inv, err := h.invoices.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewInvoiceResponse(inv))
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment
// @Description  Apply a payment to the invoice and recalculate its paid amount and status
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting user ID" format(uuid)
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body dto.RecordPaymentRequest true "Payment details"
// @Success      201 {object} dto.Response{data=dto.LedgerResultResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.ledger.RecordPayment(c.Request.Context(), appar.RecordPaymentRequest{
		InvoiceID:   id,
		Amount:      req.Amount,
		Currency:    valueobject.Currency(req.Currency),
		Method:      receivable.PaymentMethod(req.Method),
		PaymentDate: req.PaymentDate.Time,
		Reference:   req.Reference,
		RecordedBy:  middleware.GetActorID(c),
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

// ListPayments godoc
// @ID           listInvoicePayments
// @Summary      List invoice payments
// @Description  Return the invoice's payment history in ledger order, reversals included
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]dto.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	payments, err := h.ledger.ListPayments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPaymentResponses(payments))
}
