package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/interfaces/http/dto"
)

// CustomerHandler serves read-only credit views of a customer
type CustomerHandler struct {
	BaseHandler
	credit CreditQueries
	now    func() time.Time
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(credit CreditQueries) *CustomerHandler {
	return &CustomerHandler{credit: credit, now: time.Now}
}

// Credit godoc
// @ID           getCustomerCredit
// @Summary      Get customer credit exposure
// @Description  Return the credit limit, open exposure and remaining credit computed from current balances
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=dto.CreditExposureResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /customers/{id}/credit [get]
func (h *CustomerHandler) Credit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	exposure, err := h.credit.Evaluate(c.Request.Context(), appar.CreditCheckRequest{CustomerID: id})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.CreditExposureResponse{
		CustomerID: id,
		Limit:      exposure.Limit,
		Exposure:   exposure.Exposure,
		Remaining:  exposure.Remaining,
	})
}

// Aging godoc
// @ID           getCustomerAging
// @Summary      Get customer aging report
// @Description  Bucket outstanding balances by days past due
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        as_of query string false "Report date (YYYY-MM-DD), defaults to today"
// @Success      200 {object} dto.Response{data=receivable.AgingReport}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /customers/{id}/aging [get]
func (h *CustomerHandler) Aging(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	asOf := h.now()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(dto.DateLayout, raw)
		if err != nil {
			h.BadRequest(c, dto.ErrCodeBadRequest, "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	report, err := h.credit.Aging(c.Request.Context(), id, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
