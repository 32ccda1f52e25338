package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/interfaces/http/dto"
)

func setupCustomerHandler(now time.Time) (*gin.Engine, *MockCreditQueries) {
	credit := new(MockCreditQueries)
	h := NewCustomerHandler(credit)
	h.now = func() time.Time { return now }

	engine := testEngine()
	engine.GET("/customers/:id/credit", h.Credit)
	engine.GET("/customers/:id/aging", h.Aging)
	return engine, credit
}

func TestCustomerHandler_Credit(t *testing.T) {
	t.Run("returns exposure", func(t *testing.T) {
		engine, credit := setupCustomerHandler(time.Now())
		customerID := uuid.New()
		credit.On("Evaluate", mock.Anything, appar.CreditCheckRequest{CustomerID: customerID}).
			Return(&receivable.CreditExposure{Limit: vnd(10000), Exposure: vnd(2500), Remaining: vnd(7500)}, nil)

		w := doJSON(t, engine, http.MethodGet, "/customers/"+customerID.String()+"/credit", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.CreditExposureResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Equal(t, customerID, resp.CustomerID)
		assert.True(t, resp.Remaining.Amount().Equal(decimal.NewFromInt(7500)))
		credit.AssertExpectations(t)
	})

	t.Run("unknown customer", func(t *testing.T) {
		engine, credit := setupCustomerHandler(time.Now())
		credit.On("Evaluate", mock.Anything, mock.Anything).Return(nil, receivable.ErrCustomerNotFound)

		w := doJSON(t, engine, http.MethodGet, "/customers/"+uuid.NewString()+"/credit", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "CUSTOMER_NOT_FOUND", decode(t, w).Error.Code)
	})
}

func TestCustomerHandler_Aging(t *testing.T) {
	today := time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC)
	report := func(id uuid.UUID, asOf time.Time) *receivable.AgingReport {
		r, err := receivable.BuildAgingReport(id, "VND", nil, asOf)
		require.NoError(t, err)
		return r
	}

	t.Run("defaults to today", func(t *testing.T) {
		engine, credit := setupCustomerHandler(today)
		customerID := uuid.New()
		credit.On("Aging", mock.Anything, customerID, today).Return(report(customerID, today), nil)

		w := doJSON(t, engine, http.MethodGet, "/customers/"+customerID.String()+"/aging", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp receivable.AgingReport
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.Len(t, resp.Lines, len(receivable.AgingBuckets()))
		credit.AssertExpectations(t)
	})

	t.Run("as_of overrides today", func(t *testing.T) {
		engine, credit := setupCustomerHandler(today)
		customerID := uuid.New()
		asOf := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
		credit.On("Aging", mock.Anything, customerID, asOf).Return(report(customerID, asOf), nil)

		w := doJSON(t, engine, http.MethodGet, "/customers/"+customerID.String()+"/aging?as_of=2026-04-15", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		credit.AssertExpectations(t)
	})

	t.Run("malformed as_of", func(t *testing.T) {
		engine, credit := setupCustomerHandler(today)

		w := doJSON(t, engine, http.MethodGet, "/customers/"+uuid.NewString()+"/aging?as_of=15-04-2026", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		credit.AssertNotCalled(t, "Aging", mock.Anything, mock.Anything, mock.Anything)
	})
}
