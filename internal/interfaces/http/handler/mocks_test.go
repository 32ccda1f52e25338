package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appar "github.com/erp/receivables/internal/application/receivable"
	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
	"github.com/erp/receivables/internal/interfaces/http/dto"
	"github.com/erp/receivables/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockInvoiceCommands struct {
	mock.Mock
}

func (m *MockInvoiceCommands) Create(ctx context.Context, req appar.CreateInvoiceRequest) (*receivable.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceCommands) AmendTotal(ctx context.Context, invoiceID uuid.UUID, newTotal decimal.Decimal) (*receivable.Invoice, error) {
	args := m.Called(ctx, invoiceID, newTotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceCommands) Cancel(ctx context.Context, invoiceID uuid.UUID, reason string) (*receivable.Invoice, error) {
	args := m.Called(ctx, invoiceID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

func (m *MockInvoiceCommands) Get(ctx context.Context, invoiceID uuid.UUID) (*receivable.Invoice, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.Invoice), args.Error(1)
}

type MockPaymentLedger struct {
	mock.Mock
}

func (m *MockPaymentLedger) RecordPayment(ctx context.Context, req appar.RecordPaymentRequest) (*appar.LedgerResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appar.LedgerResult), args.Error(1)
}

func (m *MockPaymentLedger) ReversePayment(ctx context.Context, req appar.ReversePaymentRequest) (*appar.LedgerResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appar.LedgerResult), args.Error(1)
}

func (m *MockPaymentLedger) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*receivable.Payment, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*receivable.Payment), args.Error(1)
}

type MockCreditQueries struct {
	mock.Mock
}

func (m *MockCreditQueries) Evaluate(ctx context.Context, req appar.CreditCheckRequest) (*receivable.CreditExposure, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.CreditExposure), args.Error(1)
}

func (m *MockCreditQueries) Aging(ctx context.Context, customerID uuid.UUID, today time.Time) (*receivable.AgingReport, error) {
	args := m.Called(ctx, customerID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*receivable.AgingReport), args.Error(1)
}

// testEngine mirrors the production middleware that handlers depend on
func testEngine() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func vnd(amount int64) valueobject.Money {
	return valueobject.MustNewMoney(decimal.NewFromInt(amount), valueobject.VND)
}

func newTestInvoice(t *testing.T, total int64) *receivable.Invoice {
	t.Helper()
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inv, err := receivable.NewInvoice(uuid.New(), "INV-2026-0001", issue, issue.AddDate(0, 0, 30), vnd(total), uuid.New(), nil)
	require.NoError(t, err)
	return inv
}

func newTestPayment(t *testing.T, invoiceID uuid.UUID, amount int64) *receivable.Payment {
	t.Helper()
	p, err := receivable.NewPayment(invoiceID, vnd(amount), receivable.PaymentMethodCash,
		time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), "RCPT-1", uuid.New())
	require.NoError(t, err)
	return p
}
