package receivable

import (
	"fmt"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// CreditExposure is the result of a successful credit check
type CreditExposure struct {
	Limit     valueobject.Money `json:"limit"`
	Exposure  valueobject.Money `json:"exposure"`
	Remaining valueobject.Money `json:"remaining"`
}

// ComputeExposure checks whether a customer stays within limit.
//
// outstanding holds the customer's invoices; only PENDING and OVERDUE ones
// count, and editing (if any) is excluded from the current debt and replaced
// by its projected balance:
//   - editing with proposedTotal: proposedTotal - paid
//   - editing without proposedTotal: its current balance
//   - new invoice: proposedTotal (nil checks existing debt only)
func ComputeExposure(
	limit valueobject.Money,
	outstanding []*Invoice,
	editing *Invoice,
	proposedTotal *valueobject.Money,
) (CreditExposure, error) {
	currency := limit.Currency()
	debt := valueobject.Zero(currency)
	for _, inv := range outstanding {
		if !inv.IsOutstanding() {
			continue
		}
		if editing != nil && inv.ID == editing.ID {
			continue
		}
		var err error
		if debt, err = debt.Add(inv.BalanceAmount); err != nil {
			return CreditExposure{}, err
		}
	}

	projected, err := projectedBalance(currency, editing, proposedTotal)
	if err != nil {
		return CreditExposure{}, err
	}

	exposure, err := debt.Add(projected)
	if err != nil {
		return CreditExposure{}, err
	}
	exceeds, err := exposure.GreaterThan(limit)
	if err != nil {
		return CreditExposure{}, err
	}
	if exceeds {
		return CreditExposure{}, shared.NewBusinessRuleError(ErrCreditLimitExceeded.Code,
			fmt.Sprintf("Credit limit exceeded: exposure %s, limit %s", exposure, limit))
	}
	remaining, err := limit.Subtract(exposure)
	if err != nil {
		return CreditExposure{}, err
	}
	return CreditExposure{Limit: limit, Exposure: exposure, Remaining: remaining}, nil
}

func projectedBalance(currency valueobject.Currency, editing *Invoice, proposedTotal *valueobject.Money) (valueobject.Money, error) {
	switch {
	case editing != nil && proposedTotal != nil:
		exceeds, err := editing.PaidAmount.GreaterThan(*proposedTotal)
		if err != nil {
			return valueobject.Money{}, err
		}
		if exceeds {
			return valueobject.Money{}, shared.NewBusinessRuleError(ErrPaidExceedsNewTotal.Code,
				fmt.Sprintf("Paid amount %s exceeds proposed total %s", editing.PaidAmount, *proposedTotal))
		}
		return proposedTotal.Subtract(editing.PaidAmount)
	case editing != nil:
		if !editing.IsOutstanding() {
			return valueobject.Zero(currency), nil
		}
		return editing.BalanceAmount, nil
	case proposedTotal != nil:
		return *proposedTotal, nil
	default:
		return valueobject.Zero(currency), nil
	}
}
