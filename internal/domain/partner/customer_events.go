package partner

import (
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerCreated          = "CustomerCreated"
	EventTypeCustomerRiskLevelChanged = "CustomerRiskLevelChanged"
)

// CustomerCreatedEvent is published when a new customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(customer *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		Code:            customer.Code,
		Name:            customer.Name,
	}
}

// CustomerRiskLevelChangedEvent is published when a customer's risk level changes
type CustomerRiskLevelChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	OldLevel   RiskLevel `json:"old_level"`
	NewLevel   RiskLevel `json:"new_level"`
}

// NewCustomerRiskLevelChangedEvent creates a new CustomerRiskLevelChangedEvent
func NewCustomerRiskLevelChangedEvent(customer *Customer, oldLevel, newLevel RiskLevel) *CustomerRiskLevelChangedEvent {
	return &CustomerRiskLevelChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRiskLevelChanged, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		OldLevel:        oldLevel,
		NewLevel:        newLevel,
	}
}
