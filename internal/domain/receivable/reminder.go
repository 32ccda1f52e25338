package receivable

import (
	"time"

	"github.com/google/uuid"

	"github.com/erp/receivables/internal/domain/partner"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

// EmailType identifies which reminder template is sent
type EmailType string

const (
	EmailTypeBeforeDue EmailType = "BEFORE_DUE"
	EmailTypeOverdue1  EmailType = "OVERDUE_1"
	EmailTypeOverdue2  EmailType = "OVERDUE_2"
)

// BeforeDueDays is the DaysOverdue value on which the pre-due reminder fires
const BeforeDueDays = -3

// SelectReminder decides which reminder, if any, is due for an invoice that
// is daysOverdue days past due for a customer at the given risk level.
//
// Repeated overdue reminders fire when (daysOverdue-1) is a multiple of the
// risk level's interval, so a HIGH_RISK customer is reminded daily and a
// NORMAL one every third day starting from day 4.
func SelectReminder(daysOverdue int, risk partner.RiskLevel) (EmailType, bool) {
	switch {
	case daysOverdue == BeforeDueDays:
		return EmailTypeBeforeDue, true
	case daysOverdue == 1:
		return EmailTypeOverdue1, true
	case daysOverdue > 1:
		if (daysOverdue-1)%risk.ReminderInterval() == 0 {
			return EmailTypeOverdue2, true
		}
	}
	return "", false
}

// ReminderStatus is the outcome of a send attempt
type ReminderStatus string

const (
	ReminderStatusSent   ReminderStatus = "SENT"
	ReminderStatusFailed ReminderStatus = "FAILED"
)

// ReminderLog records one reminder attempt. A log entry for
// (invoice, email type, day) blocks further sends of that type that day,
// whether the attempt succeeded or failed.
type ReminderLog struct {
	ID           uuid.UUID
	InvoiceID    uuid.UUID
	CustomerID   uuid.UUID
	EmailType    EmailType
	Recipient    string
	Status       ReminderStatus
	ErrorMessage string
	SentOn       time.Time
	CreatedAt    time.Time
}

// NewReminderLog creates a log entry for a send attempt on day; sendErr marks it FAILED
func NewReminderLog(invoiceID, customerID uuid.UUID, emailType EmailType, recipient string, day time.Time, sendErr error) *ReminderLog {
	log := &ReminderLog{
		ID:         uuid.New(),
		InvoiceID:  invoiceID,
		CustomerID: customerID,
		EmailType:  emailType,
		Recipient:  recipient,
		Status:     ReminderStatusSent,
		SentOn:     CivilDate(day),
		CreatedAt:  time.Now(),
	}
	if sendErr != nil {
		log.Status = ReminderStatusFailed
		log.ErrorMessage = sendErr.Error()
	}
	return log
}

// Email is a rendered message ready for delivery
type Email struct {
	To      string
	Subject string
	HTML    string
}

// ReminderContent is what a reminder email says about one invoice
type ReminderContent struct {
	EmailType     EmailType
	Recipient     string
	CustomerName  string
	InvoiceNumber string
	DueDate       time.Time
	Balance       valueobject.Money
	DaysOverdue   int
}

// ReminderRenderer turns reminder content into a deliverable email
type ReminderRenderer interface {
	Render(content ReminderContent) (Email, error)
}
