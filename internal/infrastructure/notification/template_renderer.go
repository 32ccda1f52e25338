package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/domain/shared/valueobject"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

// Render error codes
const (
	ErrCodeUnknownTemplate = "UNKNOWN_EMAIL_TYPE"
	ErrCodeRenderFailed    = "RENDER_FAILED"
)

// reminderTemplate is the subject line and HTML body for one email type
type reminderTemplate struct {
	subject string
	body    *template.Template
}

// TemplateRenderer renders reminder emails with html/template.
// It implements receivable.ReminderRenderer.
type TemplateRenderer struct {
	companyName string
	templates   map[receivable.EmailType]reminderTemplate
}

// TemplateRendererOption configures the renderer
type TemplateRendererOption func(*TemplateRenderer) error

// WithCompanyName sets the sender name printed under every reminder
func WithCompanyName(name string) TemplateRendererOption {
	return func(r *TemplateRenderer) error {
		r.companyName = name
		return nil
	}
}

// WithTemplate replaces the template for one email type.
// The subject is a fmt format taking the invoice number.
func WithTemplate(emailType receivable.EmailType, subject, body string) TemplateRendererOption {
	return func(r *TemplateRenderer) error {
		tmpl, err := template.New(string(emailType)).Funcs(funcMap).Parse(body)
		if err != nil {
			return fmt.Errorf("parse %s template: %w", emailType, err)
		}
		r.templates[emailType] = reminderTemplate{subject: subject, body: tmpl}
		return nil
	}
}

var funcMap = template.FuncMap{
	"formatMoney": formatMoney,
	"formatDate":  formatDate,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

var defaultSubjects = map[receivable.EmailType]string{
	receivable.EmailTypeBeforeDue: "Payment reminder: invoice %s is due soon",
	receivable.EmailTypeOverdue1:  "Invoice %s is overdue",
	receivable.EmailTypeOverdue2:  "Second notice: invoice %s remains unpaid",
}

var defaultFiles = map[receivable.EmailType]string{
	receivable.EmailTypeBeforeDue: "templates/before_due.html",
	receivable.EmailTypeOverdue1:  "templates/overdue_1.html",
	receivable.EmailTypeOverdue2:  "templates/overdue_2.html",
}

// NewTemplateRenderer parses the built-in templates and applies opts
func NewTemplateRenderer(opts ...TemplateRendererOption) (*TemplateRenderer, error) {
	r := &TemplateRenderer{
		companyName: "Accounts Receivable",
		templates:   make(map[receivable.EmailType]reminderTemplate, len(defaultFiles)),
	}
	for emailType, file := range defaultFiles {
		body, err := defaultTemplates.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if err := WithTemplate(emailType, defaultSubjects[emailType], string(body))(r); err != nil {
			return nil, err
		}
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// templateData is what reminder templates can reference
type templateData struct {
	receivable.ReminderContent
	CompanyName string
}

// Render renders the email for content.EmailType
func (r *TemplateRenderer) Render(content receivable.ReminderContent) (receivable.Email, error) {
	tmpl, ok := r.templates[content.EmailType]
	if !ok {
		return receivable.Email{}, shared.NewValidationError(ErrCodeUnknownTemplate,
			fmt.Sprintf("No reminder template for %q", content.EmailType))
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, templateData{ReminderContent: content, CompanyName: r.companyName}); err != nil {
		return receivable.Email{}, shared.NewInfrastructureError(ErrCodeRenderFailed,
			fmt.Sprintf("Failed to render %s reminder", content.EmailType), err)
	}

	return receivable.Email{
		To:      content.Recipient,
		Subject: fmt.Sprintf(tmpl.subject, content.InvoiceNumber),
		HTML:    buf.String(),
	}, nil
}

// formatMoney prints an amount with thousands separators, e.g. "1,234,567.50 VND"
func formatMoney(m valueobject.Money) string {
	return groupThousands(m.Amount()) + " " + string(m.Currency())
}

var moneyPrinter = message.NewPrinter(language.English)

func groupThousands(d decimal.Decimal) string {
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	whole, err := strconv.ParseUint(strings.TrimPrefix(intPart, "-"), 10, 64)
	if err != nil {
		return s
	}
	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
	}
	return sign + moneyPrinter.Sprintf("%d", whole) + "." + frac
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// Ensure TemplateRenderer implements ReminderRenderer
var _ receivable.ReminderRenderer = (*TemplateRenderer)(nil)
