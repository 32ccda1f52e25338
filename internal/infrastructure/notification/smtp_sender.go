package notification

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/receivables/internal/domain/receivable"
	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/config"
)

// ErrCodeSendFailed is reported when the SMTP server rejects or drops a message
const ErrCodeSendFailed = "EMAIL_SEND_FAILED"

// sendFunc matches smtp.SendMail
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender delivers emails through an SMTP relay. It implements
// receivable.EmailSender.
type SMTPSender struct {
	addr   string
	auth   smtp.Auth
	from   mail.Address
	send   sendFunc
	now    func() time.Time
	logger *zap.Logger
}

// NewSMTPSender creates a sender from the mail configuration
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) (*SMTPSender, error) {
	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("invalid mail.from %q: %w", cfg.From, err)
	}
	if cfg.FromName != "" {
		from.Name = cfg.FromName
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPSender{
		addr:   cfg.Addr(),
		auth:   auth,
		from:   *from,
		send:   smtp.SendMail,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Send delivers one email. smtp.SendMail is not context-aware, so ctx is
// only checked before dialling.
func (s *SMTPSender) Send(ctx context.Context, email receivable.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to, err := mail.ParseAddress(email.To)
	if err != nil {
		return shared.NewValidationError("INVALID_RECIPIENT", fmt.Sprintf("Invalid recipient %q", email.To))
	}

	msg := s.buildMessage(to, email)
	if err := s.send(s.addr, s.auth, s.from.Address, []string{to.Address}, msg); err != nil {
		return shared.NewInfrastructureError(ErrCodeSendFailed,
			fmt.Sprintf("Failed to send email to %s", to.Address), err)
	}

	s.logger.Debug("Email sent",
		zap.String("to", to.Address),
		zap.String("subject", email.Subject),
	)
	return nil
}

// buildMessage writes an RFC 5322 message with a base64 HTML body
func (s *SMTPSender) buildMessage(to *mail.Address, email receivable.Email) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", s.from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", email.Subject))
	header("Date", s.now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.New(), hostOf(s.from.Address)))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="utf-8"`)
	header("Content-Transfer-Encoding", "base64")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(email.HTML))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func hostOf(address string) string {
	for i := len(address) - 1; i >= 0; i-- {
		if address[i] == '@' {
			return address[i+1:]
		}
	}
	return "localhost"
}

// LogSender logs emails instead of sending them. Used when mail is disabled.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the email and reports success
func (s *LogSender) Send(_ context.Context, email receivable.Email) error {
	s.logger.Info("Email delivery disabled, reminder logged only",
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
	)
	return nil
}

// NewSender returns an SMTP sender when mail is enabled, otherwise a LogSender
func NewSender(cfg config.MailConfig, logger *zap.Logger) (receivable.EmailSender, error) {
	if !cfg.Enabled {
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg, logger)
}

var (
	_ receivable.EmailSender = (*SMTPSender)(nil)
	_ receivable.EmailSender = (*LogSender)(nil)
)
