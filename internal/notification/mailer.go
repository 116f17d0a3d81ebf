package notification

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/craftday/craftday-api/internal/config"
	"github.com/shopspring/decimal"
)

// ReceiptMailer delivers payment receipts to customers after a terminal
// confirmation carries an email address.
type ReceiptMailer interface {
	SendReceipt(recipientEmail, tenantName, invoiceNumber string, amount decimal.Decimal) error
}

// SMTPReceiptMailer sends receipts through a plain SMTP relay.
type SMTPReceiptMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPReceiptMailer(cfg config.EmailConfig) (*SMTPReceiptMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, fmt.Errorf("smtp_host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}
	return &SMTPReceiptMailer{
		host:     cfg.SMTPHost,
		port:     port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

func (m *SMTPReceiptMailer) SendReceipt(recipientEmail, tenantName, invoiceNumber string, amount decimal.Decimal) error {
	subject := fmt.Sprintf("Receipt from %s", tenantName)
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n",
		m.from, recipientEmail, subject)

	body := strings.Builder{}
	body.WriteString("Thanks for your payment!\n\n")
	body.WriteString(fmt.Sprintf("Business: %s\n", tenantName))
	body.WriteString(fmt.Sprintf("Receipt: %s\n", invoiceNumber))
	body.WriteString(fmt.Sprintf("Amount: $%s\n\n", amount.StringFixed(2)))
	body.WriteString("Keep this email for your records.\n")

	message := []byte(headers + body.String())
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	return smtp.SendMail(addr, auth, m.from, []string{recipientEmail}, message)
}
