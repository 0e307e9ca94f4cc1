// Package mail delivers signed and unsigned contracts to customers over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/money"

	gomail "github.com/wneessen/go-mail"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("mail")

// Config holds the SMTP account used for outgoing mail.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	// Plain disables authentication and TLS. Used against local relays.
	Plain bool
}

// SMTPMailer implements port.Mailer with go-mail.
type SMTPMailer struct {
	cfg    Config
	logger *zap.Logger
}

func NewSMTPMailer(cfg Config, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, logger: logger}
}

var contractBody = template.Must(template.New("contract_email").Parse(`<p>Hello {{.Name}},</p>
<p>Thank you for choosing {{.Company}}. Your roofing contract is attached for review.</p>
<p>Contract total: <strong>{{.Total}}</strong></p>
<p>Reply to this email with any questions.</p>
<p>{{.Rep}}<br>{{.Company}}</p>`))

// SendContract emails the contract PDF as an attachment.
func (m *SMTPMailer) SendContract(ctx context.Context, to, customerName string, c *domain.Contract, pdf []byte) error {
	ctx, span := tracer.Start(ctx, "SMTPMailer.SendContract")
	defer span.End()
	span.SetAttributes(attribute.String("contract.id", c.ID))

	var body bytes.Buffer
	err := contractBody.Execute(&body, map[string]string{
		"Name":    customerName,
		"Company": domain.CompanyName,
		"Total":   money.Exact(c.Details.TotalAmount),
		"Rep":     c.Details.CompanyRepName,
	})
	if err != nil {
		return fmt.Errorf("render contract email: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromEmail); err != nil {
		return &domain.ErrValidation{Field: "from", Message: err.Error()}
	}
	if err := msg.To(to); err != nil {
		return &domain.ErrValidation{Field: "customerEmail", Message: err.Error()}
	}
	msg.Subject(fmt.Sprintf("Your %s contract", domain.CompanyName))
	msg.SetBodyString(gomail.TypeTextHTML, body.String())
	msg.AttachReader(fmt.Sprintf("contract-%s.pdf", c.ID), bytes.NewReader(pdf))

	client, err := gomail.NewClient(m.cfg.Host, m.options()...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &domain.ErrExternalService{Service: "smtp", Err: err}
	}

	m.logger.Info("contract emailed", zap.String("contract_id", c.ID), zap.String("to", to))
	return nil
}

func (m *SMTPMailer) options() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(15 * time.Second),
	}
	if m.cfg.Plain {
		return append(opts, gomail.WithTLSPortPolicy(gomail.NoTLS))
	}
	return append(opts,
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	)
}
