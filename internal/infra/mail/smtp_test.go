package mail_test

import (
	"context"
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/infra/mail"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ port.Mailer = (*mail.SMTPMailer)(nil)

func TestSendContract_RejectsBadRecipient(t *testing.T) {
	m := mail.NewSMTPMailer(mail.Config{Host: "127.0.0.1", Port: 2525, FromEmail: "office@jjroofing.test", FromName: "J&J Roofing Pros", Plain: true}, zap.NewNop())
	c := domain.NewContract("c-1", "li-1", nil, time.Now())

	err := m.SendContract(context.Background(), "not-an-address", "Ray", c, []byte("%PDF"))

	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "customerEmail", ve.Field)
}

func TestSendContract_UnreachableServer(t *testing.T) {
	// Port 1 is never an SMTP relay.
	m := mail.NewSMTPMailer(mail.Config{Host: "127.0.0.1", Port: 1, FromEmail: "office@jjroofing.test", FromName: "J&J Roofing Pros", Plain: true}, zap.NewNop())
	c := domain.NewContract("c-1", "li-1", nil, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := m.SendContract(ctx, "ray@example.com", "Ray", c, []byte("%PDF"))

	var ext *domain.ErrExternalService
	require.ErrorAs(t, err, &ext)
	assert.Equal(t, "smtp", ext.Service)
}
