package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
	"github.com/boddenberg/jjr-ops-go/internal/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sigPNG = "data:image/png;base64,iVBORw0KGgo="

type fakeRenderer struct {
	err   error
	calls int
}

func (f *fakeRenderer) RenderContract(_ context.Context, c *domain.Contract) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 " + c.ID), nil
}

type fakeMailer struct {
	err error
	to  string
	pdf []byte
}

func (f *fakeMailer) SendContract(_ context.Context, to, _ string, _ *domain.Contract, pdf []byte) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.pdf = to, pdf
	return nil
}

var (
	_ port.ContractRenderer = (*fakeRenderer)(nil)
	_ port.Mailer           = (*fakeMailer)(nil)
)

func quotedLead(t *testing.T, s *services, total string) (*domain.Lead, *domain.Contract) {
	t.Helper()
	ctx := context.Background()

	lead, err := s.leads.CreateLead(ctx, &domain.Lead{
		CustomerInfo: domain.CustomerInfo{Name: "Dana Whitfield", Address: "12 Elm St", Email: "dana@example.com"},
		AssignedTo:   "Ian",
	})
	require.NoError(t, err)

	c, err := s.contracts.CreateContract(ctx, lead.ID)
	require.NoError(t, err)
	c, err = s.contracts.SetLineItemField(ctx, c.ID, c.LineItems[0].ID, "unitPrice", total)
	require.NoError(t, err)

	lead, err = s.leads.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	return lead, c
}

func TestCreateContract_QuotesLead(t *testing.T) {
	s := newServices(t, nil, nil)
	lead, c := quotedLead(t, s, "30000")

	assert.Equal(t, domain.LeadQuoted, lead.Status)
	assert.Equal(t, c.ID, lead.ContractID)
	assert.Equal(t, lead.ID, c.LeadID)
	assert.Equal(t, "Dana Whitfield", c.Details.CustomerName)
	assert.Equal(t, domain.ContractDraft, c.Status)
	assert.InDelta(t, 30000, c.Details.TotalAmount, 0.001)
}

func TestContractTotal_FollowsLineItems(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	_, c := quotedLead(t, s, "15000")

	c, err := s.contracts.AddLineItem(ctx, c.ID, domain.CategoryGutter)
	require.NoError(t, err)
	require.Len(t, c.LineItems, 2)
	gutter := c.LineItems[1].ID

	c, err = s.contracts.SetLineItemField(ctx, c.ID, gutter, "quantity", "120")
	require.NoError(t, err)
	c, err = s.contracts.SetLineItemField(ctx, c.ID, gutter, "unitPrice", "12.5")
	require.NoError(t, err)
	assert.InDelta(t, 16500, c.Details.TotalAmount, 0.001)

	// A client-supplied total is ignored.
	in := *c
	in.Details.TotalAmount = 1
	c, err = s.contracts.UpdateContract(ctx, c.ID, &in)
	require.NoError(t, err)
	assert.InDelta(t, 16500, c.Details.TotalAmount, 0.001)

	c, err = s.contracts.RemoveLineItem(ctx, c.ID, gutter)
	require.NoError(t, err)
	assert.InDelta(t, 15000, c.Details.TotalAmount, 0.001)

	_, err = s.contracts.SetLineItemField(ctx, c.ID, "missing", "quantity", "1")
	var nf *domain.ErrNotFound
	require.ErrorAs(t, err, &nf)
}

func TestSign_MovesToSigned(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	_, c := quotedLead(t, s, "30000")

	c, err := s.contracts.Sign(ctx, c.ID, domain.SlotCompany, "John Johnson", sigPNG)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractDraft, c.Status)
	assert.Equal(t, domain.RoleCompany, c.Signatures.Company.SignerRole)

	c, err = s.contracts.Sign(ctx, c.ID, domain.SlotCustomer1, "Dana Whitfield", sigPNG)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractSigned, c.Status)

	_, err = s.contracts.Sign(ctx, c.ID, "witness", "Someone", sigPNG)
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)

	_, err = s.contracts.SetStatus(ctx, c.ID, domain.ContractDraft)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
}

func TestConvertLead(t *testing.T) {
	s := newServices(t, nil, nil)
	ctx := context.Background()
	lead, c := quotedLead(t, s, "30000")

	_, err := s.contracts.ConvertLead(ctx, lead.ID)
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve, "draft contracts cannot be converted")

	_, err = s.contracts.SetStatus(ctx, c.ID, domain.ContractSigned)
	require.NoError(t, err)

	job, err := s.contracts.ConvertLead(ctx, lead.ID)
	require.NoError(t, err)

	assert.Equal(t, 6, job.PhaseTracking.CurrentPhase)
	assert.Equal(t, "Dana Whitfield", job.Client.Name)
	assert.Equal(t, "12 Elm St", job.Client.Address)
	assert.Equal(t, domain.RepRef{Name: "Ian", ID: "ian"}, job.SalesRep)
	assert.Equal(t, lead.ID, job.LeadID)
	assert.Equal(t, c.ID, job.ContractID)
	assert.Equal(t, domain.ContractSigned, job.ContractStatus)

	f := job.Financials
	assert.InDelta(t, 30000, f.Insurance.RCVTotal, 0.001)
	assert.InDelta(t, 18000, f.Insurance.ACVTotal, 0.001)
	assert.InDelta(t, 12000, f.Insurance.Depreciation, 0.001)
	assert.InDelta(t, 3000, f.Commissions.SalesRepAmount, 0.001)
	assert.InDelta(t, 27000, f.Profitability.NetProfit, 0.001)

	gotLead, err := s.leads.GetLead(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadConverted, gotLead.Status)
	assert.Equal(t, job.ID, gotLead.ConvertedJobID)

	gotContract, err := s.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, gotContract.JobID)

	_, err = s.contracts.ConvertLead(ctx, lead.ID)
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)

	// Later contract moves show up on the job.
	_, err = s.contracts.SetStatus(ctx, c.ID, domain.ContractCompleted)
	require.NoError(t, err)
	gotJob, err := s.jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractCompleted, gotJob.ContractStatus)
}

func TestConvertLead_WithoutContract(t *testing.T) {
	s := newServices(t, nil, nil)

	lead, err := s.leads.CreateLead(context.Background(), nil)
	require.NoError(t, err)

	_, err = s.contracts.ConvertLead(context.Background(), lead.ID)
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
}

func TestSend(t *testing.T) {
	renderer, mailer := &fakeRenderer{}, &fakeMailer{}
	s := newServices(t, renderer, mailer)
	ctx := context.Background()
	_, c := quotedLead(t, s, "30000")

	sent, err := s.contracts.Send(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractSent, sent.Status)
	assert.Equal(t, "dana@example.com", mailer.to)
	assert.Equal(t, "%PDF-1.7 "+c.ID, string(mailer.pdf))
	assert.Equal(t, 1, renderer.calls)
}

func TestSend_MailFailureKeepsStatus(t *testing.T) {
	mailer := &fakeMailer{err: &domain.ErrExternalService{Service: "smtp", Err: errors.New("dial tcp: refused")}}
	s := newServices(t, &fakeRenderer{}, mailer)
	ctx := context.Background()
	_, c := quotedLead(t, s, "30000")

	_, err := s.contracts.Send(ctx, c.ID)
	var ext *domain.ErrExternalService
	require.ErrorAs(t, err, &ext)

	got, err := s.contracts.GetContract(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractDraft, got.Status)
}

func TestRenderPDF_NotConfigured(t *testing.T) {
	s := newServices(t, nil, nil)
	_, c := quotedLead(t, s, "30000")

	_, _, err := s.contracts.RenderPDF(context.Background(), c.ID)
	var un *domain.ErrUnavailable
	require.ErrorAs(t, err, &un)

	_, err = s.contracts.Send(context.Background(), c.ID)
	require.ErrorAs(t, err, &un)
}
