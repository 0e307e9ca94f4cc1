package domain_test

import (
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedContractFor(lead *domain.Lead, total float64, now time.Time) *domain.Contract {
	c := domain.NewContract("c-1", "li-1", lead, now)
	c.LineItems[0].UnitPrice = total
	domain.RecalculateTotal(c)
	c.Status = domain.ContractSigned
	c.Details.StartDate = "2025-06-02"
	return c
}

func TestConvertLeadToJob_SeedsFinancials(t *testing.T) {
	now := time.Date(2025, 5, 20, 15, 0, 0, 0, time.UTC)
	lead := domain.NewLead("lead-1", now)
	lead.CustomerInfo = domain.CustomerInfo{Name: "Dana Whitfield", Address: "12 Elm St", Phone: "+15125550101", Email: "dana@example.com"}
	lead.AssignedTo = "Mike"
	contract := signedContractFor(lead, 30000, now)

	job, err := domain.ConvertLeadToJob("job-1", "JJR-2025-004", lead, contract, now)
	require.NoError(t, err)

	assert.Equal(t, domain.ContractingPhase, job.PhaseTracking.CurrentPhase)
	assert.Equal(t, "Contracting", domain.PhaseName(job.PhaseTracking.CurrentPhase))

	ins := job.Financials.Insurance
	assert.Equal(t, 30000.0, ins.RCVTotal)
	assert.Equal(t, 18000.0, ins.ACVTotal)
	assert.Equal(t, 12000.0, ins.Depreciation)
	assert.Equal(t, 0.0, ins.Deductible)
	assert.Equal(t, 3000.0, job.Financials.Commissions.SalesRepAmount)
	assert.Equal(t, 10.0, job.Financials.Commissions.SalesRepPct)

	assert.Equal(t, "Dana Whitfield", job.Client.Name)
	assert.Equal(t, "", job.Client.Carrier)
	assert.Equal(t, domain.DamageHail, job.Details.DamageType)
	assert.Equal(t, "2025-05-20", job.Details.StormDate)
	assert.Equal(t, "2025-06-02", job.Timeline.StartDate)
	assert.Equal(t, domain.RepRef{Name: "Mike", ID: "mike"}, job.SalesRep)

	assert.Equal(t, "lead-1", job.LeadID)
	assert.Equal(t, "c-1", job.ContractID)
	assert.Equal(t, domain.ContractSigned, job.ContractStatus)
}

func TestConvertLeadToJob_FinancialsAreAFixedPoint(t *testing.T) {
	now := time.Now()
	lead := domain.NewLead("lead-1", now)
	job, err := domain.ConvertLeadToJob("job-1", "JJR-2025-001", lead, signedContractFor(lead, 12500, now), now)
	require.NoError(t, err)

	assert.Equal(t, job.Financials, domain.Recompute(job.Financials))
}

func TestConvertLeadToJob_ContractMustBelongToLead(t *testing.T) {
	now := time.Now()
	lead := domain.NewLead("lead-1", now)
	other := domain.NewLead("lead-2", now)

	_, err := domain.ConvertLeadToJob("job-1", "JJR-2025-001", lead, signedContractFor(other, 1000, now), now)

	var verr *domain.ErrValidation
	assert.ErrorAs(t, err, &verr)
}
