package domain_test

import (
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContract_Defaults(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	lead := domain.NewLead("lead-1", now)
	lead.CustomerInfo.Name = "Ray Ortiz"
	lead.CustomerInfo.Address = "9 Oak Ln"
	lead.Description = "Full tear-off"

	c := domain.NewContract("c-1", "li-1", lead, now)

	assert.Equal(t, "lead-1", c.LeadID)
	assert.Equal(t, domain.ContractDraft, c.Status)
	assert.Equal(t, "John Johnson", c.Details.CompanyRepName)
	assert.Equal(t, "9 Oak Ln", c.Details.WorkLocation)
	assert.Equal(t, "Full tear-off", c.Details.ProjectDescription)
	require.Len(t, c.LineItems, 1)
	assert.Equal(t, domain.CategoryRoofing, c.LineItems[0].Category)
	assert.Equal(t, 1.0, c.LineItems[0].Quantity)
}

func TestSetLineItemField_KeepsTotalInStep(t *testing.T) {
	item := domain.LineItem{Quantity: 1, Category: domain.CategoryGutter}

	require.NoError(t, domain.SetLineItemField(&item, "quantity", "3"))
	require.NoError(t, domain.SetLineItemField(&item, "unitPrice", "250"))
	assert.Equal(t, 750.0, item.Total)

	require.NoError(t, domain.SetLineItemField(&item, "quantity", "junk"))
	assert.Equal(t, 0.0, item.Total)

	err := domain.SetLineItemField(&item, "category", "siding")
	var verr *domain.ErrValidation
	assert.ErrorAs(t, err, &verr)
}

func TestRecalculateTotal_SumsAllCategories(t *testing.T) {
	c := domain.NewContract("c-1", "li-1", nil, time.Now())
	c.LineItems = []domain.LineItem{
		{Description: "Shingles", Quantity: 30, UnitPrice: 400, Category: domain.CategoryRoofing},
		{Description: "Seamless gutter", Quantity: 2, UnitPrice: 600, Category: domain.CategoryGutter},
	}

	total := domain.RecalculateTotal(c)

	assert.Equal(t, 13200.0, total)
	assert.Equal(t, 13200.0, c.Details.TotalAmount)

	totals := domain.CategoryTotals(c)
	assert.Equal(t, 12000.0, totals[domain.CategoryRoofing])
	assert.Equal(t, 1200.0, totals[domain.CategoryGutter])
	assert.Equal(t, 0.0, totals[domain.CategoryWindow])
	assert.Equal(t, 0.0, totals[domain.CategoryOther])
}

func TestRecalculateTotal_Empty(t *testing.T) {
	c := domain.NewContract("c-1", "li-1", nil, time.Now())
	c.LineItems = nil

	assert.Equal(t, 0.0, domain.RecalculateTotal(c))
}

func TestSetContractStatus_ForwardOnly(t *testing.T) {
	c := domain.NewContract("c-1", "li-1", nil, time.Now())

	require.NoError(t, domain.SetContractStatus(c, domain.ContractSigned))
	require.NoError(t, domain.SetContractStatus(c, domain.ContractSigned))

	err := domain.SetContractStatus(c, domain.ContractSent)
	var cerr *domain.ErrConflict
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, domain.ContractSigned, c.Status)

	require.NoError(t, domain.SetContractStatus(c, domain.ContractCompleted))
}

func TestSign_CompanyAndFirstCustomerSignContract(t *testing.T) {
	now := time.Now()
	c := domain.NewContract("c-1", "li-1", nil, now)
	c.Status = domain.ContractSent

	sig, err := domain.Sign(c, domain.SlotCustomer1, "s-1", "Ray Ortiz", "data:image/png;base64,AAAA", now)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, sig.SignerRole)
	assert.Equal(t, domain.ContractSent, c.Status)

	sig, err = domain.Sign(c, domain.SlotCompany, "s-2", "John Johnson", "data:image/png;base64,BBBB", now)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCompany, sig.SignerRole)
	assert.Equal(t, domain.ContractSigned, c.Status)
}

func TestSign_DoesNotDowngradeCompleted(t *testing.T) {
	now := time.Now()
	c := domain.NewContract("c-1", "li-1", nil, now)
	c.Status = domain.ContractCompleted

	_, err := domain.Sign(c, domain.SlotCompany, "s-1", "John Johnson", "data:image/png;base64,AAAA", now)
	require.NoError(t, err)
	_, err = domain.Sign(c, domain.SlotCustomer1, "s-2", "Ray Ortiz", "data:image/png;base64,AAAA", now)
	require.NoError(t, err)

	assert.Equal(t, domain.ContractCompleted, c.Status)
}

func TestSign_Rejects(t *testing.T) {
	c := domain.NewContract("c-1", "li-1", nil, time.Now())

	tests := []struct {
		name    string
		slot    domain.SignatureSlot
		signer  string
		dataURL string
	}{
		{"unknown slot", "witness", "A", "data:image/png;base64,AA"},
		{"not an image", domain.SlotCustomer2, "A", "hello"},
		{"no signer", domain.SlotCustomer2, "  ", "data:image/png;base64,AA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.Sign(c, tt.slot, "s", tt.signer, tt.dataURL, time.Now())
			var verr *domain.ErrValidation
			assert.ErrorAs(t, err, &verr)
		})
	}
	assert.Nil(t, c.Signatures.Get(domain.SlotCustomer2))
}
