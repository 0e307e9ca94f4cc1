package domain_test

import (
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLead_Defaults(t *testing.T) {
	l := domain.NewLead("lead-1", time.Now())

	assert.Equal(t, "New Customer", l.CustomerInfo.Name)
	assert.Equal(t, domain.ContactPhone, l.CustomerInfo.PreferredContact)
	assert.Equal(t, domain.SourceOther, l.Source)
	assert.Equal(t, domain.LeadNew, l.Status)
	assert.Equal(t, domain.PriorityMedium, l.Priority)
}

func TestSetLeadStatus(t *testing.T) {
	now := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)
	l := domain.NewLead("lead-1", now)

	require.NoError(t, domain.SetLeadStatus(l, domain.LeadContacted, now))
	require.NotNil(t, l.LastContactDate)
	assert.True(t, l.LastContactDate.Equal(now))

	var verr *domain.ErrValidation
	require.ErrorAs(t, domain.SetLeadStatus(l, domain.LeadConverted, now), &verr)
	require.ErrorAs(t, domain.SetLeadStatus(l, "archived", now), &verr)

	domain.MarkConverted(l, "job-9")
	var cerr *domain.ErrConflict
	require.ErrorAs(t, domain.SetLeadStatus(l, domain.LeadLost, now), &cerr)
	assert.Equal(t, "job-9", l.ConvertedJobID)
}

func TestMarkQuoted(t *testing.T) {
	l := domain.NewLead("lead-1", time.Now())
	domain.MarkQuoted(l, "c-1")

	assert.Equal(t, domain.LeadQuoted, l.Status)
	assert.Equal(t, "c-1", l.ContractID)
}

func TestLeadFilter_Match(t *testing.T) {
	l := domain.Lead{
		CustomerInfo: domain.CustomerInfo{Name: "Maria Delgado", Phone: "+15125550199", Email: "maria@delgado.net"},
		Description:  "Hail damage on north slope",
		Status:       domain.LeadQuoted,
		Priority:     domain.PriorityHigh,
	}

	tests := []struct {
		name   string
		filter domain.LeadFilter
		want   bool
	}{
		{"empty", domain.LeadFilter{}, true},
		{"name", domain.LeadFilter{Search: "delgado"}, true},
		{"phone", domain.LeadFilter{Search: "555019"}, true},
		{"formatted phone", domain.LeadFilter{Search: "512-555-0199"}, true},
		{"national phone", domain.LeadFilter{Search: "(512) 555-0199"}, true},
		{"other phone", domain.LeadFilter{Search: "512-555-0100"}, false},
		{"description", domain.LeadFilter{Search: "HAIL"}, true},
		{"status mismatch", domain.LeadFilter{Status: domain.LeadNew}, false},
		{"priority match", domain.LeadFilter{Priority: domain.PriorityHigh, Search: "maria"}, true},
		{"no hit", domain.LeadFilter{Search: "gutter"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(l))
		})
	}
}
