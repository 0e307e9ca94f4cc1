package domain_test

import (
	"math"
	"testing"

	"github.com/boddenberg/jjr-ops-go/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRecompute_StandardJob(t *testing.T) {
	f := domain.NewFinancials()
	f.Insurance.RCVTotal = 10000
	f.Costs.Materials = 3000
	f.Costs.Labor = 2000

	got := domain.Recompute(f)

	if got.Profitability.GrossProfit != 5000 {
		t.Errorf("expected gross profit 5000, got %v", got.Profitability.GrossProfit)
	}
	if got.Profitability.GrossMargin != 50 {
		t.Errorf("expected margin 50, got %v", got.Profitability.GrossMargin)
	}
	if got.Commissions.SalesRepAmount != 1000 {
		t.Errorf("expected commission 1000, got %v", got.Commissions.SalesRepAmount)
	}
	if got.Profitability.NetProfit != 4000 {
		t.Errorf("expected net profit 4000, got %v", got.Profitability.NetProfit)
	}
}

func TestRecompute_ZeroRevenue(t *testing.T) {
	f := domain.NewFinancials()
	f.Costs.Materials = 500

	got := domain.Recompute(f)

	if got.Profitability.GrossProfit != -500 {
		t.Errorf("expected gross profit -500, got %v", got.Profitability.GrossProfit)
	}
	if got.Profitability.GrossMargin != 0 {
		t.Errorf("expected margin 0, got %v", got.Profitability.GrossMargin)
	}
	if got.Commissions.SalesRepAmount != 0 {
		t.Errorf("expected commission 0, got %v", got.Commissions.SalesRepAmount)
	}
	if got.Profitability.NetProfit != -500 {
		t.Errorf("expected net profit -500, got %v", got.Profitability.NetProfit)
	}
}

func TestRecompute_SupplementsCountAsRevenue(t *testing.T) {
	f := domain.NewFinancials()
	f.Insurance.RCVTotal = 8000
	f.Insurance.SupplementsTotal = 2000
	f.Costs.Other = 1000

	got := domain.Recompute(f)

	assert.Equal(t, 9000.0, got.Profitability.GrossProfit)
	assert.Equal(t, 90.0, got.Profitability.GrossMargin)
	assert.Equal(t, 1000.0, got.Commissions.SalesRepAmount)
	assert.Equal(t, 8000.0, got.Profitability.NetProfit)
}

func TestRecompute_TotalReceivedAlwaysDerived(t *testing.T) {
	f := domain.NewFinancials()
	f.Payments = domain.Payments{
		ACVReceived:         100,
		RCVReceived:         200,
		DeductibleCollected: 300,
		SupplementsReceived: 400,
		TotalReceived:       99999,
	}

	assert.Equal(t, 1000.0, domain.Recompute(f).Payments.TotalReceived)

	f.IsLegacy = true
	assert.Equal(t, 1000.0, domain.Recompute(f).Payments.TotalReceived)
}

func TestRecompute_LegacyKeepsImportedFigures(t *testing.T) {
	f := domain.Financials{
		IsLegacy:    true,
		Insurance:   domain.Insurance{RCVTotal: 20000},
		Costs:       domain.Costs{Materials: 6000, Labor: 4000},
		Commissions: domain.Commissions{SalesRepPct: 10, SalesRepAmount: 1500},
		Profitability: domain.Profitability{
			GrossProfit: 9000,
			NetProfit:   7500,
			GrossMargin: 0,
		},
	}

	got := domain.Recompute(f)

	assert.Equal(t, 9000.0, got.Profitability.GrossProfit)
	assert.Equal(t, 7500.0, got.Profitability.NetProfit)
	assert.Equal(t, 1500.0, got.Commissions.SalesRepAmount)
	assert.Equal(t, 50.0, got.Profitability.GrossMargin, "margin is refreshed from revenue and costs")
}

func TestRecompute_Idempotent(t *testing.T) {
	inputs := []domain.Financials{
		domain.NewFinancials(),
		{
			Insurance:   domain.Insurance{RCVTotal: 12345.67, SupplementsTotal: 890.12},
			Payments:    domain.Payments{ACVReceived: 5000, DeductibleCollected: 1000},
			Costs:       domain.Costs{Materials: 4321, Labor: 2100.5, Other: 77},
			Commissions: domain.Commissions{SalesRepPct: 12.5},
		},
		{
			IsLegacy:      true,
			Insurance:     domain.Insurance{RCVTotal: 15000},
			Commissions:   domain.Commissions{SalesRepAmount: 900},
			Profitability: domain.Profitability{GrossProfit: 6000, NetProfit: 5100},
		},
	}

	for i, f := range inputs {
		once := domain.Recompute(f)
		twice := domain.Recompute(once)
		assert.Equal(t, once, twice, "input %d", i)
	}
}

func TestRecompute_MarginMatchesDefinition(t *testing.T) {
	f := domain.NewFinancials()
	f.Insurance.RCVTotal = 7300
	f.Insurance.SupplementsTotal = 450
	f.Costs.Materials = 2999.99
	f.Costs.Labor = 1800

	got := domain.Recompute(f)

	revenue := 7300.0 + 450.0
	want := (revenue - 4799.99) / revenue * 100
	if !almostEqual(got.Profitability.GrossMargin, want) {
		t.Errorf("expected margin %v, got %v", want, got.Profitability.GrossMargin)
	}
	if !almostEqual(got.Profitability.NetProfit, got.Profitability.GrossProfit-got.Commissions.SalesRepAmount) {
		t.Error("net profit must be gross profit minus commission")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1234.5", 1234.5},
		{"  42  ", 42},
		{"12abc", 12},
		{"-3.5", -3.5},
		{".75", 0.75},
		{"1e3", 1000},
		{"", 0},
		{"abc", 0},
		{"$100", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := domain.ParseAmount(tt.in); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetFinancialField_RecomputesAfterWrite(t *testing.T) {
	f := domain.NewFinancials()

	f, err := domain.SetFinancialField(f, "insurance", "rcvTotal", "10000")
	require.NoError(t, err)
	f, err = domain.SetFinancialField(f, "costs", "materials", "3000")
	require.NoError(t, err)
	f, err = domain.SetFinancialField(f, "costs", "labor", "2000")
	require.NoError(t, err)

	assert.Equal(t, 5000.0, f.Profitability.GrossProfit)
	assert.Equal(t, 4000.0, f.Profitability.NetProfit)
}

func TestSetFinancialField_GarbageBecomesZero(t *testing.T) {
	f := domain.NewFinancials()
	f.Insurance.RCVTotal = 5000

	f, err := domain.SetFinancialField(f, "insurance", "rcvTotal", "not a number")
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Insurance.RCVTotal)
	assert.Equal(t, 0.0, f.Profitability.GrossMargin)
}

func TestSetFinancialField_DerivedFields(t *testing.T) {
	f := domain.NewFinancials()

	_, err := domain.SetFinancialField(f, "payments", "totalReceived", "100")
	var verr *domain.ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "payments.totalReceived", verr.Field)

	_, err = domain.SetFinancialField(f, "profitability", "grossProfit", "100")
	require.ErrorAs(t, err, &verr)

	_, err = domain.SetFinancialField(f, "insurance", "unknown", "1")
	require.ErrorAs(t, err, &verr)
}

func TestSetFinancialField_LegacyProfitWritable(t *testing.T) {
	f := domain.Financials{IsLegacy: true, Insurance: domain.Insurance{RCVTotal: 10000}}

	f, err := domain.SetFinancialField(f, "profitability", "netProfit", "3500")
	require.NoError(t, err)
	f, err = domain.SetFinancialField(f, "commissions", "salesRepAmount", "800")
	require.NoError(t, err)

	assert.Equal(t, 3500.0, f.Profitability.NetProfit)
	assert.Equal(t, 800.0, f.Commissions.SalesRepAmount)
}

func TestSetFinancialField_CommissionPaid(t *testing.T) {
	f, err := domain.SetFinancialField(domain.NewFinancials(), "commissions", "paid", "true")
	require.NoError(t, err)
	assert.True(t, f.Commissions.Paid)

	f, err = domain.SetFinancialField(f, "commissions", "paid", "no")
	require.NoError(t, err)
	assert.False(t, f.Commissions.Paid)
}
