package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ============================================================
// Job financials & profitability engine
// ============================================================

// DefaultSalesRepPct is the commission percentage new jobs start with.
const DefaultSalesRepPct = 10.0

// Financials is embedded in every job.
type Financials struct {
	IsLegacy      bool          `json:"isLegacy"`
	Insurance     Insurance     `json:"insurance"`
	Payments      Payments      `json:"payments"`
	Costs         Costs         `json:"costs"`
	Commissions   Commissions   `json:"commissions"`
	Profitability Profitability `json:"profitability"`
}

type Insurance struct {
	RCVTotal         float64 `json:"rcvTotal"`
	ACVTotal         float64 `json:"acvTotal"`
	Depreciation     float64 `json:"depreciation"`
	Deductible       float64 `json:"deductible"`
	SupplementsTotal float64 `json:"supplementsTotal"`
}

type Payments struct {
	ACVReceived         float64 `json:"acvReceived"`
	RCVReceived         float64 `json:"rcvReceived"`
	DeductibleCollected float64 `json:"deductibleCollected"`
	SupplementsReceived float64 `json:"supplementsReceived"`
	TotalReceived       float64 `json:"totalReceived"`
}

type Costs struct {
	Materials float64 `json:"materials"`
	Labor     float64 `json:"labor"`
	Other     float64 `json:"other"`
}

type Commissions struct {
	SalesRepPct    float64 `json:"salesRepPct"`
	SalesRepAmount float64 `json:"salesRepAmount"`
	Paid           bool    `json:"paid"`
}

type Profitability struct {
	GrossProfit float64 `json:"grossProfit"`
	NetProfit   float64 `json:"netProfit"`
	GrossMargin float64 `json:"grossMargin"`
}

// NewFinancials returns zeroed financials with the default commission rate.
func NewFinancials() Financials {
	return Financials{Commissions: Commissions{SalesRepPct: DefaultSalesRepPct}}
}

// TotalRevenue is RCV plus approved supplements.
func (f Financials) TotalRevenue() float64 {
	return f.Insurance.RCVTotal + f.Insurance.SupplementsTotal
}

// TotalCosts is materials plus labor plus other costs.
func (f Financials) TotalCosts() float64 {
	return f.Costs.Materials + f.Costs.Labor + f.Costs.Other
}

// Recompute derives totals, commission and profitability from the editable
// fields. Legacy records keep their imported profit and commission figures;
// only the margin and the received total are refreshed.
func Recompute(f Financials) Financials {
	revenue := f.TotalRevenue()
	grossProfit := revenue - f.TotalCosts()

	grossMargin := 0.0
	if revenue > 0 {
		grossMargin = grossProfit / revenue * 100
	}

	f.Payments.TotalReceived = f.Payments.ACVReceived +
		f.Payments.RCVReceived +
		f.Payments.DeductibleCollected +
		f.Payments.SupplementsReceived

	if f.IsLegacy {
		f.Profitability.GrossMargin = grossMargin
		return f
	}

	commission := revenue * f.Commissions.SalesRepPct / 100
	f.Commissions.SalesRepAmount = commission
	f.Profitability = Profitability{
		GrossProfit: grossProfit,
		NetProfit:   grossProfit - commission,
		GrossMargin: grossMargin,
	}
	return f
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads the leading number of raw. Anything unparseable is 0.
func ParseAmount(raw string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(raw))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SetFinancialField writes a single field from raw form input and returns the
// recomputed financials. Derived fields are rejected; profit and commission
// amounts are writable only on legacy records.
func SetFinancialField(f Financials, section, field, raw string) (Financials, error) {
	path := section + "." + field
	amount := ParseAmount(raw)

	switch path {
	case "insurance.rcvTotal":
		f.Insurance.RCVTotal = amount
	case "insurance.acvTotal":
		f.Insurance.ACVTotal = amount
	case "insurance.depreciation":
		f.Insurance.Depreciation = amount
	case "insurance.deductible":
		f.Insurance.Deductible = amount
	case "insurance.supplementsTotal":
		f.Insurance.SupplementsTotal = amount

	case "payments.acvReceived":
		f.Payments.ACVReceived = amount
	case "payments.rcvReceived":
		f.Payments.RCVReceived = amount
	case "payments.deductibleCollected":
		f.Payments.DeductibleCollected = amount
	case "payments.supplementsReceived":
		f.Payments.SupplementsReceived = amount

	case "costs.materials":
		f.Costs.Materials = amount
	case "costs.labor":
		f.Costs.Labor = amount
	case "costs.other":
		f.Costs.Other = amount

	case "commissions.salesRepPct":
		f.Commissions.SalesRepPct = amount
	case "commissions.paid":
		f.Commissions.Paid = parseBool(raw)

	case "commissions.salesRepAmount", "profitability.grossProfit", "profitability.netProfit":
		if !f.IsLegacy {
			return f, &ErrValidation{Field: path, Message: "derived field; writable only on legacy records"}
		}
		switch path {
		case "commissions.salesRepAmount":
			f.Commissions.SalesRepAmount = amount
		case "profitability.grossProfit":
			f.Profitability.GrossProfit = amount
		default:
			f.Profitability.NetProfit = amount
		}

	case "payments.totalReceived", "profitability.grossMargin":
		return f, &ErrValidation{Field: path, Message: "derived field"}

	default:
		return f, &ErrValidation{Field: path, Message: "unknown financial field"}
	}

	return Recompute(f), nil
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}
