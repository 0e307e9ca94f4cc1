package domain

import "strings"

// ============================================================
// Reports: dashboard and profit & loss
// ============================================================

// CompanyName appears on reports, contracts and assistant prompts.
const CompanyName = "J&J Roofing Pros"

// Dashboard is the summary shown on the landing page.
type Dashboard struct {
	TotalGrossProfit float64        `json:"totalGrossProfit"`
	ActiveJobs       int            `json:"activeJobs"`
	StuckJobs        int            `json:"stuckJobs"`
	CollectedCash    float64        `json:"collectedCash"`
	PhaseBands       []BandCount    `json:"phaseBands"`
	TopJobs          []JobRevenue   `json:"topJobs"`
	Unreconciled     []Unreconciled `json:"unreconciled,omitempty"`
}

type BandCount struct {
	Band  PhaseBand `json:"band"`
	Count int       `json:"count"`
}

// JobRevenue is one bar of the revenue chart.
type JobRevenue struct {
	JobID   string  `json:"jobId"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	Cost    float64 `json:"cost"`
	Profit  float64 `json:"profit"`
}

// Unreconciled flags a job with approved supplements missing from revenue.
type Unreconciled struct {
	JobID     string  `json:"jobId"`
	JobNumber string  `json:"jobNumber"`
	Amount    float64 `json:"amount"`
}

// ProfitAndLoss is the company-wide statement.
type ProfitAndLoss struct {
	Company          string  `json:"company"`
	Period           string  `json:"period"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalMaterials   float64 `json:"totalMaterials"`
	TotalLabor       float64 `json:"totalLabor"`
	TotalCommissions float64 `json:"totalCommissions"`
	GrossProfit      float64 `json:"grossProfit"`
	NetProfit        float64 `json:"netProfit"`
}

const topJobsLimit = 5

// BuildDashboard aggregates jobs the way the landing page shows them.
// Bands with no jobs are omitted.
func BuildDashboard(jobs []Job) Dashboard {
	d := Dashboard{PhaseBands: []BandCount{}, TopJobs: []JobRevenue{}}
	bands := make(map[PhaseBand]int, len(PhaseBands))

	for i := range jobs {
		j := &jobs[i]
		d.TotalGrossProfit += j.Financials.Profitability.GrossProfit
		d.CollectedCash += j.Financials.Payments.TotalReceived
		if j.PhaseTracking.CurrentPhase < ClosedPhase {
			d.ActiveJobs++
		}
		if j.PhaseTracking.IsStuck {
			d.StuckJobs++
		}
		bands[BandOf(j.PhaseTracking.CurrentPhase)]++

		if len(d.TopJobs) < topJobsLimit {
			d.TopJobs = append(d.TopJobs, JobRevenue{
				JobID:   j.ID,
				Name:    firstName(j.Client.Name),
				Revenue: j.Financials.Insurance.RCVTotal,
				Cost:    j.Financials.Costs.Materials + j.Financials.Costs.Labor,
				Profit:  j.Financials.Profitability.NetProfit,
			})
		}
		if amt := j.UnreconciledApproved(); amt > 0 {
			d.Unreconciled = append(d.Unreconciled, Unreconciled{JobID: j.ID, JobNumber: j.JobNumber, Amount: amt})
		}
	}

	for _, b := range PhaseBands {
		if n := bands[b]; n > 0 {
			d.PhaseBands = append(d.PhaseBands, BandCount{Band: b, Count: n})
		}
	}
	return d
}

// BuildProfitAndLoss sums revenue, direct costs and commissions. Gross
// profit here excludes "other" costs.
func BuildProfitAndLoss(jobs []Job) ProfitAndLoss {
	pnl := ProfitAndLoss{Company: CompanyName, Period: "Current Year to Date"}
	for i := range jobs {
		f := &jobs[i].Financials
		pnl.TotalRevenue += f.TotalRevenue()
		pnl.TotalMaterials += f.Costs.Materials
		pnl.TotalLabor += f.Costs.Labor
		pnl.TotalCommissions += f.Commissions.SalesRepAmount
	}
	pnl.GrossProfit = pnl.TotalRevenue - (pnl.TotalMaterials + pnl.TotalLabor)
	pnl.NetProfit = pnl.GrossProfit - pnl.TotalCommissions
	return pnl
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
