package domain

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================
// Jobs
// ============================================================

// DateLayout is the calendar-date format used for all date-only fields.
const DateLayout = "2006-01-02"

type DamageType string

const (
	DamageHail  DamageType = "Hail"
	DamageWind  DamageType = "Wind"
	DamageOther DamageType = "Other"
)

// Valid reports whether d is a known damage type.
func (d DamageType) Valid() bool {
	switch d {
	case DamageHail, DamageWind, DamageOther:
		return true
	}
	return false
}

// Job is the central aggregate: a roofing project from claim to closeout.
type Job struct {
	ID             string         `json:"id"`
	JobNumber      string         `json:"jobNumber"`
	Client         Client         `json:"client"`
	Details        JobDetails     `json:"details"`
	PhaseTracking  PhaseTracking  `json:"phaseTracking"`
	Financials     Financials     `json:"financials"`
	Supplements    []Supplement   `json:"supplements"`
	SalesRep       RepRef         `json:"salesRep"`
	Timeline       Timeline       `json:"timeline"`
	LeadID         string         `json:"leadId,omitempty"`
	ContractID     string         `json:"contractId,omitempty"`
	ContractStatus ContractStatus `json:"contractStatus,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type Client struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Carrier     string `json:"carrier"`
	ClaimNumber string `json:"claimNumber"`
}

type JobDetails struct {
	StormDate  string     `json:"stormDate"`
	DamageType DamageType `json:"damageType"`
}

// PhaseTracking holds the current phase and its age.
// EnteredAt is the source of truth for DaysInPhase and IsStuck.
type PhaseTracking struct {
	CurrentPhase int       `json:"currentPhase"`
	DaysInPhase  int       `json:"daysInPhase"`
	IsStuck      bool      `json:"isStuck"`
	EnteredAt    time.Time `json:"enteredAt"`
}

// RepRef is the sales rep attached to a job: a name plus its lowercase id.
type RepRef struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// NewRepRef derives the rep id from the name.
func NewRepRef(name string) RepRef {
	return RepRef{Name: name, ID: strings.ToLower(name)}
}

type Timeline struct {
	StartDate      string `json:"startDate"`
	InstallDate    string `json:"installDate,omitempty"`
	CompletionDate string `json:"completionDate,omitempty"`
}

// JobNumber formats the sequential job number for a year.
func JobNumber(year, seq int) string {
	return fmt.Sprintf("JJR-%d-%03d", year, seq)
}

// LegacyJobNumber formats the number of an imported historical job.
func LegacyJobNumber(seq int) string {
	return fmt.Sprintf("JJR-LEGACY-%03d", seq)
}

// NextJobNumber returns the first free sequential number after count,
// skipping any number already present in taken.
func NextJobNumber(year, count int, taken map[string]bool) string {
	seq := count + 1
	for {
		n := JobNumber(year, seq)
		if !taken[n] {
			return n
		}
		seq++
	}
}

// NewJob builds a blank job in phase 1 with zeroed financials.
func NewJob(id, jobNumber string, now time.Time) *Job {
	today := now.Format(DateLayout)
	return &Job{
		ID:        id,
		JobNumber: jobNumber,
		Client:    Client{Name: "New Client"},
		Details:   JobDetails{StormDate: today, DamageType: DamageHail},
		PhaseTracking: PhaseTracking{
			CurrentPhase: MinPhase,
			EnteredAt:    now.UTC(),
		},
		Financials:  NewFinancials(),
		Supplements: []Supplement{},
		Timeline:    Timeline{StartDate: today},
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

// UnreconciledApproved is the amount approved on Approved supplements that has
// not been rolled into insurance.supplementsTotal yet.
func (j *Job) UnreconciledApproved() float64 {
	approved := 0.0
	for _, s := range j.Supplements {
		if s.Status == SupplementApproved {
			approved += s.AmountApproved
		}
	}
	if diff := approved - j.Financials.Insurance.SupplementsTotal; diff > 0 {
		return diff
	}
	return 0
}

// JobPatch carries the editable non-financial fields of a job.
// Nil fields are left unchanged.
type JobPatch struct {
	Client   *Client     `json:"client,omitempty"`
	Details  *JobDetails `json:"details,omitempty"`
	SalesRep *string     `json:"salesRepName,omitempty"`
	Timeline *Timeline   `json:"timeline,omitempty"`
}

// Apply merges the patch into the job.
func (p JobPatch) Apply(j *Job) error {
	if p.Details != nil {
		if p.Details.DamageType != "" && !p.Details.DamageType.Valid() {
			return &ErrValidation{Field: "details.damageType", Message: "must be Hail, Wind or Other"}
		}
		if p.Details.DamageType == "" {
			p.Details.DamageType = j.Details.DamageType
		}
		j.Details = *p.Details
	}
	if p.Client != nil {
		j.Client = *p.Client
	}
	if p.SalesRep != nil {
		j.SalesRep = NewRepRef(*p.SalesRep)
	}
	if p.Timeline != nil {
		j.Timeline = *p.Timeline
	}
	return nil
}

// ============================================================
// Legacy import
// ============================================================

// LegacyRecord is one row of the historical job spreadsheet.
type LegacyRecord struct {
	ClientName     string
	Address        string
	RepName        string
	StartDate      string
	LaborCost      float64
	MaterialCost   float64
	Revenue        float64
	GrossProfit    float64
	RepCommission  float64
	NetProfit      float64
	Paid           bool
	CompletionDate string
}

const legacyStormDate = "2025-01-01"

// NewLegacyJob converts a historical record into a legacy job. The imported
// profit and commission figures are authoritative.
func NewLegacyJob(id string, seq int, r LegacyRecord, now time.Time) *Job {
	address := r.Address
	if address == "" {
		address = "No Address"
	}
	rep := RepRef{Name: "Unassigned", ID: "unknown"}
	if r.RepName != "" {
		rep = NewRepRef(r.RepName)
	}
	start := r.StartDate
	if start == "" {
		start = now.Format(DateLayout)
	}
	phase := 8
	if r.CompletionDate != "" {
		phase = ClosedPhase
	}
	margin := 0.0
	if r.Revenue > 0 {
		margin = r.GrossProfit / r.Revenue * 100
	}

	return &Job{
		ID:        id,
		JobNumber: LegacyJobNumber(seq),
		Client: Client{
			Name:    r.ClientName,
			Address: address,
			Carrier: "Unknown",
		},
		Details:       JobDetails{StormDate: legacyStormDate, DamageType: DamageHail},
		PhaseTracking: PhaseTracking{CurrentPhase: phase, EnteredAt: now.UTC()},
		Supplements:   []Supplement{},
		SalesRep:      rep,
		Timeline:      Timeline{StartDate: start, CompletionDate: r.CompletionDate},
		Financials: Financials{
			IsLegacy: true,
			Insurance: Insurance{
				RCVTotal:     r.Revenue,
				ACVTotal:     r.Revenue * 0.6,
				Depreciation: r.Revenue * 0.4,
			},
			Payments: Payments{TotalReceived: r.Revenue},
			Costs:    Costs{Materials: r.MaterialCost, Labor: r.LaborCost},
			Commissions: Commissions{
				SalesRepAmount: r.RepCommission,
				Paid:           r.Paid,
			},
			Profitability: Profitability{
				GrossProfit: r.GrossProfit,
				NetProfit:   r.NetProfit,
				GrossMargin: margin,
			},
		},
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}
