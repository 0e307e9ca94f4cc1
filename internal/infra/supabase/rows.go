package supabase

import (
	"encoding/json"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
)

// ============================================================
// Row shapes: flat snake_case columns as stored in Postgres
// ============================================================

type jobRow struct {
	ID               string    `json:"id"`
	JobNumber        string    `json:"job_number"`
	ClientName       string    `json:"client_name"`
	ClientAddress    string    `json:"client_address"`
	ClientPhone      string    `json:"client_phone"`
	ClientEmail      string    `json:"client_email"`
	ClientCarrier    string    `json:"client_carrier"`
	ClaimNumber      string    `json:"claim_number"`
	StormDate        string    `json:"storm_date"`
	DamageType       string    `json:"damage_type"`
	CurrentPhase     int       `json:"current_phase"`
	DaysInPhase      int       `json:"days_in_phase"`
	IsStuck          bool      `json:"is_stuck"`
	PhaseEnteredAt   time.Time `json:"phase_entered_at"`
	StartDate        string    `json:"start_date"`
	InstallDate      *string   `json:"install_date"`
	CompletionDate   *string   `json:"completion_date"`
	LeadID           *string   `json:"lead_id"`
	ContractID       *string   `json:"contract_id"`
	ContractStatus   *string   `json:"contract_status"`
	AssignedSalesRep string    `json:"assigned_sales_rep"`
	SalesRepID       string    `json:"sales_rep_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type financialsRow struct {
	JobID               string  `json:"job_id"`
	RCVTotal            float64 `json:"rcv_total"`
	ACVTotal            float64 `json:"acv_total"`
	Depreciation        float64 `json:"depreciation"`
	Deductible          float64 `json:"deductible"`
	SupplementsTotal    float64 `json:"supplements_total"`
	ACVReceived         float64 `json:"acv_received"`
	RCVReceived         float64 `json:"rcv_received"`
	DeductibleCollected float64 `json:"deductible_collected"`
	SupplementsReceived float64 `json:"supplements_received"`
	TotalReceived       float64 `json:"total_received"`
	MaterialsCost       float64 `json:"materials_cost"`
	LaborCost           float64 `json:"labor_cost"`
	OtherCosts          float64 `json:"other_costs"`
	SalesRepPct         float64 `json:"sales_rep_pct"`
	SalesRepAmount      float64 `json:"sales_rep_amount"`
	CommissionPaid      bool    `json:"commission_paid"`
	GrossProfit         float64 `json:"gross_profit"`
	NetProfit           float64 `json:"net_profit"`
	GrossMargin         float64 `json:"gross_margin"`
	IsLegacy            bool    `json:"is_legacy"`
}

type supplementRow struct {
	ID              string  `json:"id"`
	JobID           string  `json:"job_id"`
	Position        int     `json:"position"`
	Reason          string  `json:"reason"`
	AmountRequested float64 `json:"amount_requested"`
	AmountApproved  float64 `json:"amount_approved"`
	Status          string  `json:"status"`
	DateSubmitted   string  `json:"date_submitted"`
	Notes           *string `json:"notes"`
}

type leadRow struct {
	ID               string     `json:"id"`
	CustomerName     string     `json:"customer_name"`
	CustomerAddress  string     `json:"customer_address"`
	CustomerPhone    string     `json:"customer_phone"`
	CustomerEmail    string     `json:"customer_email"`
	PreferredContact string     `json:"preferred_contact"`
	Source           string     `json:"source"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	EstimatedValue   float64    `json:"estimated_value"`
	Description      string     `json:"description"`
	Notes            string     `json:"notes"`
	AssignedTo       *string    `json:"assigned_to"`
	ContractID       *string    `json:"contract_id"`
	ConvertedJobID   *string    `json:"converted_job_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastContactDate  *time.Time `json:"last_contact_date"`
	NextFollowUp     *time.Time `json:"next_follow_up"`
}

type contractRow struct {
	ID                 string          `json:"id"`
	LeadID             *string         `json:"lead_id"`
	JobID              *string         `json:"job_id"`
	CustomerName       string          `json:"customer_name"`
	CustomerAddress    string          `json:"customer_address"`
	CustomerPhone      string          `json:"customer_phone"`
	CustomerEmail      string          `json:"customer_email"`
	CompanyRepName     string          `json:"company_rep_name"`
	CompanyRepTitle    string          `json:"company_rep_title"`
	ProjectDescription string          `json:"project_description"`
	WorkLocation       string          `json:"work_location"`
	StartDate          string          `json:"start_date"`
	CompletionDate     string          `json:"completion_date"`
	TotalAmount        float64         `json:"total_amount"`
	DepositAmount      float64         `json:"deposit_amount"`
	ProgressPayments   json.RawMessage `json:"progress_payments"`
	FinalPayment       float64         `json:"final_payment"`
	Terms              string          `json:"terms"`
	WarrantyInfo       string          `json:"warranty_info"`
	WorksheetData      json.RawMessage `json:"worksheet_data"`
	ReviewData         json.RawMessage `json:"review_data"`
	ThirdPartyAuth     json.RawMessage `json:"third_party_auth"`
	Signatures         json.RawMessage `json:"signatures"`
	Status             string          `json:"status"`
	Notes              *string         `json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type lineItemRow struct {
	ID          string  `json:"id"`
	ContractID  string  `json:"contract_id"`
	Position    int     `json:"position"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	Category    string  `json:"category"`
}

type salesRepRow struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone"`
	CommissionRate float64   `json:"commission_rate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ============================================================
// Mapping helpers
// ============================================================

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// calendarDate trims a timestamp down to its date part.
func calendarDate(s string) string {
	if len(s) > len(domain.DateLayout) {
		return s[:len(domain.DateLayout)]
	}
	return s
}

// rawJSON marshals v, mapping nil to SQL null.
func rawJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

func decodeOptional[T any](raw json.RawMessage) *T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func toJobRow(j *domain.Job) jobRow {
	return jobRow{
		ID:               j.ID,
		JobNumber:        j.JobNumber,
		ClientName:       j.Client.Name,
		ClientAddress:    j.Client.Address,
		ClientPhone:      j.Client.Phone,
		ClientEmail:      j.Client.Email,
		ClientCarrier:    j.Client.Carrier,
		ClaimNumber:      j.Client.ClaimNumber,
		StormDate:        j.Details.StormDate,
		DamageType:       string(j.Details.DamageType),
		CurrentPhase:     j.PhaseTracking.CurrentPhase,
		DaysInPhase:      j.PhaseTracking.DaysInPhase,
		IsStuck:          j.PhaseTracking.IsStuck,
		PhaseEnteredAt:   j.PhaseTracking.EnteredAt,
		StartDate:        j.Timeline.StartDate,
		InstallDate:      optional(j.Timeline.InstallDate),
		CompletionDate:   optional(j.Timeline.CompletionDate),
		LeadID:           optional(j.LeadID),
		ContractID:       optional(j.ContractID),
		ContractStatus:   optional(string(j.ContractStatus)),
		AssignedSalesRep: j.SalesRep.Name,
		SalesRepID:       j.SalesRep.ID,
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func toFinancialsRow(jobID string, f domain.Financials) financialsRow {
	return financialsRow{
		JobID:               jobID,
		RCVTotal:            f.Insurance.RCVTotal,
		ACVTotal:            f.Insurance.ACVTotal,
		Depreciation:        f.Insurance.Depreciation,
		Deductible:          f.Insurance.Deductible,
		SupplementsTotal:    f.Insurance.SupplementsTotal,
		ACVReceived:         f.Payments.ACVReceived,
		RCVReceived:         f.Payments.RCVReceived,
		DeductibleCollected: f.Payments.DeductibleCollected,
		SupplementsReceived: f.Payments.SupplementsReceived,
		TotalReceived:       f.Payments.TotalReceived,
		MaterialsCost:       f.Costs.Materials,
		LaborCost:           f.Costs.Labor,
		OtherCosts:          f.Costs.Other,
		SalesRepPct:         f.Commissions.SalesRepPct,
		SalesRepAmount:      f.Commissions.SalesRepAmount,
		CommissionPaid:      f.Commissions.Paid,
		GrossProfit:         f.Profitability.GrossProfit,
		NetProfit:           f.Profitability.NetProfit,
		GrossMargin:         f.Profitability.GrossMargin,
		IsLegacy:            f.IsLegacy,
	}
}

func toSupplementRows(jobID string, list []domain.Supplement) []supplementRow {
	rows := make([]supplementRow, 0, len(list))
	for i, s := range list {
		rows = append(rows, supplementRow{
			ID:              s.ID,
			JobID:           jobID,
			Position:        i,
			Reason:          s.Reason,
			AmountRequested: s.AmountRequested,
			AmountApproved:  s.AmountApproved,
			Status:          string(s.Status),
			DateSubmitted:   s.DateSubmitted,
			Notes:           optional(s.Notes),
		})
	}
	return rows
}

// assembleJob joins the three job tables back into the aggregate.
// A job with no financials row gets default financials.
func assembleJob(r jobRow, f *financialsRow, supps []supplementRow) domain.Job {
	j := domain.Job{
		ID:        r.ID,
		JobNumber: r.JobNumber,
		Client: domain.Client{
			Name:        r.ClientName,
			Address:     r.ClientAddress,
			Phone:       r.ClientPhone,
			Email:       r.ClientEmail,
			Carrier:     r.ClientCarrier,
			ClaimNumber: r.ClaimNumber,
		},
		Details: domain.JobDetails{
			StormDate:  calendarDate(r.StormDate),
			DamageType: domain.DamageType(r.DamageType),
		},
		PhaseTracking: domain.PhaseTracking{
			CurrentPhase: r.CurrentPhase,
			DaysInPhase:  r.DaysInPhase,
			IsStuck:      r.IsStuck,
			EnteredAt:    r.PhaseEnteredAt,
		},
		Financials:  domain.NewFinancials(),
		Supplements: make([]domain.Supplement, 0, len(supps)),
		SalesRep:    repRef(r),
		Timeline: domain.Timeline{
			StartDate:      calendarDate(r.StartDate),
			InstallDate:    calendarDate(deref(r.InstallDate)),
			CompletionDate: calendarDate(deref(r.CompletionDate)),
		},
		LeadID:         deref(r.LeadID),
		ContractID:     deref(r.ContractID),
		ContractStatus: domain.ContractStatus(deref(r.ContractStatus)),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}

	if f != nil {
		j.Financials = domain.Financials{
			IsLegacy: f.IsLegacy,
			Insurance: domain.Insurance{
				RCVTotal:         f.RCVTotal,
				ACVTotal:         f.ACVTotal,
				Depreciation:     f.Depreciation,
				Deductible:       f.Deductible,
				SupplementsTotal: f.SupplementsTotal,
			},
			Payments: domain.Payments{
				ACVReceived:         f.ACVReceived,
				RCVReceived:         f.RCVReceived,
				DeductibleCollected: f.DeductibleCollected,
				SupplementsReceived: f.SupplementsReceived,
				TotalReceived:       f.TotalReceived,
			},
			Costs: domain.Costs{
				Materials: f.MaterialsCost,
				Labor:     f.LaborCost,
				Other:     f.OtherCosts,
			},
			Commissions: domain.Commissions{
				SalesRepPct:    f.SalesRepPct,
				SalesRepAmount: f.SalesRepAmount,
				Paid:           f.CommissionPaid,
			},
			Profitability: domain.Profitability{
				GrossProfit: f.GrossProfit,
				NetProfit:   f.NetProfit,
				GrossMargin: f.GrossMargin,
			},
		}
	}

	for _, s := range supps {
		j.Supplements = append(j.Supplements, domain.Supplement{
			ID:              s.ID,
			Reason:          s.Reason,
			AmountRequested: s.AmountRequested,
			AmountApproved:  s.AmountApproved,
			Status:          domain.SupplementStatus(s.Status),
			DateSubmitted:   calendarDate(s.DateSubmitted),
			Notes:           deref(s.Notes),
		})
	}
	return j
}

func toLeadRow(l *domain.Lead) leadRow {
	return leadRow{
		ID:               l.ID,
		CustomerName:     l.CustomerInfo.Name,
		CustomerAddress:  l.CustomerInfo.Address,
		CustomerPhone:    l.CustomerInfo.Phone,
		CustomerEmail:    l.CustomerInfo.Email,
		PreferredContact: string(l.CustomerInfo.PreferredContact),
		Source:           string(l.Source),
		Status:           string(l.Status),
		Priority:         string(l.Priority),
		EstimatedValue:   l.EstimatedValue,
		Description:      l.Description,
		Notes:            l.Notes,
		AssignedTo:       optional(l.AssignedTo),
		ContractID:       optional(l.ContractID),
		ConvertedJobID:   optional(l.ConvertedJobID),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
		LastContactDate:  l.LastContactDate,
		NextFollowUp:     l.NextFollowUp,
	}
}

func fromLeadRow(r leadRow) domain.Lead {
	return domain.Lead{
		ID: r.ID,
		CustomerInfo: domain.CustomerInfo{
			Name:             r.CustomerName,
			Address:          r.CustomerAddress,
			Phone:            r.CustomerPhone,
			Email:            r.CustomerEmail,
			PreferredContact: domain.ContactMethod(r.PreferredContact),
		},
		Source:          domain.LeadSource(r.Source),
		Status:          domain.LeadStatus(r.Status),
		Priority:        domain.Priority(r.Priority),
		EstimatedValue:  r.EstimatedValue,
		Description:     r.Description,
		Notes:           r.Notes,
		AssignedTo:      deref(r.AssignedTo),
		ContractID:      deref(r.ContractID),
		ConvertedJobID:  deref(r.ConvertedJobID),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		LastContactDate: r.LastContactDate,
		NextFollowUp:    r.NextFollowUp,
	}
}

func toContractRow(c *domain.Contract) contractRow {
	d := c.Details
	return contractRow{
		ID:                 c.ID,
		LeadID:             optional(c.LeadID),
		JobID:              optional(c.JobID),
		CustomerName:       d.CustomerName,
		CustomerAddress:    d.CustomerAddress,
		CustomerPhone:      d.CustomerPhone,
		CustomerEmail:      d.CustomerEmail,
		CompanyRepName:     d.CompanyRepName,
		CompanyRepTitle:    d.CompanyRepTitle,
		ProjectDescription: d.ProjectDescription,
		WorkLocation:       d.WorkLocation,
		StartDate:          d.StartDate,
		CompletionDate:     d.CompletionDate,
		TotalAmount:        d.TotalAmount,
		DepositAmount:      d.PaymentSchedule.DepositAmount,
		ProgressPayments:   rawJSON(d.PaymentSchedule.ProgressPayments),
		FinalPayment:       d.PaymentSchedule.FinalPayment,
		Terms:              d.Terms,
		WarrantyInfo:       d.WarrantyInfo,
		WorksheetData:      rawJSON(d.WorksheetData),
		ReviewData:         rawJSON(d.ReviewData),
		ThirdPartyAuth:     rawJSON(d.ThirdPartyAuth),
		Signatures:         rawJSON(c.Signatures),
		Status:             string(c.Status),
		Notes:              optional(c.Notes),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func toLineItemRows(contractID string, items []domain.LineItem) []lineItemRow {
	rows := make([]lineItemRow, 0, len(items))
	for i, li := range items {
		rows = append(rows, lineItemRow{
			ID:          li.ID,
			ContractID:  contractID,
			Position:    i,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
			Category:    string(li.Category),
		})
	}
	return rows
}

func assembleContract(r contractRow, items []lineItemRow) domain.Contract {
	c := domain.Contract{
		ID:     r.ID,
		LeadID: deref(r.LeadID),
		JobID:  deref(r.JobID),
		Details: domain.ContractDetails{
			CustomerName:       r.CustomerName,
			CustomerAddress:    r.CustomerAddress,
			CustomerPhone:      r.CustomerPhone,
			CustomerEmail:      r.CustomerEmail,
			CompanyRepName:     r.CompanyRepName,
			CompanyRepTitle:    r.CompanyRepTitle,
			ProjectDescription: r.ProjectDescription,
			WorkLocation:       r.WorkLocation,
			StartDate:          calendarDate(r.StartDate),
			CompletionDate:     calendarDate(r.CompletionDate),
			TotalAmount:        r.TotalAmount,
			PaymentSchedule: domain.PaymentSchedule{
				DepositAmount:    r.DepositAmount,
				ProgressPayments: []domain.ProgressPayment{},
				FinalPayment:     r.FinalPayment,
			},
			Terms:          r.Terms,
			WarrantyInfo:   r.WarrantyInfo,
			WorksheetData:  decodeOptional[domain.WorksheetData](r.WorksheetData),
			ReviewData:     decodeOptional[domain.ReviewData](r.ReviewData),
			ThirdPartyAuth: decodeOptional[domain.ThirdPartyAuth](r.ThirdPartyAuth),
		},
		LineItems: make([]domain.LineItem, 0, len(items)),
		Status:    domain.ContractStatus(r.Status),
		Notes:     deref(r.Notes),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if pp := decodeOptional[[]domain.ProgressPayment](r.ProgressPayments); pp != nil {
		c.Details.PaymentSchedule.ProgressPayments = *pp
	}
	if sigs := decodeOptional[domain.Signatures](r.Signatures); sigs != nil {
		c.Signatures = *sigs
	}
	for _, li := range items {
		c.LineItems = append(c.LineItems, domain.LineItem{
			ID:          li.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			Total:       li.Total,
			Category:    domain.LineCategory(li.Category),
		})
	}
	return c
}

func toSalesRepRow(r *domain.SalesRep) salesRepRow {
	return salesRepRow{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          optional(r.Phone),
		CommissionRate: r.CommissionRate,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func fromSalesRepRow(r salesRepRow) domain.SalesRep {
	return domain.SalesRep{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		Phone:          deref(r.Phone),
		CommissionRate: r.CommissionRate,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// repRef restores the job's rep. Rows written before sales_rep_id existed
// derive the id from the name.
func repRef(r jobRow) domain.RepRef {
	if r.SalesRepID == "" {
		return domain.NewRepRef(r.AssignedSalesRep)
	}
	return domain.RepRef{Name: r.AssignedSalesRep, ID: r.SalesRepID}
}
