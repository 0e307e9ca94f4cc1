package domain

import (
	"time"
)

// Seed ratios applied to the contract total when a lead becomes a job.
const (
	ConversionACVRatio          = 0.6
	ConversionDepreciationRatio = 0.4
)

// ConvertLeadToJob builds the job for a lead and its contract. The job enters
// the Contracting phase with insurance figures seeded from the contract total
// and the commission derived by Recompute. Updating the contract's JobID and
// the lead's status is left to the caller.
func ConvertLeadToJob(id, jobNumber string, lead *Lead, contract *Contract, now time.Time) (*Job, error) {
	if lead == nil || contract == nil {
		return nil, &ErrValidation{Field: "lead", Message: "lead and contract are required"}
	}
	if contract.LeadID != lead.ID {
		return nil, &ErrValidation{Field: "contract.leadId", Message: "contract " + contract.ID + " does not belong to lead " + lead.ID}
	}

	total := contract.Details.TotalAmount
	today := now.Format(DateLayout)

	f := NewFinancials()
	f.Insurance = Insurance{
		RCVTotal:     total,
		ACVTotal:     total * ConversionACVRatio,
		Depreciation: total * ConversionDepreciationRatio,
	}

	job := &Job{
		ID:        id,
		JobNumber: jobNumber,
		Client: Client{
			Name:    lead.CustomerInfo.Name,
			Address: lead.CustomerInfo.Address,
			Phone:   lead.CustomerInfo.Phone,
			Email:   lead.CustomerInfo.Email,
		},
		Details: JobDetails{StormDate: today, DamageType: DamageHail},
		PhaseTracking: PhaseTracking{
			CurrentPhase: ContractingPhase,
			EnteredAt:    now.UTC(),
		},
		Financials:     Recompute(f),
		Supplements:    []Supplement{},
		SalesRep:       NewRepRef(lead.AssignedTo),
		Timeline:       Timeline{StartDate: contract.Details.StartDate},
		LeadID:         lead.ID,
		ContractID:     contract.ID,
		ContractStatus: contract.Status,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	return job, nil
}
