package domain

import (
	"strings"
	"time"
)

// ============================================================
// Leads
// ============================================================

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQuoted    LeadStatus = "quoted"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadNew, LeadContacted, LeadQuoted, LeadConverted, LeadLost:
		return true
	}
	return false
}

type LeadSource string

const (
	SourceReferral      LeadSource = "referral"
	SourceOnline        LeadSource = "online"
	SourceAdvertisement LeadSource = "advertisement"
	SourceColdCall      LeadSource = "cold-call"
	SourceOther         LeadSource = "other"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type ContactMethod string

const (
	ContactPhone ContactMethod = "phone"
	ContactEmail ContactMethod = "email"
	ContactText  ContactMethod = "text"
)

// Lead is a prospective customer tracked by the sales team.
// A converted lead always carries ConvertedJobID.
type Lead struct {
	ID              string       `json:"id"`
	CustomerInfo    CustomerInfo `json:"customerInfo"`
	Source          LeadSource   `json:"source" validate:"omitempty,oneof=referral online advertisement cold-call other"`
	Status          LeadStatus   `json:"status" validate:"omitempty,oneof=new contacted quoted converted lost"`
	Priority        Priority     `json:"priority" validate:"omitempty,oneof=low medium high"`
	EstimatedValue  float64      `json:"estimatedValue" validate:"gte=0"`
	Description     string       `json:"description"`
	Notes           string       `json:"notes"`
	AssignedTo      string       `json:"assignedTo"`
	ContractID      string       `json:"contractId,omitempty"`
	ConvertedJobID  string       `json:"convertedJobId,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
	LastContactDate *time.Time   `json:"lastContactDate,omitempty"`
	NextFollowUp    *time.Time   `json:"nextFollowUp,omitempty"`
}

type CustomerInfo struct {
	Name             string        `json:"name"`
	Address          string        `json:"address"`
	Phone            string        `json:"phone"`
	Email            string        `json:"email" validate:"omitempty,email"`
	PreferredContact ContactMethod `json:"preferredContact" validate:"omitempty,oneof=phone email text"`
}

// NewLead returns a lead with the defaults of the intake form.
func NewLead(id string, now time.Time) *Lead {
	return &Lead{
		ID: id,
		CustomerInfo: CustomerInfo{
			Name:             "New Customer",
			PreferredContact: ContactPhone,
		},
		Source:    SourceOther,
		Status:    LeadNew,
		Priority:  PriorityMedium,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

// SetLeadStatus applies a manual status change. Conversion is reserved for
// the lead-to-job flow and converted leads are terminal.
func SetLeadStatus(l *Lead, status LeadStatus, now time.Time) error {
	if !status.Valid() {
		return &ErrValidation{Field: "status", Message: "unknown lead status " + string(status)}
	}
	if l.Status == LeadConverted {
		return &ErrConflict{Message: "lead " + l.ID + " is already converted"}
	}
	if status == LeadConverted {
		return &ErrValidation{Field: "status", Message: "leads are converted only by creating a job"}
	}
	if status == LeadContacted {
		t := now.UTC()
		l.LastContactDate = &t
	}
	l.Status = status
	return nil
}

// MarkQuoted links a freshly created contract to its lead.
func MarkQuoted(l *Lead, contractID string) {
	l.ContractID = contractID
	if l.Status != LeadConverted {
		l.Status = LeadQuoted
	}
}

// MarkConverted records the job created from this lead.
func MarkConverted(l *Lead, jobID string) {
	l.Status = LeadConverted
	l.ConvertedJobID = jobID
}

// LeadFilter narrows a lead listing. Empty fields match everything.
type LeadFilter struct {
	Status   LeadStatus
	Priority Priority
	Search   string
}

// Match reports whether l passes the filter. Search looks at name, phone,
// email and description.
func (f LeadFilter) Match(l Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Priority != "" && l.Priority != f.Priority {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(l.CustomerInfo.Name), term) ||
		matchPhone(l.CustomerInfo.Phone, f.Search) ||
		strings.Contains(strings.ToLower(l.CustomerInfo.Email), term) ||
		strings.Contains(strings.ToLower(l.Description), term)
}

// matchPhone compares digits only, so "(512) 555-0101" finds "+15125550101".
// Terms with anything besides digits and phone punctuation fall back to a
// plain substring match.
func matchPhone(phone, term string) bool {
	if strings.Contains(phone, term) {
		return true
	}
	var digits strings.Builder
	for _, r := range term {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case strings.ContainsRune(" +-().", r):
		default:
			return false
		}
	}
	if digits.Len() == 0 {
		return false
	}
	return strings.Contains(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone), digits.String())
}
