package domain

import (
	"time"
)

type SupplementStatus string

const (
	SupplementPending  SupplementStatus = "Pending"
	SupplementApproved SupplementStatus = "Approved"
	SupplementDenied   SupplementStatus = "Denied"
)

func (s SupplementStatus) Valid() bool {
	switch s {
	case SupplementPending, SupplementApproved, SupplementDenied:
		return true
	}
	return false
}

// Supplement is a request for additional insurance funds on a job.
// It never feeds the profitability engine directly.
type Supplement struct {
	ID              string           `json:"id"`
	Reason          string           `json:"reason"`
	AmountRequested float64          `json:"amountRequested"`
	AmountApproved  float64          `json:"amountApproved"`
	Status          SupplementStatus `json:"status"`
	DateSubmitted   string           `json:"dateSubmitted"`
	Notes           string           `json:"notes,omitempty"`
}

// SupplementSummary holds the footer totals of a job's supplement list.
type SupplementSummary struct {
	Requested float64 `json:"requested"`
	Approved  float64 `json:"approved"`
}

// AddSupplement puts a new pending supplement at the head of the list.
func AddSupplement(job *Job, id string, now time.Time) Supplement {
	s := Supplement{
		ID:            id,
		Reason:        "New Supplement Request",
		Status:        SupplementPending,
		DateSubmitted: now.Format(DateLayout),
	}
	job.Supplements = append([]Supplement{s}, job.Supplements...)
	return s
}

// UpdateSupplement patches a single supplement field. Amounts are coerced
// like every other numeric form input.
func UpdateSupplement(job *Job, id, field, value string) (Supplement, error) {
	idx := supplementIndex(job.Supplements, id)
	if idx < 0 {
		return Supplement{}, &ErrNotFound{Resource: "supplement", ID: id}
	}
	s := &job.Supplements[idx]

	switch field {
	case "reason":
		s.Reason = value
	case "amountRequested":
		s.AmountRequested = ParseAmount(value)
	case "amountApproved":
		s.AmountApproved = ParseAmount(value)
	case "status":
		st := SupplementStatus(value)
		if !st.Valid() {
			return Supplement{}, &ErrValidation{Field: "status", Message: "must be Pending, Approved or Denied"}
		}
		s.Status = st
	case "dateSubmitted":
		s.DateSubmitted = value
	case "notes":
		s.Notes = value
	default:
		return Supplement{}, &ErrValidation{Field: field, Message: "unknown supplement field"}
	}
	return *s, nil
}

// DeleteSupplement removes exactly one supplement. The caller must confirm
// the deletion; the order of remaining entries is preserved.
func DeleteSupplement(job *Job, id string, confirmed bool) error {
	if !confirmed {
		return &ErrConfirmationRequired{Action: "delete supplement " + id}
	}
	idx := supplementIndex(job.Supplements, id)
	if idx < 0 {
		return &ErrNotFound{Resource: "supplement", ID: id}
	}
	out := make([]Supplement, 0, len(job.Supplements)-1)
	out = append(out, job.Supplements[:idx]...)
	job.Supplements = append(out, job.Supplements[idx+1:]...)
	return nil
}

// SupplementTotals sums requested and approved amounts.
func SupplementTotals(list []Supplement) SupplementSummary {
	var sum SupplementSummary
	for _, s := range list {
		sum.Requested += s.AmountRequested
		sum.Approved += s.AmountApproved
	}
	return sum
}

func supplementIndex(list []Supplement, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
