package domain

import (
	"fmt"
	"time"
)

// ============================================================
// Job phases
// ============================================================

const (
	MinPhase = 1
	MaxPhase = 10

	// ClosedPhase never counts as stuck and is excluded from active jobs.
	ClosedPhase = MaxPhase

	// ContractingPhase is where converted leads enter the pipeline.
	ContractingPhase = 6

	// DefaultStuckAfterDays is used when no threshold is configured.
	DefaultStuckAfterDays = 14
)

var phaseNames = [...]string{
	1:  "Pre-Claim",
	2:  "Filing Claim",
	3:  "Adjuster Meeting",
	4:  "Negotiation",
	5:  "Payment Structure",
	6:  "Contracting",
	7:  "Materials & Scheduling",
	8:  "Installation",
	9:  "Final Payment",
	10: "Post-Job / Closed",
}

// PhaseBand groups phases for dashboard aggregation.
type PhaseBand string

const (
	BandPreClaim    PhaseBand = "Pre-Claim"
	BandNegotiation PhaseBand = "Negotiation"
	BandProduction  PhaseBand = "Production"
	BandClosing     PhaseBand = "Closing"
)

// PhaseBands lists the bands in pipeline order.
var PhaseBands = []PhaseBand{BandPreClaim, BandNegotiation, BandProduction, BandClosing}

// Phase describes one entry of the phase table.
type Phase struct {
	Number int       `json:"number"`
	Name   string    `json:"name"`
	Band   PhaseBand `json:"band"`
}

// ValidatePhase reports whether n is a known phase number.
func ValidatePhase(n int) error {
	if n < MinPhase || n > MaxPhase {
		return &ErrValidation{Field: "currentPhase", Message: fmt.Sprintf("phase must be between %d and %d, got %d", MinPhase, MaxPhase, n)}
	}
	return nil
}

// PhaseName returns the label for n, or an empty string when n is out of range.
func PhaseName(n int) string {
	if n < MinPhase || n > MaxPhase {
		return ""
	}
	return phaseNames[n]
}

// BandOf maps a phase number onto its dashboard band.
func BandOf(n int) PhaseBand {
	switch {
	case n <= 2:
		return BandPreClaim
	case n <= 5:
		return BandNegotiation
	case n <= 8:
		return BandProduction
	default:
		return BandClosing
	}
}

// Phases returns the full phase table.
func Phases() []Phase {
	out := make([]Phase, 0, MaxPhase)
	for n := MinPhase; n <= MaxPhase; n++ {
		out = append(out, Phase{Number: n, Name: phaseNames[n], Band: BandOf(n)})
	}
	return out
}

// SetPhase moves a job to phase n. Any phase may follow any other.
// Tracking restarts only when the phase actually changes.
func SetPhase(job *Job, n int, now time.Time) error {
	if err := ValidatePhase(n); err != nil {
		return err
	}
	if job.PhaseTracking.CurrentPhase == n {
		return nil
	}
	job.PhaseTracking = PhaseTracking{
		CurrentPhase: n,
		DaysInPhase:  0,
		IsStuck:      false,
		EnteredAt:    now.UTC(),
	}
	return nil
}

// AgePhase refreshes DaysInPhase and IsStuck from EnteredAt.
// It returns true when either value changed.
func AgePhase(job *Job, now time.Time, stuckAfterDays int) bool {
	pt := &job.PhaseTracking
	if pt.EnteredAt.IsZero() {
		return false
	}
	if stuckAfterDays <= 0 {
		stuckAfterDays = DefaultStuckAfterDays
	}

	days := 0
	if elapsed := now.Sub(pt.EnteredAt); elapsed > 0 {
		days = int(elapsed / (24 * time.Hour))
	}
	stuck := days >= stuckAfterDays && pt.CurrentPhase < ClosedPhase

	changed := days != pt.DaysInPhase || stuck != pt.IsStuck
	pt.DaysInPhase = days
	pt.IsStuck = stuck
	return changed
}
