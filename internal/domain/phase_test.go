package domain_test

import (
	"testing"
	"time"

	"github.com/boddenberg/jjr-ops-go/internal/domain"
)

func TestPhaseName(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "Pre-Claim"},
		{6, "Contracting"},
		{7, "Materials & Scheduling"},
		{10, "Post-Job / Closed"},
		{0, ""},
		{11, ""},
	}
	for _, tt := range tests {
		if got := domain.PhaseName(tt.n); got != tt.want {
			t.Errorf("PhaseName(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestBandOf(t *testing.T) {
	want := map[int]domain.PhaseBand{
		1: domain.BandPreClaim, 2: domain.BandPreClaim,
		3: domain.BandNegotiation, 5: domain.BandNegotiation,
		6: domain.BandProduction, 8: domain.BandProduction,
		9: domain.BandClosing, 10: domain.BandClosing,
	}
	for n, band := range want {
		if got := domain.BandOf(n); got != band {
			t.Errorf("BandOf(%d) = %s, want %s", n, got, band)
		}
	}
}

func TestPhases_Table(t *testing.T) {
	phases := domain.Phases()
	if len(phases) != 10 {
		t.Fatalf("expected 10 phases, got %d", len(phases))
	}
	for i, p := range phases {
		if p.Number != i+1 {
			t.Errorf("phase %d out of order: %d", i, p.Number)
		}
	}
}

func TestSetPhase_RejectsOutOfRange(t *testing.T) {
	job := domain.NewJob("j1", "JJR-2025-001", time.Now())

	for _, n := range []int{0, 11, -3} {
		if err := domain.SetPhase(job, n, time.Now()); err == nil {
			t.Errorf("expected error for phase %d", n)
		}
	}
	if job.PhaseTracking.CurrentPhase != 1 {
		t.Errorf("phase must be unchanged after rejected writes, got %d", job.PhaseTracking.CurrentPhase)
	}
}

func TestSetPhase_AnyOrderResetsTracking(t *testing.T) {
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	job := domain.NewJob("j1", "JJR-2025-001", start)
	job.PhaseTracking.DaysInPhase = 20
	job.PhaseTracking.IsStuck = true

	later := start.Add(72 * time.Hour)
	if err := domain.SetPhase(job, 9, later); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := domain.SetPhase(job, 2, later); err != nil {
		t.Fatalf("backwards moves are allowed: %v", err)
	}

	pt := job.PhaseTracking
	if pt.CurrentPhase != 2 || pt.DaysInPhase != 0 || pt.IsStuck || !pt.EnteredAt.Equal(later) {
		t.Errorf("tracking not reset: %+v", pt)
	}
}

func TestSetPhase_SamePhaseKeepsTracking(t *testing.T) {
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	job := domain.NewJob("j1", "JJR-2025-001", start)
	job.PhaseTracking.DaysInPhase = 5

	if err := domain.SetPhase(job, 1, start.Add(time.Hour)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.PhaseTracking.DaysInPhase != 5 || !job.PhaseTracking.EnteredAt.Equal(start) {
		t.Errorf("tracking must survive a no-op phase write: %+v", job.PhaseTracking)
	}
}

func TestAgePhase(t *testing.T) {
	entered := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		phase     int
		elapsed   time.Duration
		wantDays  int
		wantStuck bool
	}{
		{"fresh", 3, time.Hour, 0, false},
		{"just under threshold", 3, 13*24*time.Hour + 23*time.Hour, 13, false},
		{"at threshold", 3, 14 * 24 * time.Hour, 14, true},
		{"closed never stuck", 10, 60 * 24 * time.Hour, 60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := domain.NewJob("j1", "JJR-2025-001", entered)
			job.PhaseTracking.CurrentPhase = tt.phase

			domain.AgePhase(job, entered.Add(tt.elapsed), 14)

			if job.PhaseTracking.DaysInPhase != tt.wantDays {
				t.Errorf("days = %d, want %d", job.PhaseTracking.DaysInPhase, tt.wantDays)
			}
			if job.PhaseTracking.IsStuck != tt.wantStuck {
				t.Errorf("stuck = %v, want %v", job.PhaseTracking.IsStuck, tt.wantStuck)
			}
		})
	}
}

func TestAgePhase_ReportsChange(t *testing.T) {
	entered := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	job := domain.NewJob("j1", "JJR-2025-001", entered)

	if domain.AgePhase(job, entered.Add(time.Hour), 14) {
		t.Error("no change expected within the first day")
	}
	if !domain.AgePhase(job, entered.Add(48*time.Hour), 14) {
		t.Error("expected a change after two days")
	}
}
