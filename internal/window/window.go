package window

import (
	"fmt"
	"time"
)

// Phase identifies which part of the hourly cycle an invocation should run.
type Phase string

const (
	PhaseNone      Phase = "standby"
	PhaseDiscovery Phase = "discovery"
	PhaseAnalysis  Phase = "analysis"
	PhaseRelease   Phase = "release"
)

// Schedule fixes the per-hour phase windows and the daily archive hour.
// Minute ranges are inclusive on both ends; release runs at a single minute.
type Schedule struct {
	DiscoveryFrom int
	DiscoveryTo   int
	AnalysisFrom  int
	AnalysisTo    int
	ReleaseMinute int
	ArchiveHour   int
}

// Default mirrors the production cadence: discover early in the hour, analyze
// mid-hour, release at one boundary minute, snapshot the archive at midnight.
func Default() Schedule {
	return Schedule{
		DiscoveryFrom: 2,
		DiscoveryTo:   11,
		AnalysisFrom:  20,
		AnalysisTo:    29,
		ReleaseMinute: 45,
		ArchiveHour:   0,
	}
}

// Validate rejects schedules with out-of-range minutes or overlapping windows.
func (s Schedule) Validate() error {
	inHour := func(name string, m int) error {
		if m < 0 || m > 59 {
			return fmt.Errorf("schedule: %s minute %d out of range", name, m)
		}
		return nil
	}
	for name, m := range map[string]int{
		"discoveryFrom": s.DiscoveryFrom,
		"discoveryTo":   s.DiscoveryTo,
		"analysisFrom":  s.AnalysisFrom,
		"analysisTo":    s.AnalysisTo,
		"release":       s.ReleaseMinute,
	} {
		if err := inHour(name, m); err != nil {
			return err
		}
	}
	if s.ArchiveHour < 0 || s.ArchiveHour > 23 {
		return fmt.Errorf("schedule: archive hour %d out of range", s.ArchiveHour)
	}
	if s.DiscoveryFrom > s.DiscoveryTo {
		return fmt.Errorf("schedule: discovery window is inverted")
	}
	if s.AnalysisFrom > s.AnalysisTo {
		return fmt.Errorf("schedule: analysis window is inverted")
	}
	if s.DiscoveryTo >= s.AnalysisFrom {
		return fmt.Errorf("schedule: discovery and analysis windows overlap")
	}
	if s.ReleaseMinute >= s.DiscoveryFrom && s.ReleaseMinute <= s.DiscoveryTo {
		return fmt.Errorf("schedule: release minute falls inside discovery window")
	}
	if s.ReleaseMinute >= s.AnalysisFrom && s.ReleaseMinute <= s.AnalysisTo {
		return fmt.Errorf("schedule: release minute falls inside analysis window")
	}
	return nil
}

// Evaluate maps a wall-clock instant to the phase active at that minute.
// At most one phase is ever returned; if a misconfigured schedule overlaps,
// discovery wins over analysis, analysis over release.
func (s Schedule) Evaluate(now time.Time) Phase {
	minute := now.Minute()
	switch {
	case minute >= s.DiscoveryFrom && minute <= s.DiscoveryTo:
		return PhaseDiscovery
	case minute >= s.AnalysisFrom && minute <= s.AnalysisTo:
		return PhaseAnalysis
	case minute == s.ReleaseMinute:
		return PhaseRelease
	}
	return PhaseNone
}

// ArchiveDue reports whether a release run at now should also snapshot the
// published set. Only meaningful when Evaluate returned PhaseRelease.
func (s Schedule) ArchiveDue(now time.Time) bool {
	return now.Hour() == s.ArchiveHour
}

// DiscoveryDeadline returns the instant the discovery window closes within the
// hour containing now. Collector jitter must never push work past it.
func (s Schedule) DiscoveryDeadline(now time.Time) time.Time {
	top := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 0, 0, 0, now.Location())
	return top.Add(time.Duration(s.DiscoveryTo+1) * time.Minute)
}
