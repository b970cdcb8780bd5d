package analytics

import (
	"fmt"
	"strings"
	"time"

	"flowchat/internal/storage"
)

// Summary aggregates the local interaction log for the stats command.
type Summary struct {
	TotalExchanges int
	DayExchanges   int
	Sessions       int
	AugmentedShare float64 // fraction of exchanges that carried sources
}

// Summarize walks recorded events and computes usage statistics. Day counts
// cover the calendar day of targetDate in its location; events are stamped
// in UTC, so callers pass a UTC targetDate.
func Summarize(events []storage.Event, targetDate time.Time) Summary {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	var s Summary
	sessions := make(map[string]bool)
	augmented := 0

	for _, event := range events {
		if event.UserMessage == "" {
			continue
		}
		s.TotalExchanges++
		sessions[event.Session] = true
		if len(event.Sources) > 0 {
			augmented++
		}
		if !event.Timestamp.Before(startOfDay) && event.Timestamp.Before(endOfDay) {
			s.DayExchanges++
		}
	}

	s.Sessions = len(sessions)
	if s.TotalExchanges > 0 {
		s.AugmentedShare = float64(augmented) / float64(s.TotalExchanges)
	}
	return s
}

// Format renders a summary as a short human-readable report.
func Format(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "exchanges total: %d\n", s.TotalExchanges)
	fmt.Fprintf(&b, "exchanges today: %d\n", s.DayExchanges)
	fmt.Fprintf(&b, "sessions: %d\n", s.Sessions)
	fmt.Fprintf(&b, "retrieval-augmented: %.0f%%", s.AugmentedShare*100)
	return b.String()
}
