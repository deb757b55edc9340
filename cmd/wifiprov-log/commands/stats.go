package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/wifiprov/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	EventsByID       map[string]int
	Sessions         map[string]*SessionStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single provisioning session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Ignored   int
	Scheme    string
	Outcome   string
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		EventsByID:       make(map[string]int),
		Sessions:         make(map[string]*SessionStats),
	}

	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[e.Category]++
		if e.EventID != "" {
			stats.EventsByID[e.EventID]++
		}

		if stats.TimeRange.Start.IsZero() || e.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = e.Timestamp
		}
		if e.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = e.Timestamp
		}

		sess, ok := stats.Sessions[e.SessionID]
		if !ok {
			sess = &SessionStats{FirstSeen: e.Timestamp, LastSeen: e.Timestamp}
			stats.Sessions[e.SessionID] = sess
		}
		sess.Events++
		if e.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = e.Timestamp
		}
		if e.Scheme != "" && sess.Scheme == "" {
			sess.Scheme = e.Scheme
		}
		if e.Routed != nil && e.Routed.Ignored {
			sess.Ignored++
		}
		if t := e.Transition; t != nil && t.Entity == log.StateEntitySession {
			sess.Outcome = t.NewState
		}

		if e.Error != nil {
			stats.Errors++
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Provisioning Capture Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryEvent, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-24s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.EventsByID) > 0 {
		ids := make([]string, 0, len(stats.EventsByID))
		for id := range stats.EventsByID {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Fprintln(w, "Events by ID:")
		for _, id := range ids {
			fmt.Fprintf(w, "  %-24s %d\n", id+":", stats.EventsByID[id])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(s.id), s.stats.Events, duration)
			if s.stats.Scheme != "" {
				fmt.Fprintf(w, "           Scheme: %s\n", s.stats.Scheme)
			}
			if s.stats.Outcome != "" {
				fmt.Fprintf(w, "           Outcome: %s\n", s.stats.Outcome)
			}
			if s.stats.Ignored > 0 {
				fmt.Fprintf(w, "           Ignored: %d\n", s.stats.Ignored)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
