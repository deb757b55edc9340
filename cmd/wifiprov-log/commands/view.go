// Package commands implements the wifiprov-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/mash-protocol/wifiprov/pkg/event"
	"github.com/mash-protocol/wifiprov/pkg/log"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	// SessionID matches sessions whose ID starts with this prefix.
	SessionID string
	Namespace string
	Category  *log.Category
}

func (f ViewFilter) match(e log.Event) bool {
	if f.SessionID != "" && !strings.HasPrefix(e.SessionID, f.SessionID) {
		return false
	}
	if f.Namespace != "" && e.Namespace != f.Namespace {
		return false
	}
	if f.Category != nil && e.Category != *f.Category {
		return false
	}
	return true
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, e log.Event) {
	// Header line: timestamp [session:id] CATEGORY label
	ts := e.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [session:%s] %-5s %s\n", ts, shortenID(e.SessionID), e.Category, label(e))

	switch {
	case e.Routed != nil:
		formatRoutedDetails(w, e.Routed)
	case e.Transition != nil:
		formatTransitionDetails(w, e.Transition)
	case e.Error != nil:
		formatErrorDetails(w, e.Error)
	}
	if e.Scheme != "" {
		fmt.Fprintf(w, "  Scheme: %s\n", e.Scheme)
	}

	fmt.Fprintln(w)
}

// label names the event for the header line.
func label(e log.Event) string {
	switch {
	case e.EventID != "":
		return e.Namespace + "/" + e.EventID
	case e.Transition != nil:
		return e.Transition.Entity.String()
	case e.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatRoutedDetails(w io.Writer, r *log.RoutedEventData) {
	if r.Detail != "" {
		fmt.Fprintf(w, "  Event: %s\n", r.Detail)
	}
	if r.Ignored {
		fmt.Fprintln(w, "  Ignored")
	}
	if len(r.Actions) > 0 {
		fmt.Fprintf(w, "  Actions: %s\n", strings.Join(r.Actions, ", "))
	}
	if r.Outcome != "" {
		fmt.Fprintf(w, "  Outcome: %s\n", r.Outcome)
	}
}

func formatTransitionDetails(w io.Writer, t *log.TransitionData) {
	if t.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", t.OldState, t.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", t.NewState)
	}
	if t.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", t.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be event, state, or error)", s)
	}
	return c, nil
}

// ParseNamespaceFlag maps a short namespace name to the captured one.
// Full namespace names pass through unchanged.
func ParseNamespaceFlag(s string) string {
	switch strings.ToLower(s) {
	case "wifi":
		return string(event.NamespaceWiFi)
	case "ip":
		return string(event.NamespaceIP)
	case "protocol", "prov":
		return string(event.NamespaceProtocol)
	default:
		return s
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	filter.Namespace = ParseNamespaceFlag(filter.Namespace)
	for {
		e, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if filter.match(e) {
			formatEvent(output, e)
		}
	}
	return nil
}
