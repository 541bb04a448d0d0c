package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ConversationLog is the material one scenario run leaves behind for humans:
// every turn, the verdict, and timing.
type ConversationLog struct {
	Name     string
	Phone    string
	Turns    []Turn
	Passed   bool
	Duration time.Duration
}

// LogWriter persists conversation logs, one file per scenario run.
type LogWriter struct {
	dir string
}

// NewLogWriter creates a writer rooted at dir, creating it if needed.
func NewLogWriter(dir string) (*LogWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	return &LogWriter{dir: dir}, nil
}

// Save writes the log and returns the file path. It is called for every
// scenario regardless of outcome, so failures keep their evidence.
func (w *LogWriter) Save(log ConversationLog) (string, error) {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	name := sanitizeName(log.Name)
	path := filepath.Join(w.dir, timestamp+"_"+name+".log")

	var b strings.Builder
	writeHeader(&b, log)
	writeTurns(&b, log)
	writeSummary(&b, log)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write conversation log: %w", err)
	}
	return path, nil
}

const separator = "======================================================================"
const thinSeparator = "----------------------------------------------------------------------"

func writeHeader(b *strings.Builder, log ConversationLog) {
	verdict := "FAILED"
	if log.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(b, "%s\nCONVERSATION LOG\n%s\n", separator, separator)
	fmt.Fprintf(b, "Test Name:   %s\n", log.Name)
	fmt.Fprintf(b, "Phone:       %s\n", log.Phone)
	fmt.Fprintf(b, "Timestamp:   %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(b, "Duration:    %.2fs\n", log.Duration.Seconds())
	fmt.Fprintf(b, "Result:      %s\n%s\n\n", verdict, separator)
}

func writeTurns(b *strings.Builder, log ConversationLog) {
	fmt.Fprintf(b, "CONVERSATION:\n%s\n\n", thinSeparator)
	for i, turn := range log.Turns {
		n := i + 1
		fmt.Fprintf(b, "[Turn %d] USER:\n  %s\n\n", n, turn.UserInput)

		fmt.Fprintf(b, "[Turn %d] AGENT:\n", n)
		if turn.Reply != nil {
			for _, line := range strings.Split(turn.Reply.Text, "\n") {
				fmt.Fprintf(b, "  %s\n", line)
			}
			if turn.Reply.Type != "text" {
				fmt.Fprintf(b, "\n  [Message Type: %s]\n", turn.Reply.Type)
			}
			if len(turn.Reply.Choices) > 0 {
				fmt.Fprintf(b, "  [Choices: %s]\n", strings.Join(turn.Reply.Choices, ", "))
			}
			if len(turn.Reply.Sections) > 0 {
				sections, _ := json.Marshal(turn.Reply.Sections)
				fmt.Fprintf(b, "  [Sections: %s]\n", sections)
			}
		} else {
			b.WriteString("  [NO RESPONSE RECEIVED]\n")
		}
		b.WriteString("\n")

		status := "FAILED"
		if turn.Passed {
			status = "PASSED"
		}
		fmt.Fprintf(b, "[Turn %d] VALIDATION: %s\n", n, status)
		if len(turn.Errors) > 0 {
			b.WriteString("  Errors:\n")
			for _, e := range turn.Errors {
				fmt.Fprintf(b, "    - %s\n", e)
			}
		}
		fmt.Fprintf(b, "\n%s\n\n", thinSeparator)
	}
}

func writeSummary(b *strings.Builder, log ConversationLog) {
	passed := 0
	for _, t := range log.Turns {
		if t.Passed {
			passed++
		}
	}
	verdict := "FAILED"
	if log.Passed {
		verdict = "PASSED"
	}
	fmt.Fprintf(b, "SUMMARY:\n%s\n", separator)
	fmt.Fprintf(b, "Total Turns:  %d\n", len(log.Turns))
	fmt.Fprintf(b, "Passed:       %d\n", passed)
	fmt.Fprintf(b, "Failed:       %d\n", len(log.Turns)-passed)
	if len(log.Turns) > 0 {
		fmt.Fprintf(b, "Pass Rate:    %.1f%%\n", float64(passed)/float64(len(log.Turns))*100)
	} else {
		b.WriteString("Pass Rate:    N/A\n")
	}
	fmt.Fprintf(b, "Final Result: %s\n%s\n", verdict, separator)
}

// sanitizeName turns a scenario display name into a safe filename chunk.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	for strings.Contains(out, "__") {
		out = strings.ReplaceAll(out, "__", "_")
	}
	return strings.Trim(out, "_")
}
