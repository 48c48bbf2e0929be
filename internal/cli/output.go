package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"ChairReports/internal/domain"
	"ChairReports/internal/usecase"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // at least one report failed
	ExitCommandError = 2 // bad input or unreachable dependencies
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error; plain errors map to ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// printer renders command results as text or JSON.
type printer struct {
	format string
	w      io.Writer
}

func (p printer) print(v any, text func(io.Writer)) error {
	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(p.w)
	return nil
}

func writeRun(w io.Writer, run domain.ReportRun) {
	fmt.Fprintf(w, "run %s: sent=%d skipped=%d errors=%d\n", run.ID, run.Sent, run.Skipped, run.Errors)
	for _, e := range run.Entries {
		writeEntry(w, e)
	}
}

func writeEntry(w io.Writer, e domain.RunEntry) {
	var detail []string
	if e.PeriodID != "" {
		detail = append(detail, "period="+e.PeriodID)
	}
	if e.SkipReason != "" {
		detail = append(detail, "reason="+e.SkipReason)
	}
	if e.Decision == domain.DecisionSent {
		detail = append(detail, fmt.Sprintf("rows=%d", e.Rows), fmt.Sprintf("attempt=%d", e.Attempt))
	}
	if e.Error != "" {
		detail = append(detail, "error="+e.Error)
	}
	fmt.Fprintf(w, "  %-8s %s %s\n", e.Decision, e.ItemID, strings.Join(detail, " "))
}

func writeDispatch(w io.Writer, res usecase.DispatchResult) {
	if res.Skipped {
		fmt.Fprintf(w, "order %s skipped: %s\n", res.OrderID, res.Reason)
		return
	}
	fmt.Fprintf(w, "order %s dispatched: marker=%s\n", res.OrderID, res.Marker)
	for _, e := range res.Items {
		writeEntry(w, e)
	}
}
