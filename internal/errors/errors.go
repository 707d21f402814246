// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package errors provides the user-facing error type of the repolift CLI.
//
// A UserError says what went wrong (Message), why (Cause) and what to do
// about it (Fix), and carries the process exit code:
//
//	err := errors.NewConfigError(
//	    "Missing API key",
//	    "OPENROUTER_API_KEY is not set",
//	    "Export OPENROUTER_API_KEY or add it to .env",
//	    nil,
//	)
//	os.Exit(errors.Report(os.Stderr, err, false, false))
//	// Error: Missing API key
//	// Cause: OPENROUTER_API_KEY is not set
//	// Fix:   Export OPENROUTER_API_KEY or add it to .env
//
// # Exit Codes
//
//   - ExitSuccess (0): run succeeded
//   - ExitConfig (1): configuration invalid or incomplete
//   - ExitClone (2): repository could not be cloned
//   - ExitNetwork (3): model API unreachable or unhealthy
//   - ExitInput (4): invalid arguments or repository URL
//   - ExitGeneration (5): model produced no valid suggestions
//   - ExitNoContent (6): nothing indexable in the repository
//   - ExitInternal (10): bug
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/repolift/pkg/pipeline"
)

// Exit codes.
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitClone      = 2
	ExitNetwork    = 3
	ExitInput      = 4
	ExitGeneration = 5
	ExitNoContent  = 6

	// ExitInternal signals a bug that should be reported.
	ExitInternal = 10
)

// UserError is an error with structured context for end users.
type UserError struct {
	Message  string // what went wrong
	Cause    string // why it happened
	Fix      string // what the user can do
	ExitCode int
	Err      error // underlying error, optional
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: code, Err: err}
}

// NewConfigError reports a missing or invalid setting.
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewCloneError reports a repository that could not be cloned.
func NewCloneError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitClone, msg, cause, fix, err)
}

// NewNetworkError reports an unreachable or failing remote API.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError reports invalid arguments. Input errors carry no
// underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewGenerationError reports a model call that produced nothing usable.
func NewGenerationError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitGeneration, msg, cause, fix, err)
}

// NewNoContentError reports a repository without indexable content.
func NewNoContentError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNoContent, msg, cause, fix, err)
}

// NewInternalError reports a bug.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// FromReport converts a failed run into a UserError. It returns nil for a
// successful run.
func FromReport(r *pipeline.Report) *UserError {
	if r == nil {
		return NewInternalError("No report produced", "The pipeline returned nothing", "This is a bug, please report it", nil)
	}
	if r.OK() {
		return nil
	}
	err := r.Err()
	if err == nil && r.Error != "" {
		err = errors.New(r.Error)
	}

	switch r.ErrorKind {
	case pipeline.KindClone:
		return NewCloneError(
			"Cannot clone repository",
			fmt.Sprintf("git could not clone %s", r.RepoURL),
			"Check that the repository exists, is public and the URL is spelled correctly",
			err,
		)
	case pipeline.KindEmptyContent:
		return NewNoContentError(
			"No content found",
			"None of the configured files (README.md, main.py, requirements.txt by default) exist or contain text",
			"Add a README.md to the repository or extend ingestion.files in .repolift.yaml",
			err,
		)
	case pipeline.KindIndex:
		return NewNoContentError(
			"Cannot index repository content",
			"The embedding backend failed while building the retrieval index",
			"Check the embedding provider settings, or use embedding.provider: hash to index offline",
			err,
		)
	case pipeline.KindSchemaValidation:
		return NewGenerationError(
			"Invalid model output",
			"LLM provided invalid structured output",
			"Try again or choose a model that supports JSON schema output with REPOLIFT_MODEL",
			err,
		)
	case pipeline.KindGeneration:
		return NewGenerationError(
			"Suggestion generation failed",
			"The model did not answer successfully within the retry budget",
			"Run 'repolift health' to check the API, then try again",
			err,
		)
	case pipeline.KindCancelled:
		return NewInternalError("Run cancelled", "The run was interrupted", "", err)
	}
	return NewInternalError("Unexpected pipeline failure", "An unclassified error stopped the run", "This is a bug, please report it", err)
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns the error for terminal display. Empty Cause or Fix lines
// are omitted. Color is disabled by noColor or NO_COLOR.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// ErrorJSON is the --json form of a UserError.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	Detail   string `json:"detail,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the error for JSON output. Detail carries the
// underlying error text.
func (e *UserError) ToJSON() ErrorJSON {
	out := ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
	if e.Err != nil {
		out.Detail = e.Err.Error()
	}
	return out
}

// Report writes err to w and returns the exit code to use. Errors that are
// not UserErrors are reported as internal.
func Report(w io.Writer, err error, jsonOutput, noColor bool) int {
	if err == nil {
		return ExitSuccess
	}
	var ue *UserError
	if !errors.As(err, &ue) {
		ue = NewInternalError("Unexpected error", "", "", err)
		ue.Message = err.Error()
		ue.Err = nil
	}
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(ue.ToJSON())
	} else {
		fmt.Fprint(w, ue.Format(noColor))
	}
	return ue.ExitCode
}
