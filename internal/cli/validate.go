package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/roster"
)

// Validation error codes.
const (
	ErrCodeSchema = "E_SCHEMA" // roster does not satisfy #Roster or has duplicates
	ErrCodeParse  = "E_PARSE"  // malformed YAML or unknown field
)

// RosterError is one invalid roster file.
type RosterError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool          `json:"valid"`
	Players int           `json:"players"`
	Errors  []RosterError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <roster.yaml>...",
		Short: "Validate roster files",
		Long: `Validate roster files against the roster schema.

Checks roles (S, OH, MB, OPP, L), shirt numbers 0..99, non-empty names,
and that ids and numbers are unique within a file.

Exit codes:
  0 - All rosters valid
  1 - One or more rosters invalid
  2 - Command error (file not found)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result := ValidationResult{Valid: true}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("roster file not found: %s", file), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("roster file not found: %s", file))
		}

		f, err := roster.LoadFile(file)
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, rosterError(file, err))
			continue
		}
		formatter.VerboseLog("%s: %d player(s), team %q", file, len(f.Players), f.Team)
		result.Players += len(f.Players)
	}

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

func rosterError(file string, err error) RosterError {
	var se *roster.SchemaError
	if errors.As(err, &se) {
		return RosterError{File: file, Code: ErrCodeSchema, Path: se.Path, Message: se.Message}
	}
	return RosterError{File: file, Code: ErrCodeParse, Message: err.Error()}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All rosters valid (%d players)\n", result.Players)
	return nil
}

// outputValidationErrors outputs every invalid roster.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.JSON() {
		return formatter.Report(result, &CLIError{Code: errs[0].Code, Message: errs[0].Message})
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintln(formatter.Writer, err.File)
		if err.Path != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Path, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
