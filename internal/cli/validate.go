package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semsearch/semsearch/internal/criteria"
)

// ValidationIssue describes one bracket problem in a criteria file.
type ValidationIssue struct {
	Group   int    `json:"group"`
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Groups int               `json:"groups"`
	Issues []ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <criteria-file>",
		Short: "Validate a criteria file without compiling it",
		Long: `Validate the bracket structure of a JSON criteria file.

Checks every search group for unbalanced opening and closing brackets
without contacting a backend or loading a definition. Rows with no
values are skipped, matching what compilation does.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, criteriaPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	groups, err := readCriteriaFile(criteriaPath)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadCriteria, err.Error())
	}
	formatter.VerboseLog("Loaded %d search group(s) from %s", len(groups), criteriaPath)

	result := &ValidationResult{Valid: true, Groups: len(groups)}
	for i, group := range groups {
		err := criteria.ValidateBrackets(group.Criteria)
		if err == nil {
			continue
		}
		result.Valid = false
		var bracketErr *criteria.BracketError
		if errors.As(err, &bracketErr) {
			result.Issues = append(result.Issues, ValidationIssue{
				Group:   i,
				Row:     bracketErr.Row,
				Code:    string(bracketErr.Code),
				Message: bracketErr.Error(),
			})
			continue
		}
		result.Issues = append(result.Issues, ValidationIssue{
			Group:   i,
			Code:    ErrCodeBrackets,
			Message: err.Error(),
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return WrapExitError(ExitCommandError, "writing output", err)
		}
	} else {
		if result.Valid {
			fmt.Fprintf(formatter.Writer, "Valid: %d group(s) checked\n", result.Groups)
		} else {
			for _, issue := range result.Issues {
				fmt.Fprintf(formatter.Writer, "group %d row %d: %s\n", issue.Group, issue.Row, issue.Message)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "criteria validation failed")
	}
	return nil
}
