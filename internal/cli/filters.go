package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/semsearch/semsearch/internal/store"
)

// FiltersOptions holds flags shared by the filters subcommands.
type FiltersOptions struct {
	*RootOptions
	DB string // sqlite database path
}

// NewFiltersCommand creates the filters command group.
func NewFiltersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FiltersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "filters",
		Short: "Manage saved search filters",
		Long: `Manage saved search filters in a local database.

A saved filter stores the sanitized criteria of a search under a
content-derived identifier, so saving the same criteria twice updates
one record instead of creating a duplicate.`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "semsearch.db", "filters database path")

	cmd.AddCommand(newFiltersSaveCommand(opts))
	cmd.AddCommand(newFiltersListCommand(opts))
	cmd.AddCommand(newFiltersGetCommand(opts))
	cmd.AddCommand(newFiltersDeleteCommand(opts))

	return cmd
}

func newFiltersSaveCommand(opts *FiltersOptions) *cobra.Command {
	var forType string

	cmd := &cobra.Command{
		Use:           "save <title> <criteria-file>",
		Short:         "Save a criteria file as a named filter",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			groups, err := readCriteriaFile(args[1])
			if err != nil {
				return outputCommandError(formatter, ErrCodeBadCriteria, err.Error())
			}

			st, err := store.Open(opts.DB)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}
			defer st.Close()

			filter, err := st.Save(cmd.Context(), args[0], forType, groups)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(filter)
			}
			fmt.Fprintf(formatter.Writer, "Saved %s as %q\n", filter.ID, filter.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&forType, "for-type", "", "object type restriction to record with the filter")

	return cmd
}

func newFiltersListCommand(opts *FiltersOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved filters",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := store.Open(opts.DB)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}
			defer st.Close()

			filters, err := st.List(cmd.Context())
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(filters)
			}
			if len(filters) == 0 {
				fmt.Fprintln(formatter.Writer, "No saved filters")
				return nil
			}
			for _, f := range filters {
				fmt.Fprintf(formatter.Writer, "%s  %s  (updated %s)\n", f.ID, f.Title, f.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newFiltersGetCommand(opts *FiltersOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <id>",
		Short:         "Show a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := store.Open(opts.DB)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}
			defer st.Close()

			filter, err := st.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return outputFilterNotFound(formatter, args[0])
			}
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(filter)
			}
			fmt.Fprintf(formatter.Writer, "%s  %s\n", filter.ID, filter.Title)
			if filter.ForType != "" {
				fmt.Fprintf(formatter.Writer, "For type: %s\n", filter.ForType)
			}
			fmt.Fprintf(formatter.Writer, "Groups: %d\n", len(filter.Criteria))
			return nil
		},
	}
}

func newFiltersDeleteCommand(opts *FiltersOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a saved filter",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(opts.RootOptions, cmd)

			st, err := store.Open(opts.DB)
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}
			defer st.Close()

			err = st.Delete(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return outputFilterNotFound(formatter, args[0])
			}
			if err != nil {
				return outputCommandError(formatter, ErrCodeStore, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(formatter.Writer, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// outputFilterNotFound reports a missing filter and returns ExitFailure.
func outputFilterNotFound(formatter *OutputFormatter, id string) error {
	message := fmt.Sprintf("filter %s not found", id)
	if outErr := formatter.Error(ErrCodeFilterNotFound, message, nil); outErr != nil {
		return WrapExitError(ExitCommandError, "writing error output", outErr)
	}
	return NewExitError(ExitFailure, message)
}
